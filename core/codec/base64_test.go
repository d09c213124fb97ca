package codec

import (
	"bytes"
	"errors"
	"testing"
)

func TestDecodeBase64Variants(t *testing.T) {
	expected := []byte{0xfb, 0xff, 0xfe}
	testCases := []struct {
		name  string
		input string
	}{
		{name: "standard", input: "+//+"},
		{name: "url safe", input: "-__-"},
		{name: "with whitespace", input: "+//\n+"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			got, err := DecodeBase64(testCase.input)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !bytes.Equal(got, expected) {
				t.Fatalf("expected %v, got %v", expected, got)
			}
		})
	}
}

func TestDecodeBase64Padding(t *testing.T) {
	for _, input := range []string{"AQI=", "AQI"} {
		got, err := DecodeBase64(input)
		if err != nil {
			t.Fatalf("expected no error for %q, got %v", input, err)
		}
		if !bytes.Equal(got, []byte{1, 2}) {
			t.Fatalf("expected [1 2] for %q, got %v", input, got)
		}
	}
}

func TestDecodeBase64Empty(t *testing.T) {
	got, err := DecodeBase64("")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty buffer, got %v", got)
	}
}

func TestDecodeBase64Malformed(t *testing.T) {
	_, err := DecodeBase64("!!!")
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
}

func TestEncodeBase64(t *testing.T) {
	if got := EncodeBase64([]byte{0, 0, 0}); got != "AAAA" {
		t.Fatalf("expected %q, got %q", "AAAA", got)
	}
}
