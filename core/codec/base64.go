package codec

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// EncodeBase64 encodes data with the standard padded alphabet.
func EncodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeBase64 decodes standard or URL-safe base64, padded or not.
// Embedded whitespace is ignored.
func DecodeBase64(value string) ([]byte, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, value)
	if cleaned == "" {
		return []byte{}, nil
	}

	encoding := base64.RawStdEncoding
	if strings.ContainsAny(cleaned, "-_") {
		encoding = base64.RawURLEncoding
	}
	data, err := encoding.DecodeString(strings.TrimRight(cleaned, "="))
	if err != nil {
		return nil, &DecodeError{Op: "base64", Err: fmt.Errorf("malformed input: %w", err)}
	}
	return data, nil
}
