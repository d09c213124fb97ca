package audio

import (
	"fmt"
	"mime"
	"strconv"
	"strings"
)

const mimeTypePrefix = "audio/"

var formatMimeSubtypes = map[encodingFormat]string{
	EncodingLinear16: "pcm",
	EncodingMulaw:    "basic",
	EncodingALaw:     "x-alaw-basic",
}

// IsAudioMimeType reports whether mimeType names an audio payload.
func IsAudioMimeType(mimeType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mimeType)), mimeTypePrefix)
}

// MimeType renders the encoding the way the live backend expects it,
// e.g. "audio/pcm;rate=16000".
func (e EncodingInfo) MimeType() string {
	subtype, ok := formatMimeSubtypes[e.Format]
	if !ok {
		subtype = "pcm"
	}
	if e.SampleRate <= 0 {
		return mimeTypePrefix + subtype
	}
	return mimeTypePrefix + subtype + ";rate=" + strconv.Itoa(e.SampleRate)
}

// ParseMimeType recovers the encoding from an audio mime type. A missing
// rate parameter falls back to the given default sample rate.
func ParseMimeType(mimeType string, defaultSampleRate int) (EncodingInfo, error) {
	mediaType, params, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return EncodingInfo{}, fmt.Errorf("invalid mime type %q: %w", mimeType, err)
	}
	if !strings.HasPrefix(mediaType, mimeTypePrefix) {
		return EncodingInfo{}, fmt.Errorf("not an audio mime type: %q", mimeType)
	}

	info := EncodingInfo{SampleRate: defaultSampleRate, Format: EncodingLinear16}
	subtype := strings.TrimPrefix(mediaType, mimeTypePrefix)
	for format, name := range formatMimeSubtypes {
		if name == subtype {
			info.Format = format
			break
		}
	}

	if rate, ok := params["rate"]; ok {
		sampleRate, err := strconv.Atoi(rate)
		if err != nil || sampleRate <= 0 {
			return EncodingInfo{}, fmt.Errorf("invalid sample rate in mime type %q", mimeType)
		}
		info.SampleRate = sampleRate
	}

	return info, nil
}
