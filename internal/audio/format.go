// Package audio validates uploaded audio at the upload boundary.
package audio

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
)

// Container formats recognized at the upload boundary
const (
	FormatMP3 = "mp3"
	FormatWAV = "wav"
)

// SniffLen is how many leading bytes DetectFormat needs
const SniffLen = 64

// ErrUnsupportedFormat is returned for uploads outside the accepted formats
var ErrUnsupportedFormat = errors.New("unsupported audio format")

var contentTypes = map[string]string{
	FormatMP3: "audio/mpeg",
	FormatWAV: "audio/wav",
}

// DetectFormat identifies the container from the leading bytes of a file.
// It returns "" when the content is not recognized.
func DetectFormat(head []byte) string {
	switch {
	case bytes.HasPrefix(head, []byte("ID3")):
		return FormatMP3
	case isMPEGFrameSync(head):
		return FormatMP3
	case len(head) >= 12 && string(head[0:4]) == "RIFF" && string(head[8:12]) == "WAVE":
		return FormatWAV
	}
	return ""
}

// isMPEGFrameSync matches an MPEG audio frame header with a valid layer
func isMPEGFrameSync(head []byte) bool {
	if len(head) < 2 {
		return false
	}
	return head[0] == 0xFF && head[1]&0xE0 == 0xE0 && head[1]&0x06 != 0
}

// ExtensionFormat returns the lower-cased extension of filename without the dot
func ExtensionFormat(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

// ContentTypeFor maps a filename to the MIME type sent to model backends
func ContentTypeFor(filename string) string {
	if ct, ok := contentTypes[ExtensionFormat(filename)]; ok {
		return ct
	}
	return "application/octet-stream"
}

// Accept checks that both the declared extension and the sniffed content
// match one of the accepted formats.
func Accept(filename string, head []byte, accepted []string) (string, error) {
	ext := ExtensionFormat(filename)
	if !contains(accepted, ext) {
		return "", ErrUnsupportedFormat
	}
	if DetectFormat(head) != ext {
		return "", ErrUnsupportedFormat
	}
	return ext, nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
