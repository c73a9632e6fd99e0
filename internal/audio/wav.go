package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"
)

// wavHeaderSize is the size of a canonical PCM WAV header
const wavHeaderSize = 44

// WAVHeader is the canonical RIFF/WAVE header
type WAVHeader struct {
	// RIFF chunk descriptor
	ChunkID   [4]byte // "RIFF"
	ChunkSize uint32
	Format    [4]byte // "WAVE"

	// "fmt " sub-chunk
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32
	AudioFormat   uint16 // 1 for PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16

	// "data" sub-chunk
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32
}

// ParseWAVHeader decodes the leading 44 bytes of a WAV file
func ParseWAVHeader(data []byte) (*WAVHeader, error) {
	if len(data) < wavHeaderSize {
		return nil, fmt.Errorf("wav header too short: %d bytes", len(data))
	}

	var h WAVHeader
	if err := binary.Read(bytes.NewReader(data[:wavHeaderSize]), binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("failed to decode wav header: %w", err)
	}
	if string(h.ChunkID[:]) != "RIFF" || string(h.Format[:]) != "WAVE" {
		return nil, fmt.Errorf("not a RIFF/WAVE stream")
	}
	if string(h.Subchunk1ID[:]) != "fmt " {
		return nil, fmt.Errorf("missing fmt chunk")
	}
	return &h, nil
}

// Duration estimates the playback length from the data chunk size
func (h *WAVHeader) Duration() time.Duration {
	if h.ByteRate == 0 || string(h.Subchunk2ID[:]) != "data" {
		return 0
	}
	return time.Duration(float64(h.Subchunk2Size) / float64(h.ByteRate) * float64(time.Second))
}
