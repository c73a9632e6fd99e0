package transcription

import "context"

// Transcriber turns an audio file on disk into text
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// Ensure the service implements the interface
var _ Transcriber = (*Service)(nil)
