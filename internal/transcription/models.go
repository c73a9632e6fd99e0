package transcription

import "time"

// Result describes one finished transcription
type Result struct {
	Path     string
	Text     string
	Bytes    int64
	Duration time.Duration
}
