package transcription

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/yegors/complaint-desk/internal/nlp"
	"github.com/yegors/complaint-desk/pkg/logger"
)

// Service transcribes audio files with a speech-to-text backend
type Service struct {
	backend nlp.SpeechToText
	logger  *logger.Logger
}

// NewService creates a new transcription service
func NewService(backend nlp.SpeechToText, logger *logger.Logger) *Service {
	return &Service{
		backend: backend,
		logger:  logger.Named("transcription"),
	}
}

// Transcribe returns the full-text transcription of the file at path.
// An empty string is a valid result for silent audio.
func (s *Service) Transcribe(ctx context.Context, path string) (string, error) {
	result, err := s.TranscribeFile(ctx, path)
	if err != nil {
		return "", err
	}
	return result.Text, nil
}

// TranscribeFile is Transcribe with file metadata
func (s *Service) TranscribeFile(ctx context.Context, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat audio file: %w", err)
	}

	start := time.Now()
	text, err := s.backend.Transcribe(ctx, f, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("failed to transcribe %s: %w", filepath.Base(path), err)
	}

	result := &Result{
		Path:     path,
		Text:     strings.TrimSpace(text),
		Bytes:    info.Size(),
		Duration: time.Since(start),
	}

	s.logger.Info("Transcribed audio",
		logger.String("file", filepath.Base(path)),
		logger.String("size", humanize.Bytes(uint64(result.Bytes))),
		logger.Int("characters", len(result.Text)),
		logger.Duration("duration", result.Duration))

	return result, nil
}
