// Package complaints runs an uploaded recording through transcription,
// classification and extraction, then records the outcome.
package complaints

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/yegors/complaint-desk/internal/extraction"
	"github.com/yegors/complaint-desk/internal/storage/sqlite"
	"github.com/yegors/complaint-desk/pkg/logger"
)

// ConfirmationMessage is reported once a complaint has been persisted
const ConfirmationMessage = "Complaint logged successfully!"

// Stage is the last state a complaint reached
type Stage string

// Processing stages in order
const (
	StageUploaded    Stage = "uploaded"
	StageTranscribed Stage = "transcribed"
	StageClassified  Stage = "classified"
	StageExtracted   Stage = "extracted"
	StagePersisted   Stage = "persisted"
)

// Transcriber turns a stored upload into text
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// Classifier assigns a complaint category
type Classifier interface {
	Classify(ctx context.Context, text string) (string, error)
}

// Extractor pulls location and urgency out of the text
type Extractor interface {
	Extract(ctx context.Context, text string) (extraction.Details, error)
}

// Store persists complaint records
type Store interface {
	StoreComplaint(ctx context.Context, record *sqlite.ComplaintRecord) (int64, error)
}

// Upload describes an audio file already written to disk
type Upload struct {
	Path     string
	Filename string
	Digest   string
	Size     int64
	Duration time.Duration // playback length when the container header states it
}

// Result is the outcome of processing one upload
type Result struct {
	Record          *sqlite.ComplaintRecord `json:"record"`
	Stage           Stage                   `json:"stage"`
	DisplayLocation string                  `json:"display_location"`
	Confirmation    string                  `json:"confirmation,omitempty"`
	AudioDigest     string                  `json:"audio_digest,omitempty"`
	Duration        time.Duration           `json:"duration_ns"`
}

// StageError reports the stage that was reached before a step failed
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("complaint failed after %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// FailedStage returns the stage reached by a failed Process call
func FailedStage(err error) (Stage, bool) {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Stage, true
	}
	return "", false
}

// Pipeline processes complaints one at a time
type Pipeline struct {
	transcriber Transcriber
	classifier  Classifier
	extractor   Extractor
	store       Store
	logger      *logger.Logger

	mu sync.Mutex
}

// NewPipeline creates a new complaint pipeline
func NewPipeline(transcriber Transcriber, classifier Classifier, extractor Extractor, store Store, logger *logger.Logger) *Pipeline {
	return &Pipeline{
		transcriber: transcriber,
		classifier:  classifier,
		extractor:   extractor,
		store:       store,
		logger:      logger.Named("pipeline"),
	}
}

// Process transcribes, classifies and extracts details from an upload and
// stores the result. Nothing is written unless all three steps succeed.
func (p *Pipeline) Process(ctx context.Context, upload Upload) (*Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := time.Now()
	log := p.logger.With(logger.String("file", upload.Filename))
	if upload.Digest != "" {
		log = log.With(logger.String("digest", upload.Digest))
	}
	if upload.Duration > 0 {
		log = log.With(logger.Duration("playback", upload.Duration))
	}

	fail := func(stage Stage, err error) (*Result, error) {
		log.Error("Complaint processing failed",
			logger.String("stage", string(stage)),
			logger.Error(err))
		return nil, &StageError{Stage: stage, Err: err}
	}

	text, err := p.transcriber.Transcribe(ctx, upload.Path)
	if err != nil {
		return fail(StageUploaded, fmt.Errorf("transcription: %w", err))
	}
	log.Debug("Transcribed complaint", logger.Int("chars", len(text)))

	category, err := p.classifier.Classify(ctx, text)
	if err != nil {
		return fail(StageTranscribed, fmt.Errorf("classification: %w", err))
	}

	details, err := p.extractor.Extract(ctx, text)
	if err != nil {
		return fail(StageClassified, fmt.Errorf("extraction: %w", err))
	}

	record := &sqlite.ComplaintRecord{
		Complaint:   text,
		Category:    category,
		Location:    details.Location,
		HasLocation: details.HasLocation,
		Urgency:     details.Urgency,
	}

	if _, err := p.store.StoreComplaint(ctx, record); err != nil {
		return fail(StageExtracted, fmt.Errorf("persistence: %w", err))
	}

	result := &Result{
		Record:          record,
		Stage:           StagePersisted,
		DisplayLocation: details.DisplayLocation(),
		Confirmation:    ConfirmationMessage,
		AudioDigest:     upload.Digest,
		Duration:        time.Since(start),
	}

	log.Info("Complaint logged",
		logger.Int64("id", record.ID),
		logger.String("category", record.Category),
		logger.String("location", result.DisplayLocation),
		logger.String("urgency", record.Urgency),
		logger.Duration("took", result.Duration))

	return result, nil
}
