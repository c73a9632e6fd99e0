// Package extraction pulls a location and an urgency level out of a
// complaint transcript.
package extraction

import (
	"context"
	"fmt"
	"strings"

	"github.com/yegors/complaint-desk/internal/nlp"
	"github.com/yegors/complaint-desk/pkg/logger"
)

// Urgency levels
const (
	UrgencyNormal = "Normal"
	UrgencyHigh   = "High"
)

// NotDetected is shown when no location was found
const NotDetected = "Not detected"

// UrgencyKeywords escalate a complaint when found anywhere in the text
var UrgencyKeywords = []string{"urgent", "immediately", "critical", "high priority", "emergency"}

// LocationLabels are the entity types treated as a place
var LocationLabels = []string{"GPE", "LOC"}

// Details is the extraction result for one transcript
type Details struct {
	Location    string `json:"location,omitempty"`
	HasLocation bool   `json:"has_location"`
	Urgency     string `json:"urgency"`
}

// DisplayLocation returns the location or the NotDetected placeholder
func (d Details) DisplayLocation() string {
	if !d.HasLocation {
		return NotDetected
	}
	return d.Location
}

// Extractor combines a named-entity recognizer with the urgency keyword scan
type Extractor struct {
	recognizer nlp.EntityRecognizer
	logger     *logger.Logger
}

// NewExtractor creates a new extractor
func NewExtractor(recognizer nlp.EntityRecognizer, logger *logger.Logger) *Extractor {
	return &Extractor{
		recognizer: recognizer,
		logger:     logger.Named("extractor"),
	}
}

// Extract returns the first location entity and the urgency level of text
func (e *Extractor) Extract(ctx context.Context, text string) (Details, error) {
	details := Details{Urgency: DetectUrgency(text)}

	entities, err := e.recognizer.Recognize(ctx, text)
	if err != nil {
		return Details{}, fmt.Errorf("failed to recognize entities: %w", err)
	}

	if location, ok := FirstLocation(entities); ok {
		details.Location = location
		details.HasLocation = true
	}

	e.logger.Debug("Extracted details",
		logger.Int("entities", len(entities)),
		logger.String("location", details.DisplayLocation()),
		logger.String("urgency", details.Urgency))

	return details, nil
}

// DetectUrgency returns High if any urgency keyword appears in text,
// ignoring case; otherwise Normal
func DetectUrgency(text string) string {
	lower := strings.ToLower(text)
	for _, keyword := range UrgencyKeywords {
		if strings.Contains(lower, keyword) {
			return UrgencyHigh
		}
	}
	return UrgencyNormal
}

// FirstLocation returns the text of the first entity labelled as a place.
// BIO prefixes such as "B-LOC" are ignored.
func FirstLocation(entities []nlp.Entity) (string, bool) {
	for _, entity := range entities {
		if !isLocationLabel(entity.Label) {
			continue
		}
		if text := strings.TrimSpace(entity.Text); text != "" {
			return text, true
		}
	}
	return "", false
}

func isLocationLabel(label string) bool {
	label = strings.ToUpper(label)
	if len(label) > 2 && (strings.HasPrefix(label, "B-") || strings.HasPrefix(label, "I-")) {
		label = label[2:]
	}
	for _, candidate := range LocationLabels {
		if label == candidate {
			return true
		}
	}
	return false
}
