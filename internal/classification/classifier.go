// Package classification assigns a complaint transcript to one of a fixed
// set of categories using a zero-shot model.
package classification

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yegors/complaint-desk/internal/nlp"
	"github.com/yegors/complaint-desk/pkg/logger"
)

// Complaint categories
const (
	CategoryFlightDelay  = "Flight Delay"
	CategoryBaggageIssue = "Baggage Issue"
	CategoryImmigration  = "Immigration"
	CategorySecurity     = "Security"
	CategoryOther        = "Other"
)

// Categories is the ordered candidate label set sent to the model
var Categories = []string{
	CategoryFlightDelay,
	CategoryBaggageIssue,
	CategoryImmigration,
	CategorySecurity,
	CategoryOther,
}

// ErrEmptyText is returned when there is nothing to classify
var ErrEmptyText = errors.New("cannot classify empty text")

// Classifier picks the top-ranked category for a text
type Classifier struct {
	model  nlp.ZeroShotClassifier
	logger *logger.Logger
}

// NewClassifier creates a new classifier
func NewClassifier(model nlp.ZeroShotClassifier, logger *logger.Logger) *Classifier {
	return &Classifier{
		model:  model,
		logger: logger.Named("classifier"),
	}
}

// Classify returns the highest-ranked category. Only members of Categories
// are ever returned; a ranking with no member falls back to Other.
func (c *Classifier) Classify(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}

	ranked, err := c.model.Rank(ctx, text, Categories)
	if err != nil {
		return "", fmt.Errorf("failed to rank categories: %w", err)
	}

	for _, entry := range ranked {
		if category, ok := Canonical(entry.Label); ok {
			c.logger.Debug("Classified complaint",
				logger.String("category", category),
				logger.Float64("score", entry.Score))
			return category, nil
		}
		c.logger.Warn("Ignoring label outside the category set", logger.String("label", entry.Label))
	}

	c.logger.Warn("No known category in ranking, falling back", logger.Int("ranked", len(ranked)))
	return CategoryOther, nil
}

// Canonical maps a label to its canonical category spelling, ignoring case
// and surrounding or repeated whitespace
func Canonical(label string) (string, bool) {
	normalized := strings.Join(strings.Fields(label), " ")
	for _, category := range Categories {
		if strings.EqualFold(normalized, category) {
			return category, true
		}
	}
	return "", false
}
