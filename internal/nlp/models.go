// Package nlp declares the contracts the complaint pipeline needs from
// pre-trained models. Backends live in internal/inference and internal/llm.
package nlp

import (
	"context"
	"io"
)

// SpeechToText turns an audio stream into plain text
type SpeechToText interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}

// ZeroShotClassifier ranks candidate labels for a text, best first
type ZeroShotClassifier interface {
	Rank(ctx context.Context, text string, labels []string) ([]LabelScore, error)
}

// EntityRecognizer returns named entity spans in the order the model produced them
type EntityRecognizer interface {
	Recognize(ctx context.Context, text string) ([]Entity, error)
}

// LabelScore is one entry of a ranked label list
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Entity is a recognized span of text
type Entity struct {
	Text  string  `json:"text"`
	Label string  `json:"label"` // e.g. GPE, LOC, PER, ORG
	Start int     `json:"start"`
	End   int     `json:"end"`
	Score float64 `json:"score,omitempty"`
}
