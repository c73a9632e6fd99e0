package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/yegors/complaint-desk/internal/audio"
	"github.com/yegors/complaint-desk/internal/nlp"
)

// SpeechRecognizer runs an automatic-speech-recognition model
type SpeechRecognizer struct {
	client *Client
	model  string
}

// SpeechToText returns an nlp.SpeechToText backed by the given model
func (c *Client) SpeechToText(model string) *SpeechRecognizer {
	return &SpeechRecognizer{client: c, model: model}
}

var _ nlp.SpeechToText = (*SpeechRecognizer)(nil)

// Transcribe uploads the raw audio and returns the recognized text
func (s *SpeechRecognizer) Transcribe(ctx context.Context, r io.Reader, filename string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read audio: %w", err)
	}

	body, err := s.client.post(ctx, s.model, audio.ContentTypeFor(filename), data)
	if err != nil {
		return "", fmt.Errorf("speech recognition failed: %w", err)
	}

	text := gjson.GetBytes(body, "text")
	if !text.Exists() {
		text = gjson.GetBytes(body, "0.text")
	}
	if !text.Exists() {
		return "", fmt.Errorf("speech recognition response has no text: %.200s", string(body))
	}
	return text.String(), nil
}

// ZeroShot runs a zero-shot classification model
type ZeroShot struct {
	client *Client
	model  string
}

// ZeroShotClassifier returns an nlp.ZeroShotClassifier backed by the given model
func (c *Client) ZeroShotClassifier(model string) *ZeroShot {
	return &ZeroShot{client: c, model: model}
}

var _ nlp.ZeroShotClassifier = (*ZeroShot)(nil)

type zeroShotRequest struct {
	Inputs     string             `json:"inputs"`
	Parameters zeroShotParameters `json:"parameters"`
}

type zeroShotParameters struct {
	CandidateLabels []string `json:"candidate_labels"`
	MultiLabel      bool     `json:"multi_label"`
}

// Rank returns the candidate labels ordered as the model ranked them
func (z *ZeroShot) Rank(ctx context.Context, text string, labels []string) ([]nlp.LabelScore, error) {
	payload, err := json.Marshal(zeroShotRequest{
		Inputs:     text,
		Parameters: zeroShotParameters{CandidateLabels: labels},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	body, err := z.client.post(ctx, z.model, "application/json", payload)
	if err != nil {
		return nil, fmt.Errorf("zero-shot classification failed: %w", err)
	}

	ranked := parseZeroShot(gjson.ParseBytes(body))
	if len(ranked) == 0 {
		return nil, fmt.Errorf("zero-shot response has no labels: %.200s", string(body))
	}
	return ranked, nil
}

// parseZeroShot accepts both the {"labels":[],"scores":[]} shape and a
// list of {"label","score"} objects
func parseZeroShot(result gjson.Result) []nlp.LabelScore {
	result = unwrapNested(result)

	var ranked []nlp.LabelScore
	if labels := result.Get("labels"); labels.IsArray() {
		scores := result.Get("scores").Array()
		for i, label := range labels.Array() {
			entry := nlp.LabelScore{Label: label.String()}
			if i < len(scores) {
				entry.Score = scores[i].Float()
			}
			ranked = append(ranked, entry)
		}
		return ranked
	}

	if result.IsArray() {
		result.ForEach(func(_, item gjson.Result) bool {
			if label := item.Get("label"); label.Exists() {
				ranked = append(ranked, nlp.LabelScore{
					Label: label.String(),
					Score: item.Get("score").Float(),
				})
			}
			return true
		})
	}
	return ranked
}

// TokenClassifier runs a named-entity-recognition model
type TokenClassifier struct {
	client *Client
	model  string
}

// EntityRecognizer returns an nlp.EntityRecognizer backed by the given model
func (c *Client) EntityRecognizer(model string) *TokenClassifier {
	return &TokenClassifier{client: c, model: model}
}

var _ nlp.EntityRecognizer = (*TokenClassifier)(nil)

type tokenRequest struct {
	Inputs     string          `json:"inputs"`
	Parameters tokenParameters `json:"parameters"`
}

type tokenParameters struct {
	AggregationStrategy string `json:"aggregation_strategy"`
}

// Recognize returns entity spans in model order
func (t *TokenClassifier) Recognize(ctx context.Context, text string) ([]nlp.Entity, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	payload, err := json.Marshal(tokenRequest{
		Inputs:     text,
		Parameters: tokenParameters{AggregationStrategy: "simple"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	body, err := t.client.post(ctx, t.model, "application/json", payload)
	if err != nil {
		return nil, fmt.Errorf("entity recognition failed: %w", err)
	}

	return parseEntities(gjson.ParseBytes(body), text), nil
}

// parseEntities reads aggregated ("entity_group") or raw ("entity") token output
func parseEntities(result gjson.Result, text string) []nlp.Entity {
	result = unwrapNested(result)
	runes := []rune(text)

	var entities []nlp.Entity
	result.ForEach(func(_, item gjson.Result) bool {
		label := item.Get("entity_group")
		if !label.Exists() {
			label = item.Get("entity")
		}
		if !label.Exists() {
			return true
		}

		entity := nlp.Entity{
			Label: label.String(),
			Text:  strings.TrimSpace(item.Get("word").String()),
			Start: int(item.Get("start").Int()),
			End:   int(item.Get("end").Int()),
			Score: item.Get("score").Float(),
		}
		// Offsets are character positions; prefer the source text over word pieces
		if entity.End > entity.Start && entity.End <= len(runes) {
			entity.Text = string(runes[entity.Start:entity.End])
		}
		entities = append(entities, entity)
		return true
	})
	return entities
}
