// Package llm adapts OpenAI models to the nlp contracts: Whisper for speech,
// chat completions for zero-shot ranking and entity extraction.
package llm

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/yegors/complaint-desk/internal/audio"
	"github.com/yegors/complaint-desk/internal/nlp"
	"github.com/yegors/complaint-desk/pkg/logger"
)

// Config configures the OpenAI client
type Config struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

// OpenAIClient wraps the OpenAI SDK client
type OpenAIClient struct {
	client openai.Client
	logger *logger.Logger
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(config Config, logger *logger.Logger) *OpenAIClient {
	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithMaxRetries(config.MaxRetries),
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}
	if config.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(config.Timeout))
	}

	return &OpenAIClient{
		client: openai.NewClient(opts...),
		logger: logger.Named("openai-client"),
	}
}

// complete runs a single-turn chat completion and returns the message content
func (c *OpenAIClient) complete(ctx context.Context, model, systemPrompt, userInput string) (string, error) {
	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userInput),
		},
		Temperature: openai.Float(0),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	c.logger.Debug("Chat completion finished",
		logger.String("model", model),
		logger.Duration("duration", time.Since(start)),
		logger.Int64("total_tokens", resp.Usage.TotalTokens))

	return resp.Choices[0].Message.Content, nil
}

// WhisperTranscriber transcribes audio with an OpenAI speech model
type WhisperTranscriber struct {
	client   *OpenAIClient
	model    string
	language string
}

// SpeechToText returns an nlp.SpeechToText backed by the given model
func (c *OpenAIClient) SpeechToText(model, language string) *WhisperTranscriber {
	return &WhisperTranscriber{client: c, model: model, language: language}
}

var _ nlp.SpeechToText = (*WhisperTranscriber)(nil)

// namedReader tells the SDK's multipart encoder the upload's file name and type
type namedReader struct {
	io.Reader
	filename    string
	contentType string
}

func (n namedReader) Filename() string    { return n.filename }
func (n namedReader) ContentType() string { return n.contentType }

// Transcribe sends the audio to the transcription endpoint
func (w *WhisperTranscriber) Transcribe(ctx context.Context, r io.Reader, filename string) (string, error) {
	params := openai.AudioTranscriptionNewParams{
		File:  namedReader{Reader: r, filename: filename, contentType: audio.ContentTypeFor(filename)},
		Model: openai.AudioModel(w.model),
	}
	if w.language != "" {
		params.Language = openai.String(w.language)
	}

	resp, err := w.client.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to transcribe audio: %w", err)
	}
	return resp.Text, nil
}

// ChatRanker ranks labels with a chat model acting as a zero-shot classifier
type ChatRanker struct {
	client *OpenAIClient
	model  string
}

// ZeroShotClassifier returns an nlp.ZeroShotClassifier backed by the given chat model
func (c *OpenAIClient) ZeroShotClassifier(model string) *ChatRanker {
	return &ChatRanker{client: c, model: model}
}

var _ nlp.ZeroShotClassifier = (*ChatRanker)(nil)

// Rank asks the model to score every candidate label
func (r *ChatRanker) Rank(ctx context.Context, text string, labels []string) ([]nlp.LabelScore, error) {
	content, err := r.client.complete(ctx, r.model, rankPrompt, rankInput(text, labels))
	if err != nil {
		return nil, fmt.Errorf("zero-shot ranking failed: %w", err)
	}

	raw := extractJSON(content)
	if raw == "" {
		return nil, fmt.Errorf("no JSON object in ranking output: %.200s", content)
	}

	ranked := parseRanking(raw)
	if len(ranked) == 0 {
		return nil, fmt.Errorf("ranking output has no labels: %.200s", raw)
	}
	return ranked, nil
}

// ChatRecognizer extracts named entities with a chat model
type ChatRecognizer struct {
	client *OpenAIClient
	model  string
}

// EntityRecognizer returns an nlp.EntityRecognizer backed by the given chat model
func (c *OpenAIClient) EntityRecognizer(model string) *ChatRecognizer {
	return &ChatRecognizer{client: c, model: model}
}

var _ nlp.EntityRecognizer = (*ChatRecognizer)(nil)

// Recognize returns entities in order of appearance
func (r *ChatRecognizer) Recognize(ctx context.Context, text string) ([]nlp.Entity, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	content, err := r.client.complete(ctx, r.model, entityPrompt, text)
	if err != nil {
		return nil, fmt.Errorf("entity recognition failed: %w", err)
	}

	raw := extractJSON(content)
	if raw == "" {
		return nil, fmt.Errorf("no JSON object in entity output: %.200s", content)
	}
	return parseEntities(raw, text), nil
}
