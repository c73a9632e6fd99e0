package main

import (
	"fmt"
	"time"

	"github.com/yegors/complaint-desk/internal/config"
	"github.com/yegors/complaint-desk/internal/inference"
	"github.com/yegors/complaint-desk/internal/llm"
	"github.com/yegors/complaint-desk/internal/nlp"
	"github.com/yegors/complaint-desk/pkg/logger"
)

// modelSet holds the three model adapters, built once at startup
type modelSet struct {
	speech   nlp.SpeechToText
	zeroShot nlp.ZeroShotClassifier
	entities nlp.EntityRecognizer
}

func buildModels(cfg *config.Config, log *logger.Logger) (*modelSet, error) {
	var set modelSet

	switch m := cfg.Transcription; m.Provider {
	case config.ProviderOpenAI:
		set.speech = openAIClient(cfg, m, log).SpeechToText(m.Model, m.Language)
	case config.ProviderHuggingFace:
		set.speech = huggingFaceClient(cfg, m, log).SpeechToText(m.Model)
	default:
		return nil, fmt.Errorf("unknown transcription provider: %s", m.Provider)
	}

	switch m := cfg.Classification; m.Provider {
	case config.ProviderOpenAI:
		set.zeroShot = openAIClient(cfg, m, log).ZeroShotClassifier(m.Model)
	case config.ProviderHuggingFace:
		set.zeroShot = huggingFaceClient(cfg, m, log).ZeroShotClassifier(m.Model)
	default:
		return nil, fmt.Errorf("unknown classification provider: %s", m.Provider)
	}

	switch m := cfg.Entities; m.Provider {
	case config.ProviderOpenAI:
		set.entities = openAIClient(cfg, m, log).EntityRecognizer(m.Model)
	case config.ProviderHuggingFace:
		set.entities = huggingFaceClient(cfg, m, log).EntityRecognizer(m.Model)
	default:
		return nil, fmt.Errorf("unknown entities provider: %s", m.Provider)
	}

	return &set, nil
}

func openAIClient(cfg *config.Config, m config.ModelConfig, log *logger.Logger) *llm.OpenAIClient {
	return llm.NewOpenAIClient(llm.Config{
		APIKey:     cfg.OpenAI.APIKey,
		BaseURL:    cfg.OpenAI.BaseURL,
		Timeout:    time.Duration(m.TimeoutSeconds) * time.Second,
		MaxRetries: m.MaxRetries,
	}, log)
}

func huggingFaceClient(cfg *config.Config, m config.ModelConfig, log *logger.Logger) *inference.Client {
	return inference.NewClient(inference.Config{
		BaseURL:    cfg.HuggingFace.BaseURL,
		APIToken:   cfg.HuggingFace.APIToken,
		Timeout:    time.Duration(m.TimeoutSeconds) * time.Second,
		MaxRetries: m.MaxRetries,
	}, log)
}
