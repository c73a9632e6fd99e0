package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/yegors/complaint-desk/pkg/logger"
)

func chatResponse(content string) string {
	body, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
		"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
	})
	return string(body)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenAIClient(Config{
		APIKey:  "sk-test",
		BaseURL: srv.URL + "/v1/",
		Timeout: 5 * time.Second,
	}, logger.NewNop())
}

func TestChatRankerOrdersByScore(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, chatResponse("```json\n{\"labels\":[\"Other\",\"Flight Delay\"],\"scores\":[0.2,0.8]}\n```"))
	})

	ranked, err := client.ZeroShotClassifier("gpt-4o-mini").
		Rank(context.Background(), "My flight was delayed", []string{"Flight Delay", "Other"})
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(ranked) != 2 || ranked[0].Label != "Flight Delay" {
		t.Errorf("ranked = %+v", ranked)
	}
}

func TestChatRankerRejectsProse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, chatResponse("I think it is about a flight."))
	})

	if _, err := client.ZeroShotClassifier("m").Rank(context.Background(), "t", []string{"Other"}); err == nil {
		t.Fatal("expected error for output without JSON")
	}
}

func TestChatRecognizerLocatesMentions(t *testing.T) {
	text := "Lost bag in Chicago, then again in Chicago"
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, chatResponse(`{"entities":[{"text":"Chicago","label":"gpe"},{"text":"Chicago","label":"GPE"}]}`))
	})

	entities, err := client.EntityRecognizer("m").Recognize(context.Background(), text)
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if len(entities) != 2 {
		t.Fatalf("entities = %+v", entities)
	}
	if entities[0].Label != "GPE" || entities[0].Start != 12 {
		t.Errorf("first = %+v", entities[0])
	}
	if entities[1].Start != 35 || entities[1].End != 42 {
		t.Errorf("second = %+v", entities[1])
	}
}

func TestWhisperTranscriberSendsFile(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("model"); got != "whisper-1" {
			t.Errorf("model = %q", got)
		}
		if got := r.FormValue("language"); got != "en" {
			t.Errorf("language = %q", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		if header.Filename != "call.mp3" {
			t.Errorf("filename = %q", header.Filename)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"text":"There is an URGENT baggage issue at Chicago airport"}`)
	})

	text, err := client.SpeechToText("whisper-1", "en").
		Transcribe(context.Background(), strings.NewReader("ID3audio"), "call.mp3")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "There is an URGENT baggage issue at Chicago airport" {
		t.Errorf("text = %q", text)
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"Sure! ```json\n{\"a\":{\"b\":\"}\"}}\n``` done", `{"a":{"b":"}"}}`},
		{"no json here", ""},
		{`{"unterminated": `, ""},
	}
	for _, tt := range tests {
		if got := extractJSON(tt.in); got != tt.want {
			t.Errorf("extractJSON(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
