package transcription

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/yegors/complaint-desk/pkg/logger"
)

type fakeSTT struct {
	text     string
	err      error
	gotName  string
	gotAudio string
}

func (f *fakeSTT) Transcribe(_ context.Context, r io.Reader, filename string) (string, error) {
	data, _ := io.ReadAll(r)
	f.gotAudio = string(data)
	f.gotName = filename
	return f.text, f.err
}

func writeAudio(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload.mp3")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTranscribeTrimsAndPassesFile(t *testing.T) {
	backend := &fakeSTT{text: "  My flight was delayed \n"}
	svc := NewService(backend, logger.NewNop())

	text, err := svc.Transcribe(context.Background(), writeAudio(t, "ID3data"))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "My flight was delayed" {
		t.Errorf("text = %q", text)
	}
	if backend.gotName != "upload.mp3" || backend.gotAudio != "ID3data" {
		t.Errorf("backend got name=%q audio=%q", backend.gotName, backend.gotAudio)
	}
}

func TestTranscribeEmptyResultIsValid(t *testing.T) {
	svc := NewService(&fakeSTT{text: ""}, logger.NewNop())

	text, err := svc.Transcribe(context.Background(), writeAudio(t, "ID3"))
	if err != nil || text != "" {
		t.Errorf("Transcribe = %q, %v", text, err)
	}
}

func TestTranscribePropagatesBackendError(t *testing.T) {
	boom := errors.New("model exploded")
	svc := NewService(&fakeSTT{err: boom}, logger.NewNop())

	if _, err := svc.Transcribe(context.Background(), writeAudio(t, "ID3")); !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapping %v", err, boom)
	}
}

func TestTranscribeMissingFile(t *testing.T) {
	svc := NewService(&fakeSTT{}, logger.NewNop())

	if _, err := svc.Transcribe(context.Background(), filepath.Join(t.TempDir(), "missing.mp3")); err == nil {
		t.Error("expected error for missing file")
	}
}
