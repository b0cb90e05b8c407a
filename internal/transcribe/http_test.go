package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTempAudio(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp3")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp audio: %v", err)
	}
	return path
}

func assertConsumed(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("audio file %s should have been removed, stat err = %v", path, err)
	}
}

func newTestHTTPTranscriber(t *testing.T, handler http.Handler) *httpTranscriber {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	tr, err := newHTTPTranscriber(srv.URL, 10*time.Second)
	if err != nil {
		t.Fatalf("newHTTPTranscriber: %v", err)
	}
	return tr
}

func TestHTTPTranscribeSuccess(t *testing.T) {
	var gotField string
	tr := newTestHTTPTranscriber(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transcribe" {
			http.NotFound(w, r)
			return
		}
		if _, header, err := r.FormFile("audio"); err == nil {
			gotField = header.Filename
		}
		json.NewEncoder(w).Encode(transcribeResponse{
			Success:       true,
			Transcription: "  photosynthesis converts light into chemical energy  ",
			Language:      "en",
		})
	}))

	path := writeTempAudio(t, "fake audio bytes")
	text, err := tr.Transcribe(context.Background(), path)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "photosynthesis converts light into chemical energy" {
		t.Fatalf("unexpected transcript %q", text)
	}
	if gotField != "clip.mp3" {
		t.Fatalf("expected multipart field with original filename, got %q", gotField)
	}
	assertConsumed(t, path)
}

func TestHTTPTranscribeBackendReportedFailure(t *testing.T) {
	tr := newTestHTTPTranscriber(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(transcribeResponse{Success: false, Error: "model crashed"})
	}))

	path := writeTempAudio(t, "fake audio bytes")
	_, err := tr.Transcribe(context.Background(), path)
	if !errors.Is(err, ErrFailed) {
		t.Fatalf("expected ErrFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "model crashed") {
		t.Fatalf("expected backend detail in error, got %v", err)
	}
	assertConsumed(t, path)
}

func TestHTTPTranscribeServiceUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	tr, err := newHTTPTranscriber(url, 5*time.Second)
	if err != nil {
		t.Fatalf("newHTTPTranscriber: %v", err)
	}
	path := writeTempAudio(t, "fake audio bytes")
	_, err = tr.Transcribe(context.Background(), path)
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}
	assertConsumed(t, path)
}

func TestHTTPTranscribeLengthBoundary(t *testing.T) {
	tests := []struct {
		name       string
		transcript string
		wantErr    error
	}{
		{name: "nine characters rejected", transcript: "012345678", wantErr: ErrTooShort},
		{name: "ten characters accepted", transcript: "0123456789", wantErr: nil},
		{name: "whitespace padding does not count", transcript: "   0123456789   ", wantErr: nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tr := newTestHTTPTranscriber(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(transcribeResponse{Success: true, Transcription: tc.transcript})
			}))
			path := writeTempAudio(t, "fake audio bytes")
			_, err := tr.Transcribe(context.Background(), path)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			assertConsumed(t, path)
		})
	}
}

func TestHTTPCheckHealth(t *testing.T) {
	tr := newTestHTTPTranscriber(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(healthResponse{Status: "healthy", ModelLoaded: true, Version: "1.0"})
	}))

	h := tr.CheckHealth(context.Background())
	if !h.Healthy {
		t.Fatalf("expected healthy, got %+v", h)
	}
}

func TestHTTPCheckHealthModelNotLoaded(t *testing.T) {
	tr := newTestHTTPTranscriber(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(healthResponse{Status: "healthy", ModelLoaded: false})
	}))

	h := tr.CheckHealth(context.Background())
	if h.Healthy {
		t.Fatalf("expected unhealthy when model not loaded, got %+v", h)
	}
}
