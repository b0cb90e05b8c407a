package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// newTestStreamServer runs a websocket server that consumes audio chunks
// until EOS, then plays back the given frames and closes normally.
func newTestStreamServer(t *testing.T, frames []streamFrame) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		for {
			msgType, message, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if msgType == websocket.TextMessage && string(message) == "EOS" {
				break
			}
		}
		for _, frame := range frames {
			payload, _ := json.Marshal(frame)
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		}
		deadline := time.Now().Add(time.Second)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http")
}

func TestStreamTranscribeBuffersOnlyFinalFrames(t *testing.T) {
	frames := []streamFrame{
		{Type: "connected"},
		{Type: "partial", Elements: []streamElement{{Type: "text", Value: "photosynthesis"}}},
		{Type: "partial", Elements: []streamElement{{Type: "text", Value: "photosynthesis converts"}}},
		{Type: "final", Elements: []streamElement{
			{Type: "text", Value: "photosynthesis"},
			{Type: "text", Value: "converts"},
			{Type: "punct", Value: ","},
			{Type: "text", Value: "light"},
		}},
		{Type: "partial", Elements: []streamElement{{Type: "text", Value: "into chem"}}},
		{Type: "final", Elements: []streamElement{
			{Type: "text", Value: "into"},
			{Type: "text", Value: "chemical"},
			{Type: "text", Value: "energy"},
		}},
	}
	srv := newTestStreamServer(t, frames)

	tr, err := newStreamTranscriber(wsURL(srv.URL), "test-token", 10*time.Second)
	if err != nil {
		t.Fatalf("newStreamTranscriber: %v", err)
	}
	path := writeTempAudio(t, strings.Repeat("audio", 5000))
	text, err := tr.Transcribe(context.Background(), path)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	want := "photosynthesis converts light into chemical energy"
	if text != want {
		t.Fatalf("transcript = %q, want %q", text, want)
	}
	assertConsumed(t, path)
}

func TestStreamTranscribeNoFinalFrames(t *testing.T) {
	frames := []streamFrame{
		{Type: "partial", Elements: []streamElement{{Type: "text", Value: "never finalized text"}}},
	}
	srv := newTestStreamServer(t, frames)

	tr, err := newStreamTranscriber(wsURL(srv.URL), "", 10*time.Second)
	if err != nil {
		t.Fatalf("newStreamTranscriber: %v", err)
	}
	path := writeTempAudio(t, "fake audio bytes")
	_, err = tr.Transcribe(context.Background(), path)
	if !errors.Is(err, ErrTooShort) {
		t.Fatalf("expected ErrTooShort when nothing finalized, got %v", err)
	}
	assertConsumed(t, path)
}

func TestStreamTranscribeEndpointUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := wsURL(srv.URL)
	srv.Close()

	tr, err := newStreamTranscriber(url, "", 2*time.Second)
	if err != nil {
		t.Fatalf("newStreamTranscriber: %v", err)
	}
	path := writeTempAudio(t, "fake audio bytes")
	_, err = tr.Transcribe(context.Background(), path)
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}
	assertConsumed(t, path)
}

func TestStreamDialURLCarriesTokenAndContentType(t *testing.T) {
	tr, err := newStreamTranscriber("wss://stream.example.com/speech", "secret", time.Minute)
	if err != nil {
		t.Fatalf("newStreamTranscriber: %v", err)
	}
	u, err := tr.dialURL("/tmp/audio-123.wav")
	if err != nil {
		t.Fatalf("dialURL: %v", err)
	}
	if !strings.Contains(u, "access_token=secret") {
		t.Fatalf("expected access token in %q", u)
	}
	if !strings.Contains(u, "content_type=audio%2Fx-wav") {
		t.Fatalf("expected wav content type in %q", u)
	}
}
