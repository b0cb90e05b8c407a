package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// streamTranscriber feeds audio over a duplex websocket and collects
// finalized hypothesis frames. Partial frames are revised by the service and
// must not be buffered; only frames marked final contribute to the
// transcript, concatenated in arrival order.
type streamTranscriber struct {
	endpoint string
	token    string
	timeout  time.Duration
	dialer   *websocket.Dialer
}

// streamFrame is one message from the streaming service.
type streamFrame struct {
	Type     string          `json:"type"`
	Elements []streamElement `json:"elements"`
}

type streamElement struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

const streamChunkSize = 8 << 10

var streamContentTypes = map[string]string{
	".wav":  "audio/x-wav",
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",
	".webm": "audio/webm",
}

func newStreamTranscriber(endpoint, token string, timeout time.Duration) (*streamTranscriber, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.New("stream URL is required for the stream backend")
	}
	return &streamTranscriber{
		endpoint: endpoint,
		token:    token,
		timeout:  timeout,
		dialer:   &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}, nil
}

func (t *streamTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	defer consumeFile(ctx, audioPath)

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	target, err := t.dialURL(audioPath)
	if err != nil {
		return "", err
	}
	conn, _, err := t.dialer.DialContext(ctx, target, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(t.timeout)
	_ = conn.SetReadDeadline(deadline)
	_ = conn.SetWriteDeadline(deadline)

	sendErr := make(chan error, 1)
	go func() { sendErr <- t.sendAudio(conn, audioPath) }()

	var parts []string
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				break
			}
			if errors.Is(ctx.Err(), context.DeadlineExceeded) || os.IsTimeout(err) {
				return "", fmt.Errorf("%w after %s", ErrTimeout, t.timeout)
			}
			return "", fmt.Errorf("%w: read: %v", ErrFailed, err)
		}
		var frame streamFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			continue // non-hypothesis control frames are not JSON we care about
		}
		if frame.Type != "final" {
			continue
		}
		if text := frameText(frame); text != "" {
			parts = append(parts, text)
		}
	}

	if err := <-sendErr; err != nil {
		return "", err
	}
	return finalizeTranscript(strings.Join(parts, " "))
}

// sendAudio streams the file in fixed-size binary chunks, then signals end
// of input so the service can flush its last hypothesis.
func (t *streamTranscriber) sendAudio(conn *websocket.Conn, audioPath string) error {
	f, err := os.Open(audioPath)
	if err != nil {
		return fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	buf := make([]byte, streamChunkSize)
	for {
		n, readErr := f.Read(buf)
		if n > 0 {
			if err := conn.WriteMessage(websocket.BinaryMessage, buf[:n]); err != nil {
				return fmt.Errorf("%w: write: %v", ErrServiceUnavailable, err)
			}
		}
		if readErr != nil {
			break
		}
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte("EOS")); err != nil {
		return fmt.Errorf("%w: write EOS: %v", ErrServiceUnavailable, err)
	}
	return nil
}

// frameText joins the spoken-text elements of a hypothesis frame.
func frameText(frame streamFrame) string {
	var words []string
	for _, el := range frame.Elements {
		if el.Type == "text" && el.Value != "" {
			words = append(words, el.Value)
		}
	}
	return strings.Join(words, " ")
}

func (t *streamTranscriber) dialURL(audioPath string) (string, error) {
	u, err := url.Parse(t.endpoint)
	if err != nil {
		return "", fmt.Errorf("parse stream URL: %w", err)
	}
	q := u.Query()
	if t.token != "" {
		q.Set("access_token", t.token)
	}
	ext := strings.ToLower(filepath.Ext(audioPath))
	if ct, ok := streamContentTypes[ext]; ok {
		q.Set("content_type", ct)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// CheckHealth dials the endpoint and hangs up immediately.
func (t *streamTranscriber) CheckHealth(ctx context.Context) Health {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	conn, _, err := t.dialer.DialContext(ctx, t.endpoint, nil)
	if err != nil {
		return Health{Healthy: false, Detail: "stream endpoint unreachable"}
	}
	_ = conn.Close()
	return Health{Healthy: true, Detail: "stream endpoint reachable"}
}
