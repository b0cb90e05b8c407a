// Package transcribe turns a local audio file into transcript text.
//
// Backends (HTTP microservice, subprocess, streaming socket) are
// interchangeable implementations of one Transcriber contract, selected by
// configuration at process start. Every backend consumes its input file: the
// file is deleted on success and on every failure path.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"oned/internal/util"
	"oned/pkg/executor"
)

var (
	// ErrServiceUnavailable indicates the backend could not be reached or
	// spawned at all.
	ErrServiceUnavailable = errors.New("transcription service unavailable")
	// ErrTimeout indicates the backend did not finish within the hard limit.
	ErrTimeout = errors.New("transcription timed out")
	// ErrFailed indicates the backend was reachable but explicitly reported
	// a failure.
	ErrFailed = errors.New("transcription failed")
	// ErrTooShort indicates the backend produced fewer characters than
	// downstream structuring can operate on.
	ErrTooShort = errors.New("transcription too short")
)

// minTranscriptChars is the minimum usable transcript length; anything
// shorter cannot be structured into slides.
const minTranscriptChars = 10

const defaultTimeout = 5 * time.Minute

// Health is the result of a backend health probe.
type Health struct {
	Healthy bool   `json:"healthy"`
	Detail  string `json:"detail,omitempty"`
}

// Transcriber converts a local audio file into transcript text. Transcribe
// deletes the input file on every exit path. CheckHealth never mutates
// state.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
	CheckHealth(ctx context.Context) Health
}

// Config selects and parameterizes a backend.
type Config struct {
	// Backend is one of "http", "command", "stream".
	Backend string
	// ServiceURL is the base URL of the HTTP transcription microservice.
	ServiceURL string
	// Command and CommandArgs spawn the subprocess backend; the audio path
	// is appended as the final argument.
	Command     string
	CommandArgs []string
	// StreamURL is the websocket endpoint of the streaming backend.
	StreamURL string
	// AccessToken authenticates against the streaming backend.
	AccessToken string
	// Timeout is the hard per-call limit. Defaults to 5 minutes.
	Timeout time.Duration

	// Executor runs the subprocess backend; tests substitute a fake.
	Executor executor.Executor
}

// New builds the configured Transcriber.
func New(cfg Config) (Transcriber, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "http":
		return newHTTPTranscriber(cfg.ServiceURL, timeout)
	case "command":
		return newCommandTranscriber(cfg.Command, cfg.CommandArgs, cfg.Executor, timeout)
	case "stream":
		return newStreamTranscriber(cfg.StreamURL, cfg.AccessToken, timeout)
	default:
		return nil, fmt.Errorf("unknown transcription backend %q", cfg.Backend)
	}
}

// consumeFile removes the input audio file. Errors other than "already
// gone" are logged, not surfaced; the transcription result matters more
// than the cleanup.
func consumeFile(ctx context.Context, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		util.LoggerFromContext(ctx).Warn("failed to remove consumed audio file", "path", path, "err", err)
	}
}

// finalizeTranscript trims the backend output and enforces the minimum
// length.
func finalizeTranscript(text string) (string, error) {
	text = strings.TrimSpace(text)
	if len(text) < minTranscriptChars {
		return "", fmt.Errorf("%w: got %d characters, need at least %d", ErrTooShort, len(text), minTranscriptChars)
	}
	return text, nil
}
