package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"oned/pkg/executor"
)

// commandTranscriber spawns a local transcription program and reads a JSON
// result from its stdout. Suited to deployments where the speech model runs
// on the same host.
type commandTranscriber struct {
	command string
	args    []string
	exec    executor.Executor
	timeout time.Duration
}

// commandResult is the JSON document the subprocess prints on stdout.
type commandResult struct {
	Success       bool   `json:"success"`
	Transcription string `json:"transcription"`
	Language      string `json:"language"`
	Error         string `json:"error"`
}

func newCommandTranscriber(command string, args []string, exe executor.Executor, timeout time.Duration) (*commandTranscriber, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return nil, errors.New("transcription command is required for the command backend")
	}
	if exe == nil {
		exe = executor.New()
	}
	return &commandTranscriber{command: command, args: args, exec: exe, timeout: timeout}, nil
}

func (t *commandTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	defer consumeFile(ctx, audioPath)

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	args := append(append([]string{}, t.args...), audioPath)
	stdout, err := t.exec.Execute(ctx, t.command, args...)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s", ErrTimeout, t.timeout)
		}
		return "", fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}

	var decoded commandResult
	if err := json.Unmarshal([]byte(stdout), &decoded); err != nil {
		return "", fmt.Errorf("%w: malformed output: %v", ErrFailed, err)
	}
	if !decoded.Success {
		if decoded.Error != "" {
			return "", fmt.Errorf("%w: %s", ErrFailed, decoded.Error)
		}
		return "", fmt.Errorf("%w: command reported failure", ErrFailed)
	}
	return finalizeTranscript(decoded.Transcription)
}

// CheckHealth reports whether the configured command resolves on PATH. It
// does not run the command; a probe run would pay the full model load cost.
func (t *commandTranscriber) CheckHealth(ctx context.Context) Health {
	if _, err := exec.LookPath(t.command); err != nil {
		return Health{Healthy: false, Detail: fmt.Sprintf("command %q not found", t.command)}
	}
	return Health{Healthy: true, Detail: fmt.Sprintf("command %q resolvable", t.command)}
}
