package transcribe

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeCommandExecutor struct {
	lastName string
	lastArgs []string
	stdout   string
	err      error
}

func (f *fakeCommandExecutor) Execute(ctx context.Context, name string, args ...string) (string, error) {
	f.lastName = name
	f.lastArgs = args
	if f.err != nil {
		return "", f.err
	}
	return f.stdout, nil
}

func TestCommandTranscribeSuccess(t *testing.T) {
	exe := &fakeCommandExecutor{stdout: `{"success": true, "transcription": "mitochondria are the powerhouse of the cell", "language": "en"}`}
	tr, err := newCommandTranscriber("python3", []string{"transcribe.py"}, exe, time.Minute)
	if err != nil {
		t.Fatalf("newCommandTranscriber: %v", err)
	}

	path := writeTempAudio(t, "fake audio bytes")
	text, err := tr.Transcribe(context.Background(), path)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "mitochondria are the powerhouse of the cell" {
		t.Fatalf("unexpected transcript %q", text)
	}
	if exe.lastName != "python3" {
		t.Fatalf("expected python3 invocation, got %q", exe.lastName)
	}
	if len(exe.lastArgs) != 2 || exe.lastArgs[0] != "transcribe.py" || exe.lastArgs[1] != path {
		t.Fatalf("expected audio path as final argument, got %v", exe.lastArgs)
	}
	assertConsumed(t, path)
}

func TestCommandTranscribeSpawnFailure(t *testing.T) {
	exe := &fakeCommandExecutor{err: errors.New("exec: \"python3\": executable file not found in $PATH")}
	tr, err := newCommandTranscriber("python3", []string{"transcribe.py"}, exe, time.Minute)
	if err != nil {
		t.Fatalf("newCommandTranscriber: %v", err)
	}

	path := writeTempAudio(t, "fake audio bytes")
	_, err = tr.Transcribe(context.Background(), path)
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}
	assertConsumed(t, path)
}

func TestCommandTranscribeReportedFailure(t *testing.T) {
	exe := &fakeCommandExecutor{stdout: `{"success": false, "error": "unsupported codec"}`}
	tr, err := newCommandTranscriber("python3", nil, exe, time.Minute)
	if err != nil {
		t.Fatalf("newCommandTranscriber: %v", err)
	}

	path := writeTempAudio(t, "fake audio bytes")
	_, err = tr.Transcribe(context.Background(), path)
	if !errors.Is(err, ErrFailed) {
		t.Fatalf("expected ErrFailed, got %v", err)
	}
	assertConsumed(t, path)
}

func TestCommandTranscribeMalformedOutput(t *testing.T) {
	exe := &fakeCommandExecutor{stdout: "Loading model...\nDone."}
	tr, err := newCommandTranscriber("python3", nil, exe, time.Minute)
	if err != nil {
		t.Fatalf("newCommandTranscriber: %v", err)
	}

	path := writeTempAudio(t, "fake audio bytes")
	_, err = tr.Transcribe(context.Background(), path)
	if !errors.Is(err, ErrFailed) {
		t.Fatalf("expected ErrFailed for malformed stdout, got %v", err)
	}
	assertConsumed(t, path)
}

func TestCommandTranscriberRequiresCommand(t *testing.T) {
	if _, err := newCommandTranscriber("   ", nil, nil, time.Minute); err == nil {
		t.Fatal("expected error for empty command")
	}
}
