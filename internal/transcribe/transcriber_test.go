package transcribe

import (
	"fmt"
	"testing"
	"time"
)

func TestNewSelectsBackend(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		want    string
		wantErr bool
	}{
		{
			name: "http backend",
			cfg:  Config{Backend: "http", ServiceURL: "http://localhost:8000"},
			want: "*transcribe.httpTranscriber",
		},
		{
			name: "command backend",
			cfg:  Config{Backend: "command", Command: "python3", CommandArgs: []string{"transcribe.py"}},
			want: "*transcribe.commandTranscriber",
		},
		{
			name: "stream backend",
			cfg:  Config{Backend: "stream", StreamURL: "wss://stream.example.com/speech"},
			want: "*transcribe.streamTranscriber",
		},
		{
			name: "backend name is case insensitive",
			cfg:  Config{Backend: " HTTP ", ServiceURL: "http://localhost:8000"},
			want: "*transcribe.httpTranscriber",
		},
		{
			name:    "unknown backend",
			cfg:     Config{Backend: "carrier-pigeon"},
			wantErr: true,
		},
		{
			name:    "http backend without URL",
			cfg:     Config{Backend: "http"},
			wantErr: true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tr, err := New(tc.cfg)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if got := fmt.Sprintf("%T", tr); got != tc.want {
				t.Fatalf("backend type = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestFinalizeTranscript(t *testing.T) {
	if _, err := finalizeTranscript("         "); err == nil {
		t.Fatal("expected whitespace-only transcript to be rejected")
	}
	got, err := finalizeTranscript("\n a perfectly usable transcript \t")
	if err != nil {
		t.Fatalf("finalizeTranscript: %v", err)
	}
	if got != "a perfectly usable transcript" {
		t.Fatalf("unexpected transcript %q", got)
	}
}

func TestDefaultTimeoutApplied(t *testing.T) {
	tr, err := New(Config{Backend: "http", ServiceURL: "http://localhost:8000"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ht := tr.(*httpTranscriber)
	if ht.timeout != 5*time.Minute {
		t.Fatalf("timeout = %s, want 5m", ht.timeout)
	}
}
