// Package source normalizes audio input (uploaded bytes or a video URL)
// into a local audio file plus a suggested title. Ownership of the written
// file transfers to the caller.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"oned/internal/util"
	"oned/pkg/executor"
)

var (
	// ErrUnsupportedMediaType indicates the uploaded file is not an accepted
	// audio type.
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	// ErrPayloadTooLarge indicates the upload exceeds the size ceiling.
	ErrPayloadTooLarge = errors.New("payload too large")
	// ErrSourceUnavailable indicates a video source could not be resolved or
	// downloaded.
	ErrSourceUnavailable = errors.New("source unavailable")
)

// DefaultMaxUploadBytes matches the original product's 50MB upload ceiling.
const DefaultMaxUploadBytes = 50 << 20

var allowedExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".webm": true,
	".m4a":  true,
	".ogg":  true,
	".flac": true,
}

// Resolved is a locally available audio file ready for transcription.
type Resolved struct {
	Path           string
	SuggestedTitle string
	SizeBytes      int64
}

// Config wires the resolver's dependencies.
type Config struct {
	UploadDir       string
	MaxUploadBytes  int64
	YtDlpPath       string
	Executor        executor.Executor
	ProbeTimeout    time.Duration
	DownloadTimeout time.Duration
}

// Resolver produces local audio files from uploads and video URLs.
type Resolver struct {
	uploadDir       string
	maxBytes        int64
	ytdlp           string
	exec            executor.Executor
	probeTimeout    time.Duration
	downloadTimeout time.Duration
}

// NewResolver creates the upload directory when missing.
func NewResolver(cfg Config) (*Resolver, error) {
	if strings.TrimSpace(cfg.UploadDir) == "" {
		return nil, fmt.Errorf("upload dir required")
	}
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	maxBytes := cfg.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	ytdlp := strings.TrimSpace(cfg.YtDlpPath)
	if ytdlp == "" {
		ytdlp = "yt-dlp"
	}
	exec := cfg.Executor
	if exec == nil {
		exec = executor.New()
	}
	probeTimeout := cfg.ProbeTimeout
	if probeTimeout <= 0 {
		probeTimeout = 30 * time.Second
	}
	downloadTimeout := cfg.DownloadTimeout
	if downloadTimeout <= 0 {
		downloadTimeout = 5 * time.Minute
	}
	return &Resolver{
		uploadDir:       cfg.UploadDir,
		maxBytes:        maxBytes,
		ytdlp:           ytdlp,
		exec:            exec,
		probeTimeout:    probeTimeout,
		downloadTimeout: downloadTimeout,
	}, nil
}

// MaxUploadBytes reports the configured upload ceiling.
func (r *Resolver) MaxUploadBytes() int64 {
	return r.maxBytes
}

// SaveUpload validates the declared type and size, then writes the upload to
// a uniquely named file under the upload dir.
func (r *Resolver) SaveUpload(_ context.Context, body io.Reader, filename, contentType string, declaredSize int64) (Resolved, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "audio/") && !allowedExtensions[ext] {
		return Resolved{}, fmt.Errorf("%w: %s (%s)", ErrUnsupportedMediaType, filename, contentType)
	}
	if declaredSize > r.maxBytes {
		return Resolved{}, fmt.Errorf("%w: %d bytes exceeds %d byte limit", ErrPayloadTooLarge, declaredSize, r.maxBytes)
	}
	if ext == "" {
		ext = ".wav"
	}

	target := filepath.Join(r.uploadDir, fmt.Sprintf("audio-%d-%s%s", time.Now().UnixNano(), util.NewID(), ext))
	out, err := os.Create(target)
	if err != nil {
		return Resolved{}, fmt.Errorf("create upload file: %w", err)
	}

	// Copy one byte past the ceiling so undeclared oversize streams are
	// caught too.
	written, err := io.Copy(out, io.LimitReader(body, r.maxBytes+1))
	closeErr := out.Close()
	if err != nil {
		_ = os.Remove(target)
		return Resolved{}, fmt.Errorf("write upload file: %w", err)
	}
	if closeErr != nil {
		_ = os.Remove(target)
		return Resolved{}, fmt.Errorf("close upload file: %w", closeErr)
	}
	if written > r.maxBytes {
		_ = os.Remove(target)
		return Resolved{}, fmt.Errorf("%w: upload exceeds %d byte limit", ErrPayloadTooLarge, r.maxBytes)
	}

	return Resolved{
		Path:           target,
		SuggestedTitle: titleFromFilename(filename),
		SizeBytes:      written,
	}, nil
}

func titleFromFilename(filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	return strings.TrimSpace(base)
}
