package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"oned/internal/util"
)

// Audio-only format selections handed to yt-dlp. The fallback mirrors the
// one bounded retry the product has always done when the preferred stream
// selection is gone by download time.
const (
	primaryAudioFormat  = "bestaudio[ext=m4a]/bestaudio"
	fallbackAudioFormat = "140/bestaudio/best"
)

// VideoInfo is the probed metadata for a video URL.
type VideoInfo struct {
	Title           string
	DurationSeconds int
}

// ProbeVideo resolves the remote title and duration without downloading.
func (r *Resolver) ProbeVideo(ctx context.Context, videoURL string) (VideoInfo, error) {
	videoURL = strings.TrimSpace(videoURL)
	if videoURL == "" {
		return VideoInfo{}, fmt.Errorf("%w: empty video url", ErrSourceUnavailable)
	}

	probeCtx, cancel := context.WithTimeout(ctx, r.probeTimeout)
	defer cancel()

	out, err := r.exec.Execute(probeCtx, r.ytdlp,
		"--no-playlist",
		"--skip-download",
		"--print", "title",
		"--print", "duration",
		videoURL,
	)
	if err != nil {
		return VideoInfo{}, fmt.Errorf("%w: probe video: %v", ErrSourceUnavailable, err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return VideoInfo{}, fmt.Errorf("%w: video has no title", ErrSourceUnavailable)
	}
	info := VideoInfo{Title: strings.TrimSpace(lines[0])}
	if len(lines) > 1 {
		if secs, err := strconv.ParseFloat(strings.TrimSpace(lines[1]), 64); err == nil {
			info.DurationSeconds = int(secs)
		}
	}
	return info, nil
}

// FetchVideoAudio downloads only the audio track of a video URL to a
// temporary file. One retry with a fallback stream selection is attempted
// before the failure surfaces.
func (r *Resolver) FetchVideoAudio(ctx context.Context, videoURL string) (Resolved, error) {
	info, err := r.ProbeVideo(ctx, videoURL)
	if err != nil {
		return Resolved{}, err
	}

	target := filepath.Join(r.uploadDir, fmt.Sprintf("video-%d-%s.m4a", time.Now().UnixNano(), util.NewID()))

	if err := r.downloadAudio(ctx, videoURL, target, primaryAudioFormat); err != nil {
		util.LoggerFromContext(ctx).Warn("audio download failed, retrying with fallback format", "url", videoURL, "err", err)
		_ = os.Remove(target)
		if err := r.downloadAudio(ctx, videoURL, target, fallbackAudioFormat); err != nil {
			_ = os.Remove(target)
			return Resolved{}, fmt.Errorf("%w: download audio: %v", ErrSourceUnavailable, err)
		}
	}

	stat, err := os.Stat(target)
	if err != nil || stat.Size() == 0 {
		_ = os.Remove(target)
		return Resolved{}, fmt.Errorf("%w: downloaded audio file is empty", ErrSourceUnavailable)
	}

	return Resolved{
		Path:           target,
		SuggestedTitle: info.Title,
		SizeBytes:      stat.Size(),
	}, nil
}

func (r *Resolver) downloadAudio(ctx context.Context, videoURL, target, format string) error {
	dlCtx, cancel := context.WithTimeout(ctx, r.downloadTimeout)
	defer cancel()

	_, err := r.exec.Execute(dlCtx, r.ytdlp,
		"--no-playlist",
		"-f", format,
		"-o", target,
		videoURL,
	)
	return err
}
