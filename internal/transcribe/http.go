package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// httpTranscriber posts the audio file to a transcription microservice as a
// multipart upload and reads the result from the JSON response body.
type httpTranscriber struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

// transcribeResponse is the microservice's response envelope.
type transcribeResponse struct {
	Success       bool   `json:"success"`
	Transcription string `json:"transcription"`
	Language      string `json:"language"`
	Error         string `json:"error"`
}

type healthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	Version     string `json:"version"`
}

func newHTTPTranscriber(baseURL string, timeout time.Duration) (*httpTranscriber, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("transcription service URL is required for the http backend")
	}
	return &httpTranscriber{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}, nil
}

func (t *httpTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	defer consumeFile(ctx, audioPath)

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	body, contentType, err := multipartFile(audioPath)
	if err != nil {
		return "", fmt.Errorf("prepare upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/transcribe", body)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := t.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s", ErrTimeout, t.timeout)
		}
		return "", fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	var decoded transcribeResponse
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&decoded)

	// A decodable failure report is the backend speaking, even on a 5xx.
	if decodeErr == nil && !decoded.Success && decoded.Error != "" {
		return "", fmt.Errorf("%w: %s", ErrFailed, decoded.Error)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d", ErrServiceUnavailable, resp.StatusCode)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("%w: malformed response: %v", ErrFailed, decodeErr)
	}
	if !decoded.Success {
		return "", fmt.Errorf("%w: backend reported failure", ErrFailed)
	}
	return finalizeTranscript(decoded.Transcription)
}

func (t *httpTranscriber) CheckHealth(ctx context.Context) Health {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"/health", nil)
	if err != nil {
		return Health{Healthy: false, Detail: err.Error()}
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return Health{Healthy: false, Detail: "service unreachable"}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Health{Healthy: false, Detail: fmt.Sprintf("status %d", resp.StatusCode)}
	}
	var decoded healthResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&decoded); err != nil {
		return Health{Healthy: false, Detail: "malformed health response"}
	}
	if decoded.Status != "healthy" {
		return Health{Healthy: false, Detail: fmt.Sprintf("status %q", decoded.Status)}
	}
	detail := "model loaded"
	if !decoded.ModelLoaded {
		detail = "model not loaded"
	}
	return Health{Healthy: decoded.ModelLoaded, Detail: detail}
}

// multipartFile reads the audio file into a multipart body with a single
// "audio" part. Files are capped upstream at upload time, so buffering in
// memory is acceptable here.
func multipartFile(path string) (io.Reader, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("audio", filepath.Base(path))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
