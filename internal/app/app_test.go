package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"oned/internal/export"
	"oned/internal/outline"
	"oned/internal/source"
	"oned/internal/transcribe"
	"oned/pkg/domain"
	"oned/pkg/store"
)

const photosynthesisTranscript = "Photosynthesis converts light energy into chemical energy. Plants use chlorophyll to capture sunlight. The products are glucose and oxygen."

// fakeTranscriber replays a canned transcript and records consumption.
type fakeTranscriber struct {
	transcript string
	err        error
	consumed   []string
	health     transcribe.Health
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	f.consumed = append(f.consumed, audioPath)
	if f.err != nil {
		return "", f.err
	}
	return f.transcript, nil
}

func (f *fakeTranscriber) CheckHealth(ctx context.Context) transcribe.Health {
	return f.health
}

// fakeModel replies with canned model output.
type fakeModel struct {
	reply string
	err   error
}

func (f *fakeModel) GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return f.reply, f.err
}

const photosynthesisReply = `{
  "title": "Photosynthesis",
  "chapters": [
    {
      "title": "Overview",
      "topics": [
        {
          "title": "Energy Conversion",
          "content": "Photosynthesis converts light energy into chemical energy. Plants use chlorophyll to capture sunlight.",
          "bulletPoints": ["Light reactions happen first"]
        },
        {
          "title": "Products",
          "content": "",
          "bulletPoints": ["The products are glucose and oxygen"]
        }
      ]
    }
  ]
}`

func newTestApp(t *testing.T, tr transcribe.Transcriber, model *fakeModel) (*App, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	resolver, err := source.NewResolver(source.Config{UploadDir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	a := New(st, resolver, tr, outline.NewGenerator(model), export.NewDocxRenderer())
	return a, st
}

func TestGenerateFromAudioEndToEnd(t *testing.T) {
	tr := &fakeTranscriber{transcript: photosynthesisTranscript}
	a, _ := newTestApp(t, tr, &fakeModel{reply: photosynthesisReply})

	created, err := a.GenerateFromAudio(context.Background(), AudioInput{
		Body:        strings.NewReader("fake audio bytes"),
		Filename:    "biology_lecture.mp3",
		ContentType: "audio/mpeg",
	}, "user-1", "")
	if err != nil {
		t.Fatalf("GenerateFromAudio: %v", err)
	}

	if created.Title != "Photosynthesis" {
		t.Fatalf("title = %q, want model title", created.Title)
	}
	if len(tr.consumed) != 1 {
		t.Fatalf("expected exactly one transcriber call, got %d", len(tr.consumed))
	}

	all := strings.Join(allBullets(created.Slides), " ")
	for _, word := range []string{"chlorophyll", "glucose", "oxygen"} {
		if !strings.Contains(all, word) {
			t.Fatalf("bullets missing %q: %s", word, all)
		}
	}

	doc, err := a.Export(context.Background(), created.ID, "user-1", "", "")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(doc.Bytes) == 0 || doc.Filename != "Photosynthesis.docx" {
		t.Fatalf("export = %q, %d bytes", doc.Filename, len(doc.Bytes))
	}
}

func TestGenerateFromAudioMalformedModelReply(t *testing.T) {
	tr := &fakeTranscriber{transcript: photosynthesisTranscript}
	a, _ := newTestApp(t, tr, &fakeModel{reply: "I am unable to produce JSON today."})

	created, err := a.GenerateFromAudio(context.Background(), AudioInput{
		Body:        strings.NewReader("fake audio bytes"),
		Filename:    "intro_to_botany.mp3",
		ContentType: "audio/mpeg",
	}, "user-1", "")
	if err != nil {
		t.Fatalf("GenerateFromAudio: %v", err)
	}
	if created.Title != "Generated Presentation" {
		t.Fatalf("title = %q, want generic default", created.Title)
	}
	if len(created.Slides) != 1 || created.Slides[0].Title != "Summary" {
		t.Fatalf("expected fallback outline slides, got %+v", created.Slides)
	}
}

func TestGenerateFromAudioModelUnreachableFallsBack(t *testing.T) {
	tr := &fakeTranscriber{transcript: photosynthesisTranscript}
	a, _ := newTestApp(t, tr, &fakeModel{err: errors.New("connection refused")})

	created, err := a.GenerateFromAudio(context.Background(), AudioInput{
		Body:        strings.NewReader("fake audio bytes"),
		Filename:    "clip.mp3",
		ContentType: "audio/mpeg",
	}, "user-1", "My Deck")
	if err != nil {
		t.Fatalf("model failure must degrade, not fail: %v", err)
	}
	if created.Title != "My Deck" {
		t.Fatalf("title = %q", created.Title)
	}
	if len(created.Slides) != 1 {
		t.Fatalf("expected fallback outline, got %d slides", len(created.Slides))
	}
}

func TestGenerateFromAudioTranscriptionErrorPropagates(t *testing.T) {
	tr := &fakeTranscriber{err: transcribe.ErrTooShort}
	a, st := newTestApp(t, tr, &fakeModel{reply: photosynthesisReply})

	_, err := a.GenerateFromAudio(context.Background(), AudioInput{
		Body:        strings.NewReader("fake audio bytes"),
		Filename:    "clip.mp3",
		ContentType: "audio/mpeg",
	}, "user-1", "")
	if !errors.Is(err, transcribe.ErrTooShort) {
		t.Fatalf("expected ErrTooShort, got %v", err)
	}
	list, _ := st.ListPresentationsByOwner(context.Background(), "user-1")
	if len(list) != 0 {
		t.Fatal("nothing should be persisted when transcription fails")
	}
}

func TestGenerateFromTranscriptLengthCheck(t *testing.T) {
	a, _ := newTestApp(t, &fakeTranscriber{}, &fakeModel{reply: photosynthesisReply})

	if _, err := a.GenerateFromTranscript(context.Background(), "012345678", "user-1", ""); !errors.Is(err, ErrTranscriptTooShort) {
		t.Fatalf("9 chars: expected ErrTranscriptTooShort, got %v", err)
	}
	if _, err := a.GenerateFromTranscript(context.Background(), "0123456789", "user-1", ""); err != nil {
		t.Fatalf("10 chars rejected: %v", err)
	}
}

func TestOwnershipConflation(t *testing.T) {
	a, _ := newTestApp(t, &fakeTranscriber{}, &fakeModel{reply: photosynthesisReply})

	created, err := a.GenerateFromTranscript(context.Background(), photosynthesisTranscript, "owner-a", "")
	if err != nil {
		t.Fatalf("GenerateFromTranscript: %v", err)
	}

	if _, err := a.Get(context.Background(), created.ID, "owner-b"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("foreign owner: expected ErrNotFound, got %v", err)
	}
	if err := a.Remove(context.Background(), created.ID, "owner-b"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("foreign delete: expected ErrNotFound, got %v", err)
	}
	if err := a.Remove(context.Background(), created.ID, "owner-a"); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if err := a.Remove(context.Background(), created.ID, "owner-a"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestExportUnknownTheme(t *testing.T) {
	a, _ := newTestApp(t, &fakeTranscriber{}, &fakeModel{reply: photosynthesisReply})
	created, err := a.GenerateFromTranscript(context.Background(), photosynthesisTranscript, "user-1", "")
	if err != nil {
		t.Fatalf("GenerateFromTranscript: %v", err)
	}
	if _, err := a.Export(context.Background(), created.ID, "user-1", "vaporwave", ""); !errors.Is(err, ErrUnknownTheme) {
		t.Fatalf("expected ErrUnknownTheme, got %v", err)
	}
}

func TestErrorCodes(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{source.ErrUnsupportedMediaType, CodeUnsupportedMediaType},
		{source.ErrPayloadTooLarge, CodePayloadTooLarge},
		{source.ErrSourceUnavailable, CodeSourceUnavailable},
		{transcribe.ErrServiceUnavailable, CodeTranscriptionUnavailable},
		{transcribe.ErrTimeout, CodeTranscriptionTimeout},
		{transcribe.ErrFailed, CodeTranscriptionFailed},
		{transcribe.ErrTooShort, CodeTranscriptionTooShort},
		{store.ErrNotFound, CodeNotFoundOrForbidden},
		{ErrUnknownTheme, CodeUnknownTheme},
		{errors.New("anything else"), CodeInternal},
	}
	for _, tc := range tests {
		if got := ErrorCode(tc.err); got != tc.code {
			t.Fatalf("ErrorCode(%v) = %q, want %q", tc.err, got, tc.code)
		}
	}
}

func TestPublicMessageHidesDetailInProduction(t *testing.T) {
	err := errors.New("pq: connection reset while inserting row 7")
	if msg := PublicMessage(err, false); strings.Contains(msg, "pq:") {
		t.Fatalf("production message leaks detail: %q", msg)
	}
	if msg := PublicMessage(err, true); !strings.Contains(msg, "row 7") {
		t.Fatalf("dev message should carry detail: %q", msg)
	}
}

func allBullets(slides []domain.Slide) []string {
	var out []string
	for _, s := range slides {
		out = append(out, s.BulletPoints...)
	}
	return out
}
