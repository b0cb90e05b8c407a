// Package app composes the pipeline stages into the operations the HTTP
// surface exposes: resolve an audio source, transcribe it, structure the
// transcript, persist the deck, and export it on demand. Stages run
// sequentially within one request; the only intra-request parallelism lives
// inside the store's slide fan-out.
package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"oned/internal/export"
	"oned/internal/outline"
	"oned/internal/source"
	"oned/internal/transcribe"
	"oned/internal/util"
	"oned/pkg/domain"
	"oned/pkg/store"
)

const minTranscriptChars = 10

// AudioInput is one audio source: either an uploaded file or a video URL.
// Exactly one of Body and VideoURL is set.
type AudioInput struct {
	Body         io.Reader
	Filename     string
	ContentType  string
	DeclaredSize int64

	VideoURL string
}

// App wires the pipeline stages together.
type App struct {
	store       store.Store
	resolver    *source.Resolver
	transcriber transcribe.Transcriber
	outliner    *outline.Generator
	renderer    export.Renderer
}

func New(st store.Store, resolver *source.Resolver, tr transcribe.Transcriber, gen *outline.Generator, renderer export.Renderer) *App {
	return &App{
		store:       st,
		resolver:    resolver,
		transcriber: tr,
		outliner:    gen,
		renderer:    renderer,
	}
}

// GenerateFromAudio runs the full pipeline: source resolution,
// transcription, structuring, persistence. The resolved audio file is
// consumed by the transcriber on every path.
func (a *App) GenerateFromAudio(ctx context.Context, in AudioInput, ownerID, title string) (domain.PresentationWithSlides, error) {
	if ownerID == "" {
		return domain.PresentationWithSlides{}, ErrMissingOwner
	}

	var (
		resolved source.Resolved
		err      error
	)
	if in.VideoURL != "" {
		resolved, err = a.resolver.FetchVideoAudio(ctx, in.VideoURL)
		// The remote video title names the deck unless the caller chose one.
		if err == nil && title == "" {
			title = resolved.SuggestedTitle
		}
	} else {
		resolved, err = a.resolver.SaveUpload(ctx, in.Body, in.Filename, in.ContentType, in.DeclaredSize)
	}
	if err != nil {
		return domain.PresentationWithSlides{}, err
	}

	transcript, err := a.transcriber.Transcribe(ctx, resolved.Path)
	if err != nil {
		return domain.PresentationWithSlides{}, err
	}

	return a.generate(ctx, transcript, ownerID, title)
}

// GenerateFromTranscript skips resolution and transcription and structures
// caller-supplied text directly.
func (a *App) GenerateFromTranscript(ctx context.Context, text, ownerID, title string) (domain.PresentationWithSlides, error) {
	if ownerID == "" {
		return domain.PresentationWithSlides{}, ErrMissingOwner
	}
	text = strings.TrimSpace(text)
	if len(text) < minTranscriptChars {
		return domain.PresentationWithSlides{}, ErrTranscriptTooShort
	}
	return a.generate(ctx, text, ownerID, title)
}

// generate structures a transcript and persists the resulting deck. Model
// failures degrade to the fixed fallback outline; only persistence can fail
// from here on.
func (a *App) generate(ctx context.Context, transcript, ownerID, title string) (domain.PresentationWithSlides, error) {
	ol, err := a.outliner.Structure(ctx, transcript)
	if err != nil {
		util.LoggerFromContext(ctx).Warn("outline generation failed, using fallback outline", "err", err)
		ol = outline.Fallback()
	}

	slides := make([]store.NewSlide, 0, len(ol.Slides))
	for _, s := range ol.Slides {
		slides = append(slides, store.NewSlide{
			Title:        s.Title,
			BulletPoints: s.BulletPoints,
			KeyTakeaway:  s.KeyTakeaway,
			ImageIdea:    s.ImageIdea,
		})
	}

	created, err := a.store.CreatePresentation(ctx, store.NewPresentation{
		OwnerID:       ownerID,
		Title:         outline.ResolveTitle(title, ol.Title),
		Transcription: transcript,
		Slides:        slides,
	})
	if err != nil {
		return domain.PresentationWithSlides{}, fmt.Errorf("persist presentation: %w", err)
	}
	return created, nil
}

// Get returns one presentation with slides. Missing and not-owned are
// indistinguishable.
func (a *App) Get(ctx context.Context, id, ownerID string) (domain.PresentationWithSlides, error) {
	if ownerID == "" {
		return domain.PresentationWithSlides{}, ErrMissingOwner
	}
	return a.store.GetPresentationWithSlides(ctx, id, ownerID)
}

// List returns the owner's presentations in creation order, without slides.
func (a *App) List(ctx context.Context, ownerID string) ([]domain.Presentation, error) {
	if ownerID == "" {
		return nil, ErrMissingOwner
	}
	return a.store.ListPresentationsByOwner(ctx, ownerID)
}

// Remove deletes a presentation and its slides.
func (a *App) Remove(ctx context.Context, id, ownerID string) error {
	if ownerID == "" {
		return ErrMissingOwner
	}
	deleted, err := a.store.DeletePresentation(ctx, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete presentation: %w", err)
	}
	if !deleted {
		return store.ErrNotFound
	}
	return nil
}

// Export reads a presentation, transforms it with the named theme, and
// renders the download.
func (a *App) Export(ctx context.Context, id, ownerID, themeName, author string) (export.RenderedDocument, error) {
	if ownerID == "" {
		return export.RenderedDocument{}, ErrMissingOwner
	}
	if themeName == "" {
		themeName = export.DefaultThemeName
	}
	theme, ok := export.ThemeByName(themeName)
	if !ok {
		return export.RenderedDocument{}, fmt.Errorf("%w: %q", ErrUnknownTheme, themeName)
	}

	p, err := a.store.GetPresentationWithSlides(ctx, id, ownerID)
	if err != nil {
		return export.RenderedDocument{}, err
	}

	deck := export.Transform(p, theme, author)
	if err := export.Validate(deck); err != nil {
		return export.RenderedDocument{}, fmt.Errorf("%w: %v", ErrExportValidation, err)
	}
	return a.renderer.Render(deck)
}

// TranscriberHealth probes the configured transcription backend.
func (a *App) TranscriberHealth(ctx context.Context) transcribe.Health {
	return a.transcriber.CheckHealth(ctx)
}

// AvailableThemes lists the export theme catalog.
func (a *App) AvailableThemes() []export.ThemeListing {
	return export.AvailableThemes()
}
