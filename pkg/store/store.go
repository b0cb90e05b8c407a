package store

import (
	"context"
	"errors"

	"oned/pkg/domain"
)

// ErrNotFound is returned when a presentation does not exist or the caller
// does not own it. The two cases are deliberately indistinguishable so that
// callers cannot probe for other users' presentations.
var ErrNotFound = errors.New("presentation not found")

// NewSlide is one slide to persist as part of a new presentation. Its
// position in the slice becomes the slide order.
type NewSlide struct {
	Title        string
	BulletPoints []string
	KeyTakeaway  string
	ImageIdea    string
}

// NewPresentation carries everything needed to create a presentation with
// its initial slide set.
type NewPresentation struct {
	OwnerID       string
	Title         string
	Transcription string
	Slides        []NewSlide
}

// Store defines persistence operations for presentations and their slides.
// A presentation and its slides are written as one logical unit; slides are
// never persisted without their presentation.
type Store interface {
	CreatePresentation(ctx context.Context, p NewPresentation) (domain.PresentationWithSlides, error)
	GetPresentationWithSlides(ctx context.Context, id, ownerID string) (domain.PresentationWithSlides, error)
	ListPresentationsByOwner(ctx context.Context, ownerID string) ([]domain.Presentation, error)
	DeletePresentation(ctx context.Context, id, ownerID string) (bool, error)
}
