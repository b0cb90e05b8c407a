package domain

import "time"

// Presentation is a persisted deck generated from one transcription.
type Presentation struct {
	ID            string    `json:"id"`
	OwnerID       string    `json:"ownerId"`
	Title         string    `json:"title"`
	Transcription string    `json:"transcription"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Slide is a single slide belonging to a presentation. SlideOrder is a
// zero-based contiguous position within the owning presentation.
type Slide struct {
	ID             string    `json:"id"`
	PresentationID string    `json:"presentationId"`
	Title          string    `json:"title"`
	BulletPoints   []string  `json:"bulletPoints"`
	KeyTakeaway    string    `json:"keyTakeaway,omitempty"`
	ImageIdea      string    `json:"imageIdea,omitempty"`
	SlideOrder     int       `json:"slideOrder"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// PresentationWithSlides bundles a presentation and its slides sorted by
// slide order.
type PresentationWithSlides struct {
	Presentation
	Slides []Slide `json:"slides"`
}

// Outline is the transient result of structuring a transcript, before any
// rows are written. Slides is never empty.
type Outline struct {
	Title  string         `json:"title"`
	Slides []OutlineSlide `json:"slides"`
}

// OutlineSlide is one slide of an outline.
type OutlineSlide struct {
	Title        string   `json:"title"`
	BulletPoints []string `json:"bulletPoints"`
	KeyTakeaway  string   `json:"keyTakeaway,omitempty"`
	ImageIdea    string   `json:"imageIdea,omitempty"`
}
