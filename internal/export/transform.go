package export

import (
	"errors"
	"sort"
	"time"

	"oned/pkg/domain"
)

// defaultAuthor is stamped on exports when the caller gives no author.
const defaultAuthor = "OnEd User"

// Bullet styles and slide types used in ExportDeck.
const (
	SlideTypeTitle   = "title"
	SlideTypeContent = "content"
	BulletStyleDot   = "dot"
)

// ExportDeck is the renderer-agnostic deck structure: metadata, theme, and
// ordered slides with explicit 1-indexed slide numbers.
type ExportDeck struct {
	Metadata DeckMetadata  `json:"metadata"`
	Theme    ThemeConfig   `json:"theme"`
	Slides   []ExportSlide `json:"slides"`
}

type DeckMetadata struct {
	Title                 string    `json:"title"`
	Author                string    `json:"author"`
	CreatedDate           time.Time `json:"createdDate"`
	SlideCount            int       `json:"slideCount"`
	OriginalTranscription string    `json:"originalTranscription,omitempty"`
}

type ExportSlide struct {
	SlideNumber int         `json:"slideNumber"`
	Type        string      `json:"type"`
	Title       SlideTitle  `json:"title"`
	Content     SlideBody   `json:"content"`
	Layout      SlideLayout `json:"layout"`
}

type SlideTitle struct {
	Text       string `json:"text"`
	FontSize   int    `json:"fontSize"`
	FontWeight string `json:"fontWeight"`
	Alignment  string `json:"alignment"`
}

type SlideBody struct {
	BulletPoints []Bullet `json:"bulletPoints"`
	FontSize     int      `json:"fontSize"`
	LineSpacing  float64  `json:"lineSpacing"`
}

// Bullet is one line of slide body text. Level 0 is a main point.
type Bullet struct {
	Text        string `json:"text"`
	Level       int    `json:"level"`
	BulletStyle string `json:"bulletStyle"`
}

type SlideLayout struct {
	TitleHeight   int `json:"titleHeight"`
	ContentMargin int `json:"contentMargin"`
}

// Transform builds the export deck for a presentation: a synthesized title
// slide followed by the content slides in slide order. Pure; the input is
// not mutated.
func Transform(p domain.PresentationWithSlides, theme ThemeConfig, author string) ExportDeck {
	if author == "" {
		author = defaultAuthor
	}

	slides := make([]ExportSlide, 0, len(p.Slides)+1)
	slides = append(slides, titleSlide(p.Title))

	ordered := make([]domain.Slide, len(p.Slides))
	copy(ordered, p.Slides)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].SlideOrder < ordered[j].SlideOrder
	})

	for i, s := range ordered {
		bullets := make([]Bullet, 0, len(s.BulletPoints))
		for _, point := range s.BulletPoints {
			bullets = append(bullets, Bullet{Text: point, Level: 0, BulletStyle: BulletStyleDot})
		}
		slides = append(slides, ExportSlide{
			SlideNumber: i + 2, // title slide is #1
			Type:        SlideTypeContent,
			Title:       SlideTitle{Text: s.Title, FontSize: 28, FontWeight: "bold", Alignment: "left"},
			Content:     SlideBody{BulletPoints: bullets, FontSize: 18, LineSpacing: 1.3},
			Layout:      SlideLayout{TitleHeight: 15, ContentMargin: 8},
		})
	}

	return ExportDeck{
		Metadata: DeckMetadata{
			Title:                 p.Title,
			Author:                author,
			CreatedDate:           p.CreatedAt,
			SlideCount:            len(p.Slides) + 1,
			OriginalTranscription: p.Transcription,
		},
		Theme:  theme,
		Slides: slides,
	}
}

func titleSlide(title string) ExportSlide {
	return ExportSlide{
		SlideNumber: 1,
		Type:        SlideTypeTitle,
		Title:       SlideTitle{Text: title, FontSize: 36, FontWeight: "bold", Alignment: "center"},
		Content:     SlideBody{BulletPoints: []Bullet{}, FontSize: 20, LineSpacing: 1.5},
		Layout:      SlideLayout{TitleHeight: 60, ContentMargin: 10},
	}
}

// Validate checks the structural invariants a renderer relies on.
func Validate(deck ExportDeck) error {
	if deck.Metadata.Title == "" {
		return errors.New("export deck has no title")
	}
	if len(deck.Slides) == 0 {
		return errors.New("export deck has no slides")
	}
	for i, s := range deck.Slides {
		if s.Title.Text == "" {
			return errors.New("export slide has no title")
		}
		if s.SlideNumber <= 0 {
			return errors.New("export slide has no slide number")
		}
		if s.SlideNumber != i+1 {
			return errors.New("export slide numbers are not contiguous")
		}
	}
	return nil
}
