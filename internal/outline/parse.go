package outline

import (
	"encoding/json"
	"strings"

	"oned/pkg/domain"
)

// chapterDocument is the primary model output format.
type chapterDocument struct {
	Title    string    `json:"title"`
	Chapters []chapter `json:"chapters"`
}

type chapter struct {
	Title  string  `json:"title"`
	Topics []topic `json:"topics"`
}

type topic struct {
	Title        string   `json:"title"`
	Content      string   `json:"content"`
	BulletPoints []string `json:"bulletPoints"`
	KeyTakeaway  string   `json:"keyTakeaway"`
	ImageIdea    string   `json:"imageIdea"`
}

// flatDocument is the legacy format some models still emit: slides at the
// top level with no chapter grouping.
type flatDocument struct {
	Title  string      `json:"title"`
	Slides []flatSlide `json:"slides"`
}

type flatSlide struct {
	Title        string   `json:"title"`
	Content      string   `json:"content"`
	BulletPoints []string `json:"bulletPoints"`
	KeyTakeaway  string   `json:"keyTakeaway"`
	ImageIdea    string   `json:"imageIdea"`
}

// extractJSON returns the widest {...} span of the reply. Models wrap their
// JSON in prose or code fences; the span between the first and last brace is
// what the parsers get to work with.
func extractJSON(reply string) (string, bool) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return reply[start : end+1], true
}

// parseChapters flattens a chapter document into one slide per topic, in
// document order. Topics without a title are dropped.
func parseChapters(raw string) (domain.Outline, bool) {
	var doc chapterDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return domain.Outline{}, false
	}
	if doc.Title == "" || doc.Chapters == nil {
		return domain.Outline{}, false
	}

	var slides []domain.OutlineSlide
	for _, ch := range doc.Chapters {
		for _, tp := range ch.Topics {
			if tp.Title == "" {
				continue
			}
			slides = append(slides, domain.OutlineSlide{
				Title:        tp.Title,
				BulletPoints: topicBullets(tp),
				KeyTakeaway:  tp.KeyTakeaway,
				ImageIdea:    tp.ImageIdea,
			})
		}
	}
	if len(slides) == 0 {
		return domain.Outline{}, false
	}
	return domain.Outline{Title: doc.Title, Slides: slides}, true
}

// topicBullets builds slide bullets from a topic: the content split into
// sentences, followed by any explicit bullet points. A topic that yields
// nothing gets the placeholder bullet.
func topicBullets(tp topic) []string {
	var bullets []string
	if tp.Content != "" {
		sentences := splitSentences(tp.Content)
		if len(sentences) > 1 {
			bullets = sentences
		} else {
			bullets = []string{tp.Content}
		}
	}
	bullets = append(bullets, tp.BulletPoints...)
	if len(bullets) == 0 {
		bullets = []string{placeholderBullet}
	}
	return bullets
}

// parseFlatSlides accepts the legacy top-level slides array. Slides need a
// title and either bullet points or content to survive the filter.
func parseFlatSlides(raw string) (domain.Outline, bool) {
	var doc flatDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return domain.Outline{}, false
	}
	if doc.Title == "" || doc.Slides == nil {
		return domain.Outline{}, false
	}

	var slides []domain.OutlineSlide
	for _, s := range doc.Slides {
		if s.Title == "" || (len(s.BulletPoints) == 0 && s.Content == "") {
			continue
		}
		bullets := s.BulletPoints
		if len(bullets) == 0 {
			bullets = []string{s.Content}
		}
		slides = append(slides, domain.OutlineSlide{
			Title:        s.Title,
			BulletPoints: bullets,
			KeyTakeaway:  s.KeyTakeaway,
			ImageIdea:    s.ImageIdea,
		})
	}
	if len(slides) == 0 {
		return domain.Outline{}, false
	}
	return domain.Outline{Title: doc.Title, Slides: slides}, true
}

// splitSentences cuts text on sentence-ending punctuation and drops empty
// fragments. Trailing punctuation is not preserved.
func splitSentences(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	var out []string
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
