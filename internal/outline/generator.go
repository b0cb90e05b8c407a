// Package outline structures raw transcript text into a slide outline using
// a text-generation model. Model output is untrusted: parsing degrades
// through a chain of formats and ends at a fixed fallback outline, so a
// generation request never fails because the model rambled.
package outline

import (
	"context"
	"fmt"
	"strings"

	"oned/pkg/ai"
	"oned/pkg/domain"
)

// fallbackTitle is used when neither the caller nor the model supplied one.
const fallbackTitle = "Generated Presentation"

// placeholderBullet fills a topic whose content yielded no usable points.
const placeholderBullet = "Content from transcription"

// Generator turns transcripts into outlines with one model call each.
type Generator struct {
	gen ai.TextGenerator
}

func NewGenerator(gen ai.TextGenerator) *Generator {
	return &Generator{gen: gen}
}

// Structure asks the model to organize the transcript into chapters and
// topics, then parses the reply. The returned outline always has at least
// one slide.
func (g *Generator) Structure(ctx context.Context, transcript string) (domain.Outline, error) {
	reply, err := g.gen.GenerateText(ctx, systemPrompt, userPrompt(transcript))
	if err != nil {
		return domain.Outline{}, fmt.Errorf("generate outline: %w", err)
	}
	return ParseModelReply(reply), nil
}

// ParseModelReply extracts an outline from raw model output. It tries the
// chapter format first, then the legacy flat-slides format, and finally
// returns the fixed fallback outline.
func ParseModelReply(reply string) domain.Outline {
	raw, ok := extractJSON(reply)
	if ok {
		if outline, ok := parseChapters(raw); ok {
			return outline
		}
		if outline, ok := parseFlatSlides(raw); ok {
			return outline
		}
	}
	return Fallback()
}

// ResolveTitle picks the deck title: an explicit caller title wins, then
// whatever the model produced, then the fixed fallback.
func ResolveTitle(callerTitle, modelTitle string) string {
	if t := strings.TrimSpace(callerTitle); t != "" {
		return t
	}
	if t := strings.TrimSpace(modelTitle); t != "" {
		return t
	}
	return fallbackTitle
}

const systemPrompt = `You are an expert content summarizer and presentation designer. Your task is to take the following transcription and create a detailed, comprehensive set of notes or slides.

GUIDELINES:
1. First, divide the transcription into **chapters or phases** based on natural topic or theme changes.
2. Each chapter can have multiple **topics**. Each topic may include:
   - Paragraph text
   - Key points
   - Examples, analogies, definitions, calculations, or data mentioned
3. Ensure **no information is lost**: all facts, examples, calculations, and points in the transcription must be captured.
4. Summarize the content effectively while keeping all essential details.
5. For each topic/slide include:
   - "title": A concise, descriptive title (max 8 words)
   - "content": Main text or explanation (can be multi-sentence)
   - "bulletPoints": Key points or summary (if applicable)
   - "keyTakeaway": One to two sentences highlighting the main message
   - "imageIdea": Suggestion for a visual, chart, or diagram (optional)
6. Chapters, topics, and slides can be of any length or number depending on transcription length.
7. Tone should be clear, professional, and audience-friendly.
8. Output **must be valid JSON only** — no extra commentary or explanations.

OUTPUT FORMAT (JSON object):
{
  "title": "Main Presentation/Notes Title",
  "chapters": [
    {
      "title": "Chapter Title",
      "topics": [
        {
          "title": "Topic Title",
          "content": "Detailed explanation or text here",
          "bulletPoints": [
            "Point 1",
            "Point 2"
          ],
          "keyTakeaway": "Summary sentence here",
          "imageIdea": "Visual suggestion here"
        }
      ]
    }
  ]
}`

func userPrompt(transcript string) string {
	return "Transcript:\n\"\"\"\n" + transcript + "\n\"\"\""
}

// Fallback is the last-resort outline, used when the model reply cannot be
// parsed in any known format or the model could not be reached at all.
func Fallback() domain.Outline {
	return domain.Outline{
		Title: fallbackTitle,
		Slides: []domain.OutlineSlide{
			{
				Title: "Summary",
				BulletPoints: []string{
					"Content extracted from transcription",
					"Please review and edit as needed",
					"Additional slides can be added manually",
				},
			},
		},
	}
}
