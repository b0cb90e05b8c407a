package export

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"
)

// ErrRenderFailed wraps document writer failures.
var ErrRenderFailed = errors.New("export rendering failed")

// RenderedDocument is a finished export ready to send to the client.
type RenderedDocument struct {
	Bytes       []byte
	Filename    string
	ContentType string
}

// Renderer serializes a validated deck into one output format.
type Renderer interface {
	Render(deck ExportDeck) (RenderedDocument, error)
}

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// DocxRenderer writes the deck as a Word document: one heading per slide
// with its bullets underneath, styled with the deck theme.
type DocxRenderer struct{}

func NewDocxRenderer() *DocxRenderer {
	return &DocxRenderer{}
}

func (r *DocxRenderer) Render(deck ExportDeck) (RenderedDocument, error) {
	if err := Validate(deck); err != nil {
		return RenderedDocument{}, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}

	doc, err := godocx.NewDocument()
	if err != nil {
		return RenderedDocument{}, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}

	theme := deck.Theme
	for _, slide := range deck.Slides {
		if slide.Type == SlideTypeTitle {
			p := doc.AddParagraph("")
			p.AddText(slide.Title.Text).
				Font(theme.PrimaryFont).
				Size(18).
				Color(docxColor(theme.TitleColor)).
				Bold(true)
			byline := doc.AddParagraph("")
			byline.AddText(deck.Metadata.Author).
				Font(theme.PrimaryFont).
				Size(12).
				Color(docxColor(theme.TextColor))
			doc.AddParagraph("")
			continue
		}

		heading := doc.AddParagraph("")
		heading.AddText(slide.Title.Text).
			Font(theme.PrimaryFont).
			Size(14).
			Color(docxColor(theme.TitleColor)).
			Bold(true)

		for _, bullet := range slide.Content.BulletPoints {
			addBullet(doc, theme, bullet)
		}
		doc.AddParagraph("")
	}

	tmp, err := os.CreateTemp("", "export-*.docx")
	if err != nil {
		return RenderedDocument{}, fmt.Errorf("%w: temp file: %v", ErrRenderFailed, err)
	}
	path := tmp.Name()
	tmp.Close()
	defer os.Remove(path)

	if err := doc.SaveTo(path); err != nil {
		return RenderedDocument{}, fmt.Errorf("%w: save: %v", ErrRenderFailed, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return RenderedDocument{}, fmt.Errorf("%w: read back: %v", ErrRenderFailed, err)
	}

	return RenderedDocument{
		Bytes:       data,
		Filename:    sanitizeFilename(deck.Metadata.Title) + ".docx",
		ContentType: docxContentType,
	}, nil
}

func addBullet(doc *docx.RootDoc, theme ThemeConfig, bullet Bullet) {
	p := doc.AddParagraph("")
	indent := strings.Repeat("    ", bullet.Level)
	p.AddText(indent + "• " + bullet.Text).
		Font(theme.PrimaryFont).
		Size(11).
		Color(docxColor(theme.TextColor))
}

// docxColor strips the leading '#'; the document format wants bare hex.
func docxColor(hex string) string {
	return strings.TrimPrefix(hex, "#")
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// sanitizeFilename keeps titles safe to use in Content-Disposition and on
// disk.
func sanitizeFilename(title string) string {
	name := unsafeFilenameChars.ReplaceAllString(title, "_")
	name = strings.Trim(name, "_")
	if name == "" {
		name = "presentation"
	}
	if len(name) > 80 {
		name = name[:80]
	}
	return name
}
