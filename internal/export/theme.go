// Package export turns a stored presentation into a downloadable document:
// a pure transform into an ordered deck structure, followed by a renderer
// that serializes the deck.
package export

// ThemeConfig is the visual identity applied to an exported deck. Colors
// are hex strings with a leading '#'.
type ThemeConfig struct {
	Name          string `json:"name"`
	Background    string `json:"background"`
	PrimaryFont   string `json:"primaryFont"`
	SecondaryFont string `json:"secondaryFont,omitempty"`
	TitleColor    string `json:"titleColor"`
	TextColor     string `json:"textColor"`
	AccentColor   string `json:"accentColor"`
}

// DefaultThemeName is applied when the caller does not pick a theme.
const DefaultThemeName = "professional"

// themes is the fixed registry. Keys are the wire names callers send.
var themes = map[string]ThemeConfig{
	"professional": {
		Name:          "Professional Blue",
		Background:    "#FFFFFF",
		PrimaryFont:   "Segoe UI",
		SecondaryFont: "Segoe UI Light",
		TitleColor:    "#1E3A8A",
		TextColor:     "#374151",
		AccentColor:   "#3B82F6",
	},
	"modern": {
		Name:          "Modern Dark",
		Background:    "#0F172A",
		PrimaryFont:   "Inter",
		SecondaryFont: "Inter Light",
		TitleColor:    "#F8FAFC",
		TextColor:     "#CBD5E1",
		AccentColor:   "#06B6D4",
	},
	"academic": {
		Name:          "Warm Academic",
		Background:    "#FFFBF5",
		PrimaryFont:   "Georgia",
		SecondaryFont: "Georgia",
		TitleColor:    "#7C2D12",
		TextColor:     "#44403C",
		AccentColor:   "#EA580C",
	},
}

// themeOrder fixes the listing order for AvailableThemes.
var themeOrder = []string{"professional", "modern", "academic"}

// ThemeByName looks up a theme by its wire name. The boolean is false for
// unknown names; the registry is never extended at runtime.
func ThemeByName(name string) (ThemeConfig, bool) {
	t, ok := themes[name]
	return t, ok
}

// ThemeListing is one entry of the theme catalog endpoint.
type ThemeListing struct {
	Key     string      `json:"key"`
	Name    string      `json:"name"`
	Preview ThemeConfig `json:"preview"`
}

// AvailableThemes lists the registry in a stable order.
func AvailableThemes() []ThemeListing {
	out := make([]ThemeListing, 0, len(themeOrder))
	for _, key := range themeOrder {
		cfg := themes[key]
		out = append(out, ThemeListing{Key: key, Name: cfg.Name, Preview: cfg})
	}
	return out
}
