package render

import "strings"

// Theme colors the printed book. Colors are CSS hex values.
type Theme struct {
	Name       string
	Primary    string
	Accent     string
	Paper      string
	Border     string
	CoverText  string
	HeaderName string
	HeaderDate string
	FooterText string
	StatsTitle string
	StatsText  string
	BackText   string
}

var (
	ThemeRed = Theme{
		Name:       "red",
		Primary:    "#c44a3d",
		Accent:     "#ff6666",
		Paper:      "#f5f0e8",
		Border:     "#d4a574",
		CoverText:  "#ff6666",
		HeaderName: "#ff6666",
		HeaderDate: "#000000",
		FooterText: "#333333",
		StatsTitle: "#ff6666",
		StatsText:  "#333333",
		BackText:   "#ffd391",
	}

	ThemeGray = Theme{
		Name:       "gray",
		Primary:    "#4a4a4a",
		Accent:     "#666666",
		Paper:      "#e8e8e8",
		Border:     "#999999",
		CoverText:  "#ffffff",
		HeaderName: "#00000099",
		HeaderDate: "#00000099",
		FooterText: "#00000099",
		StatsTitle: "#000000",
		StatsText:  "#000000",
		BackText:   "#ffffff",
	}
)

// ThemeByName returns the named theme, defaulting to red.
func ThemeByName(name string) Theme {
	if strings.EqualFold(strings.TrimSpace(name), ThemeGray.Name) {
		return ThemeGray
	}
	return ThemeRed
}
