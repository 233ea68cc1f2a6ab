package alerts

import "strings"

// Color is a named RGB color from the alert palette.
type Color struct {
	Name    string
	R, G, B uint8
}

// RGB returns the color as a [r, g, b] triple for wire frames.
func (c Color) RGB() [3]uint8 {
	return [3]uint8{c.R, c.G, c.B}
}

// Palette is the set of colors a tipper or chatter can request by name.
var Palette = []Color{
	{Name: "red", R: 255},
	{Name: "orange", R: 255, G: 165},
	{Name: "yellow", R: 255, G: 255},
	{Name: "green", G: 255},
	{Name: "blue", B: 255},
	{Name: "indigo", R: 75, B: 130},
	{Name: "violet", R: 148, B: 211},
}

// ParseColor resolves a palette color from free text, case-insensitively.
// The text is cleaned of tip-menu artifacts first.
func ParseColor(s string) (Color, bool) {
	name := strings.ToLower(strings.TrimSpace(CleanMessage(s)))
	for _, c := range Palette {
		if c.Name == name {
			return c, true
		}
	}
	return Color{}, false
}

// CleanMessage strips the "-- Select One --" artifacts that tip menus prepend
// to tip messages.
func CleanMessage(s string) string {
	s = strings.ReplaceAll(s, "-- Select One -- | ", "")
	s = strings.ReplaceAll(s, "-- Select One --", "")
	return strings.ReplaceAll(s, " | ", "")
}
