// Package render describes the label node drawn for an anchor. It does not draw.
package render

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/lucasb-eyer/go-colorful"

	"sightseer/pkg/registry"
)

// Label metrics. The renderer's default label font is 32pt.
const (
	FontSize     = 32.0
	glyphWidth   = 0.55 // average advance as a fraction of the font size
	lineHeight   = 1.2
	scaleX       = 1.1
	scaleY       = 1.4
	CornerRadius = 10.0
	LineWidth    = 2.0
)

// Rand is the randomness needed to pick a background hue.
// *math/rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// Color is a hue/saturation/brightness/alpha color, all components in [0,1].
type Color struct {
	H float64 `json:"h"`
	S float64 `json:"s"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

// Node is the background shape with its centred label.
type Node struct {
	Text         string  `json:"text"`
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	CornerRadius float64 `json:"corner_radius"`
	Fill         Color   `json:"fill"`
	Stroke       Color   `json:"stroke"`
	LineWidth    float64 `json:"line_width"`
	FillHex      string  `json:"fill_hex"`
	StrokeHex    string  `json:"stroke_hex"`
}

// NodeFor builds the label node for an anchor. Unregistered anchors get the
// registry's fallback label.
func NodeFor(id uuid.UUID, reg *registry.Registry, rng Rand) Node {
	text := reg.Lookup(id)
	w, h := TextSize(text)

	fill := Color{H: rng.Float64(), S: 0.5, B: 0.4, A: 0.9}
	stroke := fill
	stroke.A = 1

	return Node{
		Text:         text,
		Width:        w * scaleX,
		Height:       h * scaleY,
		CornerRadius: CornerRadius,
		Fill:         fill,
		Stroke:       stroke,
		LineWidth:    LineWidth,
		FillHex:      fill.Hex(),
		StrokeHex:    stroke.Hex(),
	}
}

// TextSize estimates the unscaled frame of a single-line label.
func TextSize(text string) (width, height float64) {
	return float64(utf8.RuneCountInString(text)) * FontSize * glyphWidth, FontSize * lineHeight
}

// RGB converts to 8-bit red, green, blue.
func (c Color) RGB() (r, g, b uint8) {
	h := math.Mod(c.H, 1)
	if h < 0 {
		h++
	}
	return colorful.Hsv(h*360, c.S, c.B).RGB255()
}

// Hex formats the color as #rrggbbaa.
func (c Color) Hex() string {
	r, g, b := c.RGB()
	return fmt.Sprintf("#%02x%02x%02x%02x", r, g, b, uint8(math.Round(c.A*255)))
}
