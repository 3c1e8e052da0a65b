// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

package layer

import "fmt"

// Color is one of the PCB editor's base colors.
type Color int

const (
	Black Color = iota
	DarkDarkGray
	DarkGray
	LightGray
	White
	LightYellow
	DarkBlue
	DarkGreen
	DarkCyan
	DarkRed
	DarkMagenta
	DarkBrown
	Blue
	Green
	Cyan
	Red
	Magenta
	Brown
	LightBlue
	LightGreen
	LightCyan
	LightRed
	LightMagenta
	Yellow
	PureBlue
	PureGreen
	PureCyan
	PureRed
	PureMagenta
	PureYellow

	colorCount
)

// RGB is a 24-bit color.
type RGB struct {
	R, G, B uint8
}

// Hex returns the color as "#rrggbb".
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

type colorInfo struct {
	name string
	rgb  RGB
}

// colors is indexed by Color. The array length makes a missing entry a
// compile error.
var colors = [colorCount]colorInfo{
	Black:        {"BLACK", RGB{0, 0, 0}},
	DarkDarkGray: {"DARKDARKGRAY", RGB{72, 72, 72}},
	DarkGray:     {"DARKGRAY", RGB{132, 132, 132}},
	LightGray:    {"LIGHTGRAY", RGB{194, 194, 194}},
	White:        {"WHITE", RGB{255, 255, 255}},
	LightYellow:  {"LIGHTYELLOW", RGB{255, 255, 194}},
	DarkBlue:     {"DARKBLUE", RGB{0, 0, 72}},
	DarkGreen:    {"DARKGREEN", RGB{0, 72, 0}},
	DarkCyan:     {"DARKCYAN", RGB{0, 72, 72}},
	DarkRed:      {"DARKRED", RGB{72, 0, 0}},
	DarkMagenta:  {"DARKMAGENTA", RGB{72, 0, 72}},
	DarkBrown:    {"DARKBROWN", RGB{72, 72, 0}},
	Blue:         {"BLUE", RGB{0, 0, 132}},
	Green:        {"GREEN", RGB{0, 132, 0}},
	Cyan:         {"CYAN", RGB{0, 132, 132}},
	Red:          {"RED", RGB{132, 0, 0}},
	Magenta:      {"MAGENTA", RGB{132, 0, 132}},
	Brown:        {"BROWN", RGB{132, 132, 0}},
	LightBlue:    {"LIGHTBLUE", RGB{0, 0, 194}},
	LightGreen:   {"LIGHTGREEN", RGB{0, 194, 0}},
	LightCyan:    {"LIGHTCYAN", RGB{0, 194, 194}},
	LightRed:     {"LIGHTRED", RGB{194, 0, 0}},
	LightMagenta: {"LIGHTMAGENTA", RGB{194, 0, 194}},
	Yellow:       {"YELLOW", RGB{194, 194, 0}},
	PureBlue:     {"PUREBLUE", RGB{0, 0, 255}},
	PureGreen:    {"PUREGREEN", RGB{0, 255, 0}},
	PureCyan:     {"PURECYAN", RGB{0, 255, 255}},
	PureRed:      {"PURERED", RGB{255, 0, 0}},
	PureMagenta:  {"PUREMAGENTA", RGB{255, 0, 255}},
	PureYellow:   {"PUREYELLOW", RGB{255, 255, 0}},
}

// Colors returns every color in enumeration order.
func Colors() []Color {
	all := make([]Color, colorCount)
	for i := range all {
		all[i] = Color(i)
	}
	return all
}

// Valid reports whether c is a defined color.
func (c Color) Valid() bool { return c >= 0 && c < colorCount }

func (c Color) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Color(%d)", int(c))
	}
	return colors[c].name
}

// RGB returns the color's components. It panics on an undefined color,
// which can only be produced by converting an arbitrary integer.
func (c Color) RGB() RGB {
	if !c.Valid() {
		panic(fmt.Sprintf("layer: undefined color %d", int(c)))
	}
	return colors[c].rgb
}
