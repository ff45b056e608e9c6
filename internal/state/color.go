package state

import (
	"image/color"
	"strconv"
	"strings"
)

var namedColors = map[string]color.NRGBA{
	"black":  {A: 255},
	"white":  {R: 255, G: 255, B: 255, A: 255},
	"red":    {R: 255, A: 255},
	"green":  {G: 255, A: 255},
	"blue":   {B: 255, A: 255},
	"yellow": {R: 255, G: 255, A: 255},
}

// ParseColor maps a wire colour ("red", "#ff8800") to RGBA. Unknown names fall
// back to black.
func ParseColor(name string) color.NRGBA {
	if c, ok := namedColors[strings.ToLower(name)]; ok {
		return c
	}
	if len(name) == 7 && name[0] == '#' {
		v, err := strconv.ParseUint(name[1:], 16, 32)
		if err == nil {
			return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
		}
	}
	return namedColors["black"]
}

// ColorName is the inverse of ParseColor for swatch colours; anything that is
// not a named colour is written as #rrggbb.
func ColorName(c color.Color) string {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	n.A = 255
	for name, known := range namedColors {
		if known == n {
			return name
		}
	}
	return "#" + hex2(n.R) + hex2(n.G) + hex2(n.B)
}

func hex2(v uint8) string {
	s := strconv.FormatUint(uint64(v), 16)
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
