// Package export turns rendered canvases into files that outlive the
// terminal session.
package export

import (
	"fmt"
	"os"
	"strings"

	"github.com/ornlund/mdshake/internal/tui"
)

// SVG serializes a canvas as an SVG document, one circle per lit dot.
// scale is the dot pitch in SVG units.
func SVG(c *tui.Canvas, scale float64) string {
	if c == nil {
		return ""
	}
	if scale <= 0 {
		scale = 4
	}
	w := float64(c.Width*2) * scale
	h := float64(c.Height*4) * scale

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g fill="#4ec9b0">
`, w, h, w, h))

	r := scale * 0.45
	for y := 0; y < c.Height*4; y++ {
		for x := 0; x < c.Width*2; x++ {
			if !c.On(x, y) {
				continue
			}
			cx := (float64(x) + 0.5) * scale
			cy := (float64(y) + 0.5) * scale
			sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f"/>`, cx, cy, r))
			sb.WriteByte('\n')
		}
	}

	sb.WriteString("</g>\n</svg>\n")
	return sb.String()
}

// WriteSVG renders the canvas and writes it to path.
func WriteSVG(path string, c *tui.Canvas, scale float64) error {
	return os.WriteFile(path, []byte(SVG(c, scale)), 0644)
}
