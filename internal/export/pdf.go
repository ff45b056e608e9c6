package export

import (
	"fmt"
	"io"

	"LanBoard/internal/state"

	"github.com/jung-kurt/gofpdf"
)

// Surface coordinates are pixels; one pixel maps to one PDF point.
const margin = 20.0

// PDF renders the strokes of a log snapshot onto a single landscape page.
func PDF(w io.Writer, ops []state.Op) error {
	p := gofpdf.New("L", "pt", "A4", "")
	p.SetMargins(margin, margin, margin)
	p.AddPage()
	p.SetLineCapStyle("round")
	p.SetLineJoinStyle("round")

	for _, op := range ops {
		if op.Type != state.OpStroke {
			continue
		}
		s := op.Stroke
		c := state.ParseColor(s.Color)
		p.SetDrawColor(int(c.R), int(c.G), int(c.B))
		p.SetLineWidth(float64(s.Width))
		p.Line(
			margin+float64(s.X1), margin+float64(s.Y1),
			margin+float64(s.X2), margin+float64(s.Y2),
		)
	}

	if err := p.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
