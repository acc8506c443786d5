package document

import (
	"bytes"
	"fmt"

	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/reporting"

	"github.com/fogleman/gg"
	"github.com/pkg/errors"
	"golang.org/x/image/font/basicfont"
)

var ErrNotEnoughPoints = errors.New("a chart needs at least two points")

const (
	chartPadding = 36.0
	maxScore     = 100.0
)

// ProgressChart draws the daily average scores as a PNG line chart.
func ProgressChart(points []reporting.ProgressPoint, width, height int) ([]byte, error) {
	if len(points) < 2 {
		return nil, ErrNotEnoughPoints
	}

	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	left, top := chartPadding, chartPadding/2
	right, bottom := float64(width)-chartPadding/2, float64(height)-chartPadding
	plotW, plotH := right-left, bottom-top

	x := func(i int) float64 {
		return left + plotW*float64(i)/float64(len(points)-1)
	}
	y := func(score float64) float64 {
		if score > maxScore {
			score = maxScore
		}
		return bottom - plotH*score/maxScore
	}

	// grid
	dc.SetLineWidth(1)
	for score := 0.0; score <= maxScore; score += 25 {
		dc.SetRGB(0.85, 0.85, 0.85)
		dc.DrawLine(left, y(score), right, y(score))
		dc.Stroke()
		dc.SetRGB(0.3, 0.3, 0.3)
		dc.DrawStringAnchored(fmt.Sprintf("%.0f", score), left-6, y(score), 1, 0.35)
	}

	dc.SetRGB(0.16, 0.45, 0.75)
	dc.SetLineWidth(2)
	for i, p := range points {
		if i == 0 {
			dc.MoveTo(x(i), y(p.AverageScore))
			continue
		}
		dc.LineTo(x(i), y(p.AverageScore))
	}
	dc.Stroke()
	for i, p := range points {
		dc.DrawCircle(x(i), y(p.AverageScore), 3)
		dc.Fill()
	}

	dc.SetRGB(0.3, 0.3, 0.3)
	dc.DrawStringAnchored(points[0].Date, left, bottom+14, 0, 0.5)
	dc.DrawStringAnchored(points[len(points)-1].Date, right, bottom+14, 1, 0.5)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, errors.Wrap(err, "failed to encode chart")
	}
	return buf.Bytes(), nil
}
