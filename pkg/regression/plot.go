package regression

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// SavePredictionPlot draws actual against predicted test values with a
// dashed y = x reference line and writes it to path. The image format
// follows the file extension (.png, .svg, .pdf).
func SavePredictionPlot(ev *Evaluation, path string) error {
	if ev == nil || len(ev.YTest) == 0 {
		return errors.New("no test predictions to plot")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Actual vs predicted %s", ev.Target)
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = "Actual"
	p.Y.Label.Text = "Predicted"

	points := make(plotter.XYs, len(ev.YTest))
	for i := range ev.YTest {
		points[i].X = ev.YTest[i]
		points[i].Y = ev.YPred[i]
	}

	scatter, err := plotter.NewScatter(points)
	if err != nil {
		return fmt.Errorf("failed to build scatter: %w", err)
	}
	scatter.GlyphStyle.Radius = vg.Points(3)

	lo := min(floats.Min(ev.YTest), floats.Min(ev.YPred))
	hi := max(floats.Max(ev.YTest), floats.Max(ev.YPred))
	if lo == hi {
		lo, hi = lo-1, hi+1
	}
	p.X.Min, p.X.Max = lo, hi
	p.Y.Min, p.Y.Max = lo, hi

	line := plotter.NewFunction(func(x float64) float64 { return x })
	line.Dashes = []vg.Length{vg.Points(5), vg.Points(5)}

	p.Add(plotter.NewGrid(), scatter, line)

	if err := p.Save(6*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save plot to %s: %w", path, err)
	}
	return nil
}
