package percentile

import (
	"math"

	"github.com/vertgenlab/gonomics/exception"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PlotDist renders the genome-total depth distribution as a line plot of
// percent of bases at or above each depth, on a log10 depth axis.
func PlotDist(distFile, outFile, sample string) {
	rows := readTotals(distFile)
	pts := make(plotter.XYs, 0, len(rows))
	for i := range rows {
		if rows[i].count == 0 {
			continue
		}
		pts = append(pts, plotter.XY{X: math.Log10(float64(rows[i].count)), Y: rows[i].pct * 100.0})
	}

	pl := plot.New()
	pl.Title.Text = sample + " coverage distribution"
	pl.X.Label.Text = "depth (log10)"
	pl.Y.Label.Text = "% bases at or above depth"
	pl.Y.Min, pl.Y.Max = 0, 100
	pl.Add(plotter.NewGrid())

	line, err := plotter.NewLine(pts)
	exception.PanicOnErr(err)
	pl.Add(line)

	err = pl.Save(15*vg.Centimeter, 10*vg.Centimeter, outFile)
	exception.PanicOnErr(err)
}
