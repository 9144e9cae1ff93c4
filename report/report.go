// Package report renders clustering results as charts: the SSE-vs-K
// elbow curve and two-dimensional cluster scatter plots.
package report

import (
	"errors"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/clusterkit/clusterkit/elbow"
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("nothing to plot")

// clusterPalette colors scatter points by cluster assignment.
var clusterPalette = []color.RGBA{
	{R: 214, G: 69, B: 65, A: 255},
	{R: 31, G: 119, B: 180, A: 255},
	{R: 44, G: 160, B: 44, A: 255},
	{R: 148, G: 103, B: 189, A: 255},
	{R: 255, G: 127, B: 14, A: 255},
	{R: 23, G: 190, B: 207, A: 255},
	{R: 140, G: 86, B: 75, A: 255},
	{R: 227, G: 119, B: 194, A: 255},
}

// ElbowChart renders the SSE curve of a sweep with the detected knee
// highlighted, and saves it to path. The image format follows the file
// extension (png, svg, pdf, ...).
func ElbowChart(res *elbow.Result, path string) error {
	if res == nil || len(res.Points) == 0 {
		return ErrNoData
	}

	p := plot.New()
	p.Title.Text = "Elbow Method"
	p.X.Label.Text = "Number of Clusters (K)"
	p.Y.Label.Text = "SSE"

	pts := make(plotter.XYs, len(res.Points))
	for i, pt := range res.Points {
		pts[i].X = float64(pt.K)
		pts[i].Y = pt.SSE
	}

	line, scatter, err := plotter.NewLinePoints(pts)
	if err != nil {
		return err
	}
	line.Color = clusterPalette[1]
	line.Width = vg.Points(1.5)
	scatter.Color = clusterPalette[1]
	scatter.Radius = vg.Points(2.5)
	p.Add(line, scatter)

	knee := res.Knee()
	kneePts := plotter.XYs{{X: float64(knee), Y: res.SSE(knee)}}
	kneeMark, err := plotter.NewScatter(kneePts)
	if err != nil {
		return err
	}
	kneeMark.Color = clusterPalette[0]
	kneeMark.Shape = draw.RingGlyph{}
	kneeMark.Radius = vg.Points(5)
	p.Add(kneeMark)
	p.Legend.Add(fmt.Sprintf("elbow at k=%d", knee), kneeMark)
	p.Legend.Top = true

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

// ScatterChart renders points colored by cluster assignment on the
// first two feature axes, with centroids drawn as crosses, and saves
// it to path.
func ScatterChart(X [][]float64, assignments []int, centroids [][]float64, path string) error {
	if len(X) == 0 || len(assignments) != len(X) {
		return ErrNoData
	}
	if len(X[0]) < 2 {
		return fmt.Errorf("scatter chart needs at least 2 features, got %d", len(X[0]))
	}

	p := plot.New()
	p.Title.Text = "Cluster Assignments"
	p.X.Label.Text = "Feature 1"
	p.Y.Label.Text = "Feature 2"

	numClusters := 0
	for _, a := range assignments {
		if a >= numClusters {
			numClusters = a + 1
		}
	}

	for k := 0; k < numClusters; k++ {
		pts := make(plotter.XYs, 0)
		for i, a := range assignments {
			if a == k {
				pts = append(pts, plotter.XY{X: X[i][0], Y: X[i][1]})
			}
		}
		if len(pts) == 0 {
			continue
		}
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return err
		}
		s.Color = clusterPalette[k%len(clusterPalette)]
		s.Radius = vg.Points(2)
		p.Add(s)
		p.Legend.Add(fmt.Sprintf("cluster %d", k), s)
	}

	if len(centroids) > 0 {
		pts := make(plotter.XYs, 0, len(centroids))
		for _, c := range centroids {
			if len(c) >= 2 {
				pts = append(pts, plotter.XY{X: c[0], Y: c[1]})
			}
		}
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return err
		}
		s.Color = color.RGBA{A: 255}
		s.Shape = draw.CrossGlyph{}
		s.Radius = vg.Points(5)
		p.Add(s)
		p.Legend.Add("centroids", s)
	}

	p.Legend.Top = true
	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
