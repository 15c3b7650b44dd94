// Command odometry-plot renders the accumulated trajectory recorded by
// odometry-replay to a top-down PNG, in the plotting idiom of the
// teacher's grid monitor: gonum.org/v1/plot for the figure, a single
// plotter.Line per series, saved at a fixed page size.
package main

import (
	"context"
	"flag"
	"fmt"
	"image/color"
	"log"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/lidar-odometry/internal/odometry/store"
)

var (
	dbFile = flag.String("db", "odometry.db", "Path to the SQLite trajectory database")
	out    = flag.String("out", "trajectory.png", "Output PNG path")
)

func main() {
	flag.Parse()

	st, err := store.Open(*dbFile)
	if err != nil {
		log.Fatalf("odometry-plot: open store: %v", err)
	}
	defer st.Close()

	records, err := st.Trajectory(context.Background())
	if err != nil {
		log.Fatalf("odometry-plot: load trajectory: %v", err)
	}
	if len(records) == 0 {
		log.Fatalf("odometry-plot: no recorded sweeps in %s", *dbFile)
	}

	if err := renderTrajectory(records, *out); err != nil {
		log.Fatalf("odometry-plot: render: %v", err)
	}
	log.Printf("wrote %s (%d sweeps)", *out, len(records))
}

func renderTrajectory(records []store.SweepRecord, path string) error {
	p := plot.New()
	p.Title.Text = "Accumulated trajectory (top-down)"
	p.X.Label.Text = "tx (m)"
	p.Y.Label.Text = "tz (m)"

	pts := make(plotter.XYs, len(records))
	for i, r := range records {
		pts[i] = plotter.XY{X: r.Pose.Tx, Y: r.Pose.Tz}
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("build trajectory line: %w", err)
	}
	line.Width = vg.Points(1.5)
	line.Color = color.RGBA{R: 0x20, G: 0x6f, B: 0xc4, A: 0xff}
	p.Add(line)

	if err := p.Save(10*vg.Inch, 10*vg.Inch, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
