// Package diagnostics renders offline debugging plots over emulator
// telemetry, grounded on the teacher repository's
// pkg/display/fyne/views/performance.go frame-time plot. Nothing here
// sits on the Tick hot path; it exists for the "diagnostics tooling"
// home spec_full §10 gives gonum.org/v1/plot.
package diagnostics

import (
	"fmt"
	"image"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// AmplitudePlot renders one frame's worth of mixed stereo samples
// (interleaved left/right float32 pairs, as pushed through
// apu.AudioQueue.Push) as a time-domain waveform image, for offline
// inspection of channel mixing bugs (spec §4.5's mixer).
func AmplitudePlot(samples []float32, width, height int) (image.Image, error) {
	p := plot.New()
	p.Title.Text = "APU mixer output"
	p.X.Label.Text = "sample"
	p.Y.Label.Text = "amplitude"

	left := make(plotter.XYs, len(samples)/2)
	right := make(plotter.XYs, len(samples)/2)
	for i := 0; i < len(samples)/2; i++ {
		left[i].X = float64(i)
		left[i].Y = float64(samples[i*2])
		right[i].X = float64(i)
		right[i].Y = float64(samples[i*2+1])
	}

	leftLine, err := plotter.NewLine(left)
	if err != nil {
		return nil, fmt.Errorf("diagnostics: %w", err)
	}
	rightLine, err := plotter.NewLine(right)
	if err != nil {
		return nil, fmt.Errorf("diagnostics: %w", err)
	}
	p.Add(leftLine, rightLine)
	p.Legend.Add("L", leftLine)
	p.Legend.Add("R", rightLine)

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	c := vgimg.NewWith(vgimg.UseImage(img))
	p.Draw(draw.New(c))
	return c.Image(), nil
}

// FrameTimePlot renders a rolling window of per-Tick wall-clock
// durations (in milliseconds), for spotting GPU/APU pacing stalls.
func FrameTimePlot(frameTimesMs []float64, width, height int) (image.Image, error) {
	p := plot.New()
	p.Title.Text = "Frame Time"
	p.X.Label.Text = "frame"
	p.Y.Label.Text = "ms"

	pts := make(plotter.XYs, len(frameTimesMs))
	for i, v := range frameTimesMs {
		pts[i].X = float64(i)
		pts[i].Y = v
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("diagnostics: %w", err)
	}
	p.Add(line)

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	c := vgimg.NewWith(vgimg.UseImage(img))
	p.Draw(draw.New(c))
	return c.Image(), nil
}
