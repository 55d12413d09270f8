// Command demo runs the full calibrate -> convert -> score pipeline against a
// simulated sensor and prints a per-swatch accuracy report.
//
// The simulated sensor applies a fixed cross-talk matrix to the linearized
// sRGB of whatever it "sees", so the demo exercises both calibration paths
// with readings that are distorted the way real hardware distorts them.
package main

import (
	"fmt"
	"math"
	"os"

	"golang.org/x/image/colornames"

	"github.com/tristimulus/chromacal"
	"github.com/tristimulus/chromacal/ccm"
	"github.com/tristimulus/chromacal/colorconv"
)

// sensorMatrix mixes linear RGB into the sensor's X, Y, Z channels. Rows do
// not sum to 1 on purpose: the whole point of calibration is undoing this.
var sensorMatrix = [3][3]float64{
	{0.72, 0.22, 0.06},
	{0.18, 0.74, 0.08},
	{0.05, 0.12, 0.83},
}

// sense simulates the sensor looking at an sRGB swatch.
func sense(c colorconv.RGB8) [3]uint16 {
	lin := [3]float64{
		colorconv.SRGBToLinear(float64(c.R) / 255),
		colorconv.SRGBToLinear(float64(c.G) / 255),
		colorconv.SRGBToLinear(float64(c.B) / 255),
	}
	var out [3]uint16
	for i := range 3 {
		v := sensorMatrix[i][0]*lin[0] + sensorMatrix[i][1]*lin[1] + sensorMatrix[i][2]*lin[2]
		out[i] = uint16(math.Round(math.Max(0, math.Min(v, 1)) * 60000))
	}
	return out
}

var calibrationSwatches = []string{"black", "white", "red", "green", "blue", "yellow"}

var testSwatches = []string{
	"orange", "teal", "violet", "salmon", "olive", "navy",
	"gold", "turquoise", "crimson", "slategray",
}

func named(name string) colorconv.RGB8 {
	c, ok := colornames.Map[name]
	if !ok {
		fmt.Fprintln(os.Stderr, "unknown color name:", name)
		os.Exit(1)
	}
	return colorconv.RGB8{R: c.R, G: c.G, B: c.B}
}

func main() {
	swatches := testSwatches
	if len(os.Args) > 1 {
		swatches = os.Args[1:]
	}

	conv := chromacal.New()

	// 4-point anchor calibration from the simulated reference swatches.
	if err := conv.Calibrate4Point(
		sense(named("black")), sense(named("white")),
		sense(named("blue")), sense(named("yellow")),
	); err != nil {
		fmt.Fprintln(os.Stderr, "anchor calibration failed:", err)
		os.Exit(1)
	}

	// Matrix calibration from six swatches.
	points := make([]ccm.Point, 0, len(calibrationSwatches))
	for _, name := range calibrationSwatches {
		target := named(name)
		r := sense(target)
		points = append(points, ccm.Point{
			X: r[0], Y: r[1], Z: r[2],
			R: target.R, G: target.G, B: target.B,
		})
	}
	if err := conv.FitMatrix(points); err != nil {
		fmt.Fprintln(os.Stderr, "matrix fit failed:", err)
		os.Exit(1)
	}
	m := conv.Matrix()
	fmt.Printf("fitted matrix: det=%.6f cond=%.2f\n\n", m.Determinant, m.ConditionNumber)

	diff := conv.Difference()
	fmt.Printf("%-12s %-9s %-9s %-20s %8s  %s\n",
		"swatch", "target", "got", "method", "dE2000", "quality")
	for _, name := range swatches {
		target := named(name)
		r := sense(target)
		got, method := conv.Convert(chromacal.Reading{X: r[0], Y: r[1], Z: r[2]})
		res := diff.DeltaE2000RGB(target, got)
		fmt.Printf("%-12s %-9s %-9s %-20s %8.2f  %s\n",
			name, target.AsSharp(), got.AsSharp(), method, res.DeltaE2000, res.Quality)
	}

	if results, mean, err := conv.SelfTest(); err == nil {
		fmt.Printf("\nanchor self-test: mean dE2000 %.3f over %d anchors\n", mean, len(results))
	}
	s := conv.Stats()
	fmt.Printf("conversions: tetra=%d ccm=%d linear=%d fallback=%d gamut coverage=%.1f%%\n",
		s.Tetrahedral, s.CCM, s.Linear2Point, s.Fallback, s.Accuracy4Point)
}
