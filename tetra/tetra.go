// Package tetra converts raw tri-stimulus readings to RGB by barycentric
// interpolation inside the tetrahedron spanned by the four calibration
// anchors (black, white, blue, yellow), with distance-weighted fallbacks for
// degenerate geometry and out-of-gamut queries.
package tetra

import (
	"fmt"

	"github.com/golang/geo/r3"

	"github.com/tristimulus/chromacal/colorconv"
)

// FullScale is the sensor's full-scale reading per channel.
const FullScale = 65535

// insideSlack is how far a barycentric weight may dip below zero before the
// query is treated as outside the tetrahedron. Pure numerical noise at the
// faces stays within this slack.
const insideSlack = 1e-3

// invDistEps keeps inverse-distance weights finite when a query lands exactly
// on an anchor.
const invDistEps = 1e-3

// Anchor is one calibration reference: a normalized sensor point (reading
// divided by full scale, each component in [0,1]) and the RGB it must map to.
type Anchor struct {
	Point r3.Vector
	RGB   colorconv.RGB8
}

// AnchorSet is the four reference anchors of a 4-point calibration.
type AnchorSet struct {
	Black, White, Blue, Yellow Anchor
}

// AnchorsFromReadings builds an AnchorSet from raw readings of the four
// reference swatches, attaching the fixed targets black (0,0,0),
// white (255,255,255), blue (0,0,255) and yellow (255,255,0).
func AnchorsFromReadings(black, white, blue, yellow [3]uint16) AnchorSet {
	return AnchorSet{
		Black:  Anchor{Point: normalize(black), RGB: colorconv.RGB8{}},
		White:  Anchor{Point: normalize(white), RGB: colorconv.RGB8{R: 255, G: 255, B: 255}},
		Blue:   Anchor{Point: normalize(blue), RGB: colorconv.RGB8{B: 255}},
		Yellow: Anchor{Point: normalize(yellow), RGB: colorconv.RGB8{R: 255, G: 255}},
	}
}

func normalize(raw [3]uint16) r3.Vector {
	return r3.Vector{
		X: float64(raw[0]) / FullScale,
		Y: float64(raw[1]) / FullScale,
		Z: float64(raw[2]) / FullScale,
	}
}

// Volume returns the absolute volume of the anchor tetrahedron times six:
// the scalar triple product of the edges from the black anchor.
func (a AnchorSet) Volume() float64 {
	v1 := a.White.Point.Sub(a.Black.Point)
	v2 := a.Blue.Point.Sub(a.Black.Point)
	v3 := a.Yellow.Point.Sub(a.Black.Point)
	vol := v1.Dot(v2.Cross(v3))
	if vol < 0 {
		vol = -vol
	}
	return vol
}

// Weights are the barycentric weights of one query against the four anchors.
// They sum to 1 once Valid. Weights are ephemeral: recomputed per query,
// never persisted.
type Weights struct {
	Black, White, Blue, Yellow float64
	Valid                      bool
}

func (w Weights) Sum() float64 {
	return w.Black + w.White + w.Blue + w.Yellow
}

// Inside reports whether all weights are non-negative within the slack the
// engine allows for numerical noise, i.e. the query lies inside or on the
// tetrahedron.
func (w Weights) Inside() bool {
	return w.Black >= -insideSlack && w.White >= -insideSlack &&
		w.Blue >= -insideSlack && w.Yellow >= -insideSlack
}

func (w Weights) String() string {
	return fmt.Sprintf("Weights{B:%.3f W:%.3f U:%.3f Y:%.3f valid:%v}",
		w.Black, w.White, w.Blue, w.Yellow, w.Valid)
}
