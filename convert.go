package chromacal

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/tristimulus/chromacal/ccm"
	"github.com/tristimulus/chromacal/colorconv"
	"github.com/tristimulus/chromacal/deltae"
	"github.com/tristimulus/chromacal/tetra"
)

// Method identifies which conversion strategy produced an RGB result.
type Method int

const (
	// MethodFallback is the raw channel scaling used when no calibration
	// data is available at all.
	MethodFallback Method = iota
	// MethodLinear2Point is the per-channel linear map between the black and
	// white reference readings.
	MethodLinear2Point
	// MethodCCM is the least-squares color correction matrix.
	MethodCCM
	// MethodTetrahedral is the 4-point barycentric interpolation.
	MethodTetrahedral
)

var methodNames = map[Method]string{
	MethodFallback:     "fallback",
	MethodLinear2Point: "linear-2-point",
	MethodCCM:          "ccm-3x3",
	MethodTetrahedral:  "tetrahedral-4-point",
}

func (m Method) String() string {
	return methodNames[m]
}

// Reading is one raw sensor sample: the tri-stimulus channels plus the two
// infrared side-channels used for optional compensation.
type Reading struct {
	X, Y, Z  uint16
	IR1, IR2 uint16
}

// IRCompensation attenuates the tri-stimulus channels in proportion to the
// mean infrared level. Disabled by default; Factor is the fraction of full
// infrared that cancels a full reading.
type IRCompensation struct {
	Enabled bool
	Factor  float64
}

// Stats counts conversions by method. The tetrahedral figures come from the
// interpolator: Accuracy4Point is 100 minus its fallback rate, a rough
// measure of how well the anchors cover the gamut being measured.
type Stats struct {
	Fallback       uint64
	Linear2Point   uint64
	CCM            uint64
	Tetrahedral    uint64
	Accuracy4Point float64
}

// ErrNoAnchors is returned by SelfTest when no 4-point calibration has been
// installed.
var ErrNoAnchors = errors.New("chromacal: no anchor calibration installed")

// Converter dispatches each reading to the best conversion strategy the
// installed calibration data supports: tetrahedral when a valid anchor set is
// present, then the correction matrix, then the 2-point linear map, then the
// raw fallback. A Converter owns mutable counters, so concurrent callers must
// either serialize access or use one Converter each.
type Converter struct {
	IR IRCompensation

	// Log receives calibration and degraded-confidence diagnostics; nil
	// means slog.Default.
	Log *slog.Logger

	matrix ccm.Matrix
	interp *tetra.Interpolator
	diff   *deltae.Engine

	anchorReadings [4][3]uint16 // black, white, blue, yellow raws for self-test
	blackRef       [3]uint16
	whiteRef       [3]uint16
	has2Point      bool

	stats Stats
}

func New() *Converter {
	return &Converter{
		interp: tetra.NewInterpolator(),
		diff:   deltae.New(),
	}
}

func (c *Converter) logger() *slog.Logger {
	if c.Log != nil {
		return c.Log
	}
	return slog.Default()
}

// FitMatrix runs the least-squares solver over the calibration points and
// installs the result. A failed fit leaves any previous matrix in place.
func (c *Converter) FitMatrix(points []ccm.Point) error {
	solver := ccm.Solver{Log: c.Log}
	m, err := solver.Fit(points)
	if err != nil {
		return err
	}
	c.matrix = m
	c.logger().Info("correction matrix installed",
		slog.Float64("determinant", float64(m.Determinant)),
		slog.Float64("condition_number", float64(m.ConditionNumber)))
	return nil
}

// SetMatrix installs an externally produced correction matrix, rejecting
// invalid ones.
func (c *Converter) SetMatrix(m ccm.Matrix) error {
	if !m.Valid {
		return fmt.Errorf("%w: refusing invalid matrix", ccm.ErrSingularFit)
	}
	c.matrix = m
	return nil
}

// Matrix returns the installed correction matrix; Valid is false when none
// has been installed.
func (c *Converter) Matrix() ccm.Matrix {
	return c.matrix
}

// Calibrate4Point installs the four anchor readings (black, white, blue,
// yellow swatches under locked lighting) and initializes the tetrahedral
// interpolator. It also installs the black/white pair as the 2-point
// references so the linear path stays available if the geometry later has to
// be torn down.
func (c *Converter) Calibrate4Point(black, white, blue, yellow [3]uint16) error {
	c.interp.Log = c.Log
	if err := c.interp.Initialize(tetra.AnchorsFromReadings(black, white, blue, yellow)); err != nil {
		return err
	}
	c.anchorReadings = [4][3]uint16{black, white, blue, yellow}
	c.Calibrate2Point(black, white)
	return nil
}

// Calibrate2Point installs the black and white reference readings for the
// linear conversion path.
func (c *Converter) Calibrate2Point(black, white [3]uint16) {
	c.blackRef = black
	c.whiteRef = white
	c.has2Point = true
}

// Convert maps one reading to 8-bit sRGB and tags which strategy produced it.
// It never fails: with no calibration installed the raw fallback still
// produces a value.
func (c *Converter) Convert(r Reading) (colorconv.RGB8, Method) {
	x, y, z := c.compensate(r)

	if c.interp.Ready() {
		rgb, err := c.interp.Convert(x, y, z)
		if err == nil {
			c.stats.Tetrahedral++
			return rgb, MethodTetrahedral
		}
	}
	if c.matrix.Valid {
		cr, cg, cb := c.matrix.Apply(x, y, z)
		c.stats.CCM++
		return colorconv.RGB8{R: cr, G: cg, B: cb}, MethodCCM
	}
	if c.has2Point {
		rgb := colorconv.RGB8{
			R: linearMap(x, c.blackRef[0], c.whiteRef[0]),
			G: linearMap(y, c.blackRef[1], c.whiteRef[1]),
			B: linearMap(z, c.blackRef[2], c.whiteRef[2]),
		}
		c.stats.Linear2Point++
		return rgb, MethodLinear2Point
	}

	c.stats.Fallback++
	return colorconv.RGB8{R: uint8(x / 256), G: uint8(y / 256), B: uint8(z / 256)}, MethodFallback
}

// compensate applies the optional infrared attenuation to the tri-stimulus
// channels.
func (c *Converter) compensate(r Reading) (x, y, z uint16) {
	if !c.IR.Enabled || c.IR.Factor == 0 {
		return r.X, r.Y, r.Z
	}
	irLevel := (float64(r.IR1) + float64(r.IR2)) / 2 / tetra.FullScale
	scale := 1 - irLevel*c.IR.Factor
	if scale < 0 {
		scale = 0
	}
	att := func(v uint16) uint16 {
		return uint16(math.Round(float64(v) * scale))
	}
	return att(r.X), att(r.Y), att(r.Z)
}

// linearMap maps v linearly from [black, white] onto [0, 255], clamped.
func linearMap(v, black, white uint16) uint8 {
	if white <= black {
		return 0
	}
	t := (float64(v) - float64(black)) / (float64(white) - float64(black))
	return uint8(math.Round(255 * max(0, min(t, 1))))
}

// Stats returns a snapshot of the per-method conversion counts.
func (c *Converter) Stats() Stats {
	s := c.stats
	interpolations, _, fallbackRate := c.interp.Stats()
	if interpolations > 0 {
		s.Accuracy4Point = 100 - fallbackRate
	}
	return s
}

// ResetStats zeroes all conversion and interpolation counters.
func (c *Converter) ResetStats() {
	c.stats = Stats{}
	c.interp.ResetStats()
}

// Difference exposes the converter's difference engine for accuracy scoring.
func (c *Converter) Difference() *deltae.Engine {
	return c.diff
}

// SelfTest re-converts each anchor's own reading and scores it against the
// anchor's target with CIEDE2000, returning the per-anchor results in
// black, white, blue, yellow order and the mean difference. A converter
// whose anchors do not round-trip cleanly has a calibration problem the
// surrounding layer should surface before marking calibration complete.
func (c *Converter) SelfTest() ([]deltae.Result, float64, error) {
	if !c.interp.Ready() {
		return nil, 0, ErrNoAnchors
	}
	targets := []colorconv.RGB8{
		{},
		{R: 255, G: 255, B: 255},
		{B: 255},
		{R: 255, G: 255},
	}
	results := make([]deltae.Result, len(targets))
	total := 0.0
	for i, raw := range c.anchorReadings {
		rgb, err := c.interp.Convert(raw[0], raw[1], raw[2])
		if err != nil {
			return nil, 0, err
		}
		results[i] = c.diff.DeltaE2000RGB(targets[i], rgb)
		total += results[i].DeltaE2000
	}
	return results, total / float64(len(results)), nil
}
