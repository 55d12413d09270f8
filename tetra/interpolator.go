package tetra

import (
	"errors"
	"log/slog"
	"math"

	"github.com/golang/geo/r3"

	"github.com/tristimulus/chromacal/colorconv"
)

var (
	// ErrDegenerateGeometry means the four anchors are coplanar and cannot
	// span a tetrahedron.
	ErrDegenerateGeometry = errors.New("tetra: anchors are coplanar")
	// ErrNotReady means Convert was called before a successful Initialize.
	ErrNotReady = errors.New("tetra: interpolator not initialized")
)

// volumeEps is the minimum scalar triple product for the anchors to count as
// a usable tetrahedron.
const volumeEps = 1e-6

// cramerEps is the determinant magnitude below which the barycentric system
// is effectively coplanar for the query direction and the triangular
// fallback takes over.
const cramerEps = 1e-4

// Interpolator holds the anchor geometry and running diagnostics. It has two
// states: uninitialized and ready; a successful Initialize moves it to ready
// and a later Initialize simply re-validates and overwrites the anchors.
//
// The counters are plain fields: an Interpolator is safe for concurrent use
// only if callers serialize access.
type Interpolator struct {
	anchors AnchorSet
	ready   bool

	interpolations uint64
	fallbacks      uint64

	// Log receives degraded-confidence diagnostics; nil means slog.Default.
	Log *slog.Logger
}

func NewInterpolator() *Interpolator {
	return &Interpolator{}
}

func (ip *Interpolator) logger() *slog.Logger {
	if ip.Log != nil {
		return ip.Log
	}
	return slog.Default()
}

// Ready reports whether a valid tetrahedron has been installed.
func (ip *Interpolator) Ready() bool {
	return ip.ready
}

// Initialize validates the anchor geometry and installs it. Coplanar anchors
// (tetrahedron volume at or below epsilon) are rejected and the interpolator
// keeps its previous state.
func (ip *Interpolator) Initialize(anchors AnchorSet) error {
	if anchors.Volume() <= volumeEps {
		return ErrDegenerateGeometry
	}
	ip.anchors = anchors
	ip.ready = true
	return nil
}

// Interpolate computes barycentric weights for a normalized query point.
// Inside the tetrahedron the weights are the exact Cramer solution; outside
// it, or when the system degenerates for this query direction, one of the
// fallback blends is used. The returned weights always sum to 1 when Valid.
func (ip *Interpolator) Interpolate(q r3.Vector) Weights {
	if !ip.ready {
		return Weights{}
	}
	ip.interpolations++
	return ip.barycentric(q)
}

func (ip *Interpolator) barycentric(q r3.Vector) Weights {
	a := ip.anchors
	// Columns of the coefficient matrix: edges from the yellow anchor to the
	// black, white and blue anchors. The solved unknowns are the weights of
	// black, white and blue; yellow absorbs the remainder.
	c0 := a.Black.Point.Sub(a.Yellow.Point)
	c1 := a.White.Point.Sub(a.Yellow.Point)
	c2 := a.Blue.Point.Sub(a.Yellow.Point)
	rhs := q.Sub(a.Yellow.Point)

	det := c0.Dot(c1.Cross(c2))
	if math.Abs(det) < cramerEps {
		return ip.triangular(q)
	}

	w := Weights{
		Black: rhs.Dot(c1.Cross(c2)) / det,
		White: c0.Dot(rhs.Cross(c2)) / det,
		Blue:  c0.Dot(c1.Cross(rhs)) / det,
	}
	w.Yellow = 1 - w.Black - w.White - w.Blue

	if w.Inside() {
		w.Valid = true
		return w
	}

	// Out-of-gamut query: fall back to a distance-weighted blend over all
	// four anchors and record the degraded confidence.
	ip.fallbacks++
	ip.logger().Debug("query outside calibrated gamut, distance-weighted blend used",
		slog.Float64("x", q.X), slog.Float64("y", q.Y), slog.Float64("z", q.Z))
	return ip.distanceWeighted(q)
}

// triangular handles the coplanar-for-this-query case: the anchor farthest
// from the query is the least relevant, so it is dropped and the remaining
// three are blended by inverse distance.
func (ip *Interpolator) triangular(q r3.Vector) Weights {
	a := ip.anchors
	dBlack := q.Distance(a.Black.Point)
	dWhite := q.Distance(a.White.Point)
	dBlue := q.Distance(a.Blue.Point)
	dYellow := q.Distance(a.Yellow.Point)

	inv := func(d float64) float64 { return 1 / (d + invDistEps) }
	var w Weights
	switch {
	case dBlack >= dWhite && dBlack >= dBlue && dBlack >= dYellow:
		w.White, w.Blue, w.Yellow = inv(dWhite), inv(dBlue), inv(dYellow)
	case dWhite >= dBlue && dWhite >= dYellow:
		w.Black, w.Blue, w.Yellow = inv(dBlack), inv(dBlue), inv(dYellow)
	case dBlue >= dYellow:
		w.Black, w.White, w.Yellow = inv(dBlack), inv(dWhite), inv(dYellow)
	default:
		w.Black, w.White, w.Blue = inv(dBlack), inv(dWhite), inv(dBlue)
	}
	return renormalize(w)
}

func (ip *Interpolator) distanceWeighted(q r3.Vector) Weights {
	a := ip.anchors
	w := Weights{
		Black:  1 / (q.Distance(a.Black.Point) + invDistEps),
		White:  1 / (q.Distance(a.White.Point) + invDistEps),
		Blue:   1 / (q.Distance(a.Blue.Point) + invDistEps),
		Yellow: 1 / (q.Distance(a.Yellow.Point) + invDistEps),
	}
	return renormalize(w)
}

func renormalize(w Weights) Weights {
	sum := w.Sum()
	if sum <= 0 {
		return Weights{}
	}
	w.Black /= sum
	w.White /= sum
	w.Blue /= sum
	w.Yellow /= sum
	w.Valid = true
	return w
}

// Convert maps one raw reading to RGB through the anchor blend. It fails only
// when the interpolator was never initialized; once ready, some weight path
// always produces a value.
func (ip *Interpolator) Convert(x, y, z uint16) (colorconv.RGB8, error) {
	if !ip.ready {
		return colorconv.RGB8{}, ErrNotReady
	}
	w := ip.Interpolate(normalize([3]uint16{x, y, z}))
	a := ip.anchors
	blend := func(b, wt, u, yl uint8) uint8 {
		v := w.Black*float64(b) + w.White*float64(wt) + w.Blue*float64(u) + w.Yellow*float64(yl)
		return uint8(math.Round(math.Max(0, math.Min(v, 255))))
	}
	return colorconv.RGB8{
		R: blend(a.Black.RGB.R, a.White.RGB.R, a.Blue.RGB.R, a.Yellow.RGB.R),
		G: blend(a.Black.RGB.G, a.White.RGB.G, a.Blue.RGB.G, a.Yellow.RGB.G),
		B: blend(a.Black.RGB.B, a.White.RGB.B, a.Blue.RGB.B, a.Yellow.RGB.B),
	}, nil
}

// Stats reports how many interpolations ran and how many took the
// distance-weighted fallback, plus the fallback rate in percent. A high rate
// means the four anchors cover the operating gamut poorly.
func (ip *Interpolator) Stats() (interpolations, fallbacks uint64, fallbackRate float64) {
	if ip.interpolations > 0 {
		fallbackRate = float64(ip.fallbacks) / float64(ip.interpolations) * 100
	}
	return ip.interpolations, ip.fallbacks, fallbackRate
}

// ResetStats zeroes the running counters.
func (ip *Interpolator) ResetStats() {
	ip.interpolations = 0
	ip.fallbacks = 0
}
