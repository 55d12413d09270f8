// Package ccm fits a 3x3 color correction matrix from operator-captured
// calibration points by per-channel least squares. All arithmetic is
// single-precision: the sensor delivers 16-bit counts and the epsilons below
// were tuned for float32. Widening to float64 would shift the singularity
// threshold and change which fits are accepted.
package ccm

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/chewxy/math32"
)

// FullScale is the sensor's full-scale reading per channel.
const FullScale = 65535

// singularEps is the determinant magnitude below which a 3x3 matrix is
// treated as singular. Smaller values cause false negatives on invertibility
// in float32.
const singularEps = 1e-6

var (
	// ErrInsufficientData means there are too few usable calibration points,
	// or a point carries a reading that signals measurement failure.
	ErrInsufficientData = errors.New("ccm: insufficient calibration data")
	// ErrSingularFit means a Gram matrix or the assembled correction matrix
	// has no usable inverse.
	ErrSingularFit = errors.New("ccm: singular fit")
)

// Point is one calibration sample: a raw tri-stimulus reading paired with the
// RGB value the reading should map to. Points are immutable once captured.
type Point struct {
	X, Y, Z uint16 // raw sensor counts
	R, G, B uint8  // target sRGB
}

// Matrix is a fitted 3x3 color correction matrix. Rows are output channels
// (R, G, B), columns are normalized sensor inputs (X, Y, Z). Consumers must
// check Valid before applying it.
type Matrix struct {
	M [3][3]float32

	// Determinant of M, via cofactor expansion.
	Determinant float32
	// ConditionNumber is the Frobenius norm of M divided by |Determinant|.
	// This is a cheap stability proxy, not the singular-value ratio; the
	// thresholds downstream were tuned against it.
	ConditionNumber float32
	// Valid is true only if every channel solve succeeded and |Determinant|
	// exceeds the singularity epsilon.
	Valid bool
}

// Apply converts one raw reading through the matrix, returning 8-bit sRGB.
// When a channel overshoots 255 all three are scaled down together so hue is
// preserved; negatives clamp to zero. Apply on an invalid matrix returns
// black.
func (m Matrix) Apply(x, y, z uint16) (r, g, b uint8) {
	if !m.Valid {
		return 0, 0, 0
	}
	nx := float32(x) / FullScale
	ny := float32(y) / FullScale
	nz := float32(z) / FullScale

	rf := (m.M[0][0]*nx + m.M[0][1]*ny + m.M[0][2]*nz) * 255
	gf := (m.M[1][0]*nx + m.M[1][1]*ny + m.M[1][2]*nz) * 255
	bf := (m.M[2][0]*nx + m.M[2][1]*ny + m.M[2][2]*nz) * 255

	if maxc := max(rf, gf, bf); maxc > 255 {
		scale := 255 / maxc
		rf *= scale
		gf *= scale
		bf *= scale
	}
	return clamp8(rf), clamp8(gf), clamp8(bf)
}

// Solver fits correction matrices from calibration points. The zero value is
// usable; Log defaults to slog.Default when nil.
type Solver struct {
	Log *slog.Logger
}

func NewSolver() *Solver {
	return &Solver{}
}

func (s *Solver) logger() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}

// Fit computes the least-squares correction matrix for the given points.
// At least 3 points are required and readings of all zeros or any saturated
// channel are rejected as measurement failures. Duplicate raw readings are
// permitted but logged, since they bias the fit.
//
// On any failure Fit returns a zero, invalid Matrix together with the error;
// it never returns a partially-solved matrix.
func (s *Solver) Fit(points []Point) (Matrix, error) {
	if len(points) < 3 {
		return Matrix{}, fmt.Errorf("%w: got %d points, need at least 3", ErrInsufficientData, len(points))
	}
	for i, p := range points {
		if p.X == 0 && p.Y == 0 && p.Z == 0 {
			return Matrix{}, fmt.Errorf("%w: point %d reads all zeros", ErrInsufficientData, i)
		}
		if p.X >= FullScale || p.Y >= FullScale || p.Z >= FullScale {
			return Matrix{}, fmt.Errorf("%w: point %d has a saturated channel", ErrInsufficientData, i)
		}
	}
	s.warnDuplicates(points)

	var m Matrix
	for ch := range 3 {
		coeffs, ok := solveChannel(points, ch)
		if !ok {
			return Matrix{}, fmt.Errorf("%w: channel %d normal equations are singular", ErrSingularFit, ch)
		}
		m.M[ch] = coeffs
	}

	m.Determinant = det3x3(m.M)
	if d := math32.Abs(m.Determinant); d > 0 {
		m.ConditionNumber = frobenius(m.M) / d
	} else {
		m.ConditionNumber = math32.Inf(1)
	}
	if math32.Abs(m.Determinant) < singularEps {
		return Matrix{}, fmt.Errorf("%w: correction matrix determinant %g below %g", ErrSingularFit, m.Determinant, float32(singularEps))
	}
	m.Valid = true
	return m, nil
}

func (s *Solver) warnDuplicates(points []Point) {
	type raw struct{ x, y, z uint16 }
	seen := make(map[raw]int, len(points))
	for i, p := range points {
		k := raw{p.X, p.Y, p.Z}
		if j, dup := seen[k]; dup {
			s.logger().Warn("duplicate calibration reading biases the fit",
				slog.Int("point", i), slog.Int("duplicate_of", j),
				slog.Int("x", int(p.X)), slog.Int("y", int(p.Y)), slog.Int("z", int(p.Z)))
			continue
		}
		seen[k] = i
	}
}

// solveChannel solves the normal equations (AtA)w = Atb for one output
// channel, where A's rows are normalized readings and b the normalized
// channel targets.
func solveChannel(points []Point, channel int) ([3]float32, bool) {
	var ata [3][3]float32
	var atb [3]float32

	for _, p := range points {
		nx := float32(p.X) / FullScale
		ny := float32(p.Y) / FullScale
		nz := float32(p.Z) / FullScale

		var target float32
		switch channel {
		case 0:
			target = float32(p.R) / 255
		case 1:
			target = float32(p.G) / 255
		case 2:
			target = float32(p.B) / 255
		}

		ata[0][0] += nx * nx
		ata[0][1] += nx * ny
		ata[0][2] += nx * nz
		ata[1][0] += ny * nx
		ata[1][1] += ny * ny
		ata[1][2] += ny * nz
		ata[2][0] += nz * nx
		ata[2][1] += nz * ny
		ata[2][2] += nz * nz

		atb[0] += nx * target
		atb[1] += ny * target
		atb[2] += nz * target
	}

	inv, ok := invert3x3(ata)
	if !ok {
		return [3]float32{}, false
	}
	return [3]float32{
		inv[0][0]*atb[0] + inv[0][1]*atb[1] + inv[0][2]*atb[2],
		inv[1][0]*atb[0] + inv[1][1]*atb[1] + inv[1][2]*atb[2],
		inv[2][0]*atb[0] + inv[2][1]*atb[1] + inv[2][2]*atb[2],
	}, true
}

// invert3x3 inverts m analytically: inverse = adjugate / determinant.
func invert3x3(m [3][3]float32) ([3][3]float32, bool) {
	det := det3x3(m)
	if math32.Abs(det) < singularEps {
		return [3][3]float32{}, false
	}
	inv := 1 / det
	return [3][3]float32{
		{
			(m[1][1]*m[2][2] - m[1][2]*m[2][1]) * inv,
			(m[0][2]*m[2][1] - m[0][1]*m[2][2]) * inv,
			(m[0][1]*m[1][2] - m[0][2]*m[1][1]) * inv,
		},
		{
			(m[1][2]*m[2][0] - m[1][0]*m[2][2]) * inv,
			(m[0][0]*m[2][2] - m[0][2]*m[2][0]) * inv,
			(m[0][2]*m[1][0] - m[0][0]*m[1][2]) * inv,
		},
		{
			(m[1][0]*m[2][1] - m[1][1]*m[2][0]) * inv,
			(m[0][1]*m[2][0] - m[0][0]*m[2][1]) * inv,
			(m[0][0]*m[1][1] - m[0][1]*m[1][0]) * inv,
		},
	}, true
}

func det3x3(m [3][3]float32) float32 {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}

func frobenius(m [3][3]float32) float32 {
	var sum float32
	for i := range 3 {
		for j := range 3 {
			sum += m[i][j] * m[i][j]
		}
	}
	return math32.Sqrt(sum)
}

func clamp8(v float32) uint8 {
	return uint8(math32.Round(max(0, min(v, 255))))
}
