package deltae

import (
	"testing"

	"github.com/jkl1337/go-chromath"
	chromadelta "github.com/jkl1337/go-chromath/deltae"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tristimulus/chromacal/colorconv"
)

var labCases = []struct {
	name string
	lab  colorconv.Lab
}{
	{"black", colorconv.Lab{L: 0, A: 0, B: 0}},
	{"white", colorconv.Lab{L: 100, A: 0, B: 0}},
	{"mid gray", colorconv.Lab{L: 50, A: 0, B: 0}},
	{"warm red", colorconv.Lab{L: 53.2, A: 80.1, B: 67.2}},
	{"cool blue", colorconv.Lab{L: 32.3, A: 79.2, B: -107.9}},
	{"olive", colorconv.Lab{L: 51.9, A: -12.9, B: 56.7}},
}

func TestIdentity(t *testing.T) {
	e := New()
	for _, tc := range labCases {
		t.Run(tc.name, func(t *testing.T) {
			r := e.DeltaE2000(tc.lab, tc.lab)
			assert.InDelta(t, 0, r.DeltaE2000, 1e-4)
			assert.InDelta(t, 0, r.DeltaE76, 1e-9)
			assert.Equal(t, Excellent, r.Quality)
			assert.True(t, r.Acceptable)
		})
	}
}

func TestSymmetry(t *testing.T) {
	e := New()
	for i, a := range labCases {
		for j, b := range labCases {
			if i == j {
				continue
			}
			ab := e.DeltaE2000(a.lab, b.lab)
			ba := e.DeltaE2000(b.lab, a.lab)
			require.InDelta(t, ab.DeltaE2000, ba.DeltaE2000, 1e-9,
				"asymmetric for %s vs %s", a.name, b.name)
			require.InDelta(t, ab.DeltaE76, ba.DeltaE76, 1e-9)
		}
	}
}

// For pairs with identical chroma the CIEDE2000 variant used here reduces to
// |dL|/SL, exactly as the full CIE formula does, so go-chromath serves as an
// independent reference for these cases.
func TestAgreesWithChromathOnEqualChromaPairs(t *testing.T) {
	pairs := []struct {
		name   string
		l1, l2 float64
		a, b   float64
	}{
		{"achromatic far", 10, 90, 0, 0},
		{"achromatic near", 49, 51, 0, 0},
		{"gray endpoints", 0, 100, 0, 0},
		{"chromatic lightness step", 30, 60, 25, -40},
		{"saturated lightness step", 20, 80, 70, 55},
	}
	e := New()
	for _, tc := range pairs {
		t.Run(tc.name, func(t *testing.T) {
			got := e.DeltaE2000(
				colorconv.Lab{L: tc.l1, A: tc.a, B: tc.b},
				colorconv.Lab{L: tc.l2, A: tc.a, B: tc.b},
			).DeltaE2000
			ref := chromadelta.CIE2000(
				chromath.Lab{tc.l1, tc.a, tc.b},
				chromath.Lab{tc.l2, tc.a, tc.b},
				&chromadelta.KLChDefault,
			)
			assert.InDelta(t, ref, got, 1e-3)
		})
	}
}

func TestRedVsCyanIsUnacceptable(t *testing.T) {
	e := New()
	r := e.DeltaE2000RGB(colorconv.RGB8{R: 255}, colorconv.RGB8{G: 255, B: 255})
	assert.Greater(t, r.DeltaE2000, 5.0)
	assert.Equal(t, Unacceptable, r.Quality)
	assert.False(t, r.Acceptable)
}

func TestHueWrapPair(t *testing.T) {
	// Two colors a fraction of a degree either side of the 0/360 hue seam
	// must compare as close, not as a full revolution apart.
	e := New()
	lab1 := colorconv.LChToLab(colorconv.LCh{L: 50, C: 30, H: 358})
	lab2 := colorconv.LChToLab(colorconv.LCh{L: 50, C: 30, H: 2})
	r := e.DeltaE2000(lab1, lab2)
	assert.Less(t, r.DeltaE2000, 3.0)
	assert.InDelta(t, 0, r.DeltaC, 1e-9)
	assert.Less(t, r.DeltaH, 10.0)
	assert.Greater(t, r.DeltaH, -10.0)
}

func TestClassifyBoundaries(t *testing.T) {
	e := New()
	cases := []struct {
		deltaE float64
		want   Quality
	}{
		{0, Excellent},
		{1.0, Excellent},
		{1.01, Good},
		{2.0, Good},
		{2.5, Acceptable},
		{3.0, Acceptable},
		{4.9, Poor},
		{5.0, Poor},
		{5.01, Unacceptable},
		{42, Unacceptable},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, e.Classify(tc.deltaE), "deltaE=%v", tc.deltaE)
	}
}

func TestClassifyWithCustomThresholds(t *testing.T) {
	e := New()
	e.Thresholds = Thresholds{Excellent: 0.5, Good: 1.0, Acceptable: 1.5, Poor: 2.0}
	assert.Equal(t, Good, e.Classify(0.8))
	assert.Equal(t, Unacceptable, e.Classify(2.5))
}

func TestAcceptableFor(t *testing.T) {
	e := New()
	assert.True(t, e.AcceptableFor(0.9, "critical"))
	assert.False(t, e.AcceptableFor(1.1, "medical"))
	assert.True(t, e.AcceptableFor(1.9, "printing"))
	assert.False(t, e.AcceptableFor(2.1, "photography"))
	assert.True(t, e.AcceptableFor(2.9, "display"))
	assert.True(t, e.AcceptableFor(4.9, "industrial"))
	assert.False(t, e.AcceptableFor(5.1, "industrial"))
	// Unknown profile falls back to the engine's acceptable tier.
	assert.True(t, e.AcceptableFor(2.9, "signage"))
	assert.False(t, e.AcceptableFor(3.1, "signage"))
}

func TestOutOfRangeLabStillComputes(t *testing.T) {
	// Out-of-range Lab values are advisory failures only; the difference is
	// still computed and finite.
	e := New()
	bad := colorconv.Lab{L: 150, A: 200, B: -200}
	assert.False(t, colorconv.ValidLab(bad))
	r := e.DeltaE2000(bad, colorconv.Lab{L: 50})
	assert.Greater(t, r.DeltaE2000, 0.0)
}
