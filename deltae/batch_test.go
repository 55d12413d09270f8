package deltae

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tristimulus/chromacal/colorconv"
)

func TestBatchIdenticalSlices(t *testing.T) {
	e := New()
	ref := make([]colorconv.Lab, 0, len(labCases))
	for _, tc := range labCases {
		ref = append(ref, tc.lab)
	}
	results, mean, err := e.Batch(ref, ref)
	require.NoError(t, err)
	require.Len(t, results, len(ref))
	assert.InDelta(t, 0, mean, 1e-9)
	for _, r := range results {
		assert.Equal(t, Excellent, r.Quality)
	}
}

func TestBatchPerturbed(t *testing.T) {
	e := New()
	ref := make([]colorconv.Lab, 64)
	measured := make([]colorconv.Lab, 64)
	for i := range ref {
		ref[i] = colorconv.Lab{L: float64(i) * 1.5, A: float64(i%10) - 5, B: float64(i % 7)}
		measured[i] = ref[i]
		measured[i].L += 3
	}
	results, mean, err := e.Batch(ref, measured)
	require.NoError(t, err)
	assert.Greater(t, mean, 0.0)
	for i, r := range results {
		assert.Greater(t, r.DeltaE2000, 0.0, "pair %d", i)
		// Each result must match a direct single comparison.
		direct := e.DeltaE2000(ref[i], measured[i])
		assert.InDelta(t, direct.DeltaE2000, r.DeltaE2000, 1e-12)
	}
}

func TestBatchSizeMismatch(t *testing.T) {
	e := New()
	_, _, err := e.Batch(make([]colorconv.Lab, 2), make([]colorconv.Lab, 3))
	assert.Error(t, err)
}

func TestBatchEmpty(t *testing.T) {
	e := New()
	results, mean, err := e.Batch(nil, nil)
	require.NoError(t, err)
	assert.Nil(t, results)
	assert.Zero(t, mean)
}
