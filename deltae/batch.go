package deltae

import (
	"fmt"

	"github.com/kovidgoyal/go-parallel"

	"github.com/tristimulus/chromacal/colorconv"
)

// Batch scores measured colors against their references pairwise and returns
// the per-pair results together with the mean DeltaE2000. The two slices must
// be the same length. Pairs are independent, so the work is spread across
// CPUs for large slices.
func (e *Engine) Batch(reference, measured []colorconv.Lab) ([]Result, float64, error) {
	if len(reference) != len(measured) {
		return nil, 0, fmt.Errorf("deltae: mismatched batch sizes: %d reference vs %d measured", len(reference), len(measured))
	}
	if len(reference) == 0 {
		return nil, 0, nil
	}
	results := make([]Result, len(reference))
	f := func(start, limit int) {
		for i := start; i < limit; i++ {
			results[i] = e.DeltaE2000(reference[i], measured[i])
		}
	}
	if err := parallel.Run_in_parallel_over_range(0, f, 0, len(reference)); err != nil {
		return nil, 0, err
	}
	total := 0.0
	for _, r := range results {
		total += r.DeltaE2000
	}
	return results, total / float64(len(results)), nil
}
