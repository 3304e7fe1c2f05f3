package cycle

import (
	"math/rand/v2"
	"slices"
)

// Shuffle returns a uniformly random permutation of items. The input is
// not modified.
func Shuffle[T any](items []T) []T {
	return ShuffleWith(nil, items)
}

// ShuffleWith is Shuffle with an explicit source. A nil r uses the global
// generator.
func ShuffleWith[T any](r *rand.Rand, items []T) []T {
	out := slices.Clone(items)
	swap := func(i, j int) { out[i], out[j] = out[j], out[i] }
	if r == nil {
		rand.Shuffle(len(out), swap)
	} else {
		r.Shuffle(len(out), swap)
	}
	return out
}
