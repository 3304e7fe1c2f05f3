package cycle

import (
	"math/rand/v2"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShuffleIsBijection(t *testing.T) {
	for n := 0; n <= 50; n++ {
		in := make([]int, n)
		for i := range in {
			in[i] = i
		}
		orig := slices.Clone(in)

		out := Shuffle(in)
		assert.Equal(t, orig, in, "input must not be mutated")
		assert.Len(t, out, n)

		sorted := slices.Clone(out)
		slices.Sort(sorted)
		assert.Equal(t, orig, sorted, "n=%d: not a permutation", n)
	}
}

func TestShuffleKeepsDuplicates(t *testing.T) {
	in := []string{"a", "a", "b"}
	out := Shuffle(in)
	slices.Sort(out)
	assert.Equal(t, []string{"a", "a", "b"}, out)
}

func TestShuffleCoversAllPermutations(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	seen := make(map[string]int)
	for i := 0; i < 600; i++ {
		seen[strings.Join(ShuffleWith(r, []string{"a", "b", "c"}), "")]++
	}
	assert.Len(t, seen, 6)
}
