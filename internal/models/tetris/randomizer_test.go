package tetris

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRandomizer_SevenBag(t *testing.T) {
	r := NewRandomizer(rand.New(rand.NewSource(42)), 0)

	seen := make(map[PieceType]int)
	for i := 0; i < 7; i++ {
		seen[r.Next()]++
	}
	for _, pt := range AllPieceTypes {
		assert.Equal(t, 1, seen[pt], "piece type %s should appear exactly once", pt)
	}
	assert.Equal(t, 0, r.Remaining())
}

func TestRandomizer_RefillExcludesLast(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		r := NewRandomizer(rand.New(rand.NewSource(seed)), 0)
		var last PieceType
		for i := 0; i < 7; i++ {
			last = r.Next()
		}

		seen := make(map[PieceType]bool)
		for i := 0; i < 6; i++ {
			pt := r.Next()
			assert.NotEqual(t, last, pt, "seed %d", seed)
			assert.False(t, seen[pt], "seed %d: %s drawn twice from one bag", seed, pt)
			seen[pt] = true
		}
	}
}

func TestRandomizer_AlwaysRepeat(t *testing.T) {
	r := NewRandomizer(rand.New(rand.NewSource(7)), 1)

	first := r.Next()
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, r.Next())
	}
}
