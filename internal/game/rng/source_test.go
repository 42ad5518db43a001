package rng

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// fixedSource returns a scripted sequence of values for deterministic tests.
type fixedSource struct {
	vals []int
	i    int
}

func (f *fixedSource) Intn(n int) int {
	v := f.vals[f.i%len(f.vals)]
	f.i++
	return v % n
}

func TestSeededSource_Deterministic(t *testing.T) {
	a := NewSeededSource(42)
	b := NewSeededSource(42)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Intn(1000), b.Intn(1000))
	}
}

func TestCryptoSource_Bounds(t *testing.T) {
	src := NewCryptoSource()
	for i := 0; i < 100; i++ {
		v := src.Intn(7)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 7)
	}
}

func TestIntn_PanicsOnNonPositive(t *testing.T) {
	assert.Panics(t, func() { NewCryptoSource().Intn(0) })
	assert.Panics(t, func() { NewSeededSource(1).Intn(-3) })
}

func TestRange_HalfOpen(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		lo := rapid.IntRange(-50, 50).Draw(t, "lo")
		span := rapid.IntRange(1, 100).Draw(t, "span")
		src := NewSeededSource(int64(lo + span))
		v := Range(src, lo, lo+span)
		if v < lo || v >= lo+span {
			t.Fatalf("Range produced %d outside [%d, %d)", v, lo, lo+span)
		}
	})
}

func TestChance_Extremes(t *testing.T) {
	src := &fixedSource{vals: []int{0}}
	assert.False(t, Chance(src, 0, 100))
	assert.True(t, Chance(src, 100, 100))
	assert.True(t, Chance(src, 150, 100))
}

func TestChance_Threshold(t *testing.T) {
	// draw < num succeeds
	assert.True(t, Chance(&fixedSource{vals: []int{24}}, 25, 100))
	assert.False(t, Chance(&fixedSource{vals: []int{25}}, 25, 100))
}

func TestWeightedIndex_SkipsZeroWeights(t *testing.T) {
	weights := []int{0, 5, 0, 3}
	for draw := 0; draw < 8; draw++ {
		idx := WeightedIndex(&fixedSource{vals: []int{draw}}, weights)
		require.NotEqual(t, 0, idx)
		require.NotEqual(t, 2, idx)
		if draw < 5 {
			assert.Equal(t, 1, idx)
		} else {
			assert.Equal(t, 3, idx)
		}
	}
}

func TestWeightedIndex_ZeroTotal(t *testing.T) {
	assert.Equal(t, -1, WeightedIndex(&fixedSource{vals: []int{0}}, []int{0, 0}))
	assert.Equal(t, -1, WeightedIndex(&fixedSource{vals: []int{0}}, nil))
}

// Every branch with nonzero weight is eventually selected across many seeds.
func TestWeightedIndex_CoversAllPositiveBranches(t *testing.T) {
	weights := []int{1, 10, 0, 5}
	seen := make(map[int]bool)
	for seed := int64(0); seed < 200; seed++ {
		src := NewSeededSource(seed)
		seen[WeightedIndex(src, weights)] = true
	}
	assert.True(t, seen[0])
	assert.True(t, seen[1])
	assert.True(t, seen[3])
	assert.False(t, seen[2], "zero-weight branch must never be selected")
}
