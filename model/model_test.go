package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPredictorPrior(t *testing.T) {
	// With no model votes the prior (1, 1) yields even odds.
	require.Equal(t, uint16(32767), New().P())
}

// TestPredictorBounds drives the default predictor with reproducible
// noise and checks that every prediction stays inside the open interval
// the coder requires.
func TestPredictorBounds(t *testing.T) {
	p := Default()
	x := uint32(1)
	for i := 0; i < 1<<15; i++ {
		v := p.P()
		require.GreaterOrEqual(t, v, uint16(1))
		require.LessOrEqual(t, v, uint16(65534))
		x = x*1664525 + 1013904223
		p.Update(int(x >> 31))
	}
}

func TestPredictorLearns(t *testing.T) {
	p := Default()
	for i := 0; i < 1<<15; i++ {
		p.Update(1)
	}
	require.Greater(t, p.P(), uint16(60000))

	p = Default()
	for i := 0; i < 1<<15; i++ {
		p.Update(0)
	}
	require.Less(t, p.P(), uint16(5535))
}

// TestHashTableEviction checks that a full bucket evicts its
// lowest-priority slot and that hits keep their counter.
func TestHashTableEviction(t *testing.T) {
	ht := newHashTable(1)
	// Five hashes colliding on bucket 0 with distinct checksums.
	h := func(i uint32) uint32 { return i << 24 }
	for i := uint32(0); i < 4; i++ {
		s := ht.find(h(i))
		*s = uint8(i + 1)
	}
	for i := uint32(0); i < 4; i++ {
		require.Equal(t, uint8(i+1), *ht.find(h(i)))
	}
	// A fifth context claims the slot holding the lowest state.
	s := ht.find(h(4))
	require.Equal(t, uint8(0), *s)
	*s = 42
	require.Equal(t, uint8(42), *ht.find(h(4)))
	for i := uint32(1); i < 4; i++ {
		require.Equal(t, uint8(i+1), *ht.find(h(i)))
	}
}
