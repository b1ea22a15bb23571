package model

import (
	"github.com/mewkiz/paq/state"
)

// Number of context orders; order i conditions on the last i whole bytes
// plus the current partial byte.
const ppmOrders = 8

// NonstationaryPPM guesses the next bit by finding all matching contexts
// of 0 to 7 preceding bytes (including the last partial byte of 0 to 7
// bits), weighting the match of order i by (i+1)^2. Counts age through
// the counter-state table, which decays the opposite count as new
// evidence arrives; orders 2 and up live in a hash table of 8M contexts.
type NonstationaryPPM struct {
	c0 int // current 0-7 bits of input, with a leading 1
	c1 int // previous whole byte
	cn int // c0 mod 53, the low bits of the context hash

	counter0 []uint8    // order-0 counters
	counter1 []uint8    // order-1 counters
	counter2 *hashTable // orders 2 and up

	cp   [ppmOrders]*uint8  // active counter per order
	hash [ppmOrders]uint32  // hashes of the last 0 to 7 bytes
	rnd  *state.Rand
}

// NewNonstationaryPPM returns a model with every context empty.
func NewNonstationaryPPM() *NonstationaryPPM {
	m := &NonstationaryPPM{
		c0:       1,
		cn:       1,
		counter0: make([]uint8, 256),
		counter1: make([]uint8, 65536),
		counter2: newHashTable(21),
		rnd:      state.NewRand(),
	}
	for i := range m.cp {
		m.cp[i] = &m.counter0[0]
	}
	return m
}

// Predict implements Model.
func (m *NonstationaryPPM) Predict() (n0, n1 int) {
	for i, cp := range m.cp {
		wt := (i + 1) * (i + 1)
		g0, g1 := state.Counters.Counts(*cp)
		n0 += g0 * wt
		n1 += g1 * wt
	}
	return n0, n1
}

// Update implements Model.
func (m *NonstationaryPPM) Update(y int) {
	// Count y in every active context.
	for _, cp := range m.cp {
		*cp = state.Counters.Next(*cp, y, m.rnd)
	}

	// Store the bit.
	m.cn += m.cn + y
	if m.cn >= 53 {
		m.cn -= 53
	}
	m.c0 += m.c0 + y
	if m.c0 >= 256 {
		// Byte boundary: roll the context hashes.
		for i := ppmOrders - 1; i > 0; i-- {
			m.hash[i] = (m.hash[i-1] + uint32(m.c0)) * 987660757
		}
		m.c1 = m.c0 - 256
		m.c0 = 1
		m.cn = 1
	}

	// Point at the counters of the new contexts.
	m.cp[0] = &m.counter0[m.c0]
	m.cp[1] = &m.counter1[m.c0+m.c1<<8]
	for i := 2; i < ppmOrders; i++ {
		m.cp[i] = m.counter2.find(m.hash[i] + uint32(m.cn) + uint32(m.c0)<<24)
	}
}
