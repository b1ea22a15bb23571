package state

import (
	"fmt"
	"math"
	"sort"
)

// Family selects the count representation the generator uses.
type Family int

const (
	// PAQ1 draws counts from a 25-entry value schedule with table-driven
	// decay of the opposite count.
	PAQ1 Family = iota
	// PAQ6 uses byte-range counts with a non-uniform quantizer and
	// halve/square-root decay of the opposite count.
	PAQ6
)

// PAQ1 value schedule and per-value decay targets, indexed in lockstep.
var (
	paq1Val = [...]int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 12, 14, 16, 20, 24, 28, 32, 48, 64, 96, 128, 256, 512, 1024}
	paq1Dcr = [...]int{0, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6, 7, 8, 9, 10, 11, 12, 13, 15, 17, 18, 19, 21, 22, 23}
)

func paq1Index(n int) int {
	for i, v := range paq1Val {
		if v == n {
			return i
		}
	}
	panic(fmt.Sprintf("state: %d is not on the schedule", n))
}

// quantize rounds n down to a representable PAQ6 count: exact below 40,
// multiples of 4 to 48, of 8 to 64, of 32 to 255.
func quantize(n int) int {
	switch {
	case n < 40:
		return n
	case n < 48:
		return n / 4 * 4
	case n < 64:
		return n / 8 * 8
	case n < 255:
		return n / 32 * 32
	default:
		return 255
	}
}

// inc returns the count reached by a successful increment of n, or n
// itself at saturation.
func (f Family) inc(n int) int {
	if f == PAQ1 {
		if i := paq1Index(n); i+1 < len(paq1Val) {
			return paq1Val[i+1]
		}
		return n
	}
	for i := n + 1; i < 1000; i++ {
		if q := quantize(i); q > n {
			return q
		}
	}
	return n
}

// dec returns the reduced value of the count opposite the incremented
// one. PAQ1 looks the target up in the schedule decay table; PAQ6 leaves
// n unchanged below 2, halves it below 25 and takes sqrt(n)+6 beyond,
// rounded down and re-quantized.
func (f Family) dec(n int) int {
	if f == PAQ1 {
		return paq1Val[paq1Dcr[paq1Index(n)]]
	}
	switch {
	case n < 2:
		return n
	case n < 25:
		return quantize(n / 2)
	default:
		return quantize(int(math.Sqrt(float64(n))) + 6)
	}
}

// weights returns the counts a state reports to the models. PAQ1 reports
// the raw schedule values; PAQ6 rescales so one-sided evidence carries
// extra weight.
func (f Family) weights(n0, n1 int) (w0, w1 int) {
	if f == PAQ1 {
		return n0, n1
	}
	w0, w1 = n0*2, n1*2
	switch {
	case n0 == 0:
		w1 *= 2
	case n1 == 0:
		w0 *= 2
	case n0 > n1:
		w0, w1 = w0/w1, 1
	case n1 > n0:
		w0, w1 = 1, w1/w0
	default:
		w0, w1 = 1, 1
	}
	return w0, w1
}

type pair struct {
	n0, n1 int
}

// saturating reports whether either count of p is past the region where
// increments are guaranteed to succeed.
func (f Family) saturating(p pair) bool {
	return f.inc(p.n0)-p.n0 != 1 || f.inc(p.n1)-p.n1 != 1
}

// order is the sort value of p: total count, with saturating states
// pushed past the dense low region so that the always-succeed states form
// a contiguous prefix.
func (f Family) order(p pair) int {
	v := p.n0 + p.n1
	if f.saturating(p) {
		v += 100
	}
	return v
}

// Generate computes the set of counter states reachable from (0, 0) under
// family f and returns them as a closed, sorted table. It fails when the
// set cannot be indexed by one byte, or when a transition target is
// missing from the set; the latter indicates a generator bug and is never
// papered over.
func Generate(f Family) (*Table, error) {
	// Fixed-point reachability from the initial pair.
	reach := map[pair]bool{{0, 0}: true}
	for {
		var add []pair
		for p := range reach {
			d0, d1 := f.dec(p.n0), f.dec(p.n1)
			succ := [4]pair{
				{p.n0, d1},
				{f.inc(p.n0), d1},
				{d0, p.n1},
				{d0, f.inc(p.n1)},
			}
			for _, q := range succ {
				if !reach[q] {
					add = append(add, q)
				}
			}
		}
		if len(add) == 0 {
			break
		}
		for _, q := range add {
			reach[q] = true
		}
	}
	if len(reach) > 256 {
		return nil, fmt.Errorf("state.Generate: %d reachable states; cannot be encoded in 8 bits", len(reach))
	}

	pairs := make([]pair, 0, len(reach))
	for p := range reach {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		vi, vj := f.order(pairs[i]), f.order(pairs[j])
		if vi != vj {
			return vi < vj
		}
		return pairs[i].n0 < pairs[j].n0
	})
	index := make(map[pair]int, len(pairs))
	for i, p := range pairs {
		index[p] = i
	}
	lookup := func(p pair) (uint8, error) {
		i, ok := index[p]
		if !ok {
			return 0, fmt.Errorf("state.Generate: no state for pair (%d, %d)", p.n0, p.n1)
		}
		return uint8(i), nil
	}

	t := &Table{states: make([]State, len(pairs))}
	for i, p := range pairs {
		w0, w1 := f.weights(p.n0, p.n1)
		s := State{N0: uint16(w0), N1: uint16(w1)}

		// Bit 0: n0 moves up the schedule, n1 decays either way.
		d := f.dec(p.n1)
		succ, err := lookup(pair{f.inc(p.n0), d})
		if err != nil {
			return nil, err
		}
		if step := f.inc(p.n0) - p.n0; step > 1 {
			s.P0 = math.MaxUint32 / uint32(step)
			s.S01 = succ
			if s.S00, err = lookup(pair{p.n0, d}); err != nil {
				return nil, err
			}
		} else {
			s.S00, s.S01 = succ, succ
		}

		// Bit 1, symmetrically.
		d = f.dec(p.n0)
		succ, err = lookup(pair{d, f.inc(p.n1)})
		if err != nil {
			return nil, err
		}
		if step := f.inc(p.n1) - p.n1; step > 1 {
			s.P1 = math.MaxUint32 / uint32(step)
			s.S11 = succ
			if s.S10, err = lookup(pair{d, p.n1}); err != nil {
				return nil, err
			}
		} else {
			s.S10, s.S11 = succ, succ
		}

		t.states[i] = s
	}
	for t.fast < len(pairs) && !f.saturating(pairs[t.fast]) {
		t.fast++
	}
	return t, nil
}
