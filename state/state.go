// Package state implements the counter-state machine consumed by the
// context models: a table of at most 256 states, each standing for a
// bounded pair of bit counts (n0, n1) together with the transitions taken
// on observing a 0 or a 1. Large counts saturate probabilistically; the
// table is generated once and is immutable afterwards, so it may be
// shared freely.
package state

// A State is one record of the counter-state table.
type State struct {
	// Weighted counts exposed to the models.
	N0, N1 uint16
	// Next state on bit 0, for a failed and a successful increment.
	S00, S01 uint8
	// Next state on bit 1, for a failed and a successful increment.
	S10, S11 uint8
	// Scaled probability of the increment succeeding on bit 0 and on
	// bit 1; zero when no random draw is needed, in which case the two
	// successors for that bit are equal.
	P0, P1 uint32
}

// A Table holds the generated counter states. State 0 is the initial
// state, representing the pair (0, 0).
type Table struct {
	states []State
	fast   int
}

// Counters is the process-wide counter-state table used by the context
// models.
var Counters = func() *Table {
	t, err := Generate(PAQ6)
	if err != nil {
		panic(err)
	}
	return t
}()

// Len returns the number of states in the table.
func (t *Table) Len() int {
	return len(t.states)
}

// Fast returns the length of the leading run of states whose increments
// always succeed; transitions from those states need no random draw.
func (t *Table) Fast() int {
	return t.fast
}

// At returns the record of state s.
func (t *Table) At(s uint8) State {
	return t.states[s]
}

// Counts returns the weighted counts of zeros and ones that models
// accumulate into their predictions.
func (t *Table) Counts(s uint8) (n0, n1 int) {
	e := &t.states[s]
	return int(e.N0), int(e.N1)
}

// Next returns the state reached from s on observing bit, drawing from r
// when the increment is probabilistic. States with a zero stored
// probability transition without consuming randomness.
func (t *Table) Next(s uint8, bit int, r *Rand) uint8 {
	e := &t.states[s]
	if bit == 0 {
		if e.P0 == 0 || r.Uint32() < e.P0 {
			return e.S01
		}
		return e.S00
	}
	if e.P1 == 0 || r.Uint32() < e.P1 {
		return e.S11
	}
	return e.S10
}
