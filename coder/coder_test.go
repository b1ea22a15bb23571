package coder

import (
	"bytes"
	"testing"

	"github.com/icza/mighty"

	"github.com/mewkiz/paq/state"
)

// uniform predicts every bit with even odds and never learns.
type uniform struct{}

func (uniform) P() uint16  { return 32767 }
func (uniform) Update(int) {}

// order0 is a minimal adaptive predictor, a single counter over no
// context; it exercises the counter table and the deterministic RNG end
// to end.
type order0 struct {
	s   uint8
	rnd *state.Rand
}

func newOrder0() *order0 {
	return &order0{rnd: state.NewRand()}
}

func (m *order0) P() uint16 {
	n0, n1 := state.Counters.Counts(m.s)
	p := uint64(65535) * uint64(n1+1) / uint64(n0+n1+2)
	if p < 1 {
		p = 1
	} else if p > 65534 {
		p = 65534
	}
	return uint16(p)
}

func (m *order0) Update(bit int) {
	m.s = state.Counters.Next(m.s, bit, m.rnd)
}

// lcgBytes returns n pseudo-random but reproducible bytes.
func lcgBytes(n int, seed uint32) []byte {
	x := seed
	buf := make([]byte, n)
	for i := range buf {
		x = x*1664525 + 1013904223
		buf[i] = byte(x >> 24)
	}
	return buf
}

func compress(t *testing.T, p Predictor, data []byte) []byte {
	buf := new(bytes.Buffer)
	e := NewEncoder(buf, p)
	for _, c := range data {
		if err := e.EncodeByte(c); err != nil {
			t.Fatal(err)
		}
	}
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func decompress(p Predictor, archive []byte, n int) ([]byte, error) {
	d, err := NewDecoder(bytes.NewReader(archive), p)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	for i := range buf {
		c, err := d.DecodeByte()
		if err != nil {
			return buf[:i], err
		}
		buf[i] = c
	}
	return buf, nil
}

func TestRoundTrip(t *testing.T) {
	golden := []struct {
		data []byte
	}{
		{data: nil},
		{data: []byte{0x00}},
		{data: []byte{0xff, 0x00, 0xff}},
		{data: lcgBytes(1000, 3)},
		{data: lcgBytes(65536, 5)},
	}
	for i, g := range golden {
		archive := compress(t, uniform{}, g.data)
		got, err := decompress(uniform{}, archive, len(g.data))
		if err != nil {
			t.Fatalf("case %d: %v", i, err)
		}
		if !bytes.Equal(g.data, got) {
			t.Fatalf("case %d: round trip mismatch", i)
		}
	}
}

func TestRoundTripAdaptive(t *testing.T) {
	data := lcgBytes(1000, 3)
	archive := compress(t, newOrder0(), data)
	got, err := decompress(newOrder0(), archive, len(data))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, got) {
		t.Fatal("round trip mismatch")
	}
}

func TestDeterminism(t *testing.T) {
	data := lcgBytes(1000, 3)
	a := compress(t, newOrder0(), data)
	b := compress(t, newOrder0(), data)
	if !bytes.Equal(a, b) {
		t.Fatal("two compression runs of the same input differ")
	}
}

// TestUniformRate checks that a predictor with no opinion yields no
// compression: 1 KiB of zeros codes to its own size plus a short tail.
func TestUniformRate(t *testing.T) {
	archive := compress(t, uniform{}, make([]byte, 1024))
	if n := len(archive); n < 1024 || n > 1024+5 {
		t.Fatalf("archive size %d outside [1024, 1029]", n)
	}
}

// TestEmptyPayload checks the minimal coder tail: flushing an untouched
// range emits between one and five bytes.
func TestEmptyPayload(t *testing.T) {
	archive := compress(t, uniform{}, nil)
	if n := len(archive); n < 1 || n > 5 {
		t.Fatalf("tail size %d outside [1, 5]", n)
	}
}

// TestRangeInvariant checks that after every coded bit the range stays
// ordered and its top bytes disagree.
func TestRangeInvariant(t *testing.T) {
	buf := new(bytes.Buffer)
	e := NewEncoder(buf, newOrder0())
	for _, c := range lcgBytes(4096, 11) {
		for i := 7; i >= 0; i-- {
			if _, err := e.Encode(int(c>>uint(i)) & 1); err != nil {
				t.Fatal(err)
			}
			if e.x1 > e.x2 {
				t.Fatalf("range inverted: x1=%#x x2=%#x", e.x1, e.x2)
			}
			if (e.x1^e.x2)&0xff000000 == 0 {
				t.Fatalf("unnormalized range: x1=%#x x2=%#x", e.x1, e.x2)
			}
		}
	}
}

func TestTruncatedArchive(t *testing.T) {
	eq := mighty.Eq(t)
	data := lcgBytes(2048, 2)
	archive := compress(t, uniform{}, data)
	got, err := decompress(uniform{}, archive[:len(archive)-6], len(data))
	eq(ErrUnexpectedEndOfArchive, err)
	// The uniform predictor codes one archive byte per data byte, so the
	// five bytes decoded last were decided against the zeros substituted
	// for missing archive bytes and need not match. Everything decoded
	// before them came from real archive bytes and must be intact.
	n := len(got) - 5
	if n < 0 {
		t.Fatalf("only %d bytes decoded before the underrun", len(got))
	}
	if !bytes.Equal(data[:n], got[:n]) {
		t.Fatal("bytes decoded from real archive bytes are corrupt")
	}
}

// TestDecoderPrimesShortStream checks that creating a decoder on a
// stream shorter than the four-byte window substitutes zeros without
// failing.
func TestDecoderPrimesShortStream(t *testing.T) {
	if _, err := NewDecoder(bytes.NewReader([]byte{0xff}), uniform{}); err != nil {
		t.Fatal(err)
	}
	if _, err := NewDecoder(bytes.NewReader(nil), uniform{}); err != nil {
		t.Fatal(err)
	}
}
