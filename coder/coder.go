// Package coder implements the bit-level arithmetic range coder behind
// the archive payload. A single Encoder spans one payload and handles
// either compression or decompression, but never both; before each bit it
// asks a Predictor for the probability of a 1 and afterwards feeds the
// observed bit back, so the two sides stay in lockstep as long as they
// share the same predictor construction.
package coder

import (
	"errors"
	"io"
)

// A Predictor supplies the probability that the next bit is a 1, scaled
// so that 0 means a certain 0 and 65535 a certain 1. Implementations must
// keep P within [1, 65534]: the coder splits its range on 65535−P and
// both halves of the split must be non-empty. Update must be called
// exactly once per coded bit, in the same order during compression and
// decompression; Encode takes care of that.
type Predictor interface {
	P() uint16
	Update(bit int)
}

// ErrUnexpectedEndOfArchive is reported when the compressed stream runs
// dry more than five bytes before the payload is fully decoded.
var ErrUnexpectedEndOfArchive = errors.New("coder: premature end of archive")

// An Encoder performs arithmetic coding against a byte stream. Its state
// is the range [x1, x2] of 32-bit integers; while decompressing, x holds
// the last four bytes read from the archive.
type Encoder struct {
	p      Predictor
	w      io.ByteWriter // compressing when non-nil
	r      io.ByteReader // decompressing when non-nil
	x1, x2 uint32
	x      uint32
	eofs   int
	bits   int64
	xchars int64
}

// NewEncoder returns an encoder compressing bits to w. The caller retains
// ownership of w and is responsible for flushing it after Close.
func NewEncoder(w io.ByteWriter, p Predictor) *Encoder {
	return &Encoder{p: p, w: w, x2: 0xffffffff}
}

// NewDecoder returns an encoder decompressing bits from r, priming the
// input window with the first four bytes of the stream. Bytes past the
// end of the stream read as zero.
func NewDecoder(r io.ByteReader, p Predictor) (*Encoder, error) {
	e := &Encoder{p: p, r: r, x2: 0xffffffff}
	for i := 0; i < 4; i++ {
		c, err := e.readByte()
		if err != nil {
			return nil, err
		}
		e.x = e.x<<8 | uint32(c)
	}
	return e, nil
}

// readByte reads the next archive byte, substituting zero for the first
// five reads past the end of the stream.
func (e *Encoder) readByte() (byte, error) {
	c, err := e.r.ReadByte()
	if err == io.EOF {
		e.eofs++
		if e.eofs > 5 {
			return 0, ErrUnexpectedEndOfArchive
		}
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	e.xchars++
	return c, nil
}

// Encode codes one bit. While compressing, bit is consumed and returned
// unchanged; while decompressing, bit is ignored and the decoded bit is
// returned.
//
// The range [x1, x2] is split at x1 + P(0)·(x2−x1) and the lower or upper
// subrange becomes the new range according to the bit. The multiply is
// dispatched on the size of the range so it never overflows 32 bits; the
// dispatch is part of the bitstream and must not be altered.
func (e *Encoder) Encode(bit int) (int, error) {
	e.bits++

	// Split the range in proportion to P(0).
	p := uint32(65535 - e.p.P())
	xdiff := e.x2 - e.x1
	xmid := e.x1
	switch {
	case xdiff >= 0x10000000:
		xmid += (xdiff >> 16) * p
	case xdiff >= 0x1000000:
		xmid += ((xdiff >> 12) * p) >> 4
	case xdiff >= 0x100000:
		xmid += ((xdiff >> 8) * p) >> 8
	case xdiff >= 0x10000:
		xmid += ((xdiff >> 4) * p) >> 12
	default:
		xmid += (xdiff * p) >> 16
	}

	// Update the range.
	if e.r == nil {
		if bit != 0 {
			e.x1 = xmid + 1
		} else {
			e.x2 = xmid
		}
	} else {
		if e.x <= xmid {
			bit = 0
			e.x2 = xmid
		} else {
			bit = 1
			e.x1 = xmid + 1
		}
	}
	e.p.Update(bit)

	// Shift out the leading bytes on which x1 and x2 agree.
	for (e.x1^e.x2)&0xff000000 == 0 {
		if e.w != nil {
			if err := e.w.WriteByte(byte(e.x2 >> 24)); err != nil {
				return 0, err
			}
			e.xchars++
		}
		e.x1 <<= 8
		e.x2 = e.x2<<8 | 0xff
		if e.r != nil {
			c, err := e.readByte()
			if err != nil {
				return 0, err
			}
			e.x = e.x<<8 | uint32(c)
		}
	}
	return bit, nil
}

// Decode returns the next decompressed bit.
func (e *Encoder) Decode() (int, error) {
	return e.Encode(0)
}

// EncodeByte compresses the eight bits of c, most significant first.
func (e *Encoder) EncodeByte(c byte) error {
	for i := 7; i >= 0; i-- {
		if _, err := e.Encode(int(c>>uint(i)) & 1); err != nil {
			return err
		}
	}
	return nil
}

// DecodeByte decompresses eight bits, most significant first.
func (e *Encoder) DecodeByte() (byte, error) {
	c := 0
	for i := 0; i < 8; i++ {
		bit, err := e.Decode()
		if err != nil {
			return 0, err
		}
		c = c<<1 + bit
	}
	return byte(c), nil
}

// Close ends a compressed payload: the leading bytes shared by x1 and x2
// are flushed, followed by one distinguishing byte. Together with the
// decoder reading missing tail bytes as zero this is enough for it to
// settle every remaining bit decision. Close does not close the
// underlying stream; decompressing encoders have nothing to flush.
func (e *Encoder) Close() error {
	if e.w == nil {
		return nil
	}
	for (e.x1^e.x2)&0xff000000 == 0 {
		if err := e.w.WriteByte(byte(e.x2 >> 24)); err != nil {
			return err
		}
		e.xchars++
		e.x1 <<= 8
		e.x2 = e.x2<<8 | 0xff
	}
	if err := e.w.WriteByte(byte(e.x2 >> 24)); err != nil {
		return err
	}
	e.xchars++
	return nil
}

// Bits returns the number of payload bits coded so far.
func (e *Encoder) Bits() int64 {
	return e.bits
}

// CompressedBytes returns the number of archive bytes written or read so
// far, not counting zero bytes substituted past the end of the stream.
func (e *Encoder) CompressedBytes() int64 {
	return e.xchars
}
