// Package paq provides access to PAQ archives: one or more named files
// losslessly compressed into a single container by a context-mixing
// arithmetic coder.
//
// The container is a text header (a signature line, one size/name line
// per file, and a three-byte end marker) followed by a single
// arithmetic-coded payload spanning every file back to back. File
// boundaries exist only in the header sizes; there is no per-file
// framing.
package paq

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/icza/bitio"
	"github.com/mewkiz/pkg/errutil"

	"github.com/mewkiz/paq/coder"
	"github.com/mewkiz/paq/model"
)

// Signature is present on the first line of each archive.
const Signature = "PAQ1"

// ErrBadHeader is reported when an archive header cannot be parsed.
var ErrBadHeader = errors.New("paq: bad archive header")

// An Entry describes one file stored in an archive. A negative size
// marks an input that could not be read; the header writer skips such
// entries and the payload holds no data for them.
type Entry struct {
	Size int64
	Name string
}

// An Archive is an opened archive with its header parsed and its decoder
// positioned at the start of the payload. Entries must be extracted or
// compared in order; the payload has no seek points.
type Archive struct {
	// Files stored in the archive, in payload order.
	Entries []Entry

	r   *bufio.Reader
	dec *coder.Encoder
	c   io.Closer
}

// A Mismatch reports the first byte at which an archived file and a
// local file differ.
type Mismatch struct {
	Offset  int64
	Archive byte
	File    byte
}

// Open opens the archive at path.
func Open(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	a, err := New(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	a.c = f
	return a, nil
}

// New reads an archive header from r and primes the decoder on the
// payload that follows.
func New(r io.Reader) (*Archive, error) {
	a := &Archive{r: bufio.NewReader(r)}
	if err := a.readHeader(); err != nil {
		return nil, err
	}
	dec, err := coder.NewDecoder(a.r, model.Default())
	if err != nil {
		return nil, err
	}
	a.dec = dec
	return a, nil
}

// readLine reads bytes up to and excluding the next control character.
// The terminator is consumed; a CR terminator consumes one extra byte
// for the LF that follows it. The end of the stream also ends a line.
func (a *Archive) readLine() (string, error) {
	var sb strings.Builder
	for {
		c, err := a.r.ReadByte()
		if err == io.EOF {
			return sb.String(), nil
		}
		if err != nil {
			return "", errutil.Err(err)
		}
		if c < 32 {
			if c == '\r' {
				// Skip the LF of a CR LF pair.
				if _, err := a.r.ReadByte(); err != nil && err != io.EOF {
					return "", errutil.Err(err)
				}
			}
			return sb.String(), nil
		}
		sb.WriteByte(c)
	}
}

// readHeader parses the signature line, the entry list and the
// end-of-header marker. Entry lines carry the size in columns 0-9, a
// space, and the name from column 11 on; the first line shorter than 11
// bytes ends the list (its terminator is the 0x1A byte written before
// the marker), after which exactly \f \x00 must follow.
func (a *Archive) readHeader() error {
	line, err := a.readLine()
	if err != nil {
		return err
	}
	if line != Signature {
		return fmt.Errorf("paq.New: %w; invalid signature line %q", ErrBadHeader, line)
	}
	for {
		line, err = a.readLine()
		if err != nil {
			return err
		}
		if len(line) <= 10 {
			break
		}
		if line[10] != ' ' {
			return fmt.Errorf("paq.New: %w; malformed entry line %q", ErrBadHeader, line)
		}
		size, perr := strconv.ParseInt(strings.TrimSpace(line[:10]), 10, 64)
		if perr != nil {
			return fmt.Errorf("paq.New: %w; malformed size in entry line %q", ErrBadHeader, line)
		}
		a.Entries = append(a.Entries, Entry{Size: size, Name: line[11:]})
	}
	c1, err1 := a.r.ReadByte()
	c2, err2 := a.r.ReadByte()
	if err1 != nil || err2 != nil || c1 != '\f' || c2 != 0 {
		return fmt.Errorf("paq.New: %w; bad end-of-header marker %d %d", ErrBadHeader, c1, c2)
	}
	return nil
}

// Extract decodes the next e.Size bytes of the payload and writes them
// to w.
func (a *Archive) Extract(e Entry, w io.Writer) error {
	bw := bitio.NewWriter(w)
	for i := int64(0); i < e.Size*8; i++ {
		bit, err := a.dec.Decode()
		if err != nil {
			return err
		}
		if err := bw.WriteBool(bit != 0); err != nil {
			return errutil.Err(err)
		}
	}
	if err := bw.Close(); err != nil {
		return errutil.Err(err)
	}
	return nil
}

// Compare decodes the next e.Size bytes of the payload and compares them
// with the contents of r, reporting the first mismatch or nil when the
// two agree. The entry is always consumed in full so the decoder stays
// aligned for the entries that follow; a short r counts as a mismatch at
// the first missing byte.
func (a *Archive) Compare(e Entry, r io.Reader) (*Mismatch, error) {
	br := bufio.NewReader(r)
	var m *Mismatch
	for i := int64(0); i < e.Size; i++ {
		c1, err := a.dec.DecodeByte()
		if err != nil {
			return m, err
		}
		c2, err := br.ReadByte()
		if err != nil && err != io.EOF {
			return m, errutil.Err(err)
		}
		if m == nil && (err == io.EOF || c1 != c2) {
			m = &Mismatch{Offset: i, Archive: c1, File: c2}
		}
	}
	return m, nil
}

// Close closes the underlying file of an archive opened with Open; it is
// a no-op otherwise.
func (a *Archive) Close() error {
	if a.c != nil {
		return a.c.Close()
	}
	return nil
}
