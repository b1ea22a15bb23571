package paq

import (
	"bufio"
	"fmt"
	"io"

	"github.com/icza/bitio"
	"github.com/mewkiz/pkg/errutil"

	"github.com/mewkiz/paq/coder"
	"github.com/mewkiz/paq/model"
)

// maxEntrySize is the largest size representable in the fixed 10-column
// size field of an entry line.
const maxEntrySize = 9999999999

// A Writer writes an archive: the header for a fixed list of entries,
// then one arithmetic-coded payload spanning the contents of every entry
// appended in the same order.
type Writer struct {
	w   *bufio.Writer
	enc *coder.Encoder
}

// NewWriter writes the archive header for the given entries to w and
// returns a Writer ready to append the corresponding file contents.
// Entries with negative sizes are left out of the header; the caller
// must skip their contents as well.
func NewWriter(w io.Writer, entries []Entry) (*Writer, error) {
	bw := bufio.NewWriter(w)
	if err := writeHeader(bw, entries); err != nil {
		return nil, err
	}
	return &Writer{w: bw, enc: coder.NewEncoder(bw, model.Default())}, nil
}

// writeHeader writes the signature line, one size/name line per usable
// entry, and the end-of-header marker.
func writeHeader(w *bufio.Writer, entries []Entry) error {
	if _, err := fmt.Fprintf(w, "%s\r\n", Signature); err != nil {
		return errutil.Err(err)
	}
	for _, e := range entries {
		if e.Size < 0 {
			continue
		}
		if e.Size > maxEntrySize {
			return fmt.Errorf("paq.NewWriter: size %d of entry %q overflows the 10-column size field", e.Size, e.Name)
		}
		if _, err := fmt.Fprintf(w, "%10d %s\r\n", e.Size, e.Name); err != nil {
			return errutil.Err(err)
		}
	}
	if _, err := w.Write([]byte{0x1a, '\f', 0x00}); err != nil {
		return errutil.Err(err)
	}
	return nil
}

// Append compresses size bytes from r into the payload, most significant
// bit of each byte first.
func (w *Writer) Append(r io.Reader, size int64) error {
	br := bitio.NewReader(bufio.NewReader(r))
	for i := int64(0); i < size*8; i++ {
		bit, err := br.ReadBool()
		if err != nil {
			return errutil.Err(err)
		}
		b := 0
		if bit {
			b = 1
		}
		if _, err := w.enc.Encode(b); err != nil {
			return err
		}
	}
	return nil
}

// Stats returns the number of payload bits coded and archive payload
// bytes emitted so far.
func (w *Writer) Stats() (bits, bytes int64) {
	return w.enc.Bits(), w.enc.CompressedBytes()
}

// Close flushes the coder tail and any buffered archive bytes. The
// underlying writer is not closed.
func (w *Writer) Close() error {
	if err := w.enc.Close(); err != nil {
		return err
	}
	if err := w.w.Flush(); err != nil {
		return errutil.Err(err)
	}
	return nil
}
