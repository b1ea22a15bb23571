// paq is a file compressor and archiver.
//
// Invoked with an archive name and one or more files, it creates the
// archive; invoked with an existing archive alone, it extracts the
// archived files, comparing against any that already exist on disk
// instead of clobbering them. When creating with no file arguments, the
// names are read from standard input, one per line, until a blank line
// or end of input.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/mewkiz/pkg/osutil"
	"github.com/pkg/errors"

	"github.com/mewkiz/paq"
	"github.com/mewkiz/paq/coder"
)

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: paq ARCHIVE [FILE]...")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "  paq archive files...  Create archive containing the listed files.")
	fmt.Fprintln(os.Stderr, "  paq archive           Extract or compare the archive contents;")
	fmt.Fprintln(os.Stderr, "                        existing files are compared, not overwritten.")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Flags:")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() < 1 {
		usage()
		os.Exit(1)
	}
	archivePath := flag.Arg(0)
	exists, err := osutil.Exists(archivePath)
	if err != nil {
		log.Fatalln(err)
	}
	if exists {
		if flag.NArg() > 1 {
			fmt.Printf("File %s already exists\n", archivePath)
			os.Exit(1)
		}
		err = extract(archivePath)
	} else {
		err = create(archivePath, flag.Args()[1:])
	}
	if err != nil {
		switch {
		case errors.Is(err, coder.ErrUnexpectedEndOfArchive):
			fmt.Println("Premature end of archive")
		case errors.Is(err, paq.ErrBadHeader):
			fmt.Println(err)
		default:
			log.Fatalln(err)
		}
		os.Exit(1)
	}
}

// extract decompresses the archive at path, comparing each entry against
// an existing file of the same name and extracting it otherwise.
func extract(path string) error {
	fmt.Printf("Extracting archive %s ...\n", path)
	a, err := paq.Open(path)
	if err != nil {
		return err
	}
	defer a.Close()
	for _, e := range a.Entries {
		fmt.Printf("%10d %s: ", e.Size, e.Name)
		if f, err := os.Open(e.Name); err == nil {
			m, err := a.Compare(e, f)
			f.Close()
			switch {
			case m != nil:
				fmt.Printf("differ at offset %d, archive=%d file=%d\n", m.Offset, m.Archive, m.File)
			case err == nil:
				fmt.Println("identical")
			}
			if err != nil {
				fmt.Println()
				return err
			}
			continue
		}
		out, err := os.Create(e.Name)
		if err != nil {
			fmt.Println("cannot create, skipping...")
			// The bits must still be consumed to stay aligned.
			if err := a.Extract(e, io.Discard); err != nil {
				return err
			}
			continue
		}
		if err := a.Extract(e, out); err != nil {
			out.Close()
			fmt.Println()
			return err
		}
		if err := out.Close(); err != nil {
			return errors.WithStack(err)
		}
		fmt.Println("extracted")
	}
	return nil
}

// create compresses the named files into a new archive at path. Missing
// inputs are skipped with a note; when nothing remains, no archive is
// created.
func create(path string, names []string) error {
	if len(names) == 0 {
		fmt.Println("Enter names of files to compress, followed by blank line or EOF.")
		s := bufio.NewScanner(os.Stdin)
		for s.Scan() {
			line := s.Text()
			if line == "" {
				break
			}
			names = append(names, line)
		}
		if err := s.Err(); err != nil {
			return errors.WithStack(err)
		}
	}

	entries := make([]paq.Entry, 0, len(names))
	usable := 0
	for _, name := range names {
		fi, err := os.Stat(name)
		if err != nil {
			fmt.Printf("File not found, skipping: %s\n", name)
			entries = append(entries, paq.Entry{Size: -1, Name: name})
			continue
		}
		entries = append(entries, paq.Entry{Size: fi.Size(), Name: name})
		usable++
	}
	if usable == 0 {
		fmt.Println("No files to compress, no archive created.")
		os.Exit(1)
	}

	f, err := os.Create(path)
	if err != nil {
		fmt.Printf("Cannot create archive: %s\n", path)
		os.Exit(1)
	}
	defer f.Close()
	w, err := paq.NewWriter(f, entries)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Size < 0 {
			continue
		}
		in, err := os.Open(e.Name)
		if err != nil {
			return errors.Errorf("input file %q vanished before compression", e.Name)
		}
		fmt.Printf("%s: ", e.Name)
		bits0, bytes0 := w.Stats()
		err = w.Append(in, e.Size)
		in.Close()
		if err != nil {
			fmt.Println()
			return err
		}
		bits1, bytes1 := w.Stats()
		printRatio(bits1-bits0, bytes1-bytes0)
	}
	if err := w.Close(); err != nil {
		return err
	}
	return errors.WithStack(f.Sync())
}

// printRatio prints the per-file compression statistics line.
func printRatio(bits, xchars int64) {
	if bits == 0 {
		fmt.Println("0 bytes")
		return
	}
	n := bits / 8
	fmt.Printf("%d/%d = %6.4f bpc (%4.2f%%)\n",
		xchars, n, float64(xchars)*8/float64(n), float64(xchars)*100/float64(n))
}
