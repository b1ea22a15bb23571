// paq-stategen prints the generated counter-state table as a Go
// composite literal, one record per line with the raw state index in a
// trailing comment. It exists to inspect and diff the table; the
// archiver itself generates the table at start-up.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mewkiz/paq/state"
)

// flagFamily selects the counter family to generate.
var flagFamily string

func init() {
	flag.StringVar(&flagFamily, "family", "paq6", `counter family to generate ("paq1" or "paq6")`)
	flag.Usage = usage
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: paq-stategen [OPTION]...")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Flags:")
	flag.PrintDefaults()
}

func main() {
	flag.Parse()
	var f state.Family
	switch flagFamily {
	case "paq1":
		f = state.PAQ1
	case "paq6":
		f = state.PAQ6
	default:
		flag.Usage()
		os.Exit(1)
	}
	t, err := state.Generate(f)
	if err != nil {
		log.Fatalln(err)
	}
	fmt.Println("var states = [...]State{")
	for i := 0; i < t.Len(); i++ {
		s := t.At(uint8(i))
		fmt.Printf("\t{%4d, %4d, %3d, %3d, %3d, %3d, %10d, %10d}, // %d\n",
			s.N0, s.N1, s.S00, s.S01, s.S10, s.S11, s.P0, s.P1, i)
	}
	fmt.Println("}")
}
