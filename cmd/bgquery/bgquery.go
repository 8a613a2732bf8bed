// bgquery looks up one or more hex byte patterns in a .bgi index and
// prints the matching file paths, one per line.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/cmu-sei/biggrep/internal/query"
)

var usageMessage = `usage: bgquery index.bgi pattern [pattern...]

Each pattern is a hex-encoded byte sequence (e.g. deadbeef). A file must
contain every pattern to be reported.
`

func usage() {
	fmt.Fprint(os.Stderr, usageMessage)
	flag.PrintDefaults()
	os.Exit(2)
}

func main() {
	flag.Usage = usage
	flag.Parse()
	args := flag.Args()
	if len(args) < 2 {
		usage()
	}

	raw, err := os.ReadFile(args[0])
	if err != nil {
		log.Fatalf("bgquery: %v", err)
	}
	idx, err := query.Open(raw)
	if err != nil {
		log.Fatalf("bgquery: %s: %v", args[0], err)
	}

	paths, err := idx.Search(args[1:])
	if err != nil {
		log.Fatalf("bgquery: %v", err)
	}
	for _, p := range paths {
		fmt.Println(p)
	}
}
