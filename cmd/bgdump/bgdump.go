// bgdump prints a .bgi file's header fields and, with -f, its file-id list.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/cmu-sei/biggrep/internal/bgformat"
)

var usageMessage = `usage: bgdump [-f] index.bgi

Prints the index header fields. With -f, also prints every file-id map
entry.
`

func usage() {
	fmt.Fprint(os.Stderr, usageMessage)
	flag.PrintDefaults()
	os.Exit(2)
}

var (
	filesFlag = flag.Bool("f", false, "also print the file-id map")
	sumFlag   = flag.Bool("sum", false, "also print the posting stream's xxhash-64 checksum")
)

func main() {
	flag.Usage = usage
	flag.Parse()
	args := flag.Args()
	if len(args) != 1 {
		usage()
	}

	raw, err := os.ReadFile(args[0])
	if err != nil {
		log.Fatalf("bgdump: %v", err)
	}

	h, err := bgformat.ReadHeader(raw)
	if err != nil {
		log.Fatalf("bgdump: %s: %v", args[0], err)
	}
	fmt.Print(h.Dump())

	if *sumFlag {
		if err := h.CheckFinalized(int64(len(raw))); err != nil {
			log.Fatalf("bgdump: %s: %v", args[0], err)
		}
		start := uint64(h.Size()) + h.HintsSize()
		sum := bgformat.StreamChecksum(raw[start:h.FileIDMapOffset])
		fmt.Printf("  stream_checksum == %016x\n", sum)
	}

	if !*filesFlag {
		return
	}
	if err := h.CheckFinalized(int64(len(raw))); err != nil {
		log.Fatalf("bgdump: %s: %v", args[0], err)
	}
	compressed := h.FmtMinor >= 2
	m, err := bgformat.ParseFileIDMap(raw[h.FileIDMapOffset:], compressed)
	if err != nil {
		log.Fatalf("bgdump: %s: %v", args[0], err)
	}
	for id, meta := range m {
		fmt.Printf("%010d %s\n", id, meta)
	}
}
