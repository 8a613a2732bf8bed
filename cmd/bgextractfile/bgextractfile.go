// bgextractfile rewrites a single file-id map entry in place, either
// blanking it or substituting a fixed-length replacement, without
// disturbing any posting offset.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/google/renameio"

	"github.com/cmu-sei/biggrep/internal/bgformat"
)

var usageMessage = `usage: bgextractfile [-replace STR] index.bgi file-id

Rewrites the file-id map entry for file-id in place. With no -replace, the
entry is blanked to spaces. -replace's value must be exactly as long as the
existing entry.
`

func usage() {
	fmt.Fprint(os.Stderr, usageMessage)
	flag.PrintDefaults()
	os.Exit(2)
}

var replaceFlag = flag.String("replace", "", "replacement text (must match the existing entry's length)")

func main() {
	flag.Usage = usage
	flag.Parse()
	args := flag.Args()
	if len(args) != 2 {
		usage()
	}
	path := args[0]
	var id uint32
	if _, err := fmt.Sscanf(args[1], "%d", &id); err != nil {
		log.Fatalf("bgextractfile: invalid file id %q: %v", args[1], err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("bgextractfile: %v", err)
	}
	h, err := bgformat.ReadHeader(raw)
	if err != nil {
		log.Fatalf("bgextractfile: %s: %v", path, err)
	}
	if err := h.CheckFinalized(int64(len(raw))); err != nil {
		log.Fatalf("bgextractfile: %s: %v", path, err)
	}

	compressed := h.FmtMinor >= 2
	m, err := bgformat.ParseFileIDMap(raw[h.FileIDMapOffset:], compressed)
	if err != nil {
		log.Fatalf("bgextractfile: %s: %v", path, err)
	}
	if err := bgformat.ExtractFile(m, id, *replaceFlag); err != nil {
		log.Fatalf("bgextractfile: %v", err)
	}

	var newMap []byte
	if compressed {
		newMap, err = m.SerializeCompressed()
	} else {
		newMap = m.Serialize()
	}
	if err != nil {
		log.Fatalf("bgextractfile: re-serialize fileid map: %v", err)
	}
	if len(newMap) != len(raw)-int(h.FileIDMapOffset) {
		log.Fatalf("bgextractfile: re-serialized fileid map length changed (%d -> %d bytes)", len(raw)-int(h.FileIDMapOffset), len(newMap))
	}

	f, err := renameio.TempFile("", path)
	if err != nil {
		log.Fatalf("bgextractfile: %v", err)
	}
	defer f.Cleanup()
	if _, err := f.Write(raw[:h.FileIDMapOffset]); err != nil {
		log.Fatalf("bgextractfile: %v", err)
	}
	if _, err := f.Write(newMap); err != nil {
		log.Fatalf("bgextractfile: %v", err)
	}
	if err := f.CloseAtomicallyReplace(); err != nil {
		log.Fatalf("bgextractfile: %v", err)
	}
}
