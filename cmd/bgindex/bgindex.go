// bgindex builds a .bgi index from a list of file paths read on stdin, one
// per line.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/cmu-sei/biggrep/internal/bgformat"
	"github.com/cmu-sei/biggrep/internal/builder"
	"github.com/cmu-sei/biggrep/internal/ngram"
)

var usageMessage = `usage: bgindex [flags] -o output.bgi < paths.txt

bgindex reads newline-separated file paths from stdin and writes a BigGrep
index to the path named by -o.
`

func usage() {
	fmt.Fprint(os.Stderr, usageMessage)
	flag.PrintDefaults()
	os.Exit(2)
}

var (
	outFlag       = flag.String("o", "", "output index path (required)")
	nFlag         = flag.Int("n", 4, "ngram size, 3 or 4")
	hintFlag      = flag.Int("hint-type", 0, "hint type: 0 (trim byte), 1 (trim nybble), 2 (full)")
	blockFlag     = flag.Int("pfor-blocksize", 32, "PFOR block size")
	exceptFlag    = flag.Int("pfor-exceptions", 3, "PFOR max exceptions per block")
	thresholdFlag = flag.Int("pfor-threshold", 8, "minimum tail length before PFOR is attempted")
	limitFlag     = flag.Int("max-unique-ngrams", 0, "reject files whose unique ngram count reaches this; 0 disables")
	shinglersFlag = flag.Int("shingle-workers", 4, "number of concurrent shingler workers")
	compressFlag  = flag.Int("compress-workers", 5, "number of concurrent compressor workers")
	zlibFlag      = flag.Bool("z", false, "zlib-compress the fileid map (fmt_minor=2)")
	overflowFlag  = flag.String("overflow", "", "append hit_limit paths to this file")
	verboseFlag   = flag.Bool("v", false, "log progress to stderr")
)

func main() {
	flag.Usage = usage
	flag.Parse()

	if *outFlag == "" {
		log.Print("bgindex: -o is required")
		usage()
	}

	var overflow *os.File
	if *overflowFlag != "" {
		f, err := os.OpenFile(*overflowFlag, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			log.Fatalf("bgindex: open overflow file: %v", err)
		}
		defer f.Close()
		overflow = f
	}

	paths, err := readPaths(os.Stdin)
	if err != nil {
		log.Fatalf("bgindex: read paths: %v", err)
	}
	if len(paths) == 0 {
		log.Fatal("bgindex: no input paths on stdin")
	}

	opts := builder.Options{
		N:               ngram.N(*nFlag),
		HintType:        bgformat.HintType(*hintFlag),
		PforBlockSize:   *blockFlag,
		PforExceptions:  *exceptFlag,
		PforThreshold:   *thresholdFlag,
		MaxUniqueNgrams: *limitFlag,
		ShinglerWorkers: *shinglersFlag,
		CompressWorkers: *compressFlag,
		CompressMap:     *zlibFlag,
	}
	if *verboseFlag {
		opts.Progress = func(format string, args ...any) { log.Printf(format, args...) }
	}
	if overflow != nil {
		opts.Overflow = func(path string) { fmt.Fprintln(overflow, path) }
	}

	log.Printf("indexing %d paths into %s", len(paths), *outFlag)
	if err := builder.Build(context.Background(), paths, *outFlag, opts); err != nil {
		log.Fatalf("bgindex: %v", err)
	}
	log.Print("done")
}

func readPaths(f *os.File) ([]string, error) {
	var paths []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		paths = append(paths, line)
	}
	return paths, sc.Err()
}
