// Package builder wires the shingler pool, the single LoserTree merger,
// the compressor pool, and the writer into the end-to-end index build
// pipeline described in spec.md §5, using golang.org/x/sync/errgroup for
// worker-pool supervision and fatal-error propagation, in place of the
// teacher's channel-based walk/index pipeline (which had no compressor
// stage and no seq_no reordering to parallelize).
package builder

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/cmu-sei/biggrep/internal/batch"
	"github.com/cmu-sei/biggrep/internal/bgformat"
	"github.com/cmu-sei/biggrep/internal/compress"
	"github.com/cmu-sei/biggrep/internal/losertree"
	"github.com/cmu-sei/biggrep/internal/ngram"
	"github.com/cmu-sei/biggrep/internal/shingle"
	"github.com/cmu-sei/biggrep/internal/writer"
)

// Options configures a Build run. Zero worker counts and PFOR parameters
// fall back to spec.md's stated defaults; N has no default and must be 3
// or 4.
type Options struct {
	N               ngram.N
	HintType        bgformat.HintType
	PforBlockSize   int
	PforExceptions  int
	PforThreshold   int
	MaxUniqueNgrams int // 0 disables the limit
	ShinglerWorkers int
	CompressWorkers int
	CompressMap     bool // fmt_minor = 2

	// Progress, when non-nil, is called with human-readable progress lines
	// (shingled and written counts, per-file notices) the way the
	// teacher's cmd/cindex.go writes to stderr via the log package.
	Progress func(format string, args ...any)
	// Overflow, when non-nil, receives the path of every file that hit
	// MaxUniqueNgrams, one call per file.
	Overflow func(path string)
}

const (
	defaultShinglerWorkers = 4
	defaultCompressWorkers = 5
	defaultPforThreshold   = 8
)

func (o Options) shinglerWorkers() int {
	if o.ShinglerWorkers > 0 {
		return o.ShinglerWorkers
	}
	return defaultShinglerWorkers
}

func (o Options) compressWorkers() int {
	if o.CompressWorkers > 0 {
		return o.CompressWorkers
	}
	return defaultCompressWorkers
}

func (o Options) pforBlockSize() int {
	if o.PforBlockSize > 0 {
		return o.PforBlockSize
	}
	return 32 // pfor.DefaultBlockSize
}

func (o Options) pforExceptions() int {
	if o.PforExceptions > 0 {
		return o.PforExceptions
	}
	return 3 // pfor.DefaultMaxExceptions
}

func (o Options) pforThreshold() int {
	if o.PforThreshold > 0 {
		return o.PforThreshold
	}
	return defaultPforThreshold
}

func (o Options) progress(format string, args ...any) {
	if o.Progress != nil {
		o.Progress(format, args...)
	}
}

// Build reads paths, shingles them, merges and compresses their ngrams,
// and writes a finalized .bgi file at destPath. A per-file stat/open/mmap
// failure or a hit_limit rejection never aborts the build; only a writer
// I/O error, an invalid Options, or context cancellation does.
func Build(ctx context.Context, paths []string, destPath string, opts Options) error {
	header := bgformat.Header{
		FmtMajor:      2,
		FmtMinor:      1,
		N:             opts.N,
		HintType:      opts.HintType,
		PforBlocksize: uint8(opts.pforBlockSize()),
	}
	if opts.CompressMap {
		header.FmtMinor = 2
	}
	if err := header.Validate(); err != nil {
		return fmt.Errorf("builder: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fileData, err := shingleAll(ctx, paths, opts)
	if err != nil {
		return err
	}

	surviving, fileMap := surviveAndRenumber(fileData, opts)
	opts.progress("shingled %d files, %d survive", len(paths), len(surviving))

	tree := losertree.New(surviving)
	codec := compress.New(opts.pforBlockSize(), opts.pforExceptions(), opts.pforThreshold())

	w, err := writer.Open(destPath, header)
	if err != nil {
		return fmt.Errorf("builder: %w", err)
	}

	if err := runPipeline(ctx, tree, codec, w, opts); err != nil {
		w.Abort()
		return err
	}

	if err := w.Finalize(fileMap, opts.CompressMap); err != nil {
		return fmt.Errorf("builder: finalize: %w", err)
	}
	return nil
}

// shingleAll runs opts.shinglerWorkers() shinglers over paths concurrently,
// each self-contained per spec.md §4.3's concurrency model.
func shingleAll(ctx context.Context, paths []string, opts Options) ([]*shingle.FileData, error) {
	shingler := shingle.New(shingle.Policy{N: opts.N, MaxUniqueNgrams: opts.MaxUniqueNgrams})
	fileData := make([]*shingle.FileData, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.shinglerWorkers())
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			fileData[i] = shingler.Shingle(p, uint32(i))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("builder: shingling: %w", err)
	}
	return fileData, nil
}

// surviveAndRenumber drops missing and hit_limit files, densely renumbers
// the rest by their order of appearance, and builds the parallel fileid
// map. Hit-limited paths are reported via opts.Overflow.
func surviveAndRenumber(fileData []*shingle.FileData, opts Options) ([]*shingle.FileData, bgformat.FileIDMap) {
	var surviving []*shingle.FileData
	for _, fd := range fileData {
		switch {
		case fd.Missing:
			opts.progress("missing: %s", fd.Path)
		case fd.HitLimit:
			opts.progress("hit_limit: %s", fd.Path)
			if opts.Overflow != nil {
				opts.Overflow(fd.Path)
			}
		default:
			surviving = append(surviving, fd)
		}
	}

	fileMap := make(bgformat.FileIDMap, len(surviving))
	for i, fd := range surviving {
		fd.ID = uint32(i)
		fileMap[i] = fd.Path + fd.Meta()
	}
	return surviving, fileMap
}

// runPipeline drives the merge -> compress -> write stages concurrently:
// the merger feeds posting groups to a bounded compressor pool, which
// feeds completed postings to the single writer goroutine. Any stage
// error cancels ctx so the others unblock instead of deadlocking.
func runPipeline(ctx context.Context, tree *losertree.Tree, codec *compress.Compressor, w *writer.Writer, opts Options) error {
	groups := make(chan batch.Group, batch.SoftBackpressureBound)
	compressed := make(chan *compress.CompressedPosting, batch.SoftBackpressureBound)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return batch.Run(gctx, tree, groups)
	})

	g.Go(func() error {
		defer close(compressed)
		cg, cctx := errgroup.WithContext(gctx)
		cg.SetLimit(opts.compressWorkers())
		for grp := range groups {
			grp := grp
			cg.Go(func() error {
				cp, err := codec.Compress(grp)
				if err != nil {
					return fmt.Errorf("builder: compress ngram %d: %w", grp.Ngram, err)
				}
				select {
				case compressed <- cp:
					return nil
				case <-cctx.Done():
					return cctx.Err()
				}
			})
		}
		return cg.Wait()
	})

	g.Go(func() error {
		written := 0
		for cp := range compressed {
			if err := w.Accept(cp); err != nil {
				return fmt.Errorf("builder: write ngram %d: %w", cp.Ngram, err)
			}
			written++
			if written%10000 == 0 {
				opts.progress("wrote %d postings", written)
			}
		}
		return nil
	})

	return g.Wait()
}
