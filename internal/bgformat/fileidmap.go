package bgformat

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zlib"
)

// FileIDMap is the ordered list of per-file metadata strings; position in
// the slice is the file id postings reference.
type FileIDMap []string

// Serialize renders the map as newline-delimited "NNNNNNNNNN <meta>" lines
// (spec.md §4.7's Writer finalize step), zero-padding ids to 10 digits.
func (m FileIDMap) Serialize() []byte {
	var buf bytes.Buffer
	for id, meta := range m {
		fmt.Fprintf(&buf, "%010d %s\n", id, meta)
	}
	return buf.Bytes()
}

// SerializeCompressed renders the map and zlib-compresses it, for
// fmt_minor=2. klauspost/compress's zlib implementation is wire-compatible
// with both the standard library's and the original C++ implementation's
// Boost iostreams zlib filter.
func (m FileIDMap) SerializeCompressed() ([]byte, error) {
	raw := m.Serialize()
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(raw); err != nil {
		return nil, fmt.Errorf("bgformat: zlib compress fileid map: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("bgformat: zlib compress fileid map: %w", err)
	}
	return buf.Bytes(), nil
}

// ParseFileIDMap parses raw map bytes (optionally zlib-compressed, when
// compressed is true) into a FileIDMap, stripping each line's leading
// "NNNNNNNNNN " prefix and keeping everything after the first space.
func ParseFileIDMap(raw []byte, compressed bool) (FileIDMap, error) {
	if compressed {
		r, err := zlib.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("bgformat: zlib decompress fileid map: %w", err)
		}
		defer r.Close()
		decoded, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("bgformat: zlib decompress fileid map: %w", err)
		}
		raw = decoded
	}

	lines := strings.Split(string(raw), "\n")
	m := make(FileIDMap, 0, len(lines))
	for _, line := range lines {
		if len(line) <= 1 {
			// last line is typically empty (trailing newline) or a
			// stray single character; never a real entry.
			continue
		}
		id, err := parseID(line)
		if err != nil {
			return nil, err
		}
		if int(id) != len(m) {
			return nil, fmt.Errorf("bgformat: fileid map line %q: id %d does not match its position %d", line, id, len(m))
		}

		pos := strings.IndexByte(line, ' ')
		m = append(m, line[pos+1:])
	}
	return m, nil
}

// parseID parses the zero-padded numeric id prefix of a raw map line,
// used to validate that a line's stored id agrees with its position.
func parseID(line string) (uint32, error) {
	pos := strings.IndexByte(line, ' ')
	if pos < 0 {
		return 0, fmt.Errorf("bgformat: malformed fileid map line %q", line)
	}
	v, err := strconv.ParseUint(line[:pos], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("bgformat: malformed fileid map id %q: %w", line[:pos], err)
	}
	return uint32(v), nil
}
