package payload

import (
	"bytes"
	"encoding/binary"
	"strings"

	"github.com/ZanzyTHEbar/mybdict/mybdict/codes"
)

// Reader serves lookups directly from payload bytes. It never copies the
// buffer, so buf may be a memory mapping. A Reader is safe for concurrent use.
type Reader struct {
	buf    []byte
	layout Layout
}

// Open validates the header and section bounds of buf. String contents are
// checked lazily on access; call Verify for a full structural check.
func Open(buf []byte) (*Reader, error) {
	layout, err := ParseLayout(buf)
	if err != nil {
		return nil, err
	}
	return &Reader{buf: buf, layout: layout}, nil
}

// ParseLayout decodes and bounds-checks the payload header.
func ParseLayout(buf []byte) (Layout, error) {
	if len(buf) < HeaderSize {
		return Layout{}, corruptf("too small (%d bytes)", len(buf))
	}
	if string(buf[:8]) != Magic {
		return Layout{}, corruptf("bad magic %q", buf[:8])
	}
	u32 := func(off int) uint32 { return binary.LittleEndian.Uint32(buf[off:]) }
	l := Layout{
		Version:          u32(8),
		Flags:            u32(12),
		CodeCount:        u32(16),
		EntryCount:       u32(20),
		CodeIndexOffset:  u32(24),
		EntryTableOffset: u32(28),
		CodeBlobOffset:   u32(32),
		WordBlobOffset:   u32(36),
		Size:             u32(40),
	}
	if l.Version != Version {
		return Layout{}, corruptf("unsupported version %d", l.Version)
	}
	if uint64(l.Size) != uint64(len(buf)) {
		return Layout{}, corruptf("payload_size mismatch: header=%d actual=%d", l.Size, len(buf))
	}

	indexEnd := uint64(l.CodeIndexOffset) + uint64(l.CodeCount)*CodeIndexRecordSize
	tableEnd := uint64(l.EntryTableOffset) + uint64(l.EntryCount)*EntryRecordSize
	switch {
	case l.CodeIndexOffset < HeaderSize:
		return Layout{}, corruptf("code index overlaps header (offset %d)", l.CodeIndexOffset)
	case indexEnd > uint64(l.EntryTableOffset):
		return Layout{}, corruptf("code index overruns entry table (%d > %d)", indexEnd, l.EntryTableOffset)
	case tableEnd > uint64(l.CodeBlobOffset):
		return Layout{}, corruptf("entry table overruns code blob (%d > %d)", tableEnd, l.CodeBlobOffset)
	case l.CodeBlobOffset > l.WordBlobOffset:
		return Layout{}, corruptf("code blob after word blob (%d > %d)", l.CodeBlobOffset, l.WordBlobOffset)
	case l.WordBlobOffset > l.Size:
		return Layout{}, corruptf("word blob beyond payload end (%d > %d)", l.WordBlobOffset, l.Size)
	}
	return l, nil
}

// Layout returns the decoded header.
func (r *Reader) Layout() Layout { return r.layout }

// CodeCount returns the number of distinct codes.
func (r *Reader) CodeCount() int { return int(r.layout.CodeCount) }

// EntryCount returns the number of entries across all codes.
func (r *Reader) EntryCount() int { return int(r.layout.EntryCount) }

type codeRow struct {
	codeOffset uint32
	first      uint32
	count      uint32
}

func (r *Reader) row(i int) codeRow {
	pos := int(r.layout.CodeIndexOffset) + i*CodeIndexRecordSize
	return codeRow{
		codeOffset: binary.LittleEndian.Uint32(r.buf[pos:]),
		first:      binary.LittleEndian.Uint32(r.buf[pos+4:]),
		count:      binary.LittleEndian.Uint32(r.buf[pos+8:]),
	}
}

// cstring returns the NUL-terminated bytes at off within the section [start, end).
func (r *Reader) cstring(start, end, off uint32) ([]byte, error) {
	pos := uint64(start) + uint64(off)
	if pos >= uint64(end) {
		return nil, corruptf("string offset %d outside section [%d,%d)", off, start, end)
	}
	section := r.buf[pos:end]
	n := bytes.IndexByte(section, 0)
	if n < 0 {
		return nil, corruptf("unterminated string at %d", pos)
	}
	return section[:n], nil
}

func (r *Reader) codeAt(row codeRow) ([]byte, error) {
	return r.cstring(r.layout.CodeBlobOffset, r.layout.WordBlobOffset, row.codeOffset)
}

func (r *Reader) entry(code string, index uint32) (Candidate, error) {
	if index >= r.layout.EntryCount {
		return Candidate{}, corruptf("entry index %d out of range (%d entries)", index, r.layout.EntryCount)
	}
	pos := int(r.layout.EntryTableOffset) + int(index)*EntryRecordSize
	wordOffset := binary.LittleEndian.Uint32(r.buf[pos:])
	weight := int32(binary.LittleEndian.Uint32(r.buf[pos+4:]))
	word, err := r.cstring(r.layout.WordBlobOffset, r.layout.Size, wordOffset)
	if err != nil {
		return Candidate{}, err
	}
	return Candidate{Code: code, Word: string(word), Weight: weight}, nil
}

func (r *Reader) entries(code string, row codeRow, limit int) ([]Candidate, error) {
	if uint64(row.first)+uint64(row.count) > uint64(r.layout.EntryCount) {
		return nil, corruptf("code %q range [%d,+%d) exceeds %d entries", code, row.first, row.count, r.layout.EntryCount)
	}
	n := int(row.count)
	if limit >= 0 && limit < n {
		n = limit
	}
	out := make([]Candidate, 0, n)
	for i := 0; i < n; i++ {
		c, err := r.entry(code, row.first+uint32(i))
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// search returns the first index whose code is >= target, and whether it is an exact match.
func (r *Reader) search(target []byte) (int, bool, error) {
	lo, hi := 0, int(r.layout.CodeCount)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		code, err := r.codeAt(r.row(mid))
		if err != nil {
			return 0, false, err
		}
		if bytes.Compare(code, target) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < int(r.layout.CodeCount) {
		code, err := r.codeAt(r.row(lo))
		if err != nil {
			return 0, false, err
		}
		return lo, bytes.Equal(code, target), nil
	}
	return lo, false, nil
}

// Find returns every entry stored under the canonical code, best first.
// A missing code yields an empty result, not an error.
func (r *Reader) Find(code string) ([]Candidate, error) {
	return r.find(code, -1)
}

func (r *Reader) find(code string, limit int) ([]Candidate, error) {
	if code == "" || r.layout.CodeCount == 0 {
		return nil, nil
	}
	i, ok, err := r.search([]byte(code))
	if err != nil || !ok {
		return nil, err
	}
	return r.entries(code, r.row(i), limit)
}

// Lookup canonicalizes raw under scheme and returns its entries.
func (r *Reader) Lookup(raw string, scheme codes.Scheme) ([]Candidate, error) {
	code, err := codes.Canonicalize(raw, scheme)
	if err != nil {
		return nil, err
	}
	return r.Find(code)
}

// Candidates returns up to limit words for an exact canonical code.
func (r *Reader) Candidates(code string, limit int) ([]string, error) {
	if limit <= 0 || strings.TrimSpace(code) == "" {
		return nil, nil
	}
	found, err := r.find(code, limit)
	if err != nil {
		return nil, err
	}
	return words(found), nil
}

// LookupPrefix returns entries of every code starting with prefix, in code
// order and then stored order, stopping after limit entries. Results are not
// globally weight sorted.
func (r *Reader) LookupPrefix(prefix string, limit int) ([]Candidate, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" || limit <= 0 || r.layout.CodeCount == 0 {
		return nil, nil
	}
	target := []byte(prefix)
	start, _, err := r.search(target)
	if err != nil {
		return nil, err
	}
	var out []Candidate
	for i := start; i < int(r.layout.CodeCount) && len(out) < limit; i++ {
		row := r.row(i)
		code, err := r.codeAt(row)
		if err != nil {
			return nil, err
		}
		if !bytes.HasPrefix(code, target) {
			break
		}
		got, err := r.entries(string(code), row, limit-len(out))
		if err != nil {
			return nil, err
		}
		out = append(out, got...)
	}
	return out, nil
}

// Each visits codes in index order with their entries in stored order.
// Returning false from fn stops the walk.
func (r *Reader) Each(fn func(code string, entries []Candidate) bool) error {
	for i := 0; i < int(r.layout.CodeCount); i++ {
		row := r.row(i)
		code, err := r.codeAt(row)
		if err != nil {
			return err
		}
		list, err := r.entries(string(code), row, -1)
		if err != nil {
			return err
		}
		if !fn(string(code), list) {
			return nil
		}
	}
	return nil
}

// Codes returns every code in index order.
func (r *Reader) Codes() ([]string, error) {
	out := make([]string, 0, r.layout.CodeCount)
	for i := 0; i < int(r.layout.CodeCount); i++ {
		code, err := r.codeAt(r.row(i))
		if err != nil {
			return nil, err
		}
		out = append(out, string(code))
	}
	return out, nil
}

func words(list []Candidate) []string {
	out := make([]string, len(list))
	for i, c := range list {
		out[i] = c.Word
	}
	return out
}
