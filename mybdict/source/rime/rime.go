// Package rime reads Rime *.dict.yaml dictionaries, including rime-ice.
//
// Body lines follow the YAML header terminator "..." and look like
//
//	<word>\t<code>[\t<weight>]
package rime

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"github.com/ZanzyTHEbar/mybdict/mybdict/source"
	"github.com/ZanzyTHEbar/mybdict/mybdict/types"
)

// FormatID is the registry id of this reader.
const FormatID = "rime_dict_yaml"

// MaxLineSize is the longest line the reader keeps. Longer body lines are
// skipped and counted rather than failing the pass.
const MaxLineSize = 1 << 20

func init() {
	source.Register(FormatID, func() types.Source { return New() })
}

// Reader parses Rime dictionaries. Stats accumulate over every pass.
type Reader struct {
	maxLine     int
	version     atomic.Value // string
	records     atomic.Int64
	skipped     atomic.Int64
	badWeights  atomic.Int64
	invalidUTF8 atomic.Int64
}

// New creates a Reader.
func New() *Reader { return &Reader{maxLine: MaxLineSize} }

// Format implements types.Source.
func (r *Reader) Format() string { return FormatID }

// SourceVersion returns the "version" field of the last header read, if any.
func (r *Reader) SourceVersion() string {
	v, _ := r.version.Load().(string)
	return v
}

// Stats returns the counters accumulated so far.
func (r *Reader) Stats() types.SourceStats {
	return types.SourceStats{
		Records:     r.records.Load(),
		Skipped:     r.skipped.Load(),
		BadWeights:  r.badWeights.Load(),
		InvalidUTF8: r.invalidUTF8.Load(),
	}
}

// Entries implements types.Source. Codes are lowercased but otherwise raw so
// syllable separators survive for derivation.
func (r *Reader) Entries(ctx context.Context, path string, fn func(types.Entry) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	br := bufio.NewReaderSize(f, 64*1024)
	inBody := false
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		raw, tooLong, err := readLine(br, r.maxLine)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if tooLong {
			if inBody {
				r.skipped.Add(1)
			}
			continue
		}
		line := string(raw)
		if !utf8.ValidString(line) {
			r.invalidUTF8.Add(1)
			line = strings.ToValidUTF8(line, "�")
		}
		if !inBody {
			if strings.TrimSpace(line) == "..." {
				inBody = true
			} else if v, ok := headerVersion(line); ok {
				r.version.Store(v)
			}
			continue
		}
		e, ok := r.parseLine(line)
		if !ok {
			continue
		}
		r.records.Add(1)
		if err := fn(e); err != nil {
			return err
		}
	}
}

// readLine returns the next line without its terminator. A line longer than
// max is consumed in full and reported with tooLong set and no content.
func readLine(br *bufio.Reader, max int) (line []byte, tooLong bool, err error) {
	for {
		frag, more, err := br.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) && (len(line) > 0 || tooLong) {
				return line, tooLong, nil
			}
			return nil, false, err
		}
		if !tooLong {
			if len(line)+len(frag) > max {
				tooLong, line = true, nil
			} else {
				line = append(line, frag...)
			}
		}
		if !more {
			return line, tooLong, nil
		}
	}
}

// parseLine returns false for blank lines, comments and unusable records.
func (r *Reader) parseLine(line string) (types.Entry, bool) {
	s := strings.TrimSpace(line)
	if s == "" || strings.HasPrefix(s, "#") {
		return types.Entry{}, false
	}
	parts := strings.Split(s, "\t")
	if len(parts) < 2 {
		parts = strings.Fields(s)
	}
	if len(parts) < 2 {
		r.skipped.Add(1)
		return types.Entry{}, false
	}
	word := strings.TrimSpace(parts[0])
	code := strings.TrimSpace(parts[1])
	if word == "" || code == "" {
		r.skipped.Add(1)
		return types.Entry{}, false
	}

	var weight int32
	if len(parts) >= 3 {
		w, err := strconv.ParseInt(strings.TrimSpace(parts[2]), 10, 32)
		if err != nil {
			r.badWeights.Add(1)
		} else {
			weight = int32(w)
		}
	}
	return types.Entry{Word: word, Code: strings.ToLower(code), Weight: weight}, true
}

// headerVersion extracts a top-level `version: "x"` header field.
func headerVersion(line string) (string, bool) {
	key, value, ok := strings.Cut(line, ":")
	if !ok || key != "version" {
		return "", false
	}
	value = strings.TrimSpace(value)
	if i := strings.Index(value, " #"); i >= 0 {
		value = strings.TrimSpace(value[:i])
	}
	value = strings.Trim(value, `"'`)
	return value, value != ""
}
