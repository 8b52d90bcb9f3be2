// Package derive synthesizes single-character entries from multi-character
// words whose raw code lines up one syllable per character.
package derive

import (
	"sort"
	"unicode"

	"github.com/ZanzyTHEbar/mybdict/mybdict/codes"
	"github.com/ZanzyTHEbar/mybdict/mybdict/types"

	"github.com/armon/go-radix"
)

// DefaultPerCode is the default cap on derived characters per syllable code.
const DefaultPerCode = 64

// Deriver accumulates the best candidate per (syllable code, character) and
// emits at most limit characters per code. A Deriver is not safe for
// concurrent use; each conversion owns one.
type Deriver struct {
	scheme     codes.Scheme
	limit      int
	pool       *radix.Tree // syllable code -> map[character]best weight
	observed   int64
	candidates int64
}

// New creates a Deriver. A limit of 0 or a scheme other than PINYIN_FULL
// disables derivation.
func New(scheme codes.Scheme, limit int) *Deriver {
	if limit < 0 {
		limit = 0
	}
	return &Deriver{
		scheme: scheme,
		limit:  limit,
		pool:   radix.New(),
	}
}

// Enabled reports whether Observe will collect anything.
func (d *Deriver) Enabled() bool {
	return d.limit > 0 && d.scheme == codes.PinyinFull
}

// Observe offers one source record to the pool. word and rawCode must already
// be trimmed; rawCode keeps its syllable separators.
func (d *Deriver) Observe(word, rawCode string, weight int32) error {
	if !d.Enabled() {
		return nil
	}
	chars := []rune(word)
	// Single characters are already direct entries and never enter the pool.
	if len(chars) < 2 {
		return nil
	}
	syllables := codes.SplitSyllables(rawCode)
	if len(syllables) != len(chars) {
		return nil
	}
	d.observed++

	scaled := floorDiv(weight, int32(len(chars)))
	for i, ch := range chars {
		if unicode.IsSpace(ch) {
			continue
		}
		code, err := codes.Canonicalize(syllables[i], d.scheme)
		if err != nil {
			return err
		}
		if code == "" {
			continue
		}
		d.offer(code, string(ch), scaled)
	}
	return nil
}

func (d *Deriver) offer(code, char string, weight int32) {
	var best map[string]int32
	if v, ok := d.pool.Get(code); ok {
		best = v.(map[string]int32)
	} else {
		best = make(map[string]int32)
		d.pool.Insert(code, best)
	}
	prev, seen := best[char]
	if !seen {
		d.candidates++
	}
	if !seen || weight > prev {
		best[char] = weight
	}
}

// Entries returns the derived entries, codes in byte order and, within a code,
// the top limit characters by (weight desc, character asc).
func (d *Deriver) Entries() []types.Entry {
	if !d.Enabled() {
		return nil
	}
	var out []types.Entry
	d.pool.Walk(func(code string, v interface{}) bool {
		best := v.(map[string]int32)
		chars := make([]string, 0, len(best))
		for ch := range best {
			chars = append(chars, ch)
		}
		sort.Slice(chars, func(i, j int) bool {
			wi, wj := best[chars[i]], best[chars[j]]
			if wi != wj {
				return wi > wj
			}
			return chars[i] < chars[j]
		})
		if len(chars) > d.limit {
			chars = chars[:d.limit]
		}
		for _, ch := range chars {
			out = append(out, types.Entry{Word: ch, Code: code, Weight: best[ch]})
		}
		return false
	})
	return out
}

// Stats returns how many words contributed and how many distinct
// (code, character) candidates were pooled before capping.
func (d *Deriver) Stats() (observed, candidates int64) {
	return d.observed, d.candidates
}

// floorDiv rounds toward negative infinity, unlike Go's truncating division.
func floorDiv(a, b int32) int32 {
	if b <= 0 {
		b = 1
	}
	q := a / b
	if (a%b != 0) && (a < 0) {
		q--
	}
	return q
}
