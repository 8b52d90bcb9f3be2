// Package codes maps raw input-method codes onto the canonical alphabet stored
// in payloads.
package codes

import (
	"fmt"
	"strings"
)

// Scheme names a canonicalization rule.
type Scheme string

const (
	// PinyinFull is full pinyin: lowercase a-z only, no syllable separators.
	PinyinFull Scheme = "PINYIN_FULL"
)

// UnknownSchemeError is returned for a scheme name with no canonicalization rule.
type UnknownSchemeError struct {
	Scheme string
}

func (e *UnknownSchemeError) Error() string {
	names := make([]string, 0, len(Schemes()))
	for _, s := range Schemes() {
		names = append(names, string(s))
	}
	return fmt.Sprintf("unknown code scheme: %q (supported: %s)", e.Scheme, strings.Join(names, ", "))
}

// Schemes lists every supported scheme.
func Schemes() []Scheme {
	return []Scheme{PinyinFull}
}

// ParseScheme validates a scheme name.
func ParseScheme(name string) (Scheme, error) {
	s := Scheme(strings.TrimSpace(name))
	switch s {
	case PinyinFull:
		return s, nil
	}
	return "", &UnknownSchemeError{Scheme: name}
}

// Canonicalize converts raw into its canonical form under scheme. An empty
// result means the entry carrying this code must be discarded.
func Canonicalize(raw string, scheme Scheme) (string, error) {
	switch scheme {
	case PinyinFull:
		return canonicalPinyin(raw), nil
	}
	return "", &UnknownSchemeError{Scheme: string(scheme)}
}

func canonicalPinyin(raw string) string {
	c := strings.TrimSpace(raw)
	if c == "" {
		return ""
	}
	c = strings.ToLower(c)
	var b strings.Builder
	b.Grow(len(c))
	for i := 0; i < len(c); i++ {
		// Spaces and apostrophes fall outside a-z, so one filter covers all three rules.
		if ch := c[i]; ch >= 'a' && ch <= 'z' {
			b.WriteByte(ch)
		}
	}
	return b.String()
}

// SplitSyllables splits a raw multi-part code on whitespace.
func SplitSyllables(raw string) []string {
	return strings.Fields(raw)
}
