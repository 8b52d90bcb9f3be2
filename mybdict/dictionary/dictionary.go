// Package dictionary is the runtime entry point: it accepts either a MYBDF001
// container or a bare MYBDICT1 payload and serves candidate lookups.
package dictionary

import (
	"fmt"
	"os"

	"github.com/ZanzyTHEbar/mybdict/mybdict/codes"
	"github.com/ZanzyTHEbar/mybdict/mybdict/container"
	"github.com/ZanzyTHEbar/mybdict/mybdict/payload"
)

// Dictionary is a loaded, read-only dictionary.
type Dictionary struct {
	*payload.Reader
	// Header and Meta are nil for a bare payload.
	Header *container.Header
	Meta   *container.Meta
	scheme codes.Scheme
}

// FromBytes dispatches on the leading magic.
func FromBytes(buf []byte) (*Dictionary, error) {
	if len(buf) < 8 {
		return nil, fmt.Errorf("%w: too small (%d bytes)", payload.ErrCorruptPayload, len(buf))
	}
	switch string(buf[:8]) {
	case container.Magic:
		dec, err := container.Decode(buf)
		if err != nil {
			return nil, err
		}
		r, err := payload.Open(dec.Payload)
		if err != nil {
			return nil, err
		}
		d := &Dictionary{Reader: r, Header: &dec.Header, Meta: &dec.Meta, scheme: codes.PinyinFull}
		if dec.Meta.CodeScheme != "" {
			scheme, err := codes.ParseScheme(dec.Meta.CodeScheme)
			if err != nil {
				return nil, err
			}
			d.scheme = scheme
		}
		return d, nil
	case payload.Magic:
		r, err := payload.Open(buf)
		if err != nil {
			return nil, err
		}
		return &Dictionary{Reader: r, scheme: codes.PinyinFull}, nil
	}
	return nil, fmt.Errorf("unknown dictionary magic %q", buf[:8])
}

// FromFile loads a dictionary file into memory.
func FromFile(path string) (*Dictionary, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromBytes(buf)
}

// Scheme returns the code scheme lookups are canonicalized with.
func (d *Dictionary) Scheme() codes.Scheme { return d.scheme }

// Search canonicalizes raw with the dictionary's scheme and returns up to
// limit candidates. Exact matches come first; with prefix set, codes that
// extend the input follow.
func (d *Dictionary) Search(raw string, limit int, prefix bool) ([]payload.Candidate, error) {
	code, err := codes.Canonicalize(raw, d.scheme)
	if err != nil {
		return nil, err
	}
	if prefix {
		return d.LookupPrefix(code, limit)
	}
	found, err := d.Find(code)
	if err != nil {
		return nil, err
	}
	if limit >= 0 && len(found) > limit {
		found = found[:limit]
	}
	return found, nil
}
