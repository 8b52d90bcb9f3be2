// Package descriptor writes the JSON spec that lets a keyboard runtime pick and
// load a converted dictionary without opening it.
package descriptor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path"
	"strings"

	"github.com/ZanzyTHEbar/mybdict/mybdict/fsutil"
)

// ErrMissingID is returned when a spec has no dictionary id.
var ErrMissingID = errors.New("descriptor: dictionaryId is required")

// DictionarySpec mirrors the runtime's dictionary selection record.
type DictionarySpec struct {
	DictionaryID      string   `json:"dictionaryId"`
	Name              string   `json:"name,omitempty"`
	LocaleTags        []string `json:"localeTags"`
	LayoutIDs         []string `json:"layoutIds"`
	AssetPath         string   `json:"assetPath,omitempty"`
	DictionaryVersion string   `json:"dictionaryVersion,omitempty"`
	CodeScheme        string   `json:"codeScheme,omitempty"`
	Kind              string   `json:"kind,omitempty"`
	Core              string   `json:"core,omitempty"`
	Variant           string   `json:"variant,omitempty"`
	IsDefault         bool     `json:"isDefault"`
	Enabled           bool     `json:"enabled"`
	Priority          int      `json:"priority"`
}

// AssetPath is the default asset location for an output file name.
func AssetPath(outputName string) string {
	return path.Join("dictionary", path.Base(outputName))
}

// NormalizeLocaleTag turns "zh-cn", "ZH_cn" or " zh-Hans-CN " style tags
// into "zh_CN". Only language and the following subtag are kept.
func NormalizeLocaleTag(tag string) string {
	t := strings.ReplaceAll(strings.TrimSpace(tag), "-", "_")
	var parts []string
	for _, p := range strings.Split(t, "_") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	lang := strings.ToLower(parts[0])
	if len(parts) == 1 {
		return lang
	}
	return lang + "_" + strings.ToUpper(parts[1])
}

// NormalizeLocaleTags normalizes tags in order, dropping empty and repeated ones.
func NormalizeLocaleTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		n := NormalizeLocaleTag(t)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// Marshal renders spec as indented JSON with a trailing newline. Locale tags
// are normalized and nil lists become empty arrays.
func Marshal(spec DictionarySpec) ([]byte, error) {
	if strings.TrimSpace(spec.DictionaryID) == "" {
		return nil, ErrMissingID
	}
	spec.LocaleTags = NormalizeLocaleTags(spec.LocaleTags)
	if spec.LayoutIDs == nil {
		spec.LayoutIDs = []string{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(spec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write stores spec at dest atomically.
func Write(ctx context.Context, dest string, spec DictionarySpec) error {
	data, err := Marshal(spec)
	if err != nil {
		return err
	}
	return fsutil.WriteFile(ctx, dest, data, nil)
}

// Read parses a spec previously written by Write.
func Read(data []byte) (DictionarySpec, error) {
	var spec DictionarySpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return DictionarySpec{}, err
	}
	if spec.DictionaryID == "" {
		return DictionarySpec{}, ErrMissingID
	}
	return spec, nil
}
