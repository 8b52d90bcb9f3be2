package pipeline

import (
	"errors"
	"fmt"
	"strings"

	internal "github.com/ZanzyTHEbar/mybdict/mybdict"
	"github.com/ZanzyTHEbar/mybdict/mybdict/codes"
	"github.com/ZanzyTHEbar/mybdict/mybdict/container"
	"github.com/ZanzyTHEbar/mybdict/mybdict/descriptor"
	"github.com/ZanzyTHEbar/mybdict/mybdict/source"
	"github.com/ZanzyTHEbar/mybdict/mybdict/types"

	// rime_dict_yaml is the default source format.
	_ "github.com/ZanzyTHEbar/mybdict/mybdict/source/rime"
)

// Defaults applied to empty Job fields.
const (
	DefaultFormat      = "rime_dict_yaml"
	DefaultDictVersion = "1.0.0"
)

// ErrInvalidJob wraps every configuration problem found before I/O starts.
var ErrInvalidJob = errors.New("invalid conversion job")

// Job describes one source dictionary to convert.
type Job struct {
	Input        string
	Format       string
	Output       string
	DictionaryID string
	Name         string
	Languages    []string
	DictVersion  string
	CodeScheme   string

	DeriveSingleChars  bool
	SingleCharsPerCode int
	Compression        string

	// Descriptor, when set, also writes a DictionarySpec JSON file.
	Descriptor *DescriptorOptions
}

// DescriptorOptions carries the descriptor fields that cannot be derived
// from the job itself.
type DescriptorOptions struct {
	Path       string // defaults to the output path with a .json extension
	AssetPath  string // defaults to dictionary/<output file name>
	LocaleTags []string
	LayoutIDs  []string
	Kind       string
	Core       string
	Variant    string
	IsDefault  bool
	Disabled   bool
	Priority   int
}

// plan is a validated Job.
type plan struct {
	job         Job
	source      types.Source
	scheme      codes.Scheme
	version     container.SemVer
	compression container.Compression
	perCode     int
}

// Validate checks the job without touching the filesystem.
func (j Job) Validate() error {
	_, err := j.plan()
	return err
}

func (j Job) plan() (*plan, error) {
	if strings.TrimSpace(j.Input) == "" {
		return nil, fmt.Errorf("%w: input path is required", ErrInvalidJob)
	}
	if strings.TrimSpace(j.Output) == "" {
		return nil, fmt.Errorf("%w: output path is required", ErrInvalidJob)
	}
	if strings.TrimSpace(j.DictionaryID) == "" {
		return nil, fmt.Errorf("%w: dictionary id is required", ErrInvalidJob)
	}

	format := orDefault(j.Format, DefaultFormat)
	src, err := source.Lookup(format)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidJob, err)
	}
	scheme, err := codes.ParseScheme(orDefault(j.CodeScheme, string(codes.PinyinFull)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidJob, err)
	}
	version, err := container.ParseSemVer(orDefault(j.DictVersion, DefaultDictVersion))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidJob, err)
	}
	compression, err := container.ParseCompression(orDefault(j.Compression, container.CompressionZlib.String()))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidJob, err)
	}
	if j.SingleCharsPerCode < 0 {
		return nil, fmt.Errorf("%w: singleCharsPerCode must be >= 0, got %d", ErrInvalidJob, j.SingleCharsPerCode)
	}

	perCode := 0
	if j.DeriveSingleChars {
		perCode = j.SingleCharsPerCode
	}
	j.Format = format
	return &plan{
		job:         j,
		source:      src,
		scheme:      scheme,
		version:     version,
		compression: compression,
		perCode:     perCode,
	}, nil
}

// descriptorSpec builds the descriptor for a validated job.
func (p *plan) descriptorSpec() (string, descriptor.DictionarySpec) {
	opts := p.job.Descriptor
	dest := opts.Path
	if dest == "" {
		dest = strings.TrimSuffix(p.job.Output, internal.DefaultOutputExt) + ".json"
	}
	asset := opts.AssetPath
	if asset == "" {
		asset = descriptor.AssetPath(p.job.Output)
	}
	tags := opts.LocaleTags
	if len(tags) == 0 {
		tags = p.job.Languages
	}
	return dest, descriptor.DictionarySpec{
		DictionaryID:      p.job.DictionaryID,
		Name:              p.job.Name,
		LocaleTags:        tags,
		LayoutIDs:         opts.LayoutIDs,
		AssetPath:         asset,
		DictionaryVersion: p.version.String(),
		CodeScheme:        string(p.scheme),
		Kind:              opts.Kind,
		Core:              opts.Core,
		Variant:           opts.Variant,
		IsDefault:         opts.IsDefault,
		Enabled:           !opts.Disabled,
		Priority:          opts.Priority,
	}
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
