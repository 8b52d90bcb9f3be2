// mybdict converts text dictionaries into MyBoard binary dictionaries.
//
// Usage:
//
//	mybdict convert -i base.dict.yaml -o base.mybdict --id base [flags]
//	mybdict batch --dir sources --out dictionary [flags]
//	mybdict inspect base.mybdict
//	mybdict lookup base.mybdict nihao [--prefix] [--limit 50]
//
// Conversion defaults come from config.yaml and MYBDICT_* environment
// variables; flags override both.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	internal "github.com/ZanzyTHEbar/mybdict/mybdict"
	"github.com/ZanzyTHEbar/mybdict/mybdict/config"
	"github.com/ZanzyTHEbar/mybdict/mybdict/container"
	"github.com/ZanzyTHEbar/mybdict/mybdict/dictionary"
	"github.com/ZanzyTHEbar/mybdict/mybdict/pipeline"
	"github.com/ZanzyTHEbar/mybdict/mybdict/source"
)

// Exit codes.
const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
	exitConfig = 3
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return exitUsage
	}
	switch args[0] {
	case "convert":
		return cmdConvert(ctx, args[1:], stdout, stderr)
	case "batch":
		return cmdBatch(ctx, args[1:], stdout, stderr)
	case "inspect":
		return cmdInspect(args[1:], stdout, stderr)
	case "lookup":
		return cmdLookup(args[1:], stdout, stderr)
	case "help", "-h", "--help":
		printUsage(stdout)
		return exitOK
	}
	fmt.Fprintf(stderr, "mybdict: unknown command %q\n", args[0])
	printUsage(stderr)
	return exitUsage
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `Usage: mybdict <command> [flags]

Commands:
  convert   convert one source dictionary
  batch     convert every matching source in a directory
  inspect   print header, metadata and integrity of a dictionary file
  lookup    print candidates for a code
`)
	fmt.Fprintf(w, "\nSource formats: %s\n", strings.Join(source.Formats(), ", "))
}

// commonFlags are shared by convert and batch and bound into the config.
type commonFlags struct {
	configPath string
	languages  []string
	descriptor bool
	layouts    []string
	kind       string
	core       string
	variant    string
	isDefault  bool
	enabled    bool
	priority   int
}

func addCommonFlags(fs *pflag.FlagSet, c *commonFlags) {
	fs.StringVar(&c.configPath, "config", "", "config file (default: ./config.yaml or "+config.DefaultConfigFile()+")")
	fs.String("format", pipeline.DefaultFormat, "source format")
	fs.String("scheme", "PINYIN_FULL", "code scheme")
	fs.Bool("derive", true, "derive single-character entries from multi-character words")
	fs.Int("per-code", 64, "maximum derived characters per code (0 disables derivation)")
	fs.String("compression", "zlib", "payload compression: none or zlib")
	fs.String("dict-version", pipeline.DefaultDictVersion, "dictionary version a.b.c")
	fs.String("log-level", "info", "log level")
	fs.StringSliceVarP(&c.languages, "lang", "l", nil, "language tags, primary first (e.g. zh-CN)")
	fs.BoolVar(&c.descriptor, "descriptor", false, "also write a DictionarySpec JSON next to each output")
	fs.StringSliceVar(&c.layouts, "layout", nil, "layout ids for the descriptor")
	fs.StringVar(&c.kind, "kind", "", "descriptor kind, e.g. PINYIN")
	fs.StringVar(&c.core, "core", "", "descriptor engine core")
	fs.StringVar(&c.variant, "variant", "", "descriptor variant")
	fs.BoolVar(&c.isDefault, "default", false, "mark the descriptor as default for its kind")
	fs.BoolVar(&c.enabled, "enabled", true, "descriptor enabled flag (--enabled=false to ship it disabled)")
	fs.IntVar(&c.priority, "priority", 0, "descriptor priority")
}

// descriptorOptions returns nil unless a descriptor was requested. path and
// assetPath may be empty to use the per-output defaults.
func (c *commonFlags) descriptorOptions(path, assetPath string) *pipeline.DescriptorOptions {
	if !c.descriptor && path == "" && assetPath == "" {
		return nil
	}
	return &pipeline.DescriptorOptions{
		Path:      path,
		AssetPath: assetPath,
		LayoutIDs: c.layouts,
		Kind:      c.kind,
		Core:      c.core,
		Variant:   c.variant,
		IsDefault: c.isDefault,
		Disabled:  !c.enabled,
		Priority:  c.priority,
	}
}

// setup loads configuration and builds the converter and job template.
func setup(fs *pflag.FlagSet, c *commonFlags) (*config.Config, *pipeline.Converter, pipeline.Job, error) {
	cfg, err := config.LoadConfig(c.configPath, fs)
	if err != nil {
		return nil, nil, pipeline.Job{}, err
	}
	internal.SetLogLevel(cfg.Log.Level)
	logger := internal.GetLogger()
	conv := pipeline.NewConverter(pipeline.WithLogger(logger))

	tmpl := cfg.JobTemplate()
	tmpl.Languages = c.languages
	return cfg, conv, tmpl, nil
}

func cmdConvert(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("convert", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		common         commonFlags
		input, output  string
		id, name       string
		descriptorPath string
		assetPath      string
	)
	addCommonFlags(fs, &common)
	fs.StringVarP(&input, "input", "i", "", "source dictionary")
	fs.StringVarP(&output, "output", "o", "", "output .mybdict file")
	fs.StringVar(&id, "id", "", "dictionary id")
	fs.StringVar(&name, "name", "", "display name")
	fs.StringVar(&descriptorPath, "descriptor-path", "", "descriptor JSON path (implies --descriptor)")
	fs.StringVar(&assetPath, "asset-path", "", "descriptor assetPath (default dictionary/<output name>; implies --descriptor)")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	_, conv, job, err := setup(fs, &common)
	if err != nil {
		fmt.Fprintf(stderr, "mybdict: %v\n", err)
		return exitConfig
	}
	job.Input = input
	job.Output = output
	job.DictionaryID = id
	job.Name = name
	job.Descriptor = common.descriptorOptions(descriptorPath, assetPath)

	rep, err := conv.Convert(ctx, job)
	if err != nil {
		fmt.Fprintf(stderr, "mybdict: %v\n", err)
		if errors.Is(err, pipeline.ErrInvalidJob) {
			return exitConfig
		}
		return exitFailed
	}
	printReport(stdout, rep)
	return exitOK
}

func cmdBatch(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("batch", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		common      commonFlags
		dir, outDir string
	)
	addCommonFlags(fs, &common)
	fs.StringVar(&dir, "dir", ".", "directory holding source dictionaries")
	fs.StringVar(&outDir, "out", internal.DefaultAssetDir, "output directory")
	fs.String("pattern", internal.DefaultSourcePattern, "source file glob")
	fs.String("ignore-file", internal.DefaultIgnoreFile, "gitignore-style file in --dir listing sources to skip")
	fs.Int("workers", 0, "parallel conversions (0 = per CPU)")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	cfg, conv, tmpl, err := setup(fs, &common)
	if err != nil {
		fmt.Fprintf(stderr, "mybdict: %v\n", err)
		return exitConfig
	}
	tmpl.Descriptor = common.descriptorOptions("", "")

	jobs, err := pipeline.DiscoverJobsWithIgnore(dir, cfg.Batch.Pattern, outDir, cfg.Batch.IgnoreFile, tmpl)
	if err != nil {
		fmt.Fprintf(stderr, "mybdict: %v\n", err)
		return exitFailed
	}
	if len(jobs) == 0 {
		fmt.Fprintf(stderr, "mybdict: no sources matching %q in %s\n", cfg.Batch.Pattern, dir)
		return exitFailed
	}

	reports, err := conv.ConvertAll(ctx, jobs, cfg.Workers())
	for _, rep := range reports {
		if rep != nil {
			printReport(stdout, rep)
		}
	}
	if err != nil {
		fmt.Fprintf(stderr, "mybdict: %v\n", err)
		return exitFailed
	}
	return exitOK
}

func printReport(w io.Writer, rep *pipeline.Report) {
	fmt.Fprintf(w, "%s -> %s: %d records, %d direct, %d derived, %d codes, %d bytes (build %s)\n",
		rep.Input, rep.Output, rep.Records, rep.DirectEntries, rep.DerivedEntries, rep.Codes, rep.StoredSize, rep.BuildID)
	if rep.DescriptorPath != "" {
		fmt.Fprintf(w, "  descriptor: %s\n", rep.DescriptorPath)
	}
}

func cmdInspect(args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("inspect", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	headerOnly := fs.Bool("header-only", false, "read only the header and metadata")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "usage: mybdict inspect [--header-only] <file>")
		return exitUsage
	}
	path := fs.Arg(0)

	if *headerOnly {
		h, meta, err := container.ReadHeaderAndMeta(path)
		if err != nil {
			fmt.Fprintf(stderr, "mybdict: %v\n", err)
			return exitFailed
		}
		printHeader(stdout, &h, &meta)
		return exitOK
	}

	d, err := dictionary.FromFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "mybdict: %v\n", err)
		return exitFailed
	}
	if d.Header != nil {
		printHeader(stdout, d.Header, d.Meta)
	} else {
		fmt.Fprintln(stdout, "format:      MYBDICT1 (bare payload)")
	}
	fmt.Fprintf(stdout, "codes:       %d\n", d.CodeCount())
	fmt.Fprintf(stdout, "entries:     %d\n", d.EntryCount())
	if err := d.Verify(); err != nil {
		fmt.Fprintf(stdout, "verify:      FAILED: %v\n", err)
		return exitFailed
	}
	fmt.Fprintln(stdout, "verify:      ok")
	return exitOK
}

func printHeader(w io.Writer, h *container.Header, m *container.Meta) {
	fmt.Fprintln(w, "format:      MYBDF001")
	fmt.Fprintf(w, "version:     %s\n", h.Version)
	fmt.Fprintf(w, "profile:     lang=%s region=%d script=%d features=%#x\n",
		h.Profile.Language(), h.Profile.RegionCode, h.Profile.ScriptType, uint32(h.Profile.FeatureFlags))
	fmt.Fprintf(w, "compression: %s (%d -> %d bytes)\n", h.Compression, h.PayloadSizeUncompressed, h.PayloadSizeStored)
	fmt.Fprintf(w, "id:          %s\n", m.DictionaryID)
	if m.Name != "" {
		fmt.Fprintf(w, "name:        %s\n", m.Name)
	}
	fmt.Fprintf(w, "languages:   %s\n", strings.Join(m.Languages, ", "))
	fmt.Fprintf(w, "scheme:      %s\n", m.CodeScheme)
	fmt.Fprintf(w, "source:      %s %s\n", m.SourceFormat, m.SourceVersion)
	if m.CreatedAtEpochMs != 0 {
		fmt.Fprintf(w, "created:     %d by %s\n", m.CreatedAtEpochMs, m.CreatedBy)
	}
}

func cmdLookup(args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("lookup", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	prefix := fs.Bool("prefix", false, "include every code starting with the input")
	limit := fs.Int("limit", internal.DefaultCandidateLimit, "maximum candidates")
	weights := fs.Bool("weights", false, "print code and weight with each word")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(stderr, "usage: mybdict lookup [--prefix] [--limit N] <file> <code>")
		return exitUsage
	}

	d, err := dictionary.FromFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(stderr, "mybdict: %v\n", err)
		return exitFailed
	}
	found, err := d.Search(fs.Arg(1), *limit, *prefix)
	if err != nil {
		fmt.Fprintf(stderr, "mybdict: %v\n", err)
		return exitFailed
	}
	for _, c := range found {
		if *weights {
			fmt.Fprintf(stdout, "%s\t%s\t%d\n", c.Word, c.Code, c.Weight)
		} else {
			fmt.Fprintln(stdout, c.Word)
		}
	}
	if len(found) == 0 {
		return exitFailed
	}
	return exitOK
}
