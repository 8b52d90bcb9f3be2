// Package pipeline turns source dictionaries into MYBDF001 files: it reads
// records, canonicalizes codes, derives single characters, encodes the
// payload and writes the container and its descriptor.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	internal "github.com/ZanzyTHEbar/mybdict/mybdict"
	"github.com/ZanzyTHEbar/mybdict/mybdict/codes"
	"github.com/ZanzyTHEbar/mybdict/mybdict/container"
	"github.com/ZanzyTHEbar/mybdict/mybdict/derive"
	"github.com/ZanzyTHEbar/mybdict/mybdict/descriptor"
	"github.com/ZanzyTHEbar/mybdict/mybdict/payload"
	"github.com/ZanzyTHEbar/mybdict/mybdict/types"
)

// Converter runs conversion jobs. It holds no per-job state, so one
// Converter may run many jobs concurrently.
type Converter struct {
	logger zerolog.Logger
	now    func() time.Time
}

// Option customizes a Converter.
type Option func(*Converter)

// WithLogger sets the logger used for progress and summaries.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Converter) {
		c.logger = logger
	}
}

// WithClock replaces time.Now, which stamps createdAtEpochMs.
func WithClock(now func() time.Time) Option {
	return func(c *Converter) {
		c.now = now
	}
}

// NewConverter creates a Converter.
func NewConverter(opts ...Option) *Converter {
	c := &Converter{
		logger: internal.GetLogger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Convert runs one job. The job is validated before any file is opened; the
// output is replaced atomically, so a failed run leaves no partial file.
func (c *Converter) Convert(ctx context.Context, job Job) (*Report, error) {
	p, err := job.plan()
	if err != nil {
		return nil, err
	}
	job = p.job
	start := c.now()
	log := c.logger.With().Str("dictionary_id", job.DictionaryID).Str("input", job.Input).Logger()
	log.Debug().Str("format", job.Format).Str("scheme", string(p.scheme)).Int("per_code", p.perCode).Msg("Converting dictionary")

	rep := &Report{
		BuildID:      uuid.New(),
		DictionaryID: job.DictionaryID,
		Input:        job.Input,
		Output:       job.Output,
	}

	deriver := derive.New(p.scheme, p.perCode)
	var direct []types.Entry
	err = p.source.Entries(ctx, job.Input, func(e types.Entry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		rep.Records++
		code, err := codes.Canonicalize(e.Code, p.scheme)
		if err != nil {
			return err
		}
		if code == "" || e.Word == "" {
			rep.DroppedEmptyCode++
			log.Debug().Str("word", e.Word).Str("code", e.Code).Msg("Dropping entry with empty canonical code")
			return nil
		}
		direct = append(direct, types.Entry{Word: e.Word, Code: code, Weight: e.Weight})
		return deriver.Observe(e.Word, e.Code, e.Weight)
	})
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", job.Input, err)
	}
	if sr, ok := p.source.(types.StatsReporter); ok {
		rep.Source = sr.Stats()
	}

	derived := deriver.Entries()
	all := make([]types.Entry, 0, len(direct)+len(derived))
	all = append(all, direct...)
	all = append(all, derived...)
	rep.DirectEntries = len(direct)
	rep.DerivedEntries = len(derived)
	rep.DeriveSources, rep.DerivePooled = deriver.Stats()

	buf, err := payload.Encode(all)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	layout, err := payload.ParseLayout(buf)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	rep.Codes = int(layout.CodeCount)
	rep.PayloadSize = len(buf)
	rep.Weights = weightStats(all)

	meta := container.Meta{
		DictionaryID:     job.DictionaryID,
		Name:             job.Name,
		SourceFormat:     job.Format,
		CodeScheme:       string(p.scheme),
		CreatedBy:        internal.DefaultAppName,
		CreatedAtEpochMs: c.now().UnixMilli(),
	}
	if v, ok := p.source.(types.Versioned); ok {
		meta.SourceVersion = v.SourceVersion()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	err = container.WriteFile(ctx, job.Output, buf, container.Options{
		Version:     p.version,
		Meta:        meta,
		Languages:   job.Languages,
		Compression: p.compression,
	})
	if err != nil {
		return nil, fmt.Errorf("write %s: %w", job.Output, err)
	}
	if fi, err := os.Stat(job.Output); err == nil {
		rep.StoredSize = fi.Size()
	}

	if job.Descriptor != nil {
		dest, spec := p.descriptorSpec()
		if err := descriptor.Write(ctx, dest, spec); err != nil {
			return nil, fmt.Errorf("write descriptor %s: %w", dest, err)
		}
		rep.DescriptorPath = dest
	}

	rep.Duration = c.now().Sub(start)
	log.Info().Object("report", rep).Msg("Dictionary converted")
	return rep, nil
}
