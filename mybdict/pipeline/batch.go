package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
	"github.com/sourcegraph/conc/pool"

	internal "github.com/ZanzyTHEbar/mybdict/mybdict"
)

// DefaultWorkers is the batch concurrency used when none is configured.
func DefaultWorkers() int {
	return min(max(runtime.NumCPU(), 2), 16)
}

// ConvertAll runs jobs on at most workers goroutines (0 means DefaultWorkers).
// Every job runs even when others fail. reports[i] belongs to jobs[i] and is
// nil when that job failed; the returned error joins every failure.
func (c *Converter) ConvertAll(ctx context.Context, jobs []Job, workers int) ([]*Report, error) {
	reports := make([]*Report, len(jobs))
	if len(jobs) == 0 {
		return reports, nil
	}
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	workers = min(workers, len(jobs))

	p := pool.New().WithMaxGoroutines(workers).WithContext(ctx)
	for i, job := range jobs {
		p.Go(func(ctx context.Context) error {
			rep, err := c.Convert(ctx, job)
			if err != nil {
				c.logger.Error().Err(err).Str("input", job.Input).Msg("Conversion failed")
				return fmt.Errorf("%s: %w", job.Input, err)
			}
			reports[i] = rep
			return nil
		})
	}
	err := p.Wait()
	c.logger.Info().Int("jobs", len(jobs)).Int("workers", workers).Bool("failed", err != nil).Msg("Batch finished")
	return reports, err
}

// DiscoverJobs is DiscoverJobsWithIgnore using the default ignore file name.
func DiscoverJobs(dir, pattern, outDir string, template Job) ([]Job, error) {
	return DiscoverJobsWithIgnore(dir, pattern, outDir, internal.DefaultIgnoreFile, template)
}

// DiscoverJobsWithIgnore builds one job per file in dir matching pattern,
// skipping anything matched by dir/ignoreFile. Output names drop the
// ".dict.yaml" (or last) extension: foo.dict.yaml becomes outDir/foo.mybdict
// with dictionary id "foo". Jobs are returned in file name order.
func DiscoverJobsWithIgnore(dir, pattern, outDir, ignoreFile string, template Job) ([]Job, error) {
	if pattern == "" {
		pattern = internal.DefaultSourcePattern
	}
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
	}
	ignored, err := loadIgnore(dir, ignoreFile)
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	var jobs []Job
	for _, path := range matches {
		fi, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if fi.IsDir() {
			continue
		}
		name := filepath.Base(path)
		if ignoreFile != "" && name == ignoreFile {
			continue
		}
		if ignored != nil && ignored.MatchesPath(name) {
			continue
		}

		id := stem(name)
		job := template
		job.Input = path
		job.Output = filepath.Join(outDir, id+internal.DefaultOutputExt)
		job.DictionaryID = id
		job.Languages = append([]string(nil), template.Languages...)
		if template.Descriptor != nil {
			d := *template.Descriptor
			d.Path = ""
			d.AssetPath = ""
			job.Descriptor = &d
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func loadIgnore(dir, ignoreFile string) (*ignore.GitIgnore, error) {
	if ignoreFile == "" {
		return nil, nil
	}
	ignorePath := filepath.Join(dir, ignoreFile)
	if _, err := os.Stat(ignorePath); err == nil {
		ignored, err := ignore.CompileIgnoreFile(ignorePath)
		if err != nil {
			return nil, fmt.Errorf("error reading %s: %w", ignoreFile, err)
		}
		return ignored, nil
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("error checking for %s: %w", ignoreFile, err)
	}
	return nil, nil
}

func stem(name string) string {
	if s, ok := strings.CutSuffix(name, ".dict.yaml"); ok {
		return s
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}
