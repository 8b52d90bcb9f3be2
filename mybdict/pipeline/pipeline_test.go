package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/mybdict/mybdict/codes"
	"github.com/ZanzyTHEbar/mybdict/mybdict/container"
	"github.com/ZanzyTHEbar/mybdict/mybdict/descriptor"
	"github.com/ZanzyTHEbar/mybdict/mybdict/dictionary"
	"github.com/ZanzyTHEbar/mybdict/mybdict/payload"
	"github.com/ZanzyTHEbar/mybdict/mybdict/types"
)

const scenarioDict = `---
name: scenario
version: "0.1"
...
你好	ni hao	100
你	ni	10
# trailing comment
`

var fixedTime = time.UnixMilli(1_700_000_000_000)

func newTestConverter() *Converter {
	return NewConverter(WithLogger(zerolog.Nop()), WithClock(func() time.Time { return fixedTime }))
}

func writeSource(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func scenarioJob(t *testing.T) Job {
	dir := t.TempDir()
	return Job{
		Input:              writeSource(t, dir, "scenario.dict.yaml", scenarioDict),
		Output:             filepath.Join(dir, "out", "scenario.mybdict"),
		DictionaryID:       "scenario",
		Name:               "Scenario",
		Languages:          []string{"zh-CN"},
		DictVersion:        "1.2.3",
		CodeScheme:         "PINYIN_FULL",
		DeriveSingleChars:  true,
		SingleCharsPerCode: 64,
		Compression:        "zlib",
	}
}

func TestConvertScenario(t *testing.T) {
	job := scenarioJob(t)
	rep, err := newTestConverter().Convert(context.Background(), job)
	require.NoError(t, err)

	assert.Equal(t, int64(2), rep.Records)
	assert.Equal(t, 2, rep.DirectEntries)
	assert.Equal(t, 2, rep.DerivedEntries)
	assert.Equal(t, int64(1), rep.DeriveSources)
	assert.Equal(t, int64(2), rep.DerivePooled)
	assert.Equal(t, 3, rep.Codes)
	assert.Equal(t, int32(10), rep.Weights.Min)
	assert.Equal(t, int32(100), rep.Weights.Max)
	assert.InDelta(t, 52.5, rep.Weights.Mean, 1e-9)
	assert.NotEqual(t, uuid.Nil, rep.BuildID)

	d, err := dictionary.FromFile(job.Output)
	require.NoError(t, err)
	require.NoError(t, d.Verify())

	assert.Equal(t, "scenario", d.Meta.DictionaryID)
	assert.Equal(t, "Scenario", d.Meta.Name)
	assert.Equal(t, []string{"zh-CN"}, d.Meta.Languages)
	assert.Equal(t, "rime_dict_yaml", d.Meta.SourceFormat)
	assert.Equal(t, "0.1", d.Meta.SourceVersion)
	assert.Equal(t, "PINYIN_FULL", d.Meta.CodeScheme)
	assert.Equal(t, "mybdict", d.Meta.CreatedBy)
	assert.Equal(t, int64(1_700_000_000_000), d.Meta.CreatedAtEpochMs)
	assert.Equal(t, container.SemVer{Major: 1, Minor: 2, Patch: 3}, d.Header.Version)
	assert.Equal(t, container.CompressionZlib, d.Header.Compression)
	assert.Equal(t, container.DeriveProfile("zh-CN"), d.Header.Profile)

	got := map[string][]payload.Candidate{}
	require.NoError(t, d.Each(func(code string, entries []payload.Candidate) bool {
		got[code] = entries
		return true
	}))
	assert.Equal(t, map[string][]payload.Candidate{
		"hao":   {{Code: "hao", Word: "好", Weight: 50}},
		"ni":    {{Code: "ni", Word: "你", Weight: 50}, {Code: "ni", Word: "你", Weight: 10}},
		"nihao": {{Code: "nihao", Word: "你好", Weight: 100}},
	}, got)

	words, err := d.Candidates("ni", 50)
	require.NoError(t, err)
	assert.Equal(t, []string{"你", "你"}, words)
}

func TestConvertWithoutDerivation(t *testing.T) {
	job := scenarioJob(t)
	job.DeriveSingleChars = false
	job.Compression = "none"
	rep, err := newTestConverter().Convert(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, 0, rep.DerivedEntries)

	d, err := dictionary.FromFile(job.Output)
	require.NoError(t, err)
	assert.Equal(t, 2, d.EntryCount())
	assert.Equal(t, codes.PinyinFull, d.Scheme())
	assert.Equal(t, container.CompressionNone, d.Header.Compression)
}

func TestConvertIsDeterministic(t *testing.T) {
	job := scenarioJob(t)
	c := newTestConverter()
	_, err := c.Convert(context.Background(), job)
	require.NoError(t, err)
	first, err := os.ReadFile(job.Output)
	require.NoError(t, err)

	_, err = c.Convert(context.Background(), job)
	require.NoError(t, err)
	second, err := os.ReadFile(job.Output)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestConvertDropsEmptyCodes(t *testing.T) {
	dir := t.TempDir()
	job := scenarioJob(t)
	job.Input = writeSource(t, dir, "noise.dict.yaml", "...\n你\t123\t5\n好\thao\t1\n")
	rep, err := newTestConverter().Convert(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rep.Records)
	assert.Equal(t, int64(1), rep.DroppedEmptyCode)
	assert.Equal(t, 1, rep.DirectEntries)
}

func TestConvertWritesDescriptor(t *testing.T) {
	job := scenarioJob(t)
	job.Descriptor = &DescriptorOptions{Kind: "PINYIN", LayoutIDs: []string{"qwerty"}}
	rep, err := newTestConverter().Convert(context.Background(), job)
	require.NoError(t, err)

	want := filepath.Join(filepath.Dir(job.Output), "scenario.json")
	assert.Equal(t, want, rep.DescriptorPath)
	data, err := os.ReadFile(want)
	require.NoError(t, err)
	spec, err := descriptor.Read(data)
	require.NoError(t, err)
	assert.Equal(t, descriptor.DictionarySpec{
		DictionaryID:      "scenario",
		Name:              "Scenario",
		LocaleTags:        []string{"zh_CN"},
		LayoutIDs:         []string{"qwerty"},
		AssetPath:         "dictionary/scenario.mybdict",
		DictionaryVersion: "1.2.3",
		CodeScheme:        "PINYIN_FULL",
		Kind:              "PINYIN",
		Enabled:           true,
	}, spec)
}

func TestConvertValidatesBeforeIO(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does-not-exist.dict.yaml")
	base := Job{Input: missing, Output: filepath.Join(t.TempDir(), "x.mybdict"), DictionaryID: "x"}

	cases := map[string]func(*Job){
		"no input":        func(j *Job) { j.Input = "" },
		"no output":       func(j *Job) { j.Output = " " },
		"no id":           func(j *Job) { j.DictionaryID = "" },
		"unknown format":  func(j *Job) { j.Format = "csv" },
		"unknown scheme":  func(j *Job) { j.CodeScheme = "WUBI" },
		"bad version":     func(j *Job) { j.DictVersion = "1.2" },
		"big version":     func(j *Job) { j.DictVersion = "1.2.70000" },
		"bad compression": func(j *Job) { j.Compression = "gzip" },
		"negative cap":    func(j *Job) { j.DeriveSingleChars = true; j.SingleCharsPerCode = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			job := base
			mutate(&job)
			_, err := newTestConverter().Convert(context.Background(), job)
			require.ErrorIs(t, err, ErrInvalidJob)
			assert.NotErrorIs(t, err, os.ErrNotExist)
			assert.NoFileExists(t, base.Output)
		})
	}

	var schemeErr *codes.UnknownSchemeError
	err := Job{Input: "a", Output: "b", DictionaryID: "c", CodeScheme: "WUBI"}.Validate()
	assert.ErrorAs(t, err, &schemeErr)
	assert.ErrorIs(t, Job{Input: "a", Output: "b", DictionaryID: "c", Compression: "lz4"}.Validate(), container.ErrUnknownCompression)
	assert.ErrorIs(t, Job{Input: "a", Output: "b", DictionaryID: "c", DictVersion: "x"}.Validate(), container.ErrInvalidVersion)
}

func TestConvertCancelled(t *testing.T) {
	job := scenarioJob(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestConverter().Convert(ctx, job)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, job.Output)
}

func TestConvertMissingInput(t *testing.T) {
	job := scenarioJob(t)
	job.Input = filepath.Join(t.TempDir(), "gone.dict.yaml")
	_, err := newTestConverter().Convert(context.Background(), job)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.NoFileExists(t, job.Output)
}

func TestWeightStats(t *testing.T) {
	assert.Equal(t, WeightStats{}, weightStats(nil))

	one := weightStats([]types.Entry{{Weight: 7}})
	assert.Equal(t, WeightStats{Min: 7, Max: 7, Mean: 7, Median: 7, P95: 7}, one)
}
