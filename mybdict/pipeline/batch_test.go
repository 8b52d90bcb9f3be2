package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/mybdict/mybdict/dictionary"
)

func TestDiscoverJobs(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "b.dict.yaml", scenarioDict)
	writeSource(t, dir, "a.dict.yaml", scenarioDict)
	writeSource(t, dir, "skip.dict.yaml", scenarioDict)
	writeSource(t, dir, "notes.txt", "not a dictionary")
	writeSource(t, dir, ".mybdictignore", "# local drafts\nskip.dict.yaml\n")

	outDir := filepath.Join(dir, "out")
	template := Job{
		Languages:   []string{"zh-CN"},
		Compression: "none",
		Descriptor:  &DescriptorOptions{Path: "ignored.json", Kind: "PINYIN"},
	}
	jobs, err := DiscoverJobs(dir, "*.dict.yaml", outDir, template)
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	assert.Equal(t, filepath.Join(dir, "a.dict.yaml"), jobs[0].Input)
	assert.Equal(t, filepath.Join(outDir, "a.mybdict"), jobs[0].Output)
	assert.Equal(t, "a", jobs[0].DictionaryID)
	assert.Equal(t, "b", jobs[1].DictionaryID)
	assert.Equal(t, "none", jobs[1].Compression)

	require.NotNil(t, jobs[0].Descriptor)
	assert.Empty(t, jobs[0].Descriptor.Path)
	assert.Equal(t, "PINYIN", jobs[0].Descriptor.Kind)
	assert.NotSame(t, jobs[0].Descriptor, jobs[1].Descriptor)
	assert.Equal(t, "ignored.json", template.Descriptor.Path)
}

func TestDiscoverJobsWithoutIgnoreFile(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "base.dict.yaml", scenarioDict)
	writeSource(t, dir, "extra.txt", scenarioDict)

	jobs, err := DiscoverJobsWithIgnore(dir, "", dir, "", Job{})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "base", jobs[0].DictionaryID)

	jobs, err = DiscoverJobs(dir, "*.txt", dir, Job{})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "extra", jobs[0].DictionaryID)

	_, err = DiscoverJobs(dir, "[", dir, Job{})
	assert.Error(t, err)
}

func TestConvertAll(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "one.dict.yaml", scenarioDict)
	writeSource(t, dir, "two.dict.yaml", scenarioDict)
	writeSource(t, dir, "three.dict.yaml", scenarioDict)

	jobs, err := DiscoverJobs(dir, "*.dict.yaml", filepath.Join(dir, "out"), Job{
		DeriveSingleChars:  true,
		SingleCharsPerCode: 8,
	})
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	jobs[1].Input = filepath.Join(dir, "missing.dict.yaml")

	reports, err := newTestConverter().ConvertAll(context.Background(), jobs, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.dict.yaml")
	require.Len(t, reports, 3)
	assert.Nil(t, reports[1])

	for _, i := range []int{0, 2} {
		require.NotNil(t, reports[i])
		assert.Equal(t, jobs[i].DictionaryID, reports[i].DictionaryID)
		d, err := dictionary.FromFile(jobs[i].Output)
		require.NoError(t, err)
		assert.Equal(t, 3, d.CodeCount())
		assert.Equal(t, jobs[i].DictionaryID, d.Meta.DictionaryID)
	}
	assert.NotEqual(t, reports[0].BuildID, reports[2].BuildID)
}

func TestConvertAllEmpty(t *testing.T) {
	reports, err := newTestConverter().ConvertAll(context.Background(), nil, 4)
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestDefaultWorkers(t *testing.T) {
	n := DefaultWorkers()
	assert.GreaterOrEqual(t, n, 2)
	assert.LessOrEqual(t, n, 16)
}
