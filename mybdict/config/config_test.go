package config

import (
	"os"
	"path/filepath"
	"testing"

	internal "github.com/ZanzyTHEbar/mybdict/mybdict"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// ConfigTestSuite tests the config package functionality
type ConfigTestSuite struct {
	suite.Suite
	tempDir string
	origDir string
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) SetupTest() {
	var err error
	suite.origDir, err = os.Getwd()
	require.NoError(suite.T(), err)

	suite.tempDir = suite.T().TempDir()
	// Nested so that ".." does not pick up a stray config.yaml either.
	work := filepath.Join(suite.tempDir, "work")
	require.NoError(suite.T(), os.Mkdir(work, 0o755))
	require.NoError(suite.T(), os.Chdir(work))
}

func (suite *ConfigTestSuite) TearDownTest() {
	if suite.origDir != "" {
		_ = os.Chdir(suite.origDir)
	}
}

func (suite *ConfigTestSuite) TestLoadConfigWithDefaults() {
	cfg, err := LoadConfig("", nil)
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), "PINYIN_FULL", cfg.Convert.CodeScheme)
	assert.True(suite.T(), cfg.Convert.DeriveSingleChars)
	assert.Equal(suite.T(), 64, cfg.Convert.SingleCharsPerCode)
	assert.Equal(suite.T(), "zlib", cfg.Convert.Compression)
	assert.Equal(suite.T(), "1.0.0", cfg.Convert.DictVersion)
	assert.Equal(suite.T(), "rime_dict_yaml", cfg.Convert.SourceFormat)
	assert.Equal(suite.T(), 0, cfg.Batch.MaxWorkers)
	assert.Equal(suite.T(), internal.DefaultIgnoreFile, cfg.Batch.IgnoreFile)
	assert.Equal(suite.T(), "*.dict.yaml", cfg.Batch.Pattern)
	assert.Equal(suite.T(), "info", cfg.Log.Level)

	assert.Equal(suite.T(), internal.DefaultGlobalConfig, DefaultConfigFile())
	assert.Equal(suite.T(), filepath.Join(internal.DefaultConfigPath, "config.yaml"), DefaultConfigFile())

	w := cfg.Workers()
	assert.GreaterOrEqual(suite.T(), w, 2)
	assert.LessOrEqual(suite.T(), w, 16)
}

func (suite *ConfigTestSuite) TestLoadConfigWithFile() {
	configContent := `
convert:
  codeScheme: PINYIN_FULL
  deriveSingleChars: false
  singleCharsPerCode: 16
  compression: none
  dictVersion: 2.1.0
batch:
  maxWorkers: 3
  pattern: "*.yaml"
log:
  level: debug
`
	configFile := filepath.Join(suite.tempDir, "custom.yaml")
	require.NoError(suite.T(), os.WriteFile(configFile, []byte(configContent), 0o644))

	cfg, err := LoadConfig(configFile, nil)
	require.NoError(suite.T(), err)

	assert.False(suite.T(), cfg.Convert.DeriveSingleChars)
	assert.Equal(suite.T(), 16, cfg.Convert.SingleCharsPerCode)
	assert.Equal(suite.T(), "none", cfg.Convert.Compression)
	assert.Equal(suite.T(), "2.1.0", cfg.Convert.DictVersion)
	assert.Equal(suite.T(), "rime_dict_yaml", cfg.Convert.SourceFormat)
	assert.Equal(suite.T(), 3, cfg.Workers())
	assert.Equal(suite.T(), "*.yaml", cfg.Batch.Pattern)
	assert.Equal(suite.T(), "debug", cfg.Log.Level)

	job := cfg.JobTemplate()
	assert.Equal(suite.T(), "none", job.Compression)
	assert.False(suite.T(), job.DeriveSingleChars)
	assert.Equal(suite.T(), 16, job.SingleCharsPerCode)
	assert.Equal(suite.T(), "2.1.0", job.DictVersion)
	assert.Empty(suite.T(), job.Input)
}

func (suite *ConfigTestSuite) TestLoadConfigFromWorkingDirectory() {
	require.NoError(suite.T(), os.WriteFile("config.yaml", []byte("convert:\n  compression: none\n"), 0o644))

	cfg, err := LoadConfig("", nil)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "none", cfg.Convert.Compression)
}

func (suite *ConfigTestSuite) TestEnvironmentOverridesFile() {
	configFile := filepath.Join(suite.tempDir, "config.yaml")
	require.NoError(suite.T(), os.WriteFile(configFile, []byte("convert:\n  compression: none\n"), 0o644))
	suite.T().Setenv("MYBDICT_CONVERT_COMPRESSION", "zlib")
	suite.T().Setenv("MYBDICT_BATCH_MAXWORKERS", "5")

	cfg, err := LoadConfig(configFile, nil)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "zlib", cfg.Convert.Compression)
	assert.Equal(suite.T(), 5, cfg.Batch.MaxWorkers)
}

func (suite *ConfigTestSuite) TestFlagsOverrideEnvironment() {
	suite.T().Setenv("MYBDICT_CONVERT_SINGLECHARSPERCODE", "12")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("per-code", 64, "")
	fs.String("compression", "zlib", "")
	require.NoError(suite.T(), fs.Parse([]string{"--per-code=7"}))

	cfg, err := LoadConfig("", fs)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 7, cfg.Convert.SingleCharsPerCode)
	assert.Equal(suite.T(), "zlib", cfg.Convert.Compression)
}

func (suite *ConfigTestSuite) TestLoadConfigErrors() {
	_, err := LoadConfig(filepath.Join(suite.tempDir, "missing.yaml"), nil)
	assert.Error(suite.T(), err)

	bad := filepath.Join(suite.tempDir, "bad.yaml")
	require.NoError(suite.T(), os.WriteFile(bad, []byte("convert: [unclosed"), 0o644))
	_, err = LoadConfig(bad, nil)
	assert.Error(suite.T(), err)

	neg := filepath.Join(suite.tempDir, "neg.yaml")
	require.NoError(suite.T(), os.WriteFile(neg, []byte("batch:\n  maxWorkers: -1\n"), 0o644))
	_, err = LoadConfig(neg, nil)
	assert.Error(suite.T(), err)
}
