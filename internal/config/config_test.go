// ABOUTME: Tests for the optional YAML configuration loader.
// ABOUTME: Covers human-readable duration parsing and rejection of malformed files.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadParsesDurations(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 9090
analysis:
  cacheTTL: 1h
  runnerTimeout: 90s
  analysisTimeout: 5m
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, time.Hour, time.Duration(cfg.Analysis.CacheTTL))
	assert.Equal(t, 90*time.Second, time.Duration(cfg.Analysis.RunnerTimeout))
	assert.Equal(t, 5*time.Minute, time.Duration(cfg.Analysis.AnalysisTimeout))
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := writeConfigFile(t, `
analysis:
  cacheTTL: sixty minutes
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeConfigFile(t, "server: [broken")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}
