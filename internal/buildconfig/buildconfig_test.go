package buildconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "build.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaultsForOmittedFields(t *testing.T) {
	path := writeTemp(t, "target: c64\nentry_module: main\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0x0801, cfg.Origin)
	assert.Equal(t, 0x080D, cfg.CodeStart)
	assert.True(t, cfg.BasicStub)
}

func TestLoadRejectsMissingTarget(t *testing.T) {
	path := writeTemp(t, "entry_module: main\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsUnknownTarget(t *testing.T) {
	path := writeTemp(t, "target: vic20\nentry_module: main\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsMissingModuleList(t *testing.T) {
	path := writeTemp(t, "target: c64\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsCodeStartBeforeOrigin(t *testing.T) {
	path := writeTemp(t, "target: c64\nentry_module: main\norigin: 0x0810\ncode_start: 0x0801\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadOverridesAreRespected(t *testing.T) {
	path := writeTemp(t, "target: c64\nentry_module: main\nbasic_stub: false\nacme:\n  binary_path: /usr/local/bin/acme\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.BasicStub)
	assert.Equal(t, "/usr/local/bin/acme", cfg.ACME.BinaryPath)
}

func TestFailsToReadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
}
