package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/mosaic/pkg/format"
	"github.com/mesh-intelligence/mosaic/pkg/mosaic"
	"github.com/mesh-intelligence/mosaic/pkg/types"
)

type fiber struct {
	ID string `json:"id" yaml:"id"`
}

func (f fiber) EntryName() string { return f.ID }

type yarn struct {
	ID    string             `json:"id" yaml:"id"`
	Fiber mosaic.Link[fiber] `json:"fiber" yaml:"fiber"`
}

func (y yarn) EntryName() string { return y.ID }

// testEnv is a config dir and store root in a temp dir.
type testEnv struct {
	configDir string
	root      string
}

func newEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("MOSAIC_ROOT", "")
	t.Setenv("MOSAIC_CONFIG_DIR", "")
	return testEnv{
		configDir: filepath.Join(dir, "config"),
		root:      filepath.Join(dir, "db"),
	}
}

func (e testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--config-dir", e.configDir, "--root", e.root}, args...))
	err := cmd.Execute()
	return out.String(), err
}

// seed writes two yarns sharing one fiber.
func (e testEnv) seed(t *testing.T, f types.Format) *mosaic.Manager {
	t.Helper()
	m, err := mosaic.Open(e.root, f)
	require.NoError(t, err)
	opts := types.DefaultWriteOptions()
	opts.OnConflict = types.ConflictKeep
	for _, id := range []string{"fine", "bulky"} {
		_, err := m.Write(yarn{ID: id, Fiber: mosaic.NewLink(fiber{ID: "wool"})}, opts)
		require.NoError(t, err)
	}
	return m
}

func TestInit(t *testing.T) {
	e := newEnv(t)
	out, err := e.run(t, "init", "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "mosaic store ready at "+e.root+" (yaml)")
	assert.DirExists(t, e.root)

	data, err := os.ReadFile(filepath.Join(e.configDir, "config.yaml"))
	require.NoError(t, err)
	var cfg configFile
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, configFile{Root: e.root, Format: "yaml"}, cfg)

	out, err = e.run(t, "init")
	require.NoError(t, err)
	assert.NotContains(t, out, "wrote")
	assert.Contains(t, out, "(yaml)")
}

func TestConfigFormatApplies(t *testing.T) {
	e := newEnv(t)
	_, err := e.run(t, "init", "--format", "yaml")
	require.NoError(t, err)
	e.seed(t, format.YAML())

	out, err := e.run(t, "ls", "yarn")
	require.NoError(t, err)
	assert.Equal(t, "yarn/bulky\nyarn/fine\n", out)
}

func TestTypesAndLs(t *testing.T) {
	e := newEnv(t)
	e.seed(t, format.JSON())

	out, err := e.run(t, "types")
	require.NoError(t, err)
	assert.Equal(t, "fiber\nyarn\n", out)

	out, err = e.run(t, "ls")
	require.NoError(t, err)
	assert.Equal(t, "fiber/wool\nyarn/bulky\nyarn/fine\n", out)

	out, err = e.run(t, "ls", "Nothing")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestLsChecksum(t *testing.T) {
	e := newEnv(t)
	m := e.seed(t, format.JSON())
	sum, err := m.Checksum("fiber", "wool")
	require.NoError(t, err)

	out, err := e.run(t, "ls", "fiber", "--checksum")
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("fiber/wool\t%d\n", sum), out)

	out, err = e.run(t, "--json", "ls", "--checksum")
	require.NoError(t, err)
	var rows []listing
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 3)
	for _, r := range rows {
		require.NotNil(t, r.Checksum)
		want, err := m.Checksum(r.Type, r.Name)
		require.NoError(t, err)
		assert.Equal(t, want, *r.Checksum)
	}
}

func TestShow(t *testing.T) {
	e := newEnv(t)
	m := e.seed(t, format.JSON())

	out, err := e.run(t, "show", "yarn", "fine")
	require.NoError(t, err)
	path, err := m.Path("yarn", "fine")
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(data), out)
	assert.Contains(t, out, `"name": "wool"`)

	_, err = e.run(t, "show", "yarn", "missing")
	require.ErrorIs(t, err, types.ErrNotFound)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestExists(t *testing.T) {
	e := newEnv(t)
	e.seed(t, format.JSON())

	_, err := e.run(t, "exists", "yarn", "fine")
	require.NoError(t, err)

	_, err = e.run(t, "exists", "yarn", "missing")
	require.Error(t, err)
	var buf bytes.Buffer
	assert.Equal(t, exitUserError, report(&buf, err))
	assert.Empty(t, buf.String())

	out, _ := e.run(t, "--json", "exists", "yarn", "missing")
	assert.JSONEq(t, `{"exists": false}`, out)
}

func TestChecksum(t *testing.T) {
	e := newEnv(t)
	m := e.seed(t, format.JSON())
	sum, err := m.Checksum("yarn", "fine")
	require.NoError(t, err)

	out, err := e.run(t, "checksum", "yarn", "fine")
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("%d\n", sum), out)
}

func TestRmAndPrune(t *testing.T) {
	e := newEnv(t)
	m := e.seed(t, format.JSON())

	out, err := e.run(t, "rm", "yarn", "fine")
	require.NoError(t, err)
	assert.Equal(t, "removed yarn/fine\n", out)
	assert.False(t, m.Exists("yarn", "fine"))

	_, err = e.run(t, "rm", "yarn", "fine")
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = e.run(t, "rm", "--all", "yarn", "fine")
	assert.Error(t, err)

	out, err = e.run(t, "rm", "--all", "wool")
	require.NoError(t, err)
	assert.Equal(t, "removed 1 entries\n", out)

	out, err = e.run(t, "prune")
	require.NoError(t, err)
	assert.Equal(t, "removed fiber\n", out)

	typeNames, err := m.Types()
	require.NoError(t, err)
	assert.Equal(t, []string{"yarn"}, typeNames)
}

func TestMissingRoot(t *testing.T) {
	e := newEnv(t)
	_, err := e.run(t, "ls")
	require.ErrorIs(t, err, types.ErrNotFound)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestUnknownFormat(t *testing.T) {
	e := newEnv(t)
	_, err := e.run(t, "--format", "toml", "init")
	require.ErrorIs(t, err, types.ErrFormatUnknown)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestVersion(t *testing.T) {
	e := newEnv(t)
	out, err := e.run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "mosaic v"+mosaic.Version+"\n"))
	assert.Contains(t, out, modulePath)
}

func TestNewLogger(t *testing.T) {
	flags = rootFlags{}
	t.Setenv(envLogLevel, "info")
	var buf bytes.Buffer
	l := newLogger(&buf)
	l.Debug("hidden")
	l.Info("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	flags.verbose = true
	defer func() { flags = rootFlags{} }()
	buf.Reset()
	newLogger(&buf).Debug("now shown")
	assert.Contains(t, buf.String(), "now shown")
}
