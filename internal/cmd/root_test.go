package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantmind-br/fscore/internal/config"
	"github.com/quantmind-br/fscore/internal/score"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Scoring: config.ScoringConfig{Algorithm: "size"},
		Output:  config.OutputConfig{Format: "plain"},
		Paths: config.PathsConfig{
			DataDir: dir,
			DBFile:  filepath.Join(dir, "history.db"),
			LogFile: filepath.Join(dir, "fscore.log"),
		},
		Logging: config.LoggingConfig{Level: "warn", Color: "never"},
	}
}

func TestNewRootCmd(t *testing.T) {
	logger := zerolog.Nop()
	cmd := NewRootCmd(testConfig(t), &logger, "1.0.0")

	assert.NotNil(t, cmd)
	assert.Equal(t, "fscore [files...]", cmd.Use)
	assert.Equal(t, "1.0.0", cmd.Version)

	for _, flag := range []string{"quiet", "verbose", "algorithm", "output", "progress", "save"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %s should exist", flag)
	}
}

func TestRootScoresFiles(t *testing.T) {
	logger := zerolog.Nop()
	dir := t.TempDir()

	path := filepath.Join(dir, "half.bin")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte{'x'}, 512), 0644))

	cmd := NewRootCmd(testConfig(t), &logger, "test")
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{path})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, path+": 0.500\n", out.String())
}

func TestRootPartialBatchFails(t *testing.T) {
	logger := zerolog.Nop()
	dir := t.TempDir()

	path := filepath.Join(dir, "ok.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

	cmd := NewRootCmd(testConfig(t), &logger, "test")
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{path, filepath.Join(dir, "missing.txt")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIncomplete)

	// The good file is still reported before the batch fails.
	assert.Contains(t, out.String(), path)
	assert.Contains(t, errOut.String(), "missing.txt")
}

func TestRootQuietSucceedsOnAnyResult(t *testing.T) {
	logger := zerolog.Nop()
	dir := t.TempDir()

	path := filepath.Join(dir, "ok.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

	cmd := NewRootCmd(testConfig(t), &logger, "test")
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"-q", path, filepath.Join(dir, "missing.txt")})

	require.NoError(t, cmd.Execute())
	assert.Empty(t, out.String())
	assert.Empty(t, errOut.String())
}

func TestRootQuietFailsWithNoResults(t *testing.T) {
	logger := zerolog.Nop()

	cmd := NewRootCmd(testConfig(t), &logger, "test")
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"-q", filepath.Join(t.TempDir(), "missing.txt")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIncomplete)
	assert.Empty(t, out.String())
	assert.Empty(t, errOut.String())
}

func TestRootNoFiles(t *testing.T) {
	logger := zerolog.Nop()

	cmd := NewRootCmd(testConfig(t), &logger, "test")
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoFiles)
	assert.Contains(t, errOut.String(), "No files to process")
}

func TestRootInvalidAlgorithm(t *testing.T) {
	logger := zerolog.Nop()
	dir := t.TempDir()

	path := filepath.Join(dir, "ok.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

	cmd := NewRootCmd(testConfig(t), &logger, "test")
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"-a", "bogus", path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.ErrorIs(t, err, score.ErrInvalidInput)

	// The notice goes to the command's error stream, not raw stderr.
	assert.Contains(t, errOut.String(), "unknown algorithm")
	assert.Empty(t, out.String())
}

func TestRootInvalidOutputFormat(t *testing.T) {
	logger := zerolog.Nop()
	dir := t.TempDir()

	path := filepath.Join(dir, "ok.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

	cmd := NewRootCmd(testConfig(t), &logger, "test")
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"-o", "yaml", path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.ErrorIs(t, err, score.ErrInvalidInput)
	assert.Contains(t, errOut.String(), "unknown output format")
}

// brokenWriter fails every write, like a closed downstream pipe.
type brokenWriter struct{}

func (brokenWriter) Write(p []byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestRootRenderFailureIsNotInterrupted(t *testing.T) {
	logger := zerolog.Nop()
	dir := t.TempDir()

	path := filepath.Join(dir, "ok.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

	cmd := NewRootCmd(testConfig(t), &logger, "test")
	var errOut bytes.Buffer
	cmd.SetOut(brokenWriter{})
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"-o", "json", path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInterrupted)
	assert.Contains(t, err.Error(), "write results")
	assert.NotContains(t, errOut.String(), "Interrupted")
}

func TestRootReadsPathsFromStdin(t *testing.T) {
	logger := zerolog.Nop()
	dir := t.TempDir()

	path := filepath.Join(dir, "piped.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello file scoring\n"), 0644))

	cmd := NewRootCmd(testConfig(t), &logger, "test")
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader("\n" + path + "\n  \n"))
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), path+": ")
}

func TestResolvePaths(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		stdin string
		tty   bool
		want  []string
	}{
		{"args win over stdin", []string{"a.txt"}, "b.txt\n", false, []string{"a.txt"}},
		{"stdin lines when piped", nil, "a.txt\nb.txt\n", false, []string{"a.txt", "b.txt"}},
		{"blank lines skipped", nil, "\na.txt\n   \nb.txt", false, []string{"a.txt", "b.txt"}},
		{"whitespace trimmed", nil, "  a.txt  \n", false, []string{"a.txt"}},
		{"tty and no args", nil, "ignored.txt\n", true, nil},
		{"empty stdin", nil, "", false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolvePaths(tt.args, strings.NewReader(tt.stdin), tt.tty)
			assert.Equal(t, tt.want, got)
		})
	}
}
