package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"probecli/internal/shared/testutil"
)

type cliTestEnv struct {
	dataDir    string
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	base := t.TempDir()
	dataDir := filepath.Join(base, "results")
	require.NoError(t, os.MkdirAll(filepath.Join(dataDir, "nested"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "a.raw"), testutil.LegacyFile(), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "nested", "b.imp"), testutil.ExtendedFile(), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "notes.txt"), []byte("ignored"), 0644))

	configPath := filepath.Join(base, "probe.yaml")
	content := "processing:\n  workers: 2\npaths:\n  export_dir: " + filepath.Join(base, "exports") + "\n"
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	return &cliTestEnv{dataDir: dataDir, configPath: configPath}
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestAnalyzeCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	t.Run("top level only", func(t *testing.T) {
		out, err := env.run(t, "analyze", env.dataDir)
		require.NoError(t, err)
		assert.Contains(t, out, "1 files")
		assert.Contains(t, out, "a.raw")
		assert.Contains(t, out, "Impedance")
		assert.NotContains(t, out, "b.imp")
	})

	t.Run("recursive json", func(t *testing.T) {
		out, err := env.run(t, "-r", "analyze", "--json", env.dataDir)
		require.NoError(t, err)

		var result struct {
			BatchID string   `json:"batch_id"`
			Files   []string `json:"files"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &result))
		assert.NotEmpty(t, result.BatchID)
		assert.ElementsMatch(t, []string{"a.raw", "b.imp"}, result.Files)
	})

	t.Run("requires paths", func(t *testing.T) {
		_, err := env.run(t, "analyze")
		assert.Error(t, err)
	})

	t.Run("explicit unsupported file", func(t *testing.T) {
		_, err := env.run(t, "analyze", filepath.Join(env.dataDir, "notes.txt"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported file type")
	})
}

func TestSummaryCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := env.run(t, "summary", "--json", "-s", "Impedance", "--lower", "50", "--upper", "51", filepath.Join(env.dataDir, "a.raw"))
	require.NoError(t, err)

	var summaries []struct {
		Statistics struct {
			Count             int      `json:"count"`
			WithinSpecPercent *float64 `json:"within_spec_percent"`
		} `json:"statistics"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, 3, summaries[0].Statistics.Count)
	require.NotNil(t, summaries[0].Statistics.WithinSpecPercent)
	assert.InDelta(t, 66.67, *summaries[0].Statistics.WithinSpecPercent, 0.01)

	out, err = env.run(t, "-r", "summary", env.dataDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Impedance")
	assert.Contains(t, out, "Sensitivity")

	_, err = env.run(t, "summary", "--lower", "1", env.dataDir)
	assert.Error(t, err)

	_, err = env.run(t, "summary", "-s", "Impedance", "--lower", "5", "--upper", "1", env.dataDir)
	assert.Error(t, err)
}

func TestHeadersCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := env.run(t, "-r", "headers", "--status", "fail", env.dataDir)
	require.NoError(t, err)
	assert.Contains(t, out, "X-77")
	assert.NotContains(t, out, "P12345")

	out, err = env.run(t, "headers", "--raw", "a.raw", env.dataDir)
	require.NoError(t, err)
	assert.Contains(t, out, "SN = P12345")

	_, err = env.run(t, "headers", "--status", "maybe", env.dataDir)
	assert.Error(t, err)
}

func TestSectionsCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := env.run(t, "-r", "sections", "--station", "TS-02", env.dataDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Sensitivity")
	assert.NotContains(t, out, "Impedance")
}

func TestExportCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	outDir := t.TempDir()

	t.Run("workbook", func(t *testing.T) {
		target := filepath.Join(outDir, "batch.xlsx")
		out, err := env.run(t, "-r", "export", "-o", target, "--limit", "Impedance:50:51", env.dataDir)
		require.NoError(t, err)
		assert.Contains(t, out, target)

		content, err := os.ReadFile(target)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(content, []byte("PK")))
	})

	t.Run("section csv", func(t *testing.T) {
		target := filepath.Join(outDir, "impedance.csv")
		_, err := env.run(t, "export", "-o", target, "-s", "Impedance", env.dataDir)
		require.NoError(t, err)

		content, err := os.ReadFile(target)
		require.NoError(t, err)
		lines := strings.Split(strings.TrimPrefix(string(content), "\ufeff"), "\n")
		assert.Equal(t, "file_name,station,position,value", lines[0])
		assert.Equal(t, "a.raw,TS-01,1,50.5", lines[1])
	})

	t.Run("unsupported target", func(t *testing.T) {
		_, err := env.run(t, "export", "-o", filepath.Join(outDir, "batch.txt"), env.dataDir)
		assert.Error(t, err)
		assert.NoFileExists(t, filepath.Join(outDir, "batch.txt"))
	})

	t.Run("section needs csv", func(t *testing.T) {
		_, err := env.run(t, "export", "-o", filepath.Join(outDir, "x.xlsx"), "-s", "Impedance", env.dataDir)
		assert.Error(t, err)
	})
}
