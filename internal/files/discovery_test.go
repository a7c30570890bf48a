package files

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "probecli/internal/errors"
	"probecli/internal/shared/testutil"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, testutil.LegacyFile(), 0644))
	}
}

func names(files []FileInfo) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Name)
	}
	return out
}

func TestNewDiscovery_Extensions(t *testing.T) {
	tests := []struct {
		name       string
		extensions []string
		file       string
		want       bool
	}{
		{"default raw", nil, "a.raw", true},
		{"default imp upper case", nil, "B.IMP", true},
		{"default rejects csv", nil, "c.csv", false},
		{"custom without dot", []string{"dat"}, "d.dat", true},
		{"custom excludes default", []string{".dat"}, "a.raw", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewDiscovery("", tt.extensions).IsProbeFile(tt.file))
		})
	}
}

func TestFindProbeFiles(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "b.imp", "a.raw", "notes.txt", "report.xlsx", "nested/c.raw")

	found, err := NewDiscovery(dir, nil).FindProbeFiles(".")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.raw", "b.imp"}, names(found))
	assert.Equal(t, filepath.Join(dir, ".", "a.raw"), found[0].Path)
	assert.Positive(t, found[0].Size)

	_, err = NewDiscovery(dir, nil).FindProbeFiles("missing")
	assert.Error(t, err)
}

func TestCollect(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.raw", "b.imp", "sub/c.raw", "sub/deeper/d.imp", "sub/skip.csv")
	d := NewDiscovery(dir, nil)

	t.Run("flat directory", func(t *testing.T) {
		found, err := d.Collect([]string{"."}, false)
		require.NoError(t, err)
		assert.Equal(t, []string{"a.raw", "b.imp"}, names(found))
	})

	t.Run("recursive directory", func(t *testing.T) {
		found, err := d.Collect([]string{"sub"}, true)
		require.NoError(t, err)
		assert.Equal(t, []string{"c.raw", "d.imp"}, names(found))
	})

	t.Run("explicit files and dedupe", func(t *testing.T) {
		found, err := d.Collect([]string{"a.raw", filepath.Join(dir, "a.raw"), "."}, false)
		require.NoError(t, err)
		assert.Equal(t, []string{"a.raw", "b.imp"}, names(found))
	})

	t.Run("explicit unsupported file", func(t *testing.T) {
		_, err := d.Collect([]string{"sub/skip.csv"}, false)
		assert.ErrorContains(t, err, "unsupported file type")
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := d.Collect([]string{"nope"}, false)
		assert.Error(t, err)
	})
}

func TestGetLatestFile(t *testing.T) {
	now := time.Now()
	_, ok := GetLatestFile(nil)
	assert.False(t, ok)

	latest, ok := GetLatestFile([]FileInfo{
		{Name: "old", ModTime: now.Add(-time.Hour)},
		{Name: "new", ModTime: now},
		{Name: "mid", ModTime: now.Add(-time.Minute)},
	})
	require.True(t, ok)
	assert.Equal(t, "new", latest.Name)
}

func TestLoader_Load(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.raw", "b.imp", "sub/a.raw")
	logger, handler := testutil.NewTestLogger(t)

	found, err := NewDiscovery(dir, nil).FindProbeFiles(".")
	require.NoError(t, err)

	t.Run("loads contents by base name", func(t *testing.T) {
		sources, err := NewLoader(0, logger).Load(context.Background(), found)
		require.NoError(t, err)
		require.Len(t, sources, 2)
		assert.Equal(t, "a.raw", sources[0].Name)
		assert.Equal(t, testutil.LegacyFile(), sources[0].Content)
		assert.True(t, handler.ContainsMessage("files loaded"))
	})

	t.Run("size limit", func(t *testing.T) {
		_, err := NewLoader(10, logger).Load(context.Background(), found)
		assert.ErrorIs(t, err, ErrFileTooLarge)
	})

	t.Run("duplicate base names", func(t *testing.T) {
		all, err := NewDiscovery(dir, nil).Collect([]string{"."}, true)
		require.NoError(t, err)
		_, err = NewLoader(0, logger).Load(context.Background(), all)
		assert.ErrorIs(t, err, ErrDuplicateName)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewLoader(0, logger).Load(ctx, found)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("unreadable file", func(t *testing.T) {
		missing := []FileInfo{{Name: "gone.raw", Path: filepath.Join(dir, "gone.raw")}}
		_, err := NewLoader(0, logger).Load(context.Background(), missing)

		var appErr *apierrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apierrors.ErrTypeStorage, appErr.Type)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}
