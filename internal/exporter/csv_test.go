package exporter

import (
	"bytes"
	"encoding/csv"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	data = bytes.TrimPrefix(data, utf8BOM)
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return records
}

func TestWriteTo(t *testing.T) {
	tests := []struct {
		name    string
		options WriteOptions
		wantBOM bool
		want    [][]string
	}{
		{
			name: "headers and records with BOM",
			options: WriteOptions{
				Headers:   []string{"a", "b"},
				Records:   [][]string{{"1", "2"}, {"x,y", `q"t`}},
				BOMPrefix: true,
			},
			wantBOM: true,
			want:    [][]string{{"a", "b"}, {"1", "2"}, {"x,y", `q"t`}},
		},
		{
			name: "append skips headers and BOM",
			options: WriteOptions{
				Headers:   []string{"a"},
				Records:   [][]string{{"1"}},
				Append:    true,
				BOMPrefix: true,
			},
			want: [][]string{{"1"}},
		},
		{
			name:    "headers only",
			options: WriteOptions{Headers: []string{"only"}},
			want:    [][]string{{"only"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteTo(&buf, tt.options))
			assert.Equal(t, tt.wantBOM, bytes.HasPrefix(buf.Bytes(), utf8BOM))
			assert.Equal(t, tt.want, readCSV(t, buf.Bytes()))
		})
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestWriteTo_WriterError(t *testing.T) {
	err := WriteTo(failingWriter{}, WriteOptions{Headers: []string{"a"}, BOMPrefix: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write BOM")

	err = WriteTo(failingWriter{}, WriteOptions{Records: [][]string{{"1"}}})
	assert.Error(t, err)
}
