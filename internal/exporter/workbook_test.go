package exporter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"probecli/internal/shared/testutil"
	"probecli/pkg/contracts/domain"
)

func TestWorkbookExporter_Write(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	store := buildStore(t, testutil.LegacySource("a.raw"), testutil.ExtendedSource("b.imp"))

	var buf bytes.Buffer
	limits := map[string]domain.SpecLimits{"Impedance": domain.NewSpecLimits(50, 51)}
	require.NoError(t, NewWorkbookExporter(logger).Write(&buf, store, limits))
	assert.True(t, handler.ContainsMessage("workbook exported"))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	require.GreaterOrEqual(t, len(sheets), 3)
	assert.Equal(t, []string{SheetSummary, SheetHeaders}, sheets[:2])

	t.Run("summary sheet", func(t *testing.T) {
		rows, err := f.GetRows(SheetSummary)
		require.NoError(t, err)
		assert.Equal(t, SummaryHeaders, rows[0])
		assert.Equal(t, "Header", rows[1][0])

		var impedance []string
		for _, r := range rows[1:] {
			if r[0] == "Impedance" {
				impedance = r
			}
		}
		require.NotNil(t, impedance)
		assert.Equal(t, "3", impedance[4])
		assert.Equal(t, "50", impedance[10])
	})

	t.Run("headers sheet", func(t *testing.T) {
		rows, err := f.GetRows(SheetHeaders)
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, HeaderColumns, rows[0])
		assert.Equal(t, "a.raw", rows[1][0])
		assert.Equal(t, "b.imp", rows[2][0])
	})

	t.Run("section sheets", func(t *testing.T) {
		rows, err := f.GetRows("Sensitivity")
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, SeriesHeaders, rows[0])
		assert.Equal(t, []string{"b.imp", "TS-02", "1", "-42.1"}, rows[1])
	})
}

func TestWorkbookExporter_ErrorsSheet(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	tests := []struct {
		name   string
		errors []domain.FileError
	}{
		{"clean batch", nil},
		{"failed file", []domain.FileError{{FileName: "broken.raw", Kind: domain.ErrorKindDecodeFailure, Message: "undecodable"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := buildStore(t, testutil.LegacySource("a.raw"))
			store.Errors = append(store.Errors, tt.errors...)

			var buf bytes.Buffer
			require.NoError(t, NewWorkbookExporter(logger).Write(&buf, store, nil))

			f, err := excelize.OpenReader(&buf)
			require.NoError(t, err)
			defer f.Close()

			idx, err := f.GetSheetIndex(SheetErrors)
			require.NoError(t, err)
			assert.Equal(t, len(tt.errors) > 0, idx >= 0)
			if len(tt.errors) > 0 {
				rows, err := f.GetRows(SheetErrors)
				require.NoError(t, err)
				assert.Equal(t, []string{"broken.raw", "DecodeFailure", "undecodable"}, rows[1])
			}
		})
	}
}

func TestSheetNamer(t *testing.T) {
	n := newSheetNamer(SheetSummary, SheetHeaders, SheetErrors)

	assert.Equal(t, "Impedance", n.next("Impedance"))
	assert.Equal(t, "summary~2", n.next("summary"))
	assert.Equal(t, "a_b_c", n.next("a/b?c"))
	assert.Equal(t, "Section", n.next("''"))

	long := strings.Repeat("x", 40)
	first := n.next(long)
	second := n.next(long)
	assert.Equal(t, strings.Repeat("x", 31), first)
	assert.Equal(t, strings.Repeat("x", 29)+"~2", second)
}
