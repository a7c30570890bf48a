package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"probecli/pkg/contracts/domain"
)

func TestCanonicalSectionName(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Header_FULL", "Header"},
		{"Sensitivity_FULL (dB)", "Sensitivity"},
		{"Impedance (ohm)_FULL", "Impedance"},
		{"3_FULL", "3"},
		{"Header", "Header"},
		{"_FULL", "_FULL"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalSectionName(tt.raw))
		})
	}
}

func TestCanonicalFieldName(t *testing.T) {
	assert.Equal(t, domain.FieldSN, CanonicalFieldName(domain.DialectExtended, "SerialNumber"))
	assert.Equal(t, "Probe_Type", CanonicalFieldName(domain.DialectExtended, "Probe_Type"))
	assert.Equal(t, "SerialNumber", CanonicalFieldName(domain.DialectLegacy, "SerialNumber"))
}

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"pass", domain.StatusPass},
		{" Fail ", domain.StatusFail},
		{"", domain.StatusUnknown},
		{"retest", domain.StatusUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeStatus(tt.input))
		})
	}
}

func TestCanonicalStatus(t *testing.T) {
	tests := []struct {
		input  string
		want   string
		wantOK bool
	}{
		{"pass", domain.StatusPass, true},
		{"FAIL", domain.StatusFail, true},
		{" unknown", domain.StatusUnknown, true},
		{"maybe", "maybe", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := CanonicalStatus(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestScanFallbackStatus(t *testing.T) {
	status, ok := scanFallbackStatus([]string{"[Other]", "PassOrFail = Pass", "[Probe_Status]", "Overall_Status = FAIL (2 elements)"})
	assert.True(t, ok)
	assert.Equal(t, domain.StatusFail, status)

	_, ok = scanFallbackStatus([]string{"[Other]", "PassOrFail = Pass"})
	assert.False(t, ok)
}

func TestBuildHeaderInfo(t *testing.T) {
	record := &domain.Record{
		FileName: "a.raw",
		Format:   domain.DialectLegacy,
		Header: map[string]string{
			domain.FieldSN:           "P1",
			domain.FieldStation:      "ST-9",
			domain.FieldOperator:     "alice",
			domain.FieldResultStatus: "pass",
			"Probe_Type":             "linear",
		},
	}

	info := BuildHeaderInfo(record)
	assert.Equal(t, "a.raw", info.FileName)
	assert.Equal(t, "P1", info.SN)
	assert.Equal(t, domain.StatusPass, info.ResultStatus)
	assert.Equal(t, "ST-9", info.Station(), "falls back to Station when TestStation is absent")
	assert.Equal(t, "linear", info.Fields["Probe_Type"])

	empty := BuildHeaderInfo(&domain.Record{FileName: "b.raw"})
	assert.Equal(t, domain.StatusUnknown, empty.ResultStatus)
	assert.Equal(t, domain.StatusUnknown, empty.Station())
}
