package exporter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected string
	}{
		{name: "zero value", input: 0.0, expected: "0"},
		{name: "positive integer", input: 123.0, expected: "123"},
		{name: "negative integer", input: -456.0, expected: "-456"},
		{name: "trailing zeros dropped", input: 123.450000, expected: "123.45"},
		{name: "negative decibels", input: -42.1, expected: "-42.1"},
		{name: "small value keeps precision", input: 1.23e-5, expected: "0.0000123"},
		{name: "many decimals", input: 1.1234567890, expected: "1.123456789"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatFloat(tt.input))
		})
	}
}

func TestFormatPercent(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{0, "0.00"},
		{50, "50.00"},
		{33.333333, "33.33"},
		{66.666666, "66.67"},
		{100, "100.00"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatPercent(tt.input))
		})
	}
}

func TestFormatOptional(t *testing.T) {
	v := 12.5
	assert.Equal(t, "", formatOptional(nil, formatFloat))
	assert.Equal(t, "12.5", formatOptional(&v, formatFloat))
	assert.Equal(t, "12.50", formatOptional(&v, formatPercent))
}

func TestFormatInt(t *testing.T) {
	assert.Equal(t, "0", formatInt(0))
	assert.Equal(t, "-7", formatInt(-7))
	assert.Equal(t, "2048", formatInt(2048))
}
