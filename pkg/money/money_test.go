package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromDecimal(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    int64
		expectError bool
	}{
		{name: "whole amount", input: "1500", expected: 150000},
		{name: "two decimal places", input: "1500.50", expected: 150050},
		{name: "zero", input: "0", expected: 0},
		{name: "sub-minor precision rejected", input: "10.005", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := decimal.NewFromString(tt.input)
			require.NoError(t, err)

			minor, err := FromDecimal(d)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, minor)
		})
	}
}

func TestToDecimalRoundTrip(t *testing.T) {
	for _, minor := range []int64{0, 1, 99, 100, 150050, 10000000} {
		back, err := FromDecimal(ToDecimal(minor))
		require.NoError(t, err)
		assert.Equal(t, minor, back)
	}
}

func TestApplyRate(t *testing.T) {
	tests := []struct {
		name     string
		amount   int64
		rate     string
		expected int64
	}{
		{name: "ten percent", amount: 100000, rate: "0.10", expected: 10000},
		{name: "one point five percent", amount: 100000, rate: "0.015", expected: 1500},
		{name: "rounds half up", amount: 101, rate: "0.015", expected: 2}, // 1.515
		{name: "zero rate", amount: 100000, rate: "0", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate, err := ParseRate(tt.rate)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ApplyRate(tt.amount, rate))
		})
	}
}

func TestParseRateRejectsNegative(t *testing.T) {
	_, err := ParseRate("-0.10")
	assert.Error(t, err)

	_, err = ParseRate("not-a-rate")
	assert.Error(t, err)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "1833.33", Format(183333))
	assert.Equal(t, "0.00", Format(0))
}
