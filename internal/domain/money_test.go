package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoneyFromFloat_RoundsHalfToEven(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0.125, "0.12"},
		{0.135, "0.14"},
		{2.675, "2.68"},
		{10, "10"},
		{-1.005, "-1"},
		{99.999, "100"},
	}

	for _, tt := range tests {
		got := MoneyFromFloat(tt.in)
		assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "%v -> %s, want %s", tt.in, got, tt.want)
	}
}

func TestMoneyFromString(t *testing.T) {
	got, err := MoneyFromString("10.005")
	require.NoError(t, err)
	assert.Equal(t, "10", got.String())

	got, err = MoneyFromString("10.015")
	require.NoError(t, err)
	assert.Equal(t, "10.02", got.String())

	_, err = MoneyFromString("ten")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestNonNegative(t *testing.T) {
	assert.True(t, NonNegative(decimal.NewFromInt(-5)).IsZero())
	assert.True(t, NonNegative(decimal.NewFromInt(5)).Equal(decimal.NewFromInt(5)))
}

func TestDay(t *testing.T) {
	lisbon := time.FixedZone("UTC+1", 3600)
	got := Day(time.Date(2024, 3, 15, 23, 30, 0, 0, lisbon))
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), got)

	parsed, err := ParseDay("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, Day(parsed), parsed)

	_, err = ParseDay("29/02/2024")
	assert.Error(t, err)
}
