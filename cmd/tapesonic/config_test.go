package main

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgsDefaults(t *testing.T) {
	cfg, err := parseArgs(nil)
	require.NoError(t, err)
	assert.Equal(t, "TSLA", cfg.symbol)
	assert.True(t, cfg.thresholds.Min.Equal(decimal.NewFromInt(90000)))
	assert.True(t, cfg.thresholds.Big.Equal(decimal.NewFromInt(490000)))
	assert.False(t, cfg.replay)
	assert.False(t, cfg.silent)
}

func TestParseArgsLive(t *testing.T) {
	cfg, err := parseArgs([]string{"aapl", "50000", "250000"})
	require.NoError(t, err)
	assert.Equal(t, "AAPL", cfg.symbol, "ticker must be uppercased")
	assert.True(t, cfg.thresholds.Min.Equal(decimal.NewFromInt(50000)))
	assert.True(t, cfg.thresholds.Big.Equal(decimal.NewFromInt(250000)))
	assert.False(t, cfg.replay)
}

func TestParseArgsSilentFlag(t *testing.T) {
	cfg, err := parseArgs([]string{"-silent", "NVDA"})
	require.NoError(t, err)
	assert.True(t, cfg.silent)
	assert.Equal(t, "NVDA", cfg.symbol)
}

func TestParseArgsReplay(t *testing.T) {
	cfg, err := parseArgs([]string{"TSLA", "90000", "490000", "20240301", "0930am"})
	require.NoError(t, err)
	require.True(t, cfg.replay)

	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 9, 30, 0, 0, loc), cfg.start)
}

func TestParseArgsReplayAfternoon(t *testing.T) {
	cfg, err := parseArgs([]string{"TSLA", "90000", "490000", "20240301", "0145PM"})
	require.NoError(t, err)

	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 13, 45, 0, 0, loc), cfg.start)
}

func TestParseArgsRejectsBadInput(t *testing.T) {
	for _, tt := range []struct {
		name string
		args []string
	}{
		{name: "non numeric threshold", args: []string{"TSLA", "ninety"}},
		{name: "negative threshold", args: []string{"TSLA", "-5", "100"}},
		{name: "big below min", args: []string{"TSLA", "100000", "50000"}},
		{name: "date without time", args: []string{"TSLA", "90000", "490000", "20240301"}},
		{name: "bad date", args: []string{"TSLA", "90000", "490000", "2024-03-01", "0930am"}},
		{name: "bad clock", args: []string{"TSLA", "90000", "490000", "20240301", "930"}},
		{name: "too many arguments", args: []string{"TSLA", "1", "2", "20240301", "0930am", "extra"}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseArgs(tt.args)
			assert.Error(t, err)
		})
	}
}
