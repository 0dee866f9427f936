package common

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestShortId(t *testing.T) {
	assert.Equal(t, "none", ShortId(""))
	assert.Equal(t, "0xabc", ShortId("0xabc"))
	assert.Equal(t, "0x3df62b...2a71", ShortId("0x3df62b6a415e4668ef5b35a71e78c4c75a08a1cc40f6da4453a56a60e3f32a71"))
}

func TestFormatIota(t *testing.T) {
	assert.Equal(t, "12.50 IOTA", FormatIota(decimal.RequireFromString("12.5")))
	assert.Equal(t, "0.00 IOTA", FormatIota(decimal.Zero))
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		percent string
		filled  int
		suffix  string
	}{
		{"0", 0, "0.0%"},
		{"6", 2, "6.0%"},
		{"50", 20, "50.0%"},
		{"100", 40, "100.0%"},
		{"150", 40, "100.0%"},
		{"-3", 0, "0.0%"},
	}
	for _, tt := range tests {
		bar := ProgressBar(decimal.RequireFromString(tt.percent))
		assert.Equal(t, tt.filled, strings.Count(bar, "#"), tt.percent)
		assert.True(t, strings.HasSuffix(bar, tt.suffix), bar)
	}
}

func TestIsIgnorableSyncError(t *testing.T) {
	assert.True(t, isIgnorableSyncError(errString("sync /dev/stderr: inappropriate ioctl for device")))
	assert.False(t, isIgnorableSyncError(errString("disk full")))
}

type errString string

func (e errString) Error() string { return string(e) }
