package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatFPS(t *testing.T) {
	tests := []struct {
		name string
		fps  float64
		want string
	}{
		{"zero", 0, "0.0 fps"},
		{"full speed", 59.94, "59.9 fps"},
		{"struggling bridge", 24.3, "24.3 fps"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatFPS(tt.fps))
		})
	}
}

func TestFormatPercentage(t *testing.T) {
	tests := []struct {
		name  string
		ratio float64
		want  string
	}{
		{"zero", 0, "0.0%"},
		{"half", 0.5, "50.0%"},
		{"full", 1.0, "100.0%"},
		{"fraction", 0.427, "42.7%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatPercentage(tt.ratio))
		})
	}
}

func TestFormatCount(t *testing.T) {
	tests := []struct {
		name string
		n    uint64
		want string
	}{
		{"small", 42, "42"},
		{"thousands", 71800, "71.8K"},
		{"exact thousand", 1000, "1.0K"},
		{"millions", 2_340_000, "2.3M"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCount(tt.n))
		})
	}
}

func TestFormatFingerprint(t *testing.T) {
	assert.Equal(t, "-", FormatFingerprint(0))
	assert.Equal(t, "00000000", FormatFingerprint(1))
	assert.Len(t, FormatFingerprint(0xdeadbeefcafe), 8)
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name    string
		seconds int64
		want    string
	}{
		{"minutes only", 300, "5m"},
		{"hours and minutes", 8100, "2h 15m"},
		{"zero", 0, "0m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDuration(tt.seconds))
		})
	}
}
