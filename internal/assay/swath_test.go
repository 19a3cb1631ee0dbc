package assay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowIndex(t *testing.T) {
	windows := []Window{{Lower: 400, Upper: 500}, {Lower: 500, Upper: 600}}

	tests := []struct {
		name        string
		precursorMZ float64
		want        int
	}{
		{"first window", 450, 0},
		{"second window", 550, 1},
		{"no window", 650, -1},
		{"below all windows", 350, -1},
		{"lower bound inclusive", 400, 0},
		{"shared bound hits first window", 500, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, windowIndex(windows, tt.precursorMZ))
		})
	}
}

func TestInWindow(t *testing.T) {
	windows := []Window{{Lower: 400, Upper: 500}, {Lower: 500, Upper: 600}}

	// Product inside the precursor's own isolation window.
	assert.True(t, inWindow(windows, 450, 460))
	// Product in a different window.
	assert.False(t, inWindow(windows, 450, 550))
	// Product outside any window.
	assert.False(t, inWindow(windows, 450, 700))
	// Precursor outside all windows never flags.
	assert.False(t, inWindow(windows, 700, 450))
}

func TestValidateWindows(t *testing.T) {
	require.NoError(t, ValidateWindows([]Window{{400, 425}, {425, 450}, {450, 475}}))
	require.NoError(t, ValidateWindows(nil))

	assert.Error(t, ValidateWindows([]Window{{425, 400}}), "inverted bounds")
	assert.Error(t, ValidateWindows([]Window{{450, 475}, {400, 425}}), "unsorted")
	assert.Error(t, ValidateWindows([]Window{{400, 430}, {425, 450}}), "overlapping")
}
