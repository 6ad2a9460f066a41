package ytdlp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProgressLine(t *testing.T) {
	p, ok := parseProgressLine("[download]  42.1% of 10.00MiB at 1.21MiB/s ETA 00:05")
	require.True(t, ok)

	assert.InDelta(t, 42.1, p.Percent, 0.001)
	assert.Equal(t, int64(10*1024*1024), p.Total)
	assert.InDelta(t, float64(p.Total)*0.421, float64(p.Downloaded), 1024)
	assert.InDelta(t, 1.21*1024*1024, p.Speed, 1024)
	assert.Equal(t, 5*time.Second, p.ETA)
}

func TestParseProgressLineEstimatedTotal(t *testing.T) {
	p, ok := parseProgressLine("[download] 100.0% of ~512.00KiB at Unknown B/s ETA Unknown")
	require.True(t, ok)

	assert.InDelta(t, 100.0, p.Percent, 0.001)
	assert.Equal(t, int64(512*1024), p.Total)
	assert.Zero(t, p.Speed)
}

func TestParseProgressLineHourLongETA(t *testing.T) {
	p, ok := parseProgressLine("[download]   3.0% of 2.50GiB at 500.00KiB/s ETA 01:25:00")
	require.True(t, ok)

	assert.Equal(t, time.Hour+25*time.Minute, p.ETA)
	assert.Equal(t, int64(2.5*1024*1024*1024), p.Total)
}

func TestParseProgressLineIgnoresOtherOutput(t *testing.T) {
	ignored := []string{
		"[youtube] dQw4w9WgXcQ: Downloading webpage",
		"[Merger] Merging formats into \"out.mp4\"",
		"[download] Destination: temp/123_video.f137.mp4",
		"",
		"some random noise",
	}

	for _, line := range ignored {
		_, ok := parseProgressLine(line)
		assert.False(t, ok, "line %q should not parse as progress", line)
	}
}
