package index

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProgressTracker_Basic(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 10)

	tracker.Start(100)
	assert.True(t, tracker.started, "should be started")

	tracker.Increment(25)
	tracker.Increment(25)
	tracker.Increment(50)

	assert.Greater(t, tracker.Elapsed(), time.Duration(0), "elapsed time should be positive")

	output := buf.String()
	assert.Contains(t, output, "100/100", "should show completion")
	assert.Contains(t, output, "100.0%", "should show 100%")
}

func TestProgressTracker_IntervalAndCap(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 50)

	tracker.Start(60)
	tracker.Increment(10)
	assert.Empty(t, buf.String(), "below the report interval")

	tracker.Increment(500)
	assert.Contains(t, buf.String(), "60/60")
}

func TestProgressTracker_FinishEarly(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 100)

	tracker.Start(40)
	tracker.Increment(8)
	tracker.Finish()

	output := buf.String()
	assert.Contains(t, output, "8/40", "finish reports where the stage stopped")
	assert.Contains(t, output, "\n", "finish should print newline")
	assert.Zero(t, tracker.Elapsed())
}

func TestProgressTracker_NotStarted(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 0)

	tracker.Increment(5)
	tracker.Finish()
	assert.Empty(t, buf.String())
	assert.Zero(t, tracker.Elapsed())
}
