package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerNeverRegresses(t *testing.T) {
	tr := NewTracker()
	tr.Begin("a")

	tr.Update("a", 10)
	v, ok := tr.Get("a")
	require.True(t, ok)
	assert.Equal(t, 10.0, v)

	tr.Update("a", 50)
	v, _ = tr.Get("a")
	assert.Equal(t, 50.0, v)

	// A slower racing attempt reporting late must not pull the value back
	tr.Update("a", 30)
	v, _ = tr.Get("a")
	assert.Equal(t, 50.0, v)
}

func TestTrackerClampsRange(t *testing.T) {
	tr := NewTracker()
	tr.Begin("a")

	tr.Update("a", 250)
	v, _ := tr.Get("a")
	assert.Equal(t, 100.0, v)

	tr.Begin("b")
	tr.Update("b", -20)
	v, _ = tr.Get("b")
	assert.Equal(t, 0.0, v)
}

func TestTrackerCompressingSentinel(t *testing.T) {
	tr := NewTracker()

	tr.Compressing("a")
	v, ok := tr.Get("a")
	require.True(t, ok)
	assert.Equal(t, ProgressCompressing, v)

	// First byte-level report replaces the sentinel
	tr.Update("a", 0)
	v, _ = tr.Get("a")
	assert.Equal(t, 0.0, v)
}

func TestTrackerUpdateIgnoresClearedTask(t *testing.T) {
	tr := NewTracker()
	tr.Begin("a")
	tr.Done("a")
	tr.Clear("a")

	// A losing upload attempt keeps reporting after the task finished;
	// its late callbacks must not bring the entry back
	tr.Update("a", 42)
	_, ok := tr.Get("a")
	assert.False(t, ok)

	// Same for ids that were never registered
	tr.Update("ghost", 10)
	_, ok = tr.Get("ghost")
	assert.False(t, ok)
}

func TestTrackerDoneAndClear(t *testing.T) {
	tr := NewTracker()
	tr.Begin("a")

	tr.Done("a")
	v, ok := tr.Get("a")
	require.True(t, ok)
	assert.Equal(t, 100.0, v)

	tr.Clear("a")
	_, ok = tr.Get("a")
	assert.False(t, ok)
}
