// Package service implements the video upload pipeline: segment compression,
// audio extraction, adaptive racing uploads and blog generation.
package service

import "sync"

// ProgressCompressing is the sentinel reported while a task is compressing
// and no byte-level progress exists yet.
const ProgressCompressing = -1.0

// Tracker holds the ephemeral per-upload progress entries consumed by the
// progress endpoint. Racing upload attempts all report into the same entry;
// the merge rule is max-wins, so the published value never regresses no
// matter which attempt is currently ahead. Last-write-wins would regress
// whenever a slower attempt reports after a faster one.
type Tracker struct {
	mu    sync.Mutex
	tasks map[string]float64
}

func NewTracker() *Tracker {
	return &Tracker{tasks: make(map[string]float64)}
}

// Begin registers a task at zero progress
func (t *Tracker) Begin(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.tasks[id] = 0
}

// Compressing marks a task as compressing with no byte-level progress
func (t *Tracker) Compressing(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.tasks[id] = ProgressCompressing
}

// Update folds one attempt's progress callback into the published value.
// Values are clamped to [0,100] and never decrease. Unregistered ids are
// ignored: losing upload attempts keep reporting after their task is
// cleared, and those stragglers must not resurrect the entry.
func (t *Tracker) Update(id string, progress float64) {
	progress = min(100, max(0, progress))

	t.mu.Lock()
	defer t.mu.Unlock()

	cur, ok := t.tasks[id]
	if ok && cur < progress {
		t.tasks[id] = progress
	}
}

// Done forces a task to 100
func (t *Tracker) Done(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.tasks[id] = 100
}

// Clear removes a task entry entirely
func (t *Tracker) Clear(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.tasks, id)
}

// Get returns a task's progress and whether the task is still tracked
func (t *Tracker) Get(id string) (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	v, ok := t.tasks[id]
	return v, ok
}
