package timer

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimerManager_Due(t *testing.T) {
	m := NewTimerManager(time.Hour)
	defer m.Stop()

	once := m.AddTimer(0, 0, func() {})
	periodic := m.AddTimer(0, time.Minute, func() {})
	m.AddTimer(time.Hour, 0, func() {})

	ready := m.due(time.Now())

	ids := []int64{}
	for _, task := range ready {
		ids = append(ids, task.Id)
	}
	assert.ElementsMatch(t, []int64{once, periodic}, ids)
	assert.Equal(t, 2, m.Len(), "the periodic task is rescheduled")
	assert.Empty(t, m.due(time.Now()))
}

func TestTimerManager_RemoveTimer(t *testing.T) {
	m := NewTimerManager(time.Hour)
	defer m.Stop()

	id := m.AddTimer(0, time.Second, func() {})
	m.AddTimer(0, time.Second, func() {})
	m.RemoveTimer(id)
	m.RemoveTimer(id)

	assert.Equal(t, 1, m.Len())
}

func TestTimerManager_RunsCallbacks(t *testing.T) {
	m := NewTimerManager(5 * time.Millisecond)
	defer m.Stop()

	var calls atomic.Int32
	m.AddTimer(0, 5*time.Millisecond, func() { calls.Add(1) })

	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, 5*time.Second, 5*time.Millisecond)
}

func TestTimerManager_StopIsIdempotent(t *testing.T) {
	m := NewTimerManager(time.Millisecond)
	m.Stop()
	m.Stop()
}
