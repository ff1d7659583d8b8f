package scancycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// S1: the first Start call only seeds the baseline; no stats are produced.
func TestFirstStartSeedsOnly(t *testing.T) {
	m := New(10 * time.Millisecond)
	m.Start()

	snap := m.Snapshot()
	assert.EqualValues(t, 1, snap.ScanCount)
	assert.Zero(t, snap.CycleTimeAvg, "no cycle-time stats after the first Start")
}

// S2: a cycle that runs past its deadline counts as an overrun.
func TestOverrunDetected(t *testing.T) {
	m := New(1 * time.Millisecond)
	m.Start()
	time.Sleep(5 * time.Millisecond)
	m.End()

	snap := m.Snapshot()
	assert.EqualValues(t, 1, snap.Overruns)
}

// Scenario 3: three full cycles accumulate scan count and timing stats.
func TestCycleStatsAccumulate(t *testing.T) {
	m := New(2 * time.Millisecond)
	for i := 0; i < 3; i++ {
		m.Start()
		time.Sleep(1 * time.Millisecond)
		m.End()
	}

	snap := m.Snapshot()
	assert.EqualValues(t, 3, snap.ScanCount)
	assert.LessOrEqual(t, snap.CycleTimeMin, snap.CycleTimeMax)
	assert.Greater(t, snap.ScanTimeAvg, time.Duration(0))
}

// Scenario 4: NextDeadline advances by exactly one tick per Start call after
// the first.
func TestNextDeadlineAdvancesByTick(t *testing.T) {
	tick := 5 * time.Millisecond
	m := New(tick)
	m.Start()
	first := m.NextDeadline()

	m.Start()
	second := m.NextDeadline()

	assert.Equal(t, tick, second.Sub(first))
}
