/*
Package scancycle tracks cycle time, scan time, and cycle latency statistics
for the executive's tick loop, and tells the executive when the next tick is
due.

Timing uses a monotonic clock (time.Now() against a process-relative
baseline, never wall-clock) and an incremental mean so no history buffer is
needed: mean += (sample - mean) / n. Min/max and overrun counts accumulate
for the life of the process; there is no reset operation, matching
scan_cycle_manager.c.

As in that implementation, there is no separate sample counter: scan_count
is the divisor for all three averages. Start applies the cycle-time and
latency samples before it increments scan_count, and End divides by the
count Start left behind, so each average is divided by its own number of
samples.
*/
package scancycle

import (
	"sync"
	"time"
)

// Stats is a snapshot of the manager's accumulated timing statistics.
type Stats struct {
	ScanTimeMin, ScanTimeMax, ScanTimeAvg       time.Duration
	CycleTimeMin, CycleTimeMax, CycleTimeAvg    time.Duration
	CycleLatencyMin, CycleLatencyMax, CycleLatencyAvg time.Duration
	ScanCount int64
	Overruns  int64
}

// Manager accumulates scan-cycle timing statistics and schedules the next
// tick's absolute deadline.
type Manager struct {
	mu sync.Mutex

	tick time.Duration

	expectedStart time.Time
	lastStart     time.Time

	scanTimeMin, scanTimeMax, scanTimeAvg       time.Duration
	cycleTimeMin, cycleTimeMax, cycleTimeAvg    time.Duration
	cycleLatencyMin, cycleLatencyMax, cycleLatencyAvg time.Duration
	scanCount int64
	overruns  int64
}

// New constructs a Manager for a control program whose tick period is tick.
func New(tick time.Duration) *Manager {
	return &Manager{
		tick:            tick,
		scanTimeMin:     time.Duration(1<<63 - 1),
		cycleTimeMin:    time.Duration(1<<63 - 1),
		cycleLatencyMin: time.Duration(1<<63 - 1),
	}
}

// Start marks the beginning of a scan cycle. The first call only seeds the
// baseline; cycle time and cycle latency statistics begin accumulating from
// the second call onward.
func (m *Manager) Start() {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.scanCount == 0 {
		m.expectedStart = now.Add(m.tick)
		m.lastStart = now
		m.scanCount++
		return
	}

	cycleTime := now.Sub(m.lastStart)
	if cycleTime < m.cycleTimeMin {
		m.cycleTimeMin = cycleTime
	}
	if cycleTime > m.cycleTimeMax {
		m.cycleTimeMax = cycleTime
	}
	m.cycleTimeAvg += (cycleTime - m.cycleTimeAvg) / time.Duration(m.scanCount)

	latency := now.Sub(m.expectedStart)
	if latency < m.cycleLatencyMin {
		m.cycleLatencyMin = latency
	}
	if latency > m.cycleLatencyMax {
		m.cycleLatencyMax = latency
	}
	m.cycleLatencyAvg += (latency - m.cycleLatencyAvg) / time.Duration(m.scanCount)

	m.lastStart = now
	m.expectedStart = m.expectedStart.Add(m.tick)
	m.scanCount++
}

// End marks the end of a scan cycle: it records scan time and, if the
// cycle ran past its deadline, counts an overrun.
func (m *Manager) End() {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	scanTime := now.Sub(m.lastStart)
	if scanTime < m.scanTimeMin {
		m.scanTimeMin = scanTime
	}
	if scanTime > m.scanTimeMax {
		m.scanTimeMax = scanTime
	}
	if m.scanCount > 0 {
		m.scanTimeAvg += (scanTime - m.scanTimeAvg) / time.Duration(m.scanCount)
	}

	if now.After(m.expectedStart) {
		m.overruns++
	}
}

// NextDeadline returns the absolute time the executive should sleep until
// before starting the next cycle.
func (m *Manager) NextDeadline() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expectedStart
}

// Snapshot returns a copy of the current statistics.
func (m *Manager) Snapshot() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{
		ScanTimeMin: m.scanTimeMin, ScanTimeMax: m.scanTimeMax, ScanTimeAvg: m.scanTimeAvg,
		CycleTimeMin: m.cycleTimeMin, CycleTimeMax: m.cycleTimeMax, CycleTimeAvg: m.cycleTimeAvg,
		CycleLatencyMin: m.cycleLatencyMin, CycleLatencyMax: m.cycleLatencyMax, CycleLatencyAvg: m.cycleLatencyAvg,
		ScanCount: m.scanCount,
		Overruns:  m.overruns,
	}
}
