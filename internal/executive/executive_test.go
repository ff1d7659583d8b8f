package executive

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plcrun/plcrun/internal/image"
	"github.com/plcrun/plcrun/internal/journal"
	"github.com/plcrun/plcrun/internal/plugindriver"
	"github.com/plcrun/plcrun/internal/symbols"
)

func fakeProgram(runCount *atomic.Int64) *symbols.ControlProgram {
	return &symbols.ControlProgram{
		ConfigInit:        func() {},
		ConfigRun:         func(tick uint64) { runCount.Add(1) },
		GlueVars:          func() {},
		UpdateTime:        func() {},
		SetBufferPointers: func(image.Pointers) {},
		CommonTickTime:    2 * time.Millisecond,
	}
}

// Step ordering: journal writes queued before a tick are visible to the
// control program's run() in that same tick (spec.md §5 ordering guarantee 1).
func TestJournalAppliedBeforeControlProgramRuns(t *testing.T) {
	img := image.New(4)
	var cell uint16
	img.Pointers().IntMemory[0] = &cell

	jnl := journal.New()
	jnl.Init(img)
	require.NoError(t, jnl.WriteInt(7, 0, 0x42)) // buftype.IntMemory == 7

	driver := plugindriver.New(img, jnl, slog.Default())

	var observed uint16
	program := &symbols.ControlProgram{
		ConfigInit: func() {},
		ConfigRun: func(tick uint64) {
			observed = cell
		},
		GlueVars:          func() {},
		UpdateTime:        func() {},
		SetBufferPointers: func(image.Pointers) {},
		CommonTickTime:    time.Millisecond,
	}

	exec := New(img, jnl, program, driver, slog.Default(), 0)
	exec.runOneTick()

	assert.EqualValues(t, 0x42, observed, "journal write must be visible inside the same tick")
}

// Run stops promptly once its context is cancelled, after completing the
// in-flight tick.
func TestRunStopsOnContextCancel(t *testing.T) {
	img := image.New(2)
	jnl := journal.New()
	jnl.Init(img)
	driver := plugindriver.New(img, jnl, slog.Default())

	var runCount atomic.Int64
	program := fakeProgram(&runCount)

	exec := New(img, jnl, program, driver, slog.Default(), time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		exec.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not stop after context cancellation")
	}

	assert.Positive(t, runCount.Load(), "expected at least one tick to have run")
}

func TestHeartbeatAdvances(t *testing.T) {
	img := image.New(2)
	jnl := journal.New()
	jnl.Init(img)
	driver := plugindriver.New(img, jnl, slog.Default())

	var runCount atomic.Int64
	program := fakeProgram(&runCount)
	exec := New(img, jnl, program, driver, slog.Default(), time.Millisecond)

	assert.Zero(t, exec.Heartbeat())
	exec.runOneTick()
	assert.NotZero(t, exec.Heartbeat())
}
