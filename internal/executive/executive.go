/*
Package executive drives the cyclic tick loop (spec.md §4.6): it binds the
resolved control program and the plugin driver to the image tables and
journal, then repeats the ten-step sequence until asked to stop. It is the
Go analogue of plc_main.c's main loop, generalised from a single hard-coded
program into a resolver-driven one and from a signal-flag busy loop into a
context.Context-cancelled goroutine.
*/
package executive

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/plcrun/plcrun/internal/image"
	"github.com/plcrun/plcrun/internal/journal"
	"github.com/plcrun/plcrun/internal/plugindriver"
	"github.com/plcrun/plcrun/internal/scancycle"
	"github.com/plcrun/plcrun/internal/symbols"
)

// Executive owns the tick loop's runtime dependencies.
type Executive struct {
	img     *image.Tables
	jnl     *journal.Journal
	program *symbols.ControlProgram
	driver  *plugindriver.Driver
	scan    *scancycle.Manager
	log     *slog.Logger

	tick       uint64
	heartbeat  atomic.Int64
}

// New constructs an Executive. tickOverride, if nonzero, takes precedence
// over the control program's own CommonTickTime (an operator escape hatch;
// the default is to honour the compiled program's declared period).
func New(img *image.Tables, jnl *journal.Journal, program *symbols.ControlProgram, driver *plugindriver.Driver, log *slog.Logger, tickOverride time.Duration) *Executive {
	period := program.CommonTickTime
	if tickOverride > 0 {
		period = tickOverride
	}
	return &Executive{
		img:     img,
		jnl:     jnl,
		program: program,
		driver:  driver,
		scan:    scancycle.New(period),
		log:     log,
	}
}

// Heartbeat returns the Unix-nanosecond timestamp of the last completed
// tick's step 1, for an external watchdog to poll.
func (e *Executive) Heartbeat() int64 { return e.heartbeat.Load() }

// Stats exposes the scan-cycle manager's current timing snapshot.
func (e *Executive) Stats() scancycle.Stats { return e.scan.Snapshot() }

// Run executes the tick loop until ctx is cancelled. It completes the
// current tick before observing cancellation, matching spec.md §5's
// cancellation discipline.
func (e *Executive) Run(ctx context.Context) {
	e.program.ConfigInit()

	for {
		e.runOneTick()

		if ctx.Err() != nil {
			return
		}

		deadline := e.scan.NextDeadline()
		if d := time.Until(deadline); d > 0 {
			timer := time.NewTimer(d)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return
			}
		}

		if ctx.Err() != nil {
			return
		}
	}
}

func (e *Executive) runOneTick() {
	// 1. heartbeat
	e.heartbeat.Store(time.Now().UnixNano())

	// 2. cycle_start (scan cycle manager)
	e.scan.Start()

	// 3. acquire image mutex
	e.img.Lock()

	// 4. apply the journal
	e.jnl.ApplyAndClear()

	// 5. plugin cycle_start hooks
	e.driver.CycleStart()

	// 6. control program run + update_time
	e.program.ConfigRun(e.tick)
	e.tick++
	e.program.UpdateTime()

	// 7. plugin cycle_end hooks
	e.driver.CycleEnd()

	// 8. release image mutex
	e.img.Unlock()

	// 9. cycle_end (scan cycle manager)
	e.scan.End()
}
