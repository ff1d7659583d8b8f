package s7comm

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/plcrun/plcrun/internal/buftype"
	"github.com/plcrun/plcrun/internal/image"
	"github.com/plcrun/plcrun/internal/journal"
	"github.com/plcrun/plcrun/internal/runtimeargs"
	"github.com/plcrun/plcrun/plugins/s7comm/s7server"
)

func newTestPlugin(t *testing.T, n int) (*Plugin, *image.Tables) {
	t.Helper()
	img := image.New(n)
	j := journal.New()
	j.Init(img)
	args := runtimeargs.Build(img, j, slog.Default(), "s7comm", "")

	p := &Plugin{
		args:        args,
		log:         runtimeargs.NewPluginLogger(args),
		server:      s7server.New(s7server.Config{}),
		initialized: true,
	}
	return p, img
}

// E1: after cycle_end with >=1 client, the shadow buffer matches the
// image-table range bit-for-bit (modulo endian conversion).
func TestCycleEndSyncsShadowFromImage(t *testing.T) {
	p, img := newTestPlugin(t, 8)
	var cell uint16
	img.Pointers().IntMemory[2] = &cell
	cell = 0x00FF

	region := p.server.RegisterRegion("DB1", 2)
	b := &binding{name: "DB1", region: region, shadow: make([]byte, 2), tag: buftype.IntMemory, startIndex: 2}
	p.bindings = []*binding{b}
	p.server.SetConnectedClients(1)

	p.CycleEnd()

	assert.Equal(t, []byte{0x00, 0xFF}, region.Buf)
}

// E2: writes to input-kind mappings from S7 clients never modify image
// tables — Policy B only applies shadow->image for non-input bindings.
func TestCycleEndNeverWritesInputMappings(t *testing.T) {
	p, img := newTestPlugin(t, 8)
	var cell uint32
	img.Pointers().DIntInput[1] = &cell
	cell = 0xAAAAAAAA

	region := p.server.RegisterRegion("PE", 4)
	putU32(region.Buf, 0xDEADBEEF)
	b := &binding{name: "PE", region: region, shadow: make([]byte, 4), tag: buftype.DIntInput, startIndex: 1, isInput: true}
	p.bindings = []*binding{b}
	p.server.SetConnectedClients(1)

	p.CycleEnd()

	assert.EqualValues(t, 0xAAAAAAAA, cell, "input mapping must not be written")
}

// Zero connected clients skips the sync entirely.
func TestCycleEndSkippedWithNoClients(t *testing.T) {
	p, img := newTestPlugin(t, 4)
	var cell uint16
	img.Pointers().IntMemory[0] = &cell
	cell = 0x1234

	region := p.server.RegisterRegion("DB1", 2)
	b := &binding{name: "DB1", region: region, shadow: make([]byte, 2), tag: buftype.IntMemory, startIndex: 0}
	p.bindings = []*binding{b}
	p.server.SetConnectedClients(0)

	p.CycleEnd()

	assert.Equal(t, []byte{0, 0}, region.Buf, "expected sync to be skipped with zero clients")
}

func TestCleanupIsIdempotent(t *testing.T) {
	p, _ := newTestPlugin(t, 2)
	p.Cleanup()
	p.Cleanup()
	assert.False(t, p.initialized)
}

func TestDebugRequiresInit(t *testing.T) {
	p, _ := newTestPlugin(t, 2)
	assert.NoError(t, p.Debug("verbose=1"))

	p.Cleanup()
	assert.Error(t, p.Debug("verbose=1"))
}
