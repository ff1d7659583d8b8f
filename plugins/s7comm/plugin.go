/*
Plugin implements the s7comm exemplar's lifecycle and its chosen
synchronisation policy: Policy B, double-buffered and cycle-synchronous
(spec.md §4.5), grounded on s7comm_plugin.cpp's shadow-buffer dance. Policy
A (on-demand per-operation callback) is not implemented.

Each configured data block or system area becomes a binding: an S7-facing
region (owned by s7server.Server), a shadow buffer of identical size, and
the image-table range it mirrors.
*/
package s7comm

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/plcrun/plcrun/internal/buftype"
	"github.com/plcrun/plcrun/internal/image"
	"github.com/plcrun/plcrun/internal/runtimeargs"
	"github.com/plcrun/plcrun/plugins/s7comm/s7server"
)

// binding ties one S7-facing region to its shadow buffer and image range.
type binding struct {
	name string

	s7Mu   sync.Mutex
	region *s7server.Region
	shadow []byte

	tag           buftype.Tag
	startIndex    int
	bitAddressing bool
	isInput       bool
}

// Plugin is the s7comm exemplar's runtime state.
type Plugin struct {
	cfg    Config
	server *s7server.Server
	args   runtimeargs.Args
	log    runtimeargs.PluginLogger

	bindings []*binding

	mu          sync.Mutex
	initialized bool
}

// New constructs an uninitialised Plugin.
func New() *Plugin { return &Plugin{} }

// Init implements the native plugin ABI's init entry point. It loads the
// plugin's private config, builds the server and its registered regions,
// and maps each region to an image-table range. A fatal allocation/bind
// failure transitions the plugin to cleaned-up state, per spec.md §4.5's
// lifecycle failure modes; it never aborts the runtime.
func (p *Plugin) Init(args runtimeargs.Args) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.args = args
	p.log = runtimeargs.NewPluginLogger(args)

	cfg, err := LoadConfig(args.ConfigPath)
	if err != nil {
		p.log.Error("s7comm config invalid", "error", err)
		return -1
	}
	p.cfg = cfg

	if !cfg.Enabled {
		p.log.Info("s7comm disabled by config")
		return -1
	}

	p.server = s7server.New(s7server.Config{
		BindAddress:   cfg.BindAddress,
		Port:          cfg.Port,
		MaxClients:    cfg.MaxClients,
		SendTimeoutMS: cfg.SendTimeoutMS,
		RecvTimeoutMS: cfg.RecvTimeoutMS,
		PingTimeoutMS: cfg.PingTimeoutMS,
		PDUSize:       cfg.PDUSize,
		Identity: s7server.Identity{
			Name: cfg.Identity.Name, ModuleType: cfg.Identity.ModuleType,
			SerialNumber: cfg.Identity.SerialNumber, Copyright: cfg.Identity.Copyright,
			ModuleName: cfg.Identity.ModuleName,
		},
	})

	for _, db := range cfg.DataBlocks {
		p.addBinding(dbName(db.DBNumber), db.SizeBytes, db.Mapping, false)
	}
	if cfg.PE.Enabled {
		p.addBinding("PE", cfg.PE.SizeBytes, cfg.PE.Mapping, true)
	}
	if cfg.PA.Enabled {
		p.addBinding("PA", cfg.PA.SizeBytes, cfg.PA.Mapping, false)
	}
	if cfg.MK.Enabled {
		p.addBinding("MK", cfg.MK.SizeBytes, cfg.MK.Mapping, false)
	}

	p.initialized = true
	return 0
}

func dbName(n int) string { return "DB" + strconv.Itoa(n) }

func (p *Plugin) addBinding(name string, size int, m Mapping, isInputArea bool) {
	tag, err := m.Tag()
	if err != nil {
		p.log.Error("s7comm mapping rejected", "region", name, "error", err)
		return
	}

	region := p.server.RegisterRegion(name, size)
	b := &binding{
		name:          name,
		region:        region,
		shadow:        make([]byte, size),
		tag:           tag,
		startIndex:    m.StartBuffer,
		bitAddressing: m.BitAddressing,
		isInput:       isInputArea || tag.Kind() == buftype.Input,
	}
	p.bindings = append(p.bindings, b)
}

// StartLoop implements the native plugin ABI's start_loop entry point.
// A real server library would begin accepting connections here; the
// stand-in has nothing further to start.
func (p *Plugin) StartLoop() {}

// StopLoop implements the native plugin ABI's stop_loop entry point.
func (p *Plugin) StopLoop() {}

// Cleanup implements the native plugin ABI's cleanup entry point. It must
// be idempotent (spec.md §5).
func (p *Plugin) Cleanup() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.initialized = false
	p.bindings = nil
}

// Debug implements the native plugin ABI's optional debug entry point,
// mirroring the teacher's Device.Debug: it logs msg at debug level through
// the plugin-scoped logger, so an operator can inject a marker line into a
// running plugin's log through the control plane. It changes no plugin state.
func (p *Plugin) Debug(msg string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return fmt.Errorf("s7comm: debug called before init")
	}
	p.log.Debug(msg)
	return nil
}

// CycleStart is a no-op under Policy B (spec.md §4.5).
func (p *Plugin) CycleStart() {}

// CycleEnd performs the double-buffered sync while the executive already
// holds the image mutex. If the server reports zero connected clients the
// entire sync is skipped (spec.md §4.5).
func (p *Plugin) CycleEnd() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized || p.server.ConnectedClients() == 0 {
		return
	}

	for _, b := range p.bindings {
		p.syncBinding(b)
	}
}

// syncBinding runs the four-step Policy B dance for one binding. The
// caller holds the image mutex; syncBinding only ever takes the binding's
// own short S7-local mutex, never the image mutex, avoiding any
// image-mutex/S7-mutex ordering ambiguity.
func (p *Plugin) syncBinding(b *binding) {
	// (1) S7 -> shadow
	b.s7Mu.Lock()
	copy(b.shadow, b.region.Buf)
	b.s7Mu.Unlock()

	// (2) shadow -> image, outputs/memory only (E2: inputs are never
	// written from the field bus side).
	if !b.isInput {
		p.writeShadowToImage(b)
	}

	// (3) image -> shadow, all kinds
	p.readImageToShadow(b)

	// (4) shadow -> S7
	b.s7Mu.Lock()
	copy(b.region.Buf, b.shadow)
	b.s7Mu.Unlock()
}

func elementWidth(class buftype.Class) int {
	switch class {
	case buftype.ClassBool, buftype.ClassByte:
		return 1
	case buftype.ClassInt:
		return 2
	case buftype.ClassDInt:
		return 4
	case buftype.ClassLInt:
		return 8
	default:
		return 0
	}
}

func (p *Plugin) writeShadowToImage(b *binding) {
	width := elementWidth(b.tag.Class())
	if width == 0 {
		return
	}
	n := len(b.shadow) / width
	if b.startIndex+n > p.args.BufferSize {
		n = p.args.BufferSize - b.startIndex
	}
	for i := 0; i < n; i++ {
		index := uint16(b.startIndex + i)
		off := i * width
		switch b.tag.Class() {
		case buftype.ClassBool:
			bits := unpackBoolByte(b.shadow[off])
			for bit, v := range bits {
				_ = p.args.WriteBool(b.tag, index, uint8(bit), v)
			}
		case buftype.ClassByte:
			_ = p.args.WriteByte(b.tag, index, b.shadow[off])
		case buftype.ClassInt:
			_ = p.args.WriteInt(b.tag, index, getU16(b.shadow[off:off+2]))
		case buftype.ClassDInt:
			_ = p.args.WriteDInt(b.tag, index, getU32(b.shadow[off:off+4]))
		case buftype.ClassLInt:
			_ = p.args.WriteLInt(b.tag, index, getU64(b.shadow[off:off+8]))
		}
	}
}

func (p *Plugin) readImageToShadow(b *binding) {
	width := elementWidth(b.tag.Class())
	if width == 0 {
		return
	}
	n := len(b.shadow) / width
	if b.startIndex+n > p.args.BufferSize {
		n = p.args.BufferSize - b.startIndex
	}
	for i := 0; i < n; i++ {
		index := b.startIndex + i
		off := i * width
		switch b.tag.Class() {
		case buftype.ClassBool:
			var bits [8]bool
			for bit := 0; bit < 8; bit++ {
				v, _ := readBitDirect(p, b.tag, index, uint8(bit))
				bits[bit] = v
			}
			b.shadow[off] = boolByte(bits)
		case buftype.ClassByte:
			v, ok := readByteDirect(p, b.tag, index)
			if ok {
				b.shadow[off] = v
			}
		case buftype.ClassInt:
			v, ok := readWordDirect(p, b.tag, index)
			if ok {
				putU16(b.shadow[off:off+2], v)
			}
		case buftype.ClassDInt:
			v, ok := readDWordDirect(p, b.tag, index)
			if ok {
				putU32(b.shadow[off:off+4], v)
			}
		case buftype.ClassLInt:
			v, ok := readLWordDirect(p, b.tag, index)
			if ok {
				putU64(b.shadow[off:off+8], v)
			}
		}
	}
}

func boolBankFor(img image.Pointers, tag buftype.Tag) [][8]*bool {
	switch tag {
	case buftype.BoolInput:
		return img.BoolInput
	case buftype.BoolOutput:
		return img.BoolOutput
	case buftype.BoolMemory:
		return img.BoolMemory
	default:
		return nil
	}
}

func byteBankFor(img image.Pointers, tag buftype.Tag) []*byte {
	switch tag {
	case buftype.ByteInput:
		return img.ByteInput
	case buftype.ByteOutput:
		return img.ByteOutput
	default:
		return nil
	}
}

func wordBankFor(img image.Pointers, tag buftype.Tag) []*uint16 {
	switch tag {
	case buftype.IntInput:
		return img.IntInput
	case buftype.IntOutput:
		return img.IntOutput
	case buftype.IntMemory:
		return img.IntMemory
	default:
		return nil
	}
}

func dwordBankFor(img image.Pointers, tag buftype.Tag) []*uint32 {
	switch tag {
	case buftype.DIntInput:
		return img.DIntInput
	case buftype.DIntOutput:
		return img.DIntOutput
	case buftype.DIntMemory:
		return img.DIntMemory
	default:
		return nil
	}
}

func lwordBankFor(img image.Pointers, tag buftype.Tag) []*uint64 {
	switch tag {
	case buftype.LIntInput:
		return img.LIntInput
	case buftype.LIntOutput:
		return img.LIntOutput
	case buftype.LIntMemory:
		return img.LIntMemory
	default:
		return nil
	}
}

func readBitDirect(p *Plugin, tag buftype.Tag, index int, bit uint8) (bool, bool) {
	bank := boolBankFor(p.args.Image, tag)
	if index < 0 || index >= len(bank) || bank[index][bit] == nil {
		return false, false
	}
	return *bank[index][bit], true
}

func readByteDirect(p *Plugin, tag buftype.Tag, index int) (byte, bool) {
	bank := byteBankFor(p.args.Image, tag)
	if index < 0 || index >= len(bank) || bank[index] == nil {
		return 0, false
	}
	return *bank[index], true
}

func readWordDirect(p *Plugin, tag buftype.Tag, index int) (uint16, bool) {
	bank := wordBankFor(p.args.Image, tag)
	if index < 0 || index >= len(bank) || bank[index] == nil {
		return 0, false
	}
	return *bank[index], true
}

func readDWordDirect(p *Plugin, tag buftype.Tag, index int) (uint32, bool) {
	bank := dwordBankFor(p.args.Image, tag)
	if index < 0 || index >= len(bank) || bank[index] == nil {
		return 0, false
	}
	return *bank[index], true
}

func readLWordDirect(p *Plugin, tag buftype.Tag, index int) (uint64, bool) {
	bank := lwordBankFor(p.args.Image, tag)
	if index < 0 || index >= len(bank) || bank[index] == nil {
		return 0, false
	}
	return *bank[index], true
}
