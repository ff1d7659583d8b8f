/*
Package plugindriver owns the fixed-size set of plugin instances, resolves
their native-plugin symbols, and dispatches their lifecycle and per-cycle
hooks (spec.md §4.4). It is the Go analogue of plugin_driver.c/h, trading
the C function-pointer bundle and a pthread mutex for a Go interface and
sync.Mutex. Only native plugins are loaded; "scripted" plugins (the
original's Python bridge) are not supported.
*/
package plugindriver

import (
	"log/slog"
	"plugin"
	"sync"

	"github.com/plcrun/plcrun/internal/image"
	"github.com/plcrun/plcrun/internal/journal"
	"github.com/plcrun/plcrun/internal/plcerr"
	"github.com/plcrun/plcrun/internal/runtimeargs"
)

// MaxPlugins is the fixed ceiling on simultaneously configured plugins,
// carried over from plugin_driver.h's MAX_PLUGINS.
const MaxPlugins = 16

// Spec describes one configured plugin, as read from the runtime's JSON
// configuration.
type Spec struct {
	Name         string `json:"name"`
	ArtifactPath string `json:"artifact_path"`
	ConfigPath   string `json:"config_path"`
	Enabled      bool   `json:"enabled"`
}

// lifecycle is the set of symbols a native plugin artifact exports. The
// four required entry points (init, startLoop, stopLoop, cleanup) mirror
// spec.md §6's native plugin ABI; cycleStart/cycleEnd are optional (D1:
// absence is not an error), and so is debug.
type lifecycle struct {
	init       func(runtimeargs.Args) int
	startLoop  func()
	stopLoop   func()
	cycleStart func()
	cycleEnd   func()
	cleanup    func()
	debug      func(string) error
}

// instance is one loaded, possibly running, plugin.
type instance struct {
	spec    Spec
	lc      *lifecycle
	running bool
}

// Driver owns up to MaxPlugins instances and the image/journal resources
// handed to each via runtimeargs.
type Driver struct {
	mu sync.Mutex

	img *image.Tables
	jnl *journal.Journal
	log *slog.Logger

	specs     []Spec
	instances []*instance
}

// New constructs a driver bound to the executive's image tables and
// journal (plugin_driver_create).
func New(img *image.Tables, jnl *journal.Journal, log *slog.Logger) *Driver {
	return &Driver{img: img, jnl: jnl, log: log}
}

// LoadConfig replaces the plugin list. No plugin is started by this call
// (plugin_driver_load_config / update_config).
func (d *Driver) LoadConfig(specs []Spec) error {
	if len(specs) > MaxPlugins {
		return plcerr.New(plcerr.ConfigInvalid, "too many plugins configured")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.specs = specs
	return nil
}

// Init loads symbols and calls init for every enabled plugin. A failure on
// one plugin is logged and that plugin is skipped; siblings are unaffected.
func (d *Driver) Init() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.instances = d.instances[:0]
	for _, spec := range d.specs {
		if !spec.Enabled {
			continue
		}
		inst, err := d.loadAndInit(spec)
		if err != nil {
			d.log.Error("plugin init failed", "plugin", spec.Name, "error", err)
			continue
		}
		d.instances = append(d.instances, inst)
	}
}

func (d *Driver) loadAndInit(spec Spec) (*instance, error) {
	lc, err := resolveNative(spec.ArtifactPath)
	if err != nil {
		return nil, plcerr.WrapPlugin(plcerr.PluginInit, spec.Name, "resolving native plugin symbols", err)
	}

	args := runtimeargs.Build(d.img, d.jnl, d.log, spec.Name, spec.ConfigPath)
	if rc := lc.init(args); rc != 0 {
		return nil, plcerr.WrapPlugin(plcerr.PluginInit, spec.Name, "init returned nonzero", nil)
	}

	return &instance{spec: spec, lc: lc}, nil
}

func resolveNative(path string) (*lifecycle, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, err
	}

	lc := &lifecycle{}

	initSym, err := p.Lookup("Init")
	if err != nil {
		return nil, err
	}
	initFn, ok := initSym.(func(runtimeargs.Args) int)
	if !ok {
		return nil, plcerr.New(plcerr.PluginInit, "Init has wrong signature")
	}
	lc.init = initFn

	lc.startLoop, err = lookupVoidFunc(p, "StartLoop")
	if err != nil {
		return nil, err
	}
	lc.stopLoop, err = lookupVoidFunc(p, "StopLoop")
	if err != nil {
		return nil, err
	}
	lc.cleanup, err = lookupVoidFunc(p, "Cleanup")
	if err != nil {
		return nil, err
	}

	// cycle_start/cycle_end/debug are optional: absence is not an error (D1).
	lc.cycleStart, _ = lookupVoidFunc(p, "CycleStart")
	lc.cycleEnd, _ = lookupVoidFunc(p, "CycleEnd")

	if debugSym, err := p.Lookup("Debug"); err == nil {
		if fn, ok := debugSym.(func(string) error); ok {
			lc.debug = fn
		}
	}

	return lc, nil
}

func lookupVoidFunc(p *plugin.Plugin, name string) (func(), error) {
	sym, err := p.Lookup(name)
	if err != nil {
		return nil, err
	}
	fn, ok := sym.(func())
	if !ok {
		return nil, plcerr.New(plcerr.PluginInit, name+" has wrong signature, want func()")
	}
	return fn, nil
}

// Start calls start_loop on every initialised plugin and marks it running.
func (d *Driver) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, inst := range d.instances {
		func() {
			defer d.recoverHook(inst, "start_loop")
			inst.lc.startLoop()
			inst.running = true
		}()
	}
}

// Stop calls stop_loop on every running plugin and clears its running flag.
func (d *Driver) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, inst := range d.instances {
		if !inst.running {
			continue
		}
		func() {
			defer d.recoverHook(inst, "stop_loop")
			inst.lc.stopLoop()
		}()
		inst.running = false
	}
}

// Restart is Stop followed by Start.
func (d *Driver) Restart() {
	d.Stop()
	d.Start()
}

// Destroy stops, cleans up, and discards every plugin instance.
func (d *Driver) Destroy() {
	d.Stop()

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, inst := range d.instances {
		func() {
			defer d.recoverHook(inst, "cleanup")
			inst.lc.cleanup()
		}()
	}
	d.instances = nil
}

// CycleStart invokes cycle_start on every running plugin that implements
// it. Absence of the hook is not an error (D1).
func (d *Driver) CycleStart() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, inst := range d.instances {
		if !inst.running || inst.lc.cycleStart == nil {
			continue
		}
		func() {
			defer d.recoverHook(inst, "cycle_start")
			inst.lc.cycleStart()
		}()
	}
}

// CycleEnd invokes cycle_end on every running plugin that implements it.
func (d *Driver) CycleEnd() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, inst := range d.instances {
		if !inst.running || inst.lc.cycleEnd == nil {
			continue
		}
		func() {
			defer d.recoverHook(inst, "cycle_end")
			inst.lc.cycleEnd()
		}()
	}
}

// recoverHook turns a panic inside a plugin hook into a logged
// PluginRuntime error instead of bringing down the tick loop (spec.md §7:
// "the cyclic executive never throws from the tick loop").
func (d *Driver) recoverHook(inst *instance, hook string) {
	if r := recover(); r != nil {
		d.log.Error("plugin hook panicked", "plugin", inst.spec.Name, "hook", hook, "recover", r)
	}
}

// Count returns the number of initialised plugin instances, for
// diagnostics and tests.
func (d *Driver) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.instances)
}

// Debug calls the optional debug hook of the named running plugin with msg
// (mirroring the teacher's Device.Debug), returning an error if no plugin by
// that name is running or it exports no such hook.
func (d *Driver) Debug(name, msg string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, inst := range d.instances {
		if inst.spec.Name != name || !inst.running {
			continue
		}
		if inst.lc.debug == nil {
			return plcerr.WrapPlugin(plcerr.InvalidArgument, name, "plugin exports no debug hook", nil)
		}
		return inst.lc.debug(msg)
	}
	return plcerr.WrapPlugin(plcerr.InvalidArgument, name, "no running plugin with this name", nil)
}
