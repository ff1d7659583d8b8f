/*
Package symbols resolves the compiled control program's entry points out of
a Go plugin artifact (spec.md §4.1, §6), the way discovery.go resolves a
dynamic plugin's factory function with plugin.Open/Lookup, generalised to
five symbols plus one exported variable instead of one factory func.

Failure to resolve any of the six names is fatal to startup; there is no
partial-resolution mode.
*/
package symbols

import (
	"fmt"
	"plugin"
	"time"

	"github.com/plcrun/plcrun/internal/image"
	"github.com/plcrun/plcrun/internal/plcerr"
)

const (
	symConfigInit         = "ConfigInit"
	symConfigRun          = "ConfigRun"
	symGlueVars           = "GlueVars"
	symUpdateTime         = "UpdateTime"
	symSetBufferPointers  = "SetBufferPointers"
	symCommonTickTime     = "CommonTickTime"
)

// ConfigInitFunc performs the compiled program's one-time setup.
type ConfigInitFunc func()

// ConfigRunFunc executes one scan of the compiled program for the given
// tick counter.
type ConfigRunFunc func(tick uint64)

// GlueVarsFunc installs the compiled program's cell references into the
// array pointers previously handed to it via SetBufferPointers.
type GlueVarsFunc func()

// UpdateTimeFunc is called once per tick after ConfigRun to let the
// compiled program advance any internal time-dependent state (e.g. TON/TOF
// timers).
type UpdateTimeFunc func()

// SetBufferPointersFunc hands the compiled program the runtime-owned image
// array pointers it will populate during GlueVars.
type SetBufferPointersFunc func(image.Pointers)

// ControlProgram bundles the five resolved entry points and the common
// tick period read from the artifact.
type ControlProgram struct {
	ConfigInit        ConfigInitFunc
	ConfigRun         ConfigRunFunc
	GlueVars          GlueVarsFunc
	UpdateTime        UpdateTimeFunc
	SetBufferPointers SetBufferPointersFunc
	CommonTickTime    time.Duration
}

// Resolve opens the artifact at path and resolves all six required symbols.
// Any single missing or mistyped symbol is a fatal-init error.
func Resolve(path string) (*ControlProgram, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, plcerr.Wrap(plcerr.FatalInit, "opening control program artifact "+path, err)
	}

	cp := &ControlProgram{}

	if cp.ConfigInit, err = lookupFunc0(p, symConfigInit); err != nil {
		return nil, err
	}
	if cp.ConfigRun, err = lookupConfigRun(p); err != nil {
		return nil, err
	}
	if cp.GlueVars, err = lookupFunc0(p, symGlueVars); err != nil {
		return nil, err
	}
	if cp.UpdateTime, err = lookupFunc0(p, symUpdateTime); err != nil {
		return nil, err
	}
	if cp.SetBufferPointers, err = lookupSetBufferPointers(p); err != nil {
		return nil, err
	}

	tick, err := lookupTickTime(p)
	if err != nil {
		return nil, err
	}
	cp.CommonTickTime = tick

	return cp, nil
}

func lookupFunc0(p *plugin.Plugin, name string) (func(), error) {
	sym, err := p.Lookup(name)
	if err != nil {
		return nil, plcerr.Wrap(plcerr.FatalInit, "resolving symbol "+name, err)
	}
	fn, ok := sym.(func())
	if !ok {
		return nil, plcerr.New(plcerr.FatalInit, fmt.Sprintf("symbol %s has wrong signature, want func()", name))
	}
	return fn, nil
}

func lookupConfigRun(p *plugin.Plugin) (ConfigRunFunc, error) {
	sym, err := p.Lookup(symConfigRun)
	if err != nil {
		return nil, plcerr.Wrap(plcerr.FatalInit, "resolving symbol "+symConfigRun, err)
	}
	fn, ok := sym.(func(uint64))
	if !ok {
		return nil, plcerr.New(plcerr.FatalInit, "symbol "+symConfigRun+" has wrong signature, want func(uint64)")
	}
	return fn, nil
}

func lookupSetBufferPointers(p *plugin.Plugin) (SetBufferPointersFunc, error) {
	sym, err := p.Lookup(symSetBufferPointers)
	if err != nil {
		return nil, plcerr.Wrap(plcerr.FatalInit, "resolving symbol "+symSetBufferPointers, err)
	}
	fn, ok := sym.(func(image.Pointers))
	if !ok {
		return nil, plcerr.New(plcerr.FatalInit, "symbol "+symSetBufferPointers+" has wrong signature, want func(image.Pointers)")
	}
	return fn, nil
}

func lookupTickTime(p *plugin.Plugin) (time.Duration, error) {
	sym, err := p.Lookup(symCommonTickTime)
	if err != nil {
		return 0, plcerr.Wrap(plcerr.FatalInit, "resolving symbol "+symCommonTickTime, err)
	}
	ref, ok := sym.(*time.Duration)
	if !ok {
		return 0, plcerr.New(plcerr.FatalInit, "symbol "+symCommonTickTime+" has wrong type, want *time.Duration")
	}
	if *ref <= 0 {
		return 0, plcerr.New(plcerr.FatalInit, "symbol "+symCommonTickTime+" must be a positive duration")
	}
	return *ref, nil
}
