/*
Command s7comm-plugin is built with `go build -buildmode=plugin` into the
.so artifact the plugin driver loads by path. It is a thin shim: package
main exports the six native plugin ABI symbol names (spec.md §6) plus the
optional Debug symbol, each delegating to a single shared s7comm.Plugin
instance.
*/
package main

import (
	"github.com/plcrun/plcrun/internal/runtimeargs"
	"github.com/plcrun/plcrun/plugins/s7comm"
)

var instance = s7comm.New()

// Init is looked up as the required "Init" symbol.
func Init(args runtimeargs.Args) int { return instance.Init(args) }

// StartLoop is looked up as the required "StartLoop" symbol.
func StartLoop() { instance.StartLoop() }

// StopLoop is looked up as the required "StopLoop" symbol.
func StopLoop() { instance.StopLoop() }

// CycleStart is looked up as the optional "CycleStart" symbol.
func CycleStart() { instance.CycleStart() }

// CycleEnd is looked up as the optional "CycleEnd" symbol.
func CycleEnd() { instance.CycleEnd() }

// Debug is looked up as the optional "Debug" symbol.
func Debug(msg string) error { return instance.Debug(msg) }

// Cleanup is looked up as the required "Cleanup" symbol.
func Cleanup() { instance.Cleanup() }

func main() {}
