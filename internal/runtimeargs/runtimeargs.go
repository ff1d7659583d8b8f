/*
Package runtimeargs builds the capability bundle (spec.md §3, §4.4) handed
to every plugin at init: image-table pointers, the image mutex's take/give
functions, logging entry points, journal-write entry points, the plugin's
private config path, and buffer sizing. It is the Go analogue of
plugin_types.h's plugin_runtime_args_t, expressed as values and closures
instead of a struct of C function pointers.
*/
package runtimeargs

import (
	"log/slog"

	"github.com/plcrun/plcrun/internal/buftype"
	"github.com/plcrun/plcrun/internal/image"
	"github.com/plcrun/plcrun/internal/journal"
)

// Args is the capability bundle constructed by the driver and copied into
// plugin-private storage during init. It is invalid after the plugin's
// cleanup hook runs.
type Args struct {
	Image image.Pointers

	TakeImage func()
	GiveImage func()

	ConfigPath    string
	BufferSize    int
	BitsPerBucket int

	LogInfo  func(msg string, args ...any)
	LogDebug func(msg string, args ...any)
	LogWarn  func(msg string, args ...any)
	LogError func(msg string, args ...any)

	WriteBool  func(tag buftype.Tag, index uint16, bit uint8, value bool) error
	WriteByte  func(tag buftype.Tag, index uint16, value uint8) error
	WriteInt   func(tag buftype.Tag, index uint16, value uint16) error
	WriteDInt  func(tag buftype.Tag, index uint16, value uint32) error
	WriteLInt  func(tag buftype.Tag, index uint16, value uint64) error
}

// Build assembles the runtime args for one plugin instance. log is tagged
// with the plugin's name so every line it emits is attributable.
func Build(img *image.Tables, j *journal.Journal, log *slog.Logger, pluginName, configPath string) Args {
	pl := log.With("plugin", pluginName)

	return Args{
		Image: img.Pointers(),

		TakeImage: img.Lock,
		GiveImage: img.Unlock,

		ConfigPath:    configPath,
		BufferSize:    img.Size(),
		BitsPerBucket: image.BitsPerByteBucket,

		LogInfo:  func(msg string, args ...any) { pl.Info(msg, args...) },
		LogDebug: func(msg string, args ...any) { pl.Debug(msg, args...) },
		LogWarn:  func(msg string, args ...any) { pl.Warn(msg, args...) },
		LogError: func(msg string, args ...any) { pl.Error(msg, args...) },

		WriteBool: j.WriteBool,
		WriteByte: j.WriteByte,
		WriteInt:  j.WriteInt,
		WriteDInt: j.WriteDInt,
		WriteLInt: j.WriteLInt,
	}
}

// PluginLogger wraps a plugin-scoped slog.Logger with the four entry points
// a native plugin's own code typically expects (info/debug/warn/error),
// mirroring plugin_logger.c's thin printf-prefixing wrapper over the
// central logging functions passed in Args.
type PluginLogger struct {
	Info  func(msg string, args ...any)
	Debug func(msg string, args ...any)
	Warn  func(msg string, args ...any)
	Error func(msg string, args ...any)
}

// NewPluginLogger extracts a PluginLogger from a built Args bundle, so a
// plugin can hold onto just the logging surface without the rest of the
// capability struct.
func NewPluginLogger(a Args) PluginLogger {
	return PluginLogger{Info: a.LogInfo, Debug: a.LogDebug, Warn: a.LogWarn, Error: a.LogError}
}
