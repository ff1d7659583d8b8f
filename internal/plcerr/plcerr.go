/*
Package plcerr carries the seven error kinds of spec.md §7 as a small typed
wrapper over the standard error interface, in the teacher's own plain-Go
error style (errors.New/fmt.Errorf, no third-party error library — none of
the retrieval pack's source imports one).
*/
package plcerr

import "fmt"

// Kind classifies an error by how the executive must react to it.
type Kind int

const (
	// FatalInit aborts startup: symbol resolution, image allocation, or
	// control-plane socket bind failed.
	FatalInit Kind = iota
	// PluginInit is isolated to the offending plugin: load or init failed.
	PluginInit
	// PluginRuntime is caught at the plugin-hook boundary and logged; the
	// tick loop continues.
	PluginRuntime
	// JournalFull is handled internally via emergency flush; it is never
	// surfaced to callers, but the Kind exists for completeness and for
	// diagnostic logging of flush events.
	JournalFull
	// InvalidArgument is returned to the caller; it is never fatal.
	InvalidArgument
	// TransportTransient marks a retried, non-fatal transport failure
	// (log-socket disconnects).
	TransportTransient
	// ConfigInvalid refuses to start the affected plugin, falling back to
	// defaults when a default is well-defined.
	ConfigInvalid
)

func (k Kind) String() string {
	switch k {
	case FatalInit:
		return "fatal-init"
	case PluginInit:
		return "plugin-init"
	case PluginRuntime:
		return "plugin-runtime"
	case JournalFull:
		return "journal-full"
	case InvalidArgument:
		return "invalid-argument"
	case TransportTransient:
		return "transport-transient"
	case ConfigInvalid:
		return "config-invalid"
	default:
		return "unknown"
	}
}

// Error wraps an underlying cause with a Kind and optional plugin/component
// context.
type Error struct {
	Kind    Kind
	Plugin  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Plugin != "" {
		if e.Err != nil {
			return fmt.Sprintf("%s: [%s] %s: %v", e.Kind, e.Plugin, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: [%s] %s", e.Kind, e.Plugin, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a plain Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error of the given kind around an existing cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WrapPlugin builds a plugin-scoped Error of the given kind.
func WrapPlugin(kind Kind, plugin, message string, err error) *Error {
	return &Error{Kind: kind, Plugin: plugin, Message: message, Err: err}
}
