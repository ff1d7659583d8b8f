/*
Package config loads the runtime's top-level JSON configuration (spec.md
§6): the compiled control-program artifact path, an optional tick-period
override, the plugin list, and the control-plane socket path. JSON is the
binding spec.md names explicitly; none of the retrieval pack imports a
third-party JSON or config-file library, so this stays on encoding/json
(see DESIGN.md).
*/
package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/plcrun/plcrun/internal/plcerr"
	"github.com/plcrun/plcrun/internal/plugindriver"
)

// Runtime is the top-level configuration document.
type Runtime struct {
	ControlProgramPath string                `json:"control_program_path"`
	TickOverrideMillis  int64                 `json:"tick_override_ms,omitempty"`
	ControlSocketPath   string                `json:"control_socket_path"`
	LogTransportAddr    string                `json:"log_transport_addr,omitempty"`
	Plugins             []plugindriver.Spec   `json:"plugins"`
}

// TickOverride returns the configured tick override, or 0 if none was set
// (meaning: use the control program's own CommonTickTime).
func (r Runtime) TickOverride() time.Duration {
	if r.TickOverrideMillis <= 0 {
		return 0
	}
	return time.Duration(r.TickOverrideMillis) * time.Millisecond
}

// Load reads and validates the runtime configuration at path.
func Load(path string) (*Runtime, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, plcerr.Wrap(plcerr.ConfigInvalid, "reading runtime config "+path, err)
	}

	var rt Runtime
	if err := json.Unmarshal(data, &rt); err != nil {
		return nil, plcerr.Wrap(plcerr.ConfigInvalid, "parsing runtime config "+path, err)
	}

	if rt.ControlProgramPath == "" {
		return nil, plcerr.New(plcerr.ConfigInvalid, "control_program_path is required")
	}
	if rt.ControlSocketPath == "" {
		return nil, plcerr.New(plcerr.ConfigInvalid, "control_socket_path is required")
	}
	if len(rt.Plugins) > plugindriver.MaxPlugins {
		return nil, plcerr.New(plcerr.ConfigInvalid, "too many plugins configured")
	}

	return &rt, nil
}
