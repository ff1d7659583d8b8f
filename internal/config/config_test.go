package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plcrun.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, `{
		"control_program_path": "/opt/plcrun/program.so",
		"control_socket_path": "/run/plcrun.sock",
		"tick_override_ms": 20,
		"plugins": [
			{"name": "s7comm", "artifact_path": "/opt/plcrun/plugins/s7comm.so", "config_path": "/etc/plcrun/s7comm.json", "enabled": true}
		]
	}`)

	rt, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/plcrun/program.so", rt.ControlProgramPath)
	require.Len(t, rt.Plugins, 1)
	assert.Equal(t, "s7comm", rt.Plugins[0].Name)
	assert.EqualValues(t, 20, rt.TickOverride().Milliseconds())
}

func TestLoadMissingControlProgramPathFails(t *testing.T) {
	path := writeConfig(t, `{"control_socket_path": "/run/plcrun.sock"}`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMalformedJSONFails(t *testing.T) {
	path := writeConfig(t, `{not json`)
	_, err := Load(path)
	assert.Error(t, err)
}
