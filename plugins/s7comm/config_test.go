package s7comm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFallsBackToDefaultsWhenMissing(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, defaultPDUSize, cfg.PDUSize)
}

func TestValidateRejectsPDUSizeOutOfRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PDUSize = 100
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsDuplicateDBNumbers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataBlocks = []DataBlock{
		{DBNumber: 1, SizeBytes: 2, Mapping: Mapping{BufferType: "int_memory"}},
		{DBNumber: 1, SizeBytes: 2, Mapping: Mapping{BufferType: "int_memory"}},
	}
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsUnknownBufferType(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataBlocks = []DataBlock{
		{DBNumber: 1, SizeBytes: 2, Mapping: Mapping{BufferType: "not_a_real_type"}},
	}
	assert.Error(t, cfg.Validate())
}

func TestLoadConfigParsesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s7comm.json")
	body := `{
		"enabled": true,
		"bind_address": "0.0.0.0",
		"port": 102,
		"pdu_size": 480,
		"data_blocks": [
			{"db_number": 1, "size_bytes": 2, "mapping": {"type": "int_memory", "start_buffer": 0}}
		]
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Len(t, cfg.DataBlocks, 1)
	assert.Equal(t, 1, cfg.DataBlocks[0].DBNumber)
}
