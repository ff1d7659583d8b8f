/*
Config schema for the s7comm exemplar plugin, grounded on s7comm_config.h's
JSON-backed struct: server settings, PLC identity, a data-blocks array, and
three optional system areas, each carrying a mapping to an image-table
buffer-type/start/bit-addressing triple.
*/
package s7comm

import (
	"encoding/json"
	"os"

	"github.com/plcrun/plcrun/internal/buftype"
	"github.com/plcrun/plcrun/internal/plcerr"
)

const (
	defaultPort           = 102
	defaultMaxClients     = 32
	defaultWorkIntervalMS = 100
	defaultSendTimeoutMS  = 3000
	defaultRecvTimeoutMS  = 3000
	defaultPingTimeoutMS  = 10000
	defaultPDUSize        = 480

	minPDUSize = 240
	maxPDUSize = 960
)

// Mapping ties a region's bytes to an image-table range.
type Mapping struct {
	BufferType   string `json:"type"`
	StartBuffer  int    `json:"start_buffer"`
	BitAddressing bool  `json:"bit_addressing"`
}

// Tag resolves the mapping's buffer-type string to its ABI tag.
func (m Mapping) Tag() (buftype.Tag, error) {
	t, ok := buftype.ByName(m.BufferType)
	if !ok {
		return 0, plcerr.New(plcerr.ConfigInvalid, "unknown buffer type "+m.BufferType)
	}
	return t, nil
}

// DataBlock is one S7 data block's configuration.
type DataBlock struct {
	DBNumber    int     `json:"db_number"`
	Description string  `json:"description"`
	SizeBytes   int     `json:"size_bytes"`
	Mapping     Mapping `json:"mapping"`
}

// SystemArea is one of PE/PA/MK.
type SystemArea struct {
	Enabled   bool    `json:"enabled"`
	SizeBytes int     `json:"size_bytes"`
	Mapping   Mapping `json:"mapping"`
}

// Identity carries the PLC identity strings reported in SZL responses.
type Identity struct {
	Name         string `json:"name"`
	ModuleType   string `json:"module_type"`
	SerialNumber string `json:"serial_number"`
	Copyright    string `json:"copyright"`
	ModuleName   string `json:"module_name"`
}

// Logging toggles the plugin's own diagnostic verbosity, independent of
// the runtime's own log level.
type Logging struct {
	LogConnections bool `json:"log_connections"`
	LogDataAccess  bool `json:"log_data_access"`
	LogErrors      bool `json:"log_errors"`
}

// Config is the complete s7comm plugin configuration.
type Config struct {
	Enabled       bool         `json:"enabled"`
	BindAddress   string       `json:"bind_address"`
	Port          uint16       `json:"port"`
	MaxClients    int          `json:"max_clients"`
	WorkIntervalMS int         `json:"work_interval_ms"`
	SendTimeoutMS int          `json:"send_timeout_ms"`
	RecvTimeoutMS int          `json:"recv_timeout_ms"`
	PingTimeoutMS int          `json:"ping_timeout_ms"`
	PDUSize       int          `json:"pdu_size"`

	Identity Identity `json:"identity"`

	DataBlocks []DataBlock `json:"data_blocks"`

	PE SystemArea `json:"pe"`
	PA SystemArea `json:"pa"`
	MK SystemArea `json:"mk"`

	Logging Logging `json:"logging"`
}

// DefaultConfig returns a Config populated with s7comm_config_init_defaults'
// values.
func DefaultConfig() Config {
	return Config{
		Enabled:        true,
		BindAddress:    "0.0.0.0",
		Port:           defaultPort,
		MaxClients:     defaultMaxClients,
		WorkIntervalMS: defaultWorkIntervalMS,
		SendTimeoutMS:  defaultSendTimeoutMS,
		RecvTimeoutMS:  defaultRecvTimeoutMS,
		PingTimeoutMS:  defaultPingTimeoutMS,
		PDUSize:        defaultPDUSize,
	}
}

// LoadConfig parses the plugin's private JSON config file, falling back to
// defaults (merged over a zero-value Config) on a missing file, and
// validates the result. An invalid value refuses to start the plugin
// (spec.md §7: ConfigInvalid).
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, cfg.Validate()
		}
		return Config{}, plcerr.WrapPlugin(plcerr.ConfigInvalid, "s7comm", "reading config "+path, err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, plcerr.WrapPlugin(plcerr.ConfigInvalid, "s7comm", "parsing config "+path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the values s7comm_config_validate checks: PDU size
// range, unique non-zero DB numbers, and that every mapping names a known
// buffer type.
func (c Config) Validate() error {
	if c.PDUSize < minPDUSize || c.PDUSize > maxPDUSize {
		return plcerr.New(plcerr.ConfigInvalid, "pdu_size out of range 240..960")
	}

	seen := make(map[int]bool, len(c.DataBlocks))
	for _, db := range c.DataBlocks {
		if db.DBNumber < 1 || db.DBNumber > 65535 {
			return plcerr.New(plcerr.ConfigInvalid, "db_number out of range 1..65535")
		}
		if seen[db.DBNumber] {
			return plcerr.New(plcerr.ConfigInvalid, "duplicate db_number")
		}
		seen[db.DBNumber] = true
		if _, err := db.Mapping.Tag(); err != nil {
			return err
		}
	}

	for _, area := range []SystemArea{c.PE, c.PA, c.MK} {
		if !area.Enabled {
			continue
		}
		if _, err := area.Mapping.Tag(); err != nil {
			return err
		}
	}

	return nil
}
