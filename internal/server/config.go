package server

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/spf13/viper"

	"github.com/botarena/holdem/internal/engine"
)

// Hand-control policies.
const (
	HandControlAuto     = "auto"
	HandControlOperator = "operator"
)

// Decision-clock timeout policies.
const (
	TimeoutPause = "pause"
	TimeoutAuto  = "auto"
)

// Config is the complete host configuration.
type Config struct {
	Server ServerSettings `hcl:"server,block"`
	Table  TableSettings  `hcl:"table,block"`
	Seats  []SeatLock     `hcl:"seat,block"`
}

// ServerSettings contains listener-level configuration.
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// TableSettings defines the single tournament table.
type TableSettings struct {
	ID                  string `hcl:"id,optional"`
	Seats               int    `hcl:"seats,optional"`
	StartingStack       int    `hcl:"starting_stack,optional"`
	SmallBlind          int    `hcl:"sb,optional"`
	BigBlind            int    `hcl:"bb,optional"`
	MoveTimeMS          int    `hcl:"move_time_ms,optional"`
	HandControl         string `hcl:"hand_control,optional"`
	TimeoutMode         string `hcl:"timeout_mode,optional"`
	Presentation        bool   `hcl:"presentation,optional"`
	PresentationDelayMS int    `hcl:"presentation_delay_ms,optional"`
}

// SeatLock reserves a seat for a team behind a join code. When any lock is
// configured the table only admits teams named by a lock.
type SeatLock struct {
	Team     string `hcl:"team,label"`
	JoinCode string `hcl:"join_code"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerSettings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
		},
		Table: TableSettings{
			ID:                  "table-1",
			Seats:               6,
			StartingStack:       10000,
			SmallBlind:          50,
			BigBlind:            100,
			MoveTimeMS:          10000,
			HandControl:         HandControlAuto,
			TimeoutMode:         TimeoutPause,
			PresentationDelayMS: 1500,
		},
	}
}

// LoadConfig reads an HCL configuration file, fills defaults, and layers
// ARENA_* environment overrides on top. A missing file yields the defaults.
func LoadConfig(filename string) (*Config, error) {
	config := DefaultConfig()

	if filename != "" {
		if _, err := os.Stat(filename); err != nil {
			return nil, fmt.Errorf("config file %s: %w", filename, err)
		}
		parser := hclparse.NewParser()
		file, diags := parser.ParseHCLFile(filename)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
		}
		var loaded Config
		if diags = gohcl.DecodeBody(file.Body, nil, &loaded); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
		}
		mergeDefaults(&loaded, config)
		config = &loaded
	}

	applyEnvOverrides(config)
	return config, nil
}

// mergeDefaults fills zero-valued fields of loaded from defaults.
func mergeDefaults(loaded, defaults *Config) {
	if loaded.Server.Address == "" {
		loaded.Server.Address = defaults.Server.Address
	}
	if loaded.Server.Port == 0 {
		loaded.Server.Port = defaults.Server.Port
	}
	if loaded.Server.LogLevel == "" {
		loaded.Server.LogLevel = defaults.Server.LogLevel
	}
	if loaded.Table.ID == "" {
		loaded.Table.ID = defaults.Table.ID
	}
	if loaded.Table.Seats == 0 {
		loaded.Table.Seats = defaults.Table.Seats
	}
	if loaded.Table.StartingStack == 0 {
		loaded.Table.StartingStack = defaults.Table.StartingStack
	}
	if loaded.Table.SmallBlind == 0 {
		loaded.Table.SmallBlind = defaults.Table.SmallBlind
	}
	if loaded.Table.BigBlind == 0 {
		loaded.Table.BigBlind = defaults.Table.BigBlind
	}
	if loaded.Table.MoveTimeMS == 0 {
		loaded.Table.MoveTimeMS = defaults.Table.MoveTimeMS
	}
	if loaded.Table.HandControl == "" {
		loaded.Table.HandControl = defaults.Table.HandControl
	}
	if loaded.Table.TimeoutMode == "" {
		loaded.Table.TimeoutMode = defaults.Table.TimeoutMode
	}
	if loaded.Table.PresentationDelayMS == 0 {
		loaded.Table.PresentationDelayMS = defaults.Table.PresentationDelayMS
	}
}

// applyEnvOverrides layers ARENA_* environment variables over the file.
func applyEnvOverrides(config *Config) {
	v := viper.New()
	v.SetEnvPrefix("arena")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, set := range map[string]func(){
		"address":               func() { config.Server.Address = v.GetString("address") },
		"port":                  func() { config.Server.Port = v.GetInt("port") },
		"log_level":             func() { config.Server.LogLevel = v.GetString("log_level") },
		"table_id":              func() { config.Table.ID = v.GetString("table_id") },
		"seats":                 func() { config.Table.Seats = v.GetInt("seats") },
		"starting_stack":        func() { config.Table.StartingStack = v.GetInt("starting_stack") },
		"sb":                    func() { config.Table.SmallBlind = v.GetInt("sb") },
		"bb":                    func() { config.Table.BigBlind = v.GetInt("bb") },
		"move_time_ms":          func() { config.Table.MoveTimeMS = v.GetInt("move_time_ms") },
		"hand_control":          func() { config.Table.HandControl = v.GetString("hand_control") },
		"timeout_mode":          func() { config.Table.TimeoutMode = v.GetString("timeout_mode") },
		"presentation":          func() { config.Table.Presentation = v.GetBool("presentation") },
		"presentation_delay_ms": func() { config.Table.PresentationDelayMS = v.GetInt("presentation_delay_ms") },
	} {
		if v.IsSet(key) {
			set()
		}
	}
}

// Validate checks the configuration before the host starts.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	t := c.Table
	if t.Seats < 2 || t.Seats > 10 {
		return fmt.Errorf("table seats must be between 2 and 10, got %d", t.Seats)
	}
	if t.StartingStack <= 0 {
		return fmt.Errorf("starting stack must be positive, got %d", t.StartingStack)
	}
	if t.SmallBlind <= 0 {
		return fmt.Errorf("small blind must be positive, got %d", t.SmallBlind)
	}
	if t.BigBlind < 2*t.SmallBlind {
		return fmt.Errorf("big blind %d must be at least twice the small blind %d", t.BigBlind, t.SmallBlind)
	}
	if t.MoveTimeMS <= 0 {
		return fmt.Errorf("move_time_ms must be positive, got %d", t.MoveTimeMS)
	}
	if t.PresentationDelayMS < 0 {
		return fmt.Errorf("presentation_delay_ms must not be negative, got %d", t.PresentationDelayMS)
	}

	switch t.HandControl {
	case HandControlAuto, HandControlOperator:
	default:
		return fmt.Errorf("hand_control must be %q or %q, got %q", HandControlAuto, HandControlOperator, t.HandControl)
	}
	switch t.TimeoutMode {
	case TimeoutPause, TimeoutAuto:
	default:
		return fmt.Errorf("timeout_mode must be %q or %q, got %q", TimeoutPause, TimeoutAuto, t.TimeoutMode)
	}

	if len(c.Seats) > t.Seats {
		return fmt.Errorf("%d seat locks configured for a %d-seat table", len(c.Seats), t.Seats)
	}
	seen := make(map[string]bool)
	for _, lock := range c.Seats {
		key := engine.TeamKey(lock.Team)
		if key == "" {
			return fmt.Errorf("seat lock with empty team name")
		}
		if lock.JoinCode == "" {
			return fmt.Errorf("seat lock for %s has no join code", lock.Team)
		}
		if seen[key] {
			return fmt.Errorf("duplicate seat lock for team %s", lock.Team)
		}
		seen[key] = true
	}
	return nil
}

// Engine derives the game-engine configuration for the table.
func (c *Config) Engine() engine.Config {
	return engine.Config{
		Seats:         c.Table.Seats,
		StartingStack: c.Table.StartingStack,
		SmallBlind:    c.Table.SmallBlind,
		BigBlind:      c.Table.BigBlind,
	}
}

// ListenAddress returns the host:port the listener binds.
func (c *Config) ListenAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
