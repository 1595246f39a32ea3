package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML configs can use "15s" / "5m" notation.
type Duration time.Duration

// UnmarshalYAML parses a duration string scalar
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration back as a string scalar
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// SimulationConfig holds the complete simulation configuration
type SimulationConfig struct {
	// Basic simulation settings
	Simulation SimulationSettings `yaml:"simulation"`

	// World generation settings
	World WorldConfig `yaml:"world"`

	// Fleet composition
	Fleet FleetConfig `yaml:"fleet"`

	// Mission scheduling
	Mission MissionConfig `yaml:"mission"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging"`

	// Advanced options
	Advanced AdvancedConfig `yaml:"advanced"`
}

// SimulationSettings holds basic simulation settings
type SimulationSettings struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	TickRate    float64  `yaml:"tick_rate"` // Hz
	Duration    Duration `yaml:"duration"`
	Seed        int64    `yaml:"seed"`
}

// WorldConfig defines the simulated arena
type WorldConfig struct {
	Width        float64 `yaml:"width"`  // meters
	Height       float64 `yaml:"height"` // meters
	NumObstacles int     `yaml:"num_obstacles"`
	CellSize     float64 `yaml:"cell_size"` // nav grid resolution, meters
}

// FleetConfig defines how many robots of each size class deploy
type FleetConfig struct {
	NumSmall  int    `yaml:"num_small"`
	NumMedium int    `yaml:"num_medium"`
	NumLarge  int    `yaml:"num_large"`
	NumHubs   int    `yaml:"num_hubs"`
	Formation string `yaml:"formation"` // "line", "circle", "grid", "zones"
}

// MissionConfig defines the scripted mission schedule
type MissionConfig struct {
	Type       string   `yaml:"type"` // "survey", "intercept", "search_classify", "perimeter"
	AutoStart  bool     `yaml:"auto_start"`
	StartDelay Duration `yaml:"start_delay"`
}

// LoggingConfig defines logging and reporting settings
type LoggingConfig struct {
	ConsoleLevel    string   `yaml:"console_level"` // "debug", "info", "warn", "error"
	EnableReport    bool     `yaml:"enable_report"`
	ReportPath      string   `yaml:"report_path"`
	StatusInterval  Duration `yaml:"status_interval"`
	EventBufferSize int      `yaml:"event_buffer_size"`
}

// AdvancedConfig defines advanced simulation options
type AdvancedConfig struct {
	RecorderCapacity int  `yaml:"recorder_capacity"` // ring buffer frames
	GustSchedule     bool `yaml:"gust_schedule"`     // periodic scripted gusts
	FaultInjection   bool `yaml:"fault_injection"`   // scripted node failures
	ByzantineNodes   int  `yaml:"byzantine_nodes"`   // members marked adversarial at start
	VerboseLogging   bool `yaml:"verbose_logging"`
}

var validFormations = []string{"line", "circle", "grid", "zones"}

var validMissionTypes = []string{"survey", "intercept", "search_classify", "perimeter"}

// Validate checks if the configuration is valid
func (c *SimulationConfig) Validate() error {
	if c.Simulation.Name == "" {
		return fmt.Errorf("simulation name is required")
	}

	if c.Simulation.TickRate <= 0 {
		return fmt.Errorf("tick rate must be positive")
	}

	if c.Simulation.Duration <= 0 {
		return fmt.Errorf("duration must be positive")
	}

	if c.World.Width <= 0 || c.World.Height <= 0 {
		return fmt.Errorf("world dimensions must be positive")
	}

	if c.World.CellSize <= 0 {
		return fmt.Errorf("nav grid cell size must be positive")
	}

	if c.World.NumObstacles < 0 {
		return fmt.Errorf("number of obstacles cannot be negative")
	}

	total := c.Fleet.NumSmall + c.Fleet.NumMedium + c.Fleet.NumLarge + c.Fleet.NumHubs
	if total <= 0 {
		return fmt.Errorf("fleet must contain at least one robot")
	}

	if !contains(validFormations, c.Fleet.Formation) {
		return fmt.Errorf("formation must be one of %v", validFormations)
	}

	if c.Mission.AutoStart && !contains(validMissionTypes, c.Mission.Type) {
		return fmt.Errorf("mission type must be one of %v", validMissionTypes)
	}

	if c.Advanced.RecorderCapacity <= 0 {
		return fmt.Errorf("recorder capacity must be positive")
	}

	if c.Advanced.ByzantineNodes < 0 || c.Advanced.ByzantineNodes > total {
		return fmt.Errorf("byzantine node count must be between 0 and fleet size")
	}

	return nil
}

func contains(valid []string, v string) bool {
	for _, s := range valid {
		if s == v {
			return true
		}
	}
	return false
}

// String returns a human-readable representation of the configuration
func (c *SimulationConfig) String() string {
	return fmt.Sprintf(`Simulation Configuration:
  Name: %s
  Description: %s
  Tick Rate: %.1f Hz
  Duration: %v
  Seed: %d

World:
  Arena: %.0fx%.0f m
  Obstacles: %d
  Nav Cell Size: %.1f m

Fleet:
  Small: %d
  Medium: %d
  Large: %d
  Hubs: %d
  Formation: %s

Mission:
  Type: %s
  Auto Start: %t
  Start Delay: %v

Logging:
  Console Level: %s
  Report Enabled: %t
  Status Interval: %v`,
		c.Simulation.Name,
		c.Simulation.Description,
		c.Simulation.TickRate,
		c.Simulation.Duration,
		c.Simulation.Seed,
		c.World.Width,
		c.World.Height,
		c.World.NumObstacles,
		c.World.CellSize,
		c.Fleet.NumSmall,
		c.Fleet.NumMedium,
		c.Fleet.NumLarge,
		c.Fleet.NumHubs,
		c.Fleet.Formation,
		c.Mission.Type,
		c.Mission.AutoStart,
		c.Mission.StartDelay,
		c.Logging.ConsoleLevel,
		c.Logging.EnableReport,
		c.Logging.StatusInterval,
	)
}

// GetDefaultConfig returns the reference patrol scenario configuration
func GetDefaultConfig() *SimulationConfig {
	return &SimulationConfig{
		Simulation: SimulationSettings{
			Name:        "swarm-patrol",
			Description: "Heterogeneous aerial patrol with WPT nesting and mesh consensus",
			TickRate:    10,
			Duration:    Duration(5 * time.Minute),
			Seed:        1,
		},

		World: WorldConfig{
			Width:        240,
			Height:       160,
			NumObstacles: 14,
			CellSize:     2.0,
		},

		Fleet: FleetConfig{
			NumSmall:  8,
			NumMedium: 4,
			NumLarge:  2,
			NumHubs:   1,
			Formation: "zones",
		},

		Mission: MissionConfig{
			Type:       "search_classify",
			AutoStart:  true,
			StartDelay: Duration(15 * time.Second),
		},

		Logging: LoggingConfig{
			ConsoleLevel:    "info",
			EnableReport:    true,
			ReportPath:      "./reports/",
			StatusInterval:  Duration(10 * time.Second),
			EventBufferSize: 1000,
		},

		Advanced: AdvancedConfig{
			RecorderCapacity: 600,
			GustSchedule:     true,
			FaultInjection:   false,
			ByzantineNodes:   0,
			VerboseLogging:   false,
		},
	}
}
