package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*SimulationConfig, error) {
	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	// Read file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	var config SimulationConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// LoadConfigOrDefault loads config from file or returns default, with environment overrides
func LoadConfigOrDefault(path string) (*SimulationConfig, error) {
	var config *SimulationConfig
	var err error

	if path != "" {
		config, err = LoadConfig(path)
		if err != nil {
			// Log error but continue with default
			fmt.Printf("Warning: Could not load config from %s: %v\n", path, err)
			config = nil
		}
	}

	// Try default locations if no config loaded yet
	if config == nil {
		defaultPaths := []string{
			"config.yaml",
			"swarm-patrol.yaml",
			filepath.Join("cmd", "swarm-patrol", "config.yaml"),
		}

		for _, p := range defaultPaths {
			if _, err := os.Stat(p); err == nil {
				config, err = LoadConfig(p)
				if err == nil {
					fmt.Printf("Loaded config from: %s\n", p)
					break
				}
			}
		}
	}

	// Use default config if still no config loaded
	if config == nil {
		fmt.Println("Using default configuration")
		config = GetDefaultConfig()
	}

	// Always apply environment variable overrides
	MergeWithEnvironment(config)

	return config, nil
}

// SaveConfig saves configuration to a YAML file
func SaveConfig(config *SimulationConfig, path string) error {
	// Validate before saving
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Marshal to YAML
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}

	// Write file
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// MergeWithCLIOverrides applies CLI parameter overrides to the configuration
func MergeWithCLIOverrides(config *SimulationConfig, overrides map[string]interface{}) {
	for key, value := range overrides {
		switch key {
		case "num_small":
			if count, ok := value.(int); ok && count >= 0 {
				config.Fleet.NumSmall = count
			}
		case "num_medium":
			if count, ok := value.(int); ok && count >= 0 {
				config.Fleet.NumMedium = count
			}
		case "num_large":
			if count, ok := value.(int); ok && count >= 0 {
				config.Fleet.NumLarge = count
			}
		case "num_hubs":
			if count, ok := value.(int); ok && count >= 0 {
				config.Fleet.NumHubs = count
			}
		case "seed":
			if seed, ok := value.(int); ok {
				config.Simulation.Seed = int64(seed)
			}
		case "duration":
			if duration, ok := value.(time.Duration); ok && duration > 0 {
				config.Simulation.Duration = Duration(duration)
			}
		case "tick_rate":
			if rate, ok := value.(float64); ok && rate > 0 {
				config.Simulation.TickRate = rate
			}
		case "formation":
			if formation, ok := value.(string); ok && contains(validFormations, formation) {
				config.Fleet.Formation = formation
			}
		case "mission_type":
			if mission, ok := value.(string); ok && contains(validMissionTypes, mission) {
				config.Mission.Type = mission
			}
		case "byzantine_nodes":
			if count, ok := value.(int); ok && count >= 0 {
				config.Advanced.ByzantineNodes = count
			}
		case "fault_injection":
			if enable, ok := value.(bool); ok {
				config.Advanced.FaultInjection = enable
			}
		case "verbose_logging":
			if verbose, ok := value.(bool); ok {
				config.Advanced.VerboseLogging = verbose
			}
		case "log_level":
			if level, ok := value.(string); ok {
				validLevels := []string{"debug", "info", "warn", "error"}
				if contains(validLevels, level) {
					config.Logging.ConsoleLevel = level
				}
			}
		}
	}
}

// LoadConfigWithOverrides loads config and applies both environment and CLI overrides
func LoadConfigWithOverrides(path string, cliOverrides map[string]interface{}) (*SimulationConfig, error) {
	config, err := LoadConfigOrDefault(path)
	if err != nil {
		return nil, err
	}

	// Apply CLI overrides after environment variables
	if cliOverrides != nil {
		MergeWithCLIOverrides(config, cliOverrides)
	}

	// Final validation
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed after overrides: %w", err)
	}

	return config, nil
}

// MergeWithEnvironment merges config with environment variables
func MergeWithEnvironment(config *SimulationConfig) {
	if tickRate := os.Getenv("SWARMSIM_TICK_RATE"); tickRate != "" {
		if rate, err := strconv.ParseFloat(tickRate, 64); err == nil && rate > 0 {
			config.Simulation.TickRate = rate
		}
	}

	if duration := os.Getenv("SWARMSIM_DURATION"); duration != "" {
		if d, err := time.ParseDuration(duration); err == nil && d > 0 {
			config.Simulation.Duration = Duration(d)
		}
	}

	if seed := os.Getenv("SWARMSIM_SEED"); seed != "" {
		if s, err := strconv.ParseInt(seed, 10, 64); err == nil {
			config.Simulation.Seed = s
		}
	}

	// Override fleet counts
	if numSmall := os.Getenv("SWARMSIM_NUM_SMALL"); numSmall != "" {
		if count, err := strconv.Atoi(numSmall); err == nil && count >= 0 {
			config.Fleet.NumSmall = count
		}
	}

	if numMedium := os.Getenv("SWARMSIM_NUM_MEDIUM"); numMedium != "" {
		if count, err := strconv.Atoi(numMedium); err == nil && count >= 0 {
			config.Fleet.NumMedium = count
		}
	}

	if numLarge := os.Getenv("SWARMSIM_NUM_LARGE"); numLarge != "" {
		if count, err := strconv.Atoi(numLarge); err == nil && count >= 0 {
			config.Fleet.NumLarge = count
		}
	}

	if numHubs := os.Getenv("SWARMSIM_NUM_HUBS"); numHubs != "" {
		if count, err := strconv.Atoi(numHubs); err == nil && count >= 0 {
			config.Fleet.NumHubs = count
		}
	}

	// Override formation
	if formation := os.Getenv("SWARMSIM_FORMATION"); formation != "" {
		if contains(validFormations, strings.ToLower(formation)) {
			config.Fleet.Formation = strings.ToLower(formation)
		}
	}

	// Override mission type
	if mission := os.Getenv("SWARMSIM_MISSION_TYPE"); mission != "" {
		if contains(validMissionTypes, strings.ToLower(mission)) {
			config.Mission.Type = strings.ToLower(mission)
		}
	}

	// Override logging level
	if logLevel := os.Getenv("SWARMSIM_LOG_LEVEL"); logLevel != "" {
		validLevels := []string{"debug", "info", "warn", "error"}
		if contains(validLevels, strings.ToLower(logLevel)) {
			config.Logging.ConsoleLevel = strings.ToLower(logLevel)
		}
	}

	// Override report settings
	if enableReport := os.Getenv("SWARMSIM_ENABLE_REPORT"); enableReport != "" {
		if enable, err := strconv.ParseBool(enableReport); err == nil {
			config.Logging.EnableReport = enable
		}
	}

	if reportPath := os.Getenv("SWARMSIM_REPORT_PATH"); reportPath != "" {
		config.Logging.ReportPath = reportPath
	}

	if verboseLogging := os.Getenv("SWARMSIM_VERBOSE_LOGGING"); verboseLogging != "" {
		if enable, err := strconv.ParseBool(verboseLogging); err == nil {
			config.Advanced.VerboseLogging = enable
		}
	}
}
