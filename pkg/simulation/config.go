package simulation

// SimulationConfig is the manifest a simulation ships as simulation.yaml:
// identity plus the tunable parameters the CLI prompts for before a run.
type SimulationConfig struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Version     string      `yaml:"version"`
	Category    string      `yaml:"category"`
	Parameters  []Parameter `yaml:"parameters"`
}

// Parameter declares one tunable run parameter. Type is one of integer,
// float, string, duration or boolean; Min/Max bound the numeric types
// and Options enumerates the string ones.
type Parameter struct {
	Name        string      `yaml:"name"`
	Type        string      `yaml:"type"`
	Description string      `yaml:"description"`
	Default     interface{} `yaml:"default"`
	Required    bool        `yaml:"required"`
	Min         interface{} `yaml:"min,omitempty"`
	Max         interface{} `yaml:"max,omitempty"`
	Options     []string    `yaml:"options,omitempty"`
}
