package runpack

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config controls the contents of a run pack. It is usually loaded from
// runpack.yaml; every field has a default.
type Config struct {
	// IncludeMapping adds mapping.json to the pack and points
	// engine_input.json at it.
	IncludeMapping bool `yaml:"include_mapping"`

	InputFormat  string `yaml:"input_format"`  // auto, csv or json
	RoundingMode string `yaml:"rounding_mode"` // bankers or half_up
	Timezone     string `yaml:"timezone"`      // IANA name
	OutputDir    string `yaml:"output_dir"`
	Mode         string `yaml:"mode"` // local or ci

	Ruleset Ruleset       `yaml:"ruleset"`
	Mapping MappingConfig `yaml:"mapping"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		IncludeMapping: true,
		InputFormat:    "auto",
		RoundingMode:   "bankers",
		Timezone:       "UTC",
		OutputDir:      "output",
		Mode:           "local",
		Ruleset:        DefaultRuleset(),
		Mapping:        DefaultMapping(),
	}
}

// DefaultRuleset reconciles two sources, source_a and source_b, keyed
// by transaction_id.
func DefaultRuleset() Ruleset {
	return Ruleset{
		SchemaVersion:  "1.0.0",
		Sources:        []string{"source_a", "source_b"},
		KeyFields:      []string{"transaction_id"},
		AmountField:    "amount",
		CurrencyField:  "currency",
		TimestampField: "timestamp",
		AccountField:   "account",
	}
}

// DefaultMapping maps the columns of both default sources one to one.
func DefaultMapping() MappingConfig {
	identity := FieldMapping{
		ID:        "transaction_id",
		Amount:    "amount",
		Currency:  "currency",
		Timestamp: "timestamp",
		Account:   "account",
	}
	return MappingConfig{Sources: map[string]FieldMapping{
		"source_a": identity,
		"source_b": identity,
	}}
}

// LoadConfig loads configuration from a YAML file. A missing file yields
// the defaults; keys absent from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML configuration over the defaults.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()

	// a mapping in the file replaces the default sources rather than
	// being merged into them
	cfg.Mapping.Sources = nil

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Mapping.Sources == nil {
		cfg.Mapping = DefaultMapping()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values the engine would reject.
func (c *Config) Validate() error {
	switch c.InputFormat {
	case "auto", "csv", "json":
	default:
		return fmt.Errorf("unsupported input_format: %s", c.InputFormat)
	}
	switch c.RoundingMode {
	case "bankers", "half_up":
	default:
		return fmt.Errorf("unsupported rounding_mode: %s", c.RoundingMode)
	}
	switch c.Mode {
	case "local", "ci":
	default:
		return fmt.Errorf("unsupported mode: %s", c.Mode)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir must not be empty")
	}
	return nil
}
