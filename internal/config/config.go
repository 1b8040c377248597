// Package config holds engine configuration and resource-guard defaults,
// modeled on the teacher's internal/config package (mangle.go, limits.go).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CoreLimits are soft resource guards the engine logs warnings against but
// never enforces as hard failures — see SPEC_FULL.md §5. They are distinct
// from MaxCycles, which is a hard failure (ErrMaxCyclesExceeded).
type CoreLimits struct {
	// MaxFactsInMemory is a soft cap on working memory size, in the spirit of
	// the teacher's MaxFactsInKernel; crossing it logs a warning once.
	MaxFactsInMemory int `yaml:"max_facts_in_memory" json:"max_facts_in_memory"`

	// MaxAgendaSize is a soft cap on a single cycle's agenda size, in the
	// spirit of the teacher's MaxDerivedFactsLimit "gas limit"; crossing it
	// logs a warning, an early signal of runaway rule fan-out distinct from
	// MaxCyclesExceeded.
	MaxAgendaSize int `yaml:"max_agenda_size" json:"max_agenda_size"`
}

// DefaultCoreLimits returns production-sized defaults.
func DefaultCoreLimits() CoreLimits {
	return CoreLimits{
		MaxFactsInMemory: 100_000,
		MaxAgendaSize:    10_000,
	}
}

// EngineConfig configures an Engine's cycle loop.
type EngineConfig struct {
	// MaxCycles bounds run() against runaway rule chains (§4.6); default 100.
	MaxCycles int `yaml:"max_cycles" json:"max_cycles"`

	// Trace enables execution-trace recording (§4.6).
	Trace bool `yaml:"trace" json:"trace"`

	Limits CoreLimits `yaml:"limits" json:"limits"`
}

// DefaultEngineConfig returns the spec-mandated defaults: MaxCycles 100,
// tracing off.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MaxCycles: 100,
		Trace:     false,
		Limits:    DefaultCoreLimits(),
	}
}

// Load reads an EngineConfig from a YAML file at path, layered over
// DefaultEngineConfig. A missing file is not an error: Load returns the
// defaults unchanged, mirroring the teacher's config.Load fall-through.
func Load(path string) (EngineConfig, error) {
	cfg := DefaultEngineConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return EngineConfig{}, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return EngineConfig{}, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that configured values are within acceptable ranges.
func (c *EngineConfig) Validate() error {
	if c.MaxCycles < 1 {
		return fmt.Errorf("config: max_cycles must be >= 1")
	}
	if c.Limits.MaxFactsInMemory < 1 {
		return fmt.Errorf("config: max_facts_in_memory must be >= 1")
	}
	if c.Limits.MaxAgendaSize < 1 {
		return fmt.Errorf("config: max_agenda_size must be >= 1")
	}
	return nil
}
