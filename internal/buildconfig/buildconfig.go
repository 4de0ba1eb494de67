// Package buildconfig loads the YAML build configuration a blend65
// invocation reads for target addresses, ACME options, and diagnostic
// budgets (spec §4.9 ambient config). Structured after the teacher's
// `LoadSpec` convention: read file, unmarshal, validate required
// fields, no backward-compatibility shims.
package buildconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is one build's full configuration.
type Config struct {
	Target       string `yaml:"target"`
	Origin       int    `yaml:"origin"`
	CodeStart    int    `yaml:"code_start"`
	BasicStub    bool   `yaml:"basic_stub"`
	OutputPath   string `yaml:"output_path"`

	ZeroPageBase int `yaml:"zp_base"`
	ZeroPageSize int `yaml:"zp_size"`
	RAMBase      int `yaml:"ram_base"`

	SFAFrameBudgetBytes int `yaml:"sfa_frame_budget_bytes"`

	ACME ACMEConfig `yaml:"acme"`

	EntryModule string   `yaml:"entry_module"`
	Modules     []string `yaml:"modules"`
}

// ACMEConfig controls the external assembler invocation.
type ACMEConfig struct {
	BinaryPath   string `yaml:"binary_path"`
	TimeoutSecs  int    `yaml:"timeout_seconds"`
	EmitVICE     bool   `yaml:"emit_vice_labels"`
	VICEPath     string `yaml:"vice_labels_path"`
}

// knownTargets enumerates the platforms SPEC_FULL.md names; "c64" is
// the only one the code generator currently implements, but the field
// exists so a future platform (vic20, plus4) only needs a new default
// table, not a config schema change.
var knownTargets = map[string]bool{"c64": true}

// Default returns the C64 defaults (spec §4.9: origin $0801, code start
// $080D, BASIC stub enabled).
func Default() Config {
	return Config{
		Target:              "c64",
		Origin:              0x0801,
		CodeStart:           0x080D,
		BasicStub:           true,
		OutputPath:          "out.prg",
		ZeroPageBase:        0x02,
		ZeroPageSize:        0xF0,
		RAMBase:             0xC000,
		SFAFrameBudgetBytes: 2048,
		ACME: ACMEConfig{
			BinaryPath:  "acme",
			TimeoutSecs: 10,
		},
	}
}

// Load reads and validates a build configuration file. Fields absent
// from the YAML keep their Default() value rather than zeroing out,
// so a config file only needs to override what it changes.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("buildconfig: failed to read %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("buildconfig: failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the required fields and internally-consistent ranges
// a build configuration must satisfy before the pipeline runs.
func (c *Config) Validate() error {
	if c.Target == "" {
		return fmt.Errorf("buildconfig: missing required field: target")
	}
	if !knownTargets[c.Target] {
		return fmt.Errorf("buildconfig: unknown target %q", c.Target)
	}
	if len(c.Modules) == 0 && c.EntryModule == "" {
		return fmt.Errorf("buildconfig: at least one of entry_module or modules must be set")
	}
	if c.Origin < 0 || c.Origin > 0xFFFF {
		return fmt.Errorf("buildconfig: origin $%04X out of 16-bit address range", c.Origin)
	}
	if c.CodeStart < c.Origin {
		return fmt.Errorf("buildconfig: code_start $%04X must not precede origin $%04X", c.CodeStart, c.Origin)
	}
	if c.ZeroPageSize < 0 || c.ZeroPageBase+c.ZeroPageSize > 0x100 {
		return fmt.Errorf("buildconfig: zero-page region [$%02X, $%02X) exceeds page boundary", c.ZeroPageBase, c.ZeroPageBase+c.ZeroPageSize)
	}
	return nil
}
