package session

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"cuelang.org/go/cue/cuecontext"

	"github.com/GeorgieTragnar/cprime-sub000/internal/diag"
)

//go:embed schema.cue
var configSchema []byte

// Config carries the tunable knobs of a compilation session.
type Config struct {
	// ExecTimeout bounds each meta-execution script invocation. Zero
	// selects the runtime default.
	ExecTimeout time.Duration

	// Severity is the effective severity policy, defaults overlaid with
	// any per-kind overrides from the config file.
	Severity map[diag.ErrorKind]diag.Severity
}

// DefaultConfig returns a config with the built-in severity policy and no
// timeout override.
func DefaultConfig() *Config {
	return &Config{Severity: diag.DefaultPolicy()}
}

// rawConfig mirrors the schema for decoding.
type rawConfig struct {
	ExecTimeoutMS int64             `json:"execTimeoutMs"`
	Severity      map[string]string `json:"severity"`
}

// LoadConfig reads a CUE config file and validates it against the embedded
// schema. An empty path yields the defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig unifies config bytes with the schema and decodes them.
func ParseConfig(data []byte) (*Config, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileBytes(configSchema)
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compiling config schema: %w", err)
	}
	value := schema.Unify(ctx.CompileBytes(data))
	if err := value.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	var raw rawConfig
	if err := value.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	cfg := DefaultConfig()
	cfg.ExecTimeout = time.Duration(raw.ExecTimeoutMS) * time.Millisecond
	for kind, name := range raw.Severity {
		sev, err := diag.ParseSeverity(name)
		if err != nil {
			return nil, fmt.Errorf("severity for %s: %w", kind, err)
		}
		cfg.Severity[diag.ErrorKind(kind)] = sev
	}
	return cfg, nil
}
