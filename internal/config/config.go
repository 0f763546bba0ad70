// Package config loads boxrt.toml, the runtime configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"boxrt/internal/trace"
)

// FileName is the configuration file looked up by Find.
const FileName = "boxrt.toml"

// Config is the decoded configuration.
type Config struct {
	Heap  HeapConfig  `toml:"heap"`
	Trace TraceConfig `toml:"trace"`

	// Path is the file the configuration was loaded from, empty for defaults.
	Path string `toml:"-"`
}

// HeapConfig controls the allocator chain and invariant checking.
type HeapConfig struct {
	Debug    bool  `toml:"debug"`
	Poison   bool  `toml:"poison"`
	MaxBytes int64 `toml:"max_bytes"`
}

// TraceConfig mirrors the --trace* flags.
type TraceConfig struct {
	Level    string `toml:"level"`
	Mode     string `toml:"mode"`
	Output   string `toml:"output"`
	Format   string `toml:"format"`
	RingSize int    `toml:"ring_size"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Heap: HeapConfig{Poison: true},
		Trace: TraceConfig{
			Level:    "off",
			Mode:     "ring",
			Output:   "-",
			Format:   "auto",
			RingSize: 4096,
		},
	}
}

// Find walks up from startDir looking for boxrt.toml.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

// Load decodes path over the defaults and validates the result. Keys the
// file does not set keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Discover loads the nearest boxrt.toml above startDir, or returns the
// defaults when there is none.
func Discover(startDir string) (Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks value ranges and enumerations.
func (c Config) Validate() error {
	var errs []error
	if c.Heap.MaxBytes < 0 {
		errs = append(errs, fmt.Errorf("[heap].max_bytes must be >= 0, got %d", c.Heap.MaxBytes))
	}
	if _, err := trace.ParseLevel(c.Trace.Level); err != nil {
		errs = append(errs, fmt.Errorf("[trace].level: %w", err))
	}
	if _, err := trace.ParseMode(c.Trace.Mode); err != nil {
		errs = append(errs, fmt.Errorf("[trace].mode: %w", err))
	}
	if _, err := trace.ParseFormat(c.Trace.Format); err != nil {
		errs = append(errs, fmt.Errorf("[trace].format: %w", err))
	}
	if c.Trace.RingSize <= 0 {
		errs = append(errs, fmt.Errorf("[trace].ring_size must be > 0, got %d", c.Trace.RingSize))
	}
	return errors.Join(errs...)
}

// TracerConfig converts the [trace] section into a tracer configuration.
func (c Config) TracerConfig() (trace.Config, error) {
	level, err := trace.ParseLevel(c.Trace.Level)
	if err != nil {
		return trace.Config{}, err
	}
	mode, err := trace.ParseMode(c.Trace.Mode)
	if err != nil {
		return trace.Config{}, err
	}
	format, err := trace.ParseFormat(c.Trace.Format)
	if err != nil {
		return trace.Config{}, err
	}
	return trace.Config{
		Level:      level,
		Mode:       mode,
		Format:     format,
		OutputPath: c.Trace.Output,
		RingSize:   c.Trace.RingSize,
	}, nil
}
