package config

import (
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// DefaultConfigFile is picked up from the working directory when present
const DefaultConfigFile = "migration-analyzer.toml"

// Config holds all configuration for an analysis run
type Config struct {
	SourceRoot  string `koanf:"source_root"`
	RuleCatalog string `koanf:"rule_catalog"` // Path to a TOML rule catalog; "" = built-in defaults

	AutoThreshold  float64 `koanf:"auto_threshold"`  // Risk below this counts as auto-migratable
	HighRiskFloor  float64 `koanf:"high_risk_floor"` // Risk at or above this lands in the ranking
	EffortBaseRate float64 `koanf:"effort_base_rate"`
	EffortDayRate  float64 `koanf:"effort_daily_rate"`

	FileSizeCapBytes int64    `koanf:"file_size_cap_bytes"`
	WorkerCount      int      `koanf:"worker_count"`
	FileSuffixes     []string `koanf:"file_suffixes"`
	ExcludeDirs      []string `koanf:"exclude_dirs"`
	Encoding         string   `koanf:"encoding"` // Legacy codepage for files without a BOM

	ReportOut string `koanf:"report_out"`
	Summary   bool   `koanf:"summary"`
	Watch     bool   `koanf:"watch"`
	Verbose   int    `koanf:"verbose"`
	JSONLogs  bool   `koanf:"json_logs"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"source_root":         ".",
		"rule_catalog":        "",
		"auto_threshold":      0.2,
		"high_risk_floor":     0.5,
		"effort_base_rate":    1.5,
		"effort_daily_rate":   800.0,
		"file_size_cap_bytes": int64(4 << 20),
		"worker_count":        runtime.NumCPU(),
		"file_suffixes":       []string{".bas", ".cls", ".frm", ".ctl", ".vbp"},
		"exclude_dirs":        []string{".git", ".svn"},
		"encoding":            "windows-1252",
		"report_out":          "migration-report.json",
		"summary":             false,
		"watch":               false,
		"verbose":             0,
		"json_logs":           false,
	}
}

// Load loads configuration from defaults, config file, environment variables,
// and flags. Priority: Flags > Env > Config File > Defaults. Keys outside the
// recognized set are an error, never silently ignored.
func Load(f *pflag.FlagSet) (*Config, error) {
	return load(f, DefaultConfigFile)
}

// LoadFile is Load with an explicit config file path (used by tests)
func LoadFile(f *pflag.FlagSet, path string) (*Config, error) {
	return load(f, path)
}

func load(f *pflag.FlagSet, configFile string) (*Config, error) {
	known := defaults()

	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(makeMapProvider(known), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file (optional; a present-but-broken file is an error)
	if _, err := os.Stat(configFile); err == nil {
		if err := k.Load(file.Provider(configFile), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configFile, err)
		}
	}

	// 3. Environment variables, e.g. MIGRATION_ANALYZER_WORKER_COUNT=4
	if err := k.Load(env.Provider("MIGRATION_ANALYZER_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "MIGRATION_ANALYZER_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	if err := rejectUnknownKeys(k, known); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.WorkerCount == 0 {
		cfg.WorkerCount = runtime.NumCPU()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// rejectUnknownKeys fails loading when any source supplied an option outside
// the recognized set
func rejectUnknownKeys(k *koanf.Koanf, known map[string]interface{}) error {
	var unknown []string
	for _, key := range k.Keys() {
		if _, ok := known[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("unrecognized config option(s): %s", strings.Join(unknown, ", "))
	}
	return nil
}

// Validate checks value ranges that koanf cannot express
func (c *Config) Validate() error {
	if c.AutoThreshold < 0 || c.AutoThreshold > 1 {
		return fmt.Errorf("auto_threshold must be in [0,1], got %g", c.AutoThreshold)
	}
	if c.HighRiskFloor < 0 || c.HighRiskFloor > 1 {
		return fmt.Errorf("high_risk_floor must be in [0,1], got %g", c.HighRiskFloor)
	}
	if c.WorkerCount < 0 {
		return fmt.Errorf("worker_count must not be negative, got %d", c.WorkerCount)
	}
	if c.FileSizeCapBytes < 1 {
		return fmt.Errorf("file_size_cap_bytes must be positive, got %d", c.FileSizeCapBytes)
	}
	if len(c.FileSuffixes) == 0 {
		return fmt.Errorf("file_suffixes must not be empty")
	}
	return nil
}

// Helper to use a map as a koanf provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
