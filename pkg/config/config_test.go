package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

// missing returns a path no config file lives at, so defaults win
func missing(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "absent.toml")
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFile(nil, missing(t))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.SourceRoot != "." {
		t.Errorf("Expected source root '.', got %q", cfg.SourceRoot)
	}
	if cfg.AutoThreshold != 0.2 {
		t.Errorf("Expected auto threshold 0.2, got %g", cfg.AutoThreshold)
	}
	if cfg.Encoding != "windows-1252" {
		t.Errorf("Expected windows-1252, got %q", cfg.Encoding)
	}
	if cfg.WorkerCount != runtime.NumCPU() {
		t.Errorf("Expected worker count %d, got %d", runtime.NumCPU(), cfg.WorkerCount)
	}
	if len(cfg.FileSuffixes) != 5 {
		t.Errorf("Expected 5 default suffixes, got %v", cfg.FileSuffixes)
	}
	if cfg.ReportOut != "migration-report.json" {
		t.Errorf("Unexpected report path %q", cfg.ReportOut)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "migration-analyzer.toml")
	content := `
source_root = "/legacy/app"
auto_threshold = 0.3
file_suffixes = [".bas", ".cls"]
summary = true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(nil, path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.SourceRoot != "/legacy/app" {
		t.Errorf("Expected configured source root, got %q", cfg.SourceRoot)
	}
	if cfg.AutoThreshold != 0.3 {
		t.Errorf("Expected auto threshold 0.3, got %g", cfg.AutoThreshold)
	}
	if len(cfg.FileSuffixes) != 2 {
		t.Errorf("Expected file-level suffix override, got %v", cfg.FileSuffixes)
	}
	// Keys not in the file keep their defaults
	if cfg.HighRiskFloor != 0.5 {
		t.Errorf("Expected default high-risk floor, got %g", cfg.HighRiskFloor)
	}
	if !cfg.Summary {
		t.Error("Expected summary enabled")
	}
}

func TestLoadBrokenConfigFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "migration-analyzer.toml")
	if err := os.WriteFile(path, []byte("source_root = [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(nil, path); err == nil {
		t.Fatal("A present but unparsable config file must be an error")
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "migration-analyzer.toml")
	if err := os.WriteFile(path, []byte(`source_rot = "/typo"`), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadFile(nil, path)
	if err == nil {
		t.Fatal("Expected an error for an unrecognized option")
	}
	if !strings.Contains(err.Error(), "source_rot") {
		t.Errorf("Error should name the offending key, got: %v", err)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "migration-analyzer.toml")
	if err := os.WriteFile(path, []byte(`encoding = "windows-1251"`), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MIGRATION_ANALYZER_ENCODING", "iso-8859-1")

	cfg, err := LoadFile(nil, path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Encoding != "iso-8859-1" {
		t.Errorf("Environment should beat the config file, got %q", cfg.Encoding)
	}
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	t.Setenv("MIGRATION_ANALYZER_REPORT_OUT", "env.json")

	f := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f.String("report_out", "migration-report.json", "")
	if err := f.Set("report_out", "flag.json"); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(f, missing(t))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.ReportOut != "flag.json" {
		t.Errorf("Flags should beat the environment, got %q", cfg.ReportOut)
	}
}

func TestLoadUnsetFlagKeepsLowerLayers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "migration-analyzer.toml")
	if err := os.WriteFile(path, []byte(`report_out = "file.json"`), 0o644); err != nil {
		t.Fatal(err)
	}

	f := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f.String("report_out", "migration-report.json", "")

	cfg, err := LoadFile(f, path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.ReportOut != "file.json" {
		t.Errorf("An untouched flag default must not mask the file, got %q", cfg.ReportOut)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			AutoThreshold:    0.2,
			HighRiskFloor:    0.5,
			WorkerCount:      4,
			FileSizeCapBytes: 1 << 20,
			FileSuffixes:     []string{".bas"},
		}
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("Valid config rejected: %v", err)
	}

	c := base()
	c.AutoThreshold = 1.5
	if err := c.Validate(); err == nil {
		t.Error("Expected error for auto_threshold out of range")
	}

	c = base()
	c.WorkerCount = -1
	if err := c.Validate(); err == nil {
		t.Error("Expected error for negative worker_count")
	}

	c = base()
	c.FileSizeCapBytes = 0
	if err := c.Validate(); err == nil {
		t.Error("Expected error for zero size cap")
	}

	c = base()
	c.FileSuffixes = nil
	if err := c.Validate(); err == nil {
		t.Error("Expected error for empty suffix list")
	}
}
