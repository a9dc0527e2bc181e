package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Project struct {
		Root       string   `yaml:"root"`
		IgnoreDirs []string `yaml:"ignore_dirs"`
	} `yaml:"project"`
	Scan struct {
		IncludeMain bool `yaml:"include_main"` // keep `fn main` in the inventory
		Workers     int  `yaml:"workers"`      // 0 means one per CPU
	} `yaml:"scan"`
	Storage struct {
		DBPath string `yaml:"db_path"`
	} `yaml:"storage"`
	Report struct {
		OutputDir string `yaml:"output_dir"`
	} `yaml:"report"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	var cfg Config
	cfg.Project.Root = "."
	cfg.Storage.DBPath = "rustmap.db"
	cfg.Report.OutputDir = "docs"
	return &cfg
}

// LoadConfig reads the YAML config at path, after loading .env, and applies
// RUSTMAP_* environment overrides. A missing config file is not an error:
// defaults plus overrides are returned.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	cfg := Default()

	// 2. Load YAML config
	file, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	// 3. Override with environment variables if present
	if root := os.Getenv("RUSTMAP_ROOT"); root != "" {
		cfg.Project.Root = root
	}
	if dbPath := os.Getenv("RUSTMAP_DB_PATH"); dbPath != "" {
		cfg.Storage.DBPath = dbPath
	}
	if outDir := os.Getenv("RUSTMAP_REPORT_DIR"); outDir != "" {
		cfg.Report.OutputDir = outDir
	}
	if includeMain := os.Getenv("RUSTMAP_INCLUDE_MAIN"); includeMain != "" {
		if v, err := strconv.ParseBool(includeMain); err == nil {
			cfg.Scan.IncludeMain = v
		}
	}

	return cfg, nil
}
