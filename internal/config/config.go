//-------------------------------------------------------------------------
//
// pgEdge Vendor Summary
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package config handles configuration management for pgedge-vendorsummary.
// Configuration is loaded from config files and CLI flags (no environment variables).
// CLI flags take precedence over config file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Supported storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Supported export formats.
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

// Config holds all configuration for pgedge-vendorsummary.
type Config struct {
	// Driver selects the storage backend (sqlite, postgres).
	Driver string `mapstructure:"driver"`

	// Database is the DSN: a file path for sqlite, a connection string for postgres.
	Database string `mapstructure:"database"`

	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// LogFile receives an append-only copy of every log line. Empty disables it.
	LogFile string `mapstructure:"log_file"`

	// Run holds configuration for the run subcommand.
	Run RunConfig `mapstructure:"run"`

	// Seed holds configuration for the seed subcommand.
	Seed SeedConfig `mapstructure:"seed"`

	// Export holds configuration for the export subcommand.
	Export ExportConfig `mapstructure:"export"`
}

// RunConfig holds configuration for the summary pipeline.
type RunConfig struct {
	// Table is the destination table name.
	Table string `mapstructure:"table"`

	// BatchSize is the number of rows written per insert batch.
	BatchSize int `mapstructure:"batch_size"`

	// StrictLoad makes a load failure fail the run.
	StrictLoad bool `mapstructure:"strict_load"`

	// SampleRows is how many rows of each stage are logged at debug level.
	SampleRows int `mapstructure:"sample_rows"`
}

// SeedConfig holds configuration for synthetic data generation.
type SeedConfig struct {
	Vendors   int `mapstructure:"vendors"`
	Brands    int `mapstructure:"brands"`
	Purchases int `mapstructure:"purchases"`
	Sales     int `mapstructure:"sales"`
	Invoices  int `mapstructure:"invoices"`

	// Seed fixes the random sequence; 0 picks a time-based seed.
	Seed uint64 `mapstructure:"seed"`

	// DropExisting drops the source tables before generating.
	DropExisting bool `mapstructure:"drop_existing"`
}

// ExportConfig holds configuration for report export.
type ExportConfig struct {
	// Output is the destination file path.
	Output string `mapstructure:"output"`

	// Format is xlsx or csv.
	Format string `mapstructure:"format"`

	// Top limits the export to the first N rows (0 = all).
	Top int `mapstructure:"top"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Driver:   DriverSQLite,
		Database: "inventory.db",
		LogLevel: "info",
		LogFile:  filepath.Join("logs", "get_vendor_summary.log"),
		Run: RunConfig{
			Table:      "vendor_sales_summary",
			BatchSize:  5000,
			StrictLoad: false,
			SampleRows: 5,
		},
		Seed: SeedConfig{
			Vendors:   20,
			Brands:    200,
			Purchases: 10000,
			Sales:     20000,
			Invoices:  500,
		},
		Export: ExportConfig{
			Output: "vendor_sales_summary.xlsx",
			Format: FormatXLSX,
		},
	}
}

// Load reads configuration from config files.
// Config file locations (in order of precedence):
// 1. Path specified by configFile parameter
// 2. ./pgedge-vendorsummary.yaml
// 3. ~/.config/pgedge-vendorsummary/pgedge-vendorsummary.yaml
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("pgedge-vendorsummary")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "pgedge-vendorsummary"))
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Driver != DriverSQLite && c.Driver != DriverPostgres {
		return fmt.Errorf("driver must be '%s' or '%s'", DriverSQLite, DriverPostgres)
	}
	if c.Database == "" {
		return fmt.Errorf("database is required")
	}
	return nil
}

// ValidateRun checks configuration required for the run command.
func (c *Config) ValidateRun() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Run.Table == "" {
		return fmt.Errorf("destination table is required")
	}
	if c.Run.BatchSize < 1 {
		return fmt.Errorf("batch_size must be at least 1")
	}
	if c.Run.SampleRows < 0 {
		return fmt.Errorf("sample_rows must be non-negative")
	}
	return nil
}

// ValidateSeed checks configuration required for the seed command.
func (c *Config) ValidateSeed() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Seed.Vendors < 1 {
		return fmt.Errorf("vendors must be at least 1")
	}
	if c.Seed.Brands < 1 {
		return fmt.Errorf("brands must be at least 1")
	}
	if c.Seed.Purchases < 0 || c.Seed.Sales < 0 || c.Seed.Invoices < 0 {
		return fmt.Errorf("row counts must be non-negative")
	}
	return nil
}

// ValidateExport checks configuration required for the export command.
func (c *Config) ValidateExport() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Run.Table == "" {
		return fmt.Errorf("source table is required")
	}
	if c.Export.Output == "" {
		return fmt.Errorf("output path is required")
	}
	if c.Export.Format != FormatXLSX && c.Export.Format != FormatCSV {
		return fmt.Errorf("format must be '%s' or '%s'", FormatXLSX, FormatCSV)
	}
	if c.Export.Top < 0 {
		return fmt.Errorf("top must be non-negative")
	}
	return nil
}
