// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Pipeline stage names accepted in STAGES
const (
	StageMerge = "merge"
	StageModel = "model"
)

// SnowflakeScheme prefixes source locations that are read from Snowflake
const SnowflakeScheme = "snowflake://"

// Config represents the application configuration
type Config struct {
	// Input datasets
	RegistryPath       string
	GDPPerCapitaPath   string
	GVABasicPricesPath string
	GVABySectorPath    string

	// Outputs
	MergedOutputPath string
	MergedXLSXPath   string
	MergedSQLitePath string
	ReportPath       string
	PlotPath         string

	// Modeling input (independent of the merge output)
	ModelInputPath string

	// Column names
	RegionColumn        string
	RegistryYearColumn  string
	IndicatorYearColumn string
	TargetColumn        string

	// Modeling settings
	TestSize   float64
	RandomSeed int64

	// Loading
	CSVDelimiter    rune
	XLSXSheet       string
	LoadConcurrency int
	Stages          []string

	// Database connections, nil unless needed
	Snowflake      *SnowflakeConfig
	Postgres       *PostgresConfig
	ExportPostgres bool

	// Logging
	LogLevel  string
	LogFormat string
}

// LoadConfig loads configuration from environment variables.
// A .env file in the working directory is read first when present.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		RegistryPath:       getEnv("GI_REGISTRY_PATH", "Catalunya_GI_Data.csv"),
		GDPPerCapitaPath:   getEnv("GDP_PER_CAPITA_PATH", "2025-3-15 GDP and GDP per inhabitant. Counties and Aran.csv"),
		GVABasicPricesPath: getEnv("GVA_BASIC_PRICES_PATH", "2025-3-18 GVA at basic prices. By branches of activity. At current prices.csv"),
		GVABySectorPath:    getEnv("GVA_BY_SECTOR_PATH", "2025-3-18 GVA. By sectors. Counties.csv"),

		MergedOutputPath: getEnv("MERGED_OUTPUT_PATH", "Merged_Catalonia_GI_Economic_Data.csv"),
		MergedXLSXPath:   getEnv("MERGED_XLSX_PATH", ""),
		MergedSQLitePath: getEnv("MERGED_SQLITE_PATH", ""),
		ReportPath:       getEnv("REPORT_PATH", ""),
		PlotPath:         getEnv("PLOT_PATH", ""),

		ModelInputPath: getEnv("MODEL_INPUT_PATH", "Cleaned_Catalunya_GI_Data.csv"),

		RegionColumn:        getEnv("REGION_COLUMN", "Region"),
		RegistryYearColumn:  getEnv("REGISTRY_YEAR_COLUMN", "Year of Registration"),
		IndicatorYearColumn: getEnv("INDICATOR_YEAR_COLUMN", "Year"),
		TargetColumn:        getEnv("TARGET_COLUMN", "impact_on_economy"),

		TestSize:   getEnvAsFloat("TEST_SIZE", 0.2),
		RandomSeed: int64(getEnvAsInt("RANDOM_SEED", 42)),

		CSVDelimiter:    getEnvAsRune("CSV_DELIMITER", ','),
		XLSXSheet:       getEnv("XLSX_SHEET", ""),
		LoadConcurrency: getEnvAsInt("LOAD_CONCURRENCY", 1),
		Stages:          getEnvAsStringSlice("STAGES", []string{StageMerge, StageModel}),

		ExportPostgres: getEnvAsBool("EXPORT_POSTGRES", false),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	// Database configurations are only required when something uses them
	if cfg.UsesSnowflake() {
		snowConfig, err := LoadSnowflakeConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load Snowflake configuration: %w", err)
		}
		cfg.Snowflake = snowConfig
	}

	if cfg.ExportPostgres {
		pgConfig, err := LoadPostgresConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load PostgreSQL configuration: %w", err)
		}
		cfg.Postgres = pgConfig
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	paths := map[string]string{
		"GI_REGISTRY_PATH":      c.RegistryPath,
		"GDP_PER_CAPITA_PATH":   c.GDPPerCapitaPath,
		"GVA_BASIC_PRICES_PATH": c.GVABasicPricesPath,
		"GVA_BY_SECTOR_PATH":    c.GVABySectorPath,
		"MERGED_OUTPUT_PATH":    c.MergedOutputPath,
		"MODEL_INPUT_PATH":      c.ModelInputPath,
	}
	for key, value := range paths {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s cannot be empty", key)
		}
	}

	if c.RegionColumn == "" || c.RegistryYearColumn == "" || c.IndicatorYearColumn == "" {
		return errors.New("region and year column names are required")
	}

	if c.TargetColumn == "" {
		return errors.New("target column is required")
	}

	if c.TestSize <= 0 || c.TestSize >= 1 {
		return errors.New("test size must be between 0 and 1 (exclusive)")
	}

	if c.LoadConcurrency < 1 {
		return errors.New("load concurrency must be at least 1")
	}

	if len(c.Stages) == 0 {
		return errors.New("at least one stage is required")
	}
	for _, stage := range c.Stages {
		if stage != StageMerge && stage != StageModel {
			return fmt.Errorf("unknown stage %q (expected %q or %q)", stage, StageMerge, StageModel)
		}
	}

	if c.UsesSnowflake() && c.Snowflake == nil {
		return errors.New("snowflake configuration is required for snowflake:// sources")
	}

	if c.ExportPostgres && c.Postgres == nil {
		return errors.New("postgreSQL configuration is required when EXPORT_POSTGRES is set")
	}

	return nil
}

// UsesSnowflake reports whether any input is read from Snowflake
func (c *Config) UsesSnowflake() bool {
	for _, p := range c.InputPaths() {
		if strings.HasPrefix(p, SnowflakeScheme) {
			return true
		}
	}
	return false
}

// InputPaths returns every configured source location
func (c *Config) InputPaths() []string {
	return []string{
		c.RegistryPath,
		c.GDPPerCapitaPath,
		c.GVABasicPricesPath,
		c.GVABySectorPath,
		c.ModelInputPath,
	}
}

// HasStage reports whether a stage is enabled
func (c *Config) HasStage(stage string) bool {
	for _, s := range c.Stages {
		if s == stage {
			return true
		}
	}
	return false
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsRune reads a single-character setting; "\t" and "tab" mean a tab
func getEnvAsRune(key string, defaultValue rune) rune {
	valueStr := getEnv(key, "")
	switch valueStr {
	case "":
		return defaultValue
	case `\t`, "tab":
		return '\t'
	}

	runes := []rune(valueStr)
	if len(runes) != 1 {
		return defaultValue
	}
	return runes[0]
}

// Helper function to parse a comma-separated list from environment
func getEnvAsStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var result []string
	for _, v := range strings.Split(value, ",") {
		v = strings.TrimSpace(v)
		if v != "" {
			result = append(result, v)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}

	return result
}
