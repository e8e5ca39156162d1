// =============================================================================
// Bulk PAYE - Configuration Module
// =============================================================================
//
// Loads the application configuration.
//
// SOURCES (later wins):
//   1. config.yaml (optional; path from --config)
//   2. Built-in defaults for anything left empty
//   3. Environment variables, including a .env file in the working directory:
//        PAYE_TIER, PAYE_LOG_LEVEL, PAYE_QUOTA_STORE, REDIS_ADDRESS
//
// The result is validated with struct tags before it is returned.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/fiquant/taxpro-bulk/internal/quota"
	"github.com/fiquant/taxpro-bulk/internal/spreadsheet"
	"github.com/fiquant/taxpro-bulk/internal/types"
)

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the application configuration.
type Config struct {
	// OutputDir receives templates, exports and failure logs.
	OutputDir string `yaml:"output_dir" validate:"required"`

	// ArchiveDir receives copies of processed uploads. Empty disables it.
	ArchiveDir string `yaml:"archive_dir"`

	// LogFile, when set, receives logs instead of stdout.
	LogFile string `yaml:"log_file"`

	LogLevel  string `yaml:"log_level" validate:"oneof=debug info warn warning error"`
	LogFormat string `yaml:"log_format" validate:"oneof=text json"`

	// Tier is the subscription tier used when a command gets no --tier.
	Tier string `yaml:"tier" validate:"oneof=free starter pro premium enterprise"`

	// OutputNameFormat names exports. Placeholders: {company}, {period},
	// {uuid}, {timestamp}, {date}.
	OutputNameFormat string `yaml:"output_name_format" validate:"required"`

	Import     ImportConfig     `yaml:"import"`
	Quota      QuotaConfig      `yaml:"quota"`
	Batch      BatchConfig      `yaml:"batch"`
	Calculator CalculatorConfig `yaml:"calculator"`
	Company    CompanyConfig    `yaml:"company"`
}

// ImportConfig controls the spreadsheet parser.
type ImportConfig struct {
	Encoding       string `yaml:"encoding" validate:"oneof=auto utf-8 windows-1252"`
	HeaderScanRows int    `yaml:"header_scan_rows" validate:"min=1,max=10000"`
}

// QuotaConfig selects and configures the quota store.
type QuotaConfig struct {
	// Store is "file", "redis" or "memory".
	Store string `yaml:"store" validate:"oneof=file redis memory"`

	Path         string `yaml:"path" validate:"required_if=Store file"`
	Namespace    string `yaml:"namespace" validate:"required"`
	RedisAddress string `yaml:"redis_address" validate:"required_if=Store redis"`

	// ProStaffLimit overrides quota.ProStaffLimit when > 0.
	ProStaffLimit int `yaml:"pro_staff_limit" validate:"min=0"`
}

// BatchConfig controls the orchestrator.
type BatchConfig struct {
	// Workers is the number of concurrent calculator calls. 1 is sequential.
	Workers int `yaml:"workers" validate:"min=1,max=64"`
}

// CalculatorConfig configures the built-in flat-rate calculator. Zero values
// are replaced by defaults.
type CalculatorConfig struct {
	TaxRate          float64 `yaml:"tax_rate" validate:"gt=0,lte=1"`
	BIKInclusionRate float64 `yaml:"bik_inclusion_rate" validate:"gt=0,lte=1"`
}

// CompanyConfig supplies defaults for the export CompanyContext.
type CompanyConfig struct {
	Name      string `yaml:"name"`
	TaxID     string `yaml:"tax_id"`
	Authority string `yaml:"authority"`
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads, completes and validates the configuration.
//
// PARAMETERS:
//   - configPath: path to a YAML file. Empty means defaults and environment
//                 only.
//
// RETURNS:
//   - The configuration.
//   - An error if the file cannot be read or parsed, or validation fails.
func Load(configPath string) (*Config, error) {
	var cfg Config

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyDefaults(&cfg)

	// .env is optional.
	_ = godotenv.Load()
	applyEnv(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./output"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.Tier == "" {
		cfg.Tier = string(quota.Free)
	}
	if cfg.OutputNameFormat == "" {
		cfg.OutputNameFormat = "paye_{company}_{period}_{timestamp}"
	}
	if cfg.Import.Encoding == "" {
		cfg.Import.Encoding = "auto"
	}
	if cfg.Import.HeaderScanRows == 0 {
		cfg.Import.HeaderScanRows = spreadsheet.DefaultHeaderScanRows
	}
	if cfg.Quota.Store == "" {
		cfg.Quota.Store = "file"
	}
	if cfg.Quota.Path == "" {
		cfg.Quota.Path = filepath.Join(".taxpro", "quota.yaml")
	}
	if cfg.Quota.Namespace == "" {
		cfg.Quota.Namespace = quota.DefaultNamespace
	}
	if cfg.Batch.Workers == 0 {
		cfg.Batch.Workers = 1
	}
	if cfg.Calculator.TaxRate == 0 {
		cfg.Calculator.TaxRate = 0.15
	}
	if cfg.Calculator.BIKInclusionRate == 0 {
		cfg.Calculator.BIKInclusionRate = 0.5
	}
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("PAYE_TIER")); v != "" {
		cfg.Tier = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv("PAYE_LOG_LEVEL")); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv("PAYE_QUOTA_STORE")); v != "" {
		cfg.Quota.Store = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv("REDIS_ADDRESS")); v != "" {
		cfg.Quota.RedisAddress = v
	}
}

var validate = validator.New()

// Validate checks cfg against its struct tags. Field errors are reported
// as "Section.Field: tag".
func Validate(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		msgs = append(msgs, fmt.Sprintf("%s: %s", field, fe.Tag()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// DefaultTier is the configured tier.
func (c *Config) DefaultTier() quota.Tier {
	return quota.Tier(c.Tier)
}

// QuotaLimits is the tier table with the configured pro staff limit.
func (c *Config) QuotaLimits() quota.LimitTable {
	return quota.DefaultLimits(c.Quota.ProStaffLimit)
}

// ParserOptions converts the import section.
func (c *Config) ParserOptions() spreadsheet.Options {
	return spreadsheet.Options{Encoding: c.Import.Encoding, HeaderScanRows: c.Import.HeaderScanRows}
}

// CompanyContext fills the configured company details for a period. name
// overrides the configured company name when non-empty.
func (c *Config) CompanyContext(name, month string, year int) types.CompanyContext {
	if name == "" {
		name = c.Company.Name
	}
	return types.CompanyContext{
		Name:      name,
		TaxID:     c.Company.TaxID,
		Authority: c.Company.Authority,
		Month:     month,
		Year:      year,
	}
}
