// Package config provides configuration management for the lead pipeline.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	"github.com/Leanito/Leadsrecptives/internal/aggregator"
	"github.com/Leanito/Leadsrecptives/internal/classifier"
	"github.com/Leanito/Leadsrecptives/internal/filter"
	"github.com/Leanito/Leadsrecptives/internal/models"
)

// Configuration validation errors.
var (
	ErrNoColumns                = errors.New("at least one column definition is required")
	ErrColumnMissingKey         = errors.New("column key is required")
	ErrColumnMissingVariants    = errors.New("column requires at least one variant")
	ErrDuplicateColumnKey       = errors.New("column key defined more than once")
	ErrRequiredColumnNotDefined = errors.New("required canonical column is not defined")
	ErrRequiredColumnOptional   = errors.New("canonical column must be marked required")
	ErrNoValidValues            = errors.New("classification.valid must list at least one value")
	ErrNoInvalidValues          = errors.New("classification.invalid must list at least one value")
	ErrInvalidMaxAttempts       = errors.New("retry.max_attempts must be at least 1")
	ErrInvalidInitialDelay      = errors.New("retry.initial_delay_ms must be non-negative")
	ErrInvalidBackoffMultiplier = errors.New("retry.backoff_multiplier must be >= 1.0")
	ErrInvalidTimeout           = errors.New("retry.timeout_sec must be at least 1")
	ErrInvalidMaxBytes          = errors.New("source.max_bytes must be at least 1")
	ErrMissingOutputDir         = errors.New("output.dir is required")
	ErrInvalidSheetName         = errors.New("output.sheet_name must be 1 to 31 characters")
	ErrInvalidLogLevel          = errors.New("logging.level must be one of: debug, info, warn, error")
)

// requiredKeys must always be defined and required.
var requiredKeys = []string{models.KeyStatus, models.KeyConversionDate, models.KeySegmentCategory}

// Config represents the complete pipeline configuration.
type Config struct {
	Source         SourceConfig         `yaml:"source"`
	Columns        []ColumnConfig       `yaml:"columns"`
	Classification ClassificationConfig `yaml:"classification"`
	Filters        FiltersConfig        `yaml:"filters"`
	Situation      SituationConfig      `yaml:"situation"`
	Conversion     ConversionConfig     `yaml:"conversion"`
	Dates          DatesConfig          `yaml:"dates"`
	Retry          RetryPolicy          `yaml:"retry"`
	Output         OutputConfig         `yaml:"output"`
	Logging        LoggingConfig        `yaml:"logging"`
}

// SourceConfig describes where the lead table comes from.
type SourceConfig struct {
	Path     string `yaml:"path"`
	URL      string `yaml:"url"`
	Sheet    string `yaml:"sheet"`
	MaxBytes int64  `yaml:"max_bytes"`
}

// IsRemote returns true if the source is fetched over HTTP.
func (s *SourceConfig) IsRemote() bool {
	return s.Path == "" && s.URL != ""
}

// Location returns the URL if remote, or the file path.
func (s *SourceConfig) Location() string {
	if s.IsRemote() {
		return s.URL
	}

	return s.Path
}

// ColumnConfig maps a canonical key to the header spellings accepted for it.
type ColumnConfig struct {
	Key      string   `yaml:"key"`
	Variants []string `yaml:"variants"`
	Required bool     `yaml:"required"`
}

// ClassificationConfig lists the status values per category. Values are
// compared case-insensitively after trimming.
type ClassificationConfig struct {
	Labels      map[string]string `yaml:"labels"`
	Valid       []string          `yaml:"valid"`
	Invalid     []string          `yaml:"invalid"`
	Unqualified []string          `yaml:"unqualified"`
}

// Label returns the display label for a category.
func (c *ClassificationConfig) Label(cat models.Category) string {
	if l, ok := c.Labels[string(cat)]; ok && l != "" {
		return l
	}

	return cat.String()
}

// FiltersConfig holds the segment exclusion markers.
type FiltersConfig struct {
	ExcludeSegments []string `yaml:"exclude_segments"`
}

// SituationConfig holds the situation substrings counted in the overview.
type SituationConfig struct {
	Opportunity string `yaml:"opportunity"`
	Lost        string `yaml:"lost"`
}

// ConversionConfig identifies converted leads for the per-stage breakdown.
type ConversionConfig struct {
	TypeValue string `yaml:"type_value"`
}

// DatesConfig controls the best-effort date parser.
type DatesConfig struct {
	Location string `yaml:"location"`
	DayFirst bool   `yaml:"day_first"`
}

// RetryPolicy defines retry behavior for remote sources.
type RetryPolicy struct {
	MaxAttempts       int     `yaml:"max_attempts"`
	InitialDelayMs    int     `yaml:"initial_delay_ms"`
	MaxDelayMs        int     `yaml:"max_delay_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
	TimeoutSec        int     `yaml:"timeout_sec"`
}

// OutputConfig defines export file names.
type OutputConfig struct {
	Dir        string `yaml:"dir"`
	DetailsCSV string `yaml:"details_csv"`
	SummaryCSV string `yaml:"summary_csv"`
	Workbook   string `yaml:"workbook"`
	SheetName  string `yaml:"sheet_name"`
	Report     string `yaml:"report"`

	// Conversion analysis outputs.
	ConversionsCSV  string `yaml:"conversions_csv"`
	StageSummaryCSV string `yaml:"stage_summary_csv"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	rules := classifier.DefaultRules()

	return &Config{
		Source: SourceConfig{
			MaxBytes: 32 << 20,
		},
		Columns: []ColumnConfig{
			{Key: models.KeyStatus, Required: true, Variants: []string{"Status", "status"}},
			{Key: models.KeyConversionDate, Required: true, Variants: []string{
				"Data da conversão:", "Data da conversão", "data_da_conversao", "conversion_date",
			}},
			{Key: models.KeySegmentCategory, Required: true, Variants: []string{
				"Segmento/Categoria", "segmento_categoria", "segment_category",
			}},
			{Key: models.KeySituation, Variants: []string{"Situação", "situacao", "situation"}},
			{Key: models.KeyName, Variants: []string{"Nome", "name"}},
			{Key: models.KeyEmail, Variants: []string{"E-mail", "email"}},
			{Key: models.KeyPhone, Variants: []string{"Telefone", "Whatsapp", "phone"}},
			{Key: models.KeyDealID, Variants: []string{"Deal ID", "deal_id"}},
			{Key: models.KeyMessage, Variants: []string{"Mensagem", "message"}},
			{Key: models.KeyDealName, Variants: []string{"Deal name", "deal_name"}},
			{Key: models.KeyTimestamp, Variants: []string{"Data-hora", "timestamp"}},
			{Key: models.KeyType, Variants: []string{"Tipo", "type"}},
			{Key: models.KeyStage, Variants: []string{"Etapa", "stage"}},
		},
		Classification: ClassificationConfig{
			Valid:       rules.Valid,
			Invalid:     rules.Invalid,
			Unqualified: rules.Unqualified,
			Labels: map[string]string{
				string(models.CategoryValid):       "Válido",
				string(models.CategoryInvalid):     "Inválido",
				string(models.CategoryUnqualified): "Sem qualificação",
			},
		},
		Filters: FiltersConfig{
			ExcludeSegments: append([]string(nil), filter.DefaultExcludeMarkers...),
		},
		Situation: SituationConfig{
			Opportunity: aggregator.DefaultOpportunityMarker,
			Lost:        aggregator.DefaultLostMarker,
		},
		Conversion: ConversionConfig{
			TypeValue: aggregator.DefaultConversionType,
		},
		Dates: DatesConfig{
			Location: "UTC",
		},
		Retry: RetryPolicy{
			MaxAttempts:       3,
			InitialDelayMs:    500,
			MaxDelayMs:        10000,
			BackoffMultiplier: 2.0,
			TimeoutSec:        30,
		},
		Output: OutputConfig{
			Dir:        "./output",
			DetailsCSV: "leads_detalhados.csv",
			SummaryCSV: "resumo_categorias.csv",
			Workbook:   "leads_processados.xlsx",
			SheetName:  "Leads Processados",
			Report:     "relatorio_leads.md",

			ConversionsCSV:  "leads_convertidos_detalhados.csv",
			StageSummaryCSV: "resumo_conversoes_por_etapa.csv",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from a YAML file on top of the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves configuration to YAML file.
func (c *Config) SaveConfig(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.Columns) == 0 {
		return ErrNoColumns
	}

	seen := make(map[string]ColumnConfig, len(c.Columns))

	for i, col := range c.Columns {
		if col.Key == "" {
			return fmt.Errorf("%w: columns[%d]", ErrColumnMissingKey, i)
		}

		if len(col.Variants) == 0 {
			return fmt.Errorf("%w: %s", ErrColumnMissingVariants, col.Key)
		}

		if _, dup := seen[col.Key]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateColumnKey, col.Key)
		}

		seen[col.Key] = col
	}

	for _, key := range requiredKeys {
		col, ok := seen[key]
		if !ok {
			return fmt.Errorf("%w: %s", ErrRequiredColumnNotDefined, key)
		}

		if !col.Required {
			return fmt.Errorf("%w: %s", ErrRequiredColumnOptional, key)
		}
	}

	if len(c.Classification.Valid) == 0 {
		return ErrNoValidValues
	}

	if len(c.Classification.Invalid) == 0 {
		return ErrNoInvalidValues
	}

	if c.Source.MaxBytes < 1 {
		return ErrInvalidMaxBytes
	}

	if c.Dates.Location != "" {
		if _, err := time.LoadLocation(c.Dates.Location); err != nil {
			return fmt.Errorf("dates.location is invalid: %w", err)
		}
	}

	// Validate retry policy
	if c.Retry.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	if c.Retry.InitialDelayMs < 0 {
		return ErrInvalidInitialDelay
	}

	if c.Retry.BackoffMultiplier < 1.0 {
		return ErrInvalidBackoffMultiplier
	}

	if c.Retry.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	// Validate output config
	if c.Output.Dir == "" {
		return ErrMissingOutputDir
	}

	if n := len([]rune(c.Output.SheetName)); n == 0 || n > 31 {
		return ErrInvalidSheetName
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	return nil
}

// Location returns the time zone used for parsed dates.
func (c *Config) Location() *time.Location {
	if c.Dates.Location == "" {
		return time.UTC
	}

	loc, err := time.LoadLocation(c.Dates.Location)
	if err != nil {
		return time.UTC
	}

	return loc
}

// GetRetryDelay calculates exponential backoff delay for attempt number.
func (rp *RetryPolicy) GetRetryDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}

	delayMs := float64(rp.InitialDelayMs)
	for i := 1; i < attempt; i++ {
		delayMs *= rp.BackoffMultiplier
	}

	// Cap at max delay
	if int(delayMs) > rp.MaxDelayMs {
		delayMs = float64(rp.MaxDelayMs)
	}

	return time.Duration(int(delayMs)) * time.Millisecond
}

// GetTimeout returns the timeout duration.
func (rp *RetryPolicy) GetTimeout() time.Duration {
	return time.Duration(rp.TimeoutSec) * time.Second
}

// OutputPath joins the output directory with one export file name.
func (c *Config) OutputPath(name string) string {
	return filepath.Join(c.Output.Dir, name)
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Columns: %d, Excludes: %v, Output: %s}",
		len(c.Columns),
		c.Filters.ExcludeSegments,
		c.Output.Dir,
	)
}
