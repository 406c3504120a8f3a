package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"shiftload/pkg/schema"
)

const (
	// ErrCodeNotFound means an explicitly requested config file does not exist.
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid means the file could not be parsed or a value is out of range.
	ErrCodeInvalid = "config_invalid"
)

// DefaultFile is picked up from the working directory when no path is given.
const DefaultFile = "shiftload.yaml"

// Config aggregates runtime configuration.
type Config struct {
	Workbook Workbook       `yaml:"workbook"`
	Matching Matching       `yaml:"matching"`
	Shifts   Shifts         `yaml:"shifts"`
	Template TemplateConfig `yaml:"template"`
	Output   Output         `yaml:"output"`
	Log      LoggerConfig   `yaml:"log"`
}

// Workbook describes where the roster workbook keeps its three tables.
type Workbook struct {
	GridSheet      string `yaml:"grid_sheet"`
	GridHeaderRow  int    `yaml:"grid_header_row"` // 1-based
	DirectorySheet string `yaml:"directory_sheet"`
	CodesSheet     string `yaml:"codes_sheet"`

	Directory DirectoryColumns `yaml:"directory_columns"`
	Codes     CodeColumns      `yaml:"codes_columns"`
}

// DirectoryColumns names the directory sheet headers. Unit and Manager are optional.
type DirectoryColumns struct {
	Name    string `yaml:"name"`
	ID      string `yaml:"id"`
	Unit    string `yaml:"unit"`
	Manager string `yaml:"manager"`
}

// CodeColumns names the codification sheet headers.
type CodeColumns struct {
	Shift string `yaml:"shift"`
	Code  string `yaml:"code"`
}

// Matching holds the similarity cutoffs on a 0-1 scale.
type Matching struct {
	FuzzyCutoff      float64 `yaml:"fuzzy_cutoff"`
	SuggestionCutoff float64 `yaml:"suggestion_cutoff"`
}

// Shifts configures shift label parsing.
type Shifts struct {
	RestKeyword string `yaml:"rest_keyword"`
}

// TemplateConfig holds the keywords used to classify template columns.
type TemplateConfig struct {
	Keywords schema.ColumnKeywords `yaml:"keywords"`
}

// Output controls the produced file.
type Output struct {
	Format    string `yaml:"format"` // csv or xlsx
	Delimiter string `yaml:"delimiter"`
	Encoding  string `yaml:"encoding"`
	Sheet     string `yaml:"sheet"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"` // json or console
}

// Error is a structured configuration error.
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s: config file %q not found", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Path != "" {
			return fmt.Sprintf("%s: config file %q is invalid: %v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code extracts the error code from err, or "" when err is not an *Error.
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Default returns the configuration matching the supervisors' roster workbook.
func Default() *Config {
	return &Config{
		Workbook: Workbook{
			GridSheet:      "Turnos Formato Supervisor",
			GridHeaderRow:  3,
			DirectorySheet: "Base de Colaboradores",
			CodesSheet:     "Codificación de Turnos",
			Directory: DirectoryColumns{
				Name:    "Nombre del Colaborador",
				ID:      "RUT",
				Unit:    "Área",
				Manager: "Supervisor",
			},
			Codes: CodeColumns{
				Shift: "Horario",
				Code:  "Sigla",
			},
		},
		Matching: Matching{
			FuzzyCutoff:      0.7,
			SuggestionCutoff: 0.4,
		},
		Shifts: Shifts{
			RestKeyword: schema.DefaultRestKeyword,
		},
		Template: TemplateConfig{
			Keywords: schema.DefaultColumnKeywords(),
		},
		Output: Output{
			Format:    "csv",
			Delimiter: ";",
			Encoding:  "utf-8",
			Sheet:     "Carga",
		},
		Log: LoggerConfig{
			Level:    "info",
			Encoding: "console",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file, then environment
// variables (a .env file in the working directory is loaded first).
// With an empty path, DefaultFile is read if present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	filePath := path
	if filePath == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			filePath = DefaultFile
		}
	}

	if filePath != "" {
		data, err := os.ReadFile(filePath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, &Error{Code: ErrCodeNotFound, Path: filePath, Err: err}
			}
			return nil, &Error{Code: ErrCodeInvalid, Path: filePath, Err: err}
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, &Error{Code: ErrCodeInvalid, Path: filePath, Err: err}
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, &Error{Code: ErrCodeInvalid, Err: err}
	}

	if err := cfg.Validate(); err != nil {
		return nil, &Error{Code: ErrCodeInvalid, Path: filePath, Err: err}
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	cfg.Log.Level = getEnv("SHIFTLOAD_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Encoding = getEnv("SHIFTLOAD_LOG_ENCODING", cfg.Log.Encoding)
	cfg.Output.Format = getEnv("SHIFTLOAD_OUTPUT_FORMAT", cfg.Output.Format)
	cfg.Output.Delimiter = getEnv("SHIFTLOAD_OUTPUT_DELIMITER", cfg.Output.Delimiter)
	cfg.Output.Encoding = getEnv("SHIFTLOAD_OUTPUT_ENCODING", cfg.Output.Encoding)
	cfg.Shifts.RestKeyword = getEnv("SHIFTLOAD_REST_KEYWORD", cfg.Shifts.RestKeyword)

	var err error
	if cfg.Matching.FuzzyCutoff, err = getEnvAsFloat("SHIFTLOAD_FUZZY_CUTOFF", cfg.Matching.FuzzyCutoff); err != nil {
		return err
	}
	if cfg.Matching.SuggestionCutoff, err = getEnvAsFloat("SHIFTLOAD_SUGGESTION_CUTOFF", cfg.Matching.SuggestionCutoff); err != nil {
		return err
	}
	return nil
}

// Validate checks ranges and required names.
func (c *Config) Validate() error {
	var problems []string

	if c.Workbook.GridSheet == "" || c.Workbook.DirectorySheet == "" || c.Workbook.CodesSheet == "" {
		problems = append(problems, "workbook sheet names must not be empty")
	}
	if c.Workbook.GridHeaderRow < 1 {
		problems = append(problems, "workbook.grid_header_row must be >= 1")
	}
	if c.Workbook.Directory.Name == "" || c.Workbook.Directory.ID == "" {
		problems = append(problems, "workbook.directory_columns name and id are required")
	}
	if c.Workbook.Codes.Shift == "" || c.Workbook.Codes.Code == "" {
		problems = append(problems, "workbook.codes_columns shift and code are required")
	}
	if c.Matching.FuzzyCutoff <= 0 || c.Matching.FuzzyCutoff > 1 {
		problems = append(problems, "matching.fuzzy_cutoff must be in (0, 1]")
	}
	if c.Matching.SuggestionCutoff < 0 || c.Matching.SuggestionCutoff > 1 {
		problems = append(problems, "matching.suggestion_cutoff must be in [0, 1]")
	}
	switch strings.ToLower(c.Output.Format) {
	case "csv", "xlsx":
	default:
		problems = append(problems, fmt.Sprintf("output.format %q must be csv or xlsx", c.Output.Format))
	}
	if len([]rune(c.Output.Delimiter)) != 1 {
		problems = append(problems, fmt.Sprintf("output.delimiter %q must be a single character", c.Output.Delimiter))
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// DelimiterRune returns the output delimiter as a rune.
func (o Output) DelimiterRune() rune {
	for _, r := range o.Delimiter {
		return r
	}
	return ';'
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}
