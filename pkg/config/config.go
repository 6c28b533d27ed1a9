// Package config provides configuration loading for sheetduck.
//
// Configuration lives in a single YAML file with ${ENV_VAR} substitution, so
// secrets like the spreadsheet ID never need to sit in the file itself.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sheetduck/sheetduck/pkg/sheets"
)

// Config is the top-level configuration for the tool.
type Config struct {
	// Source configures the Google Sheets spreadsheet to read from.
	Source SourceConfig `yaml:"source"`

	// Logging configures the structured logger.
	Logging LoggingConfig `yaml:"logging"`
}

// SourceConfig mirrors sheets.Config in YAML form.
type SourceConfig struct {
	SpreadsheetID   string `yaml:"spreadsheet_id"`
	Sheet           string `yaml:"sheet"`
	RangeStart      string `yaml:"range_start"`
	RangeEnd        string `yaml:"range_end"`
	CredentialsFile string `yaml:"credentials_file"`
	APIKey          string `yaml:"api_key"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"`
}

// New returns a configuration with defaults applied.
func New() *Config {
	return &Config{
		Source: SourceConfig{
			Sheet:      sheets.DefaultSheet,
			RangeStart: sheets.DefaultRangeStart,
			RangeEnd:   sheets.DefaultRangeEnd,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "json",
		},
	}
}

// Sheets converts the source section into a sheets client configuration.
func (c *Config) Sheets() sheets.Config {
	return sheets.Config{
		SpreadsheetID:   c.Source.SpreadsheetID,
		Sheet:           c.Source.Sheet,
		RangeStart:      c.Source.RangeStart,
		RangeEnd:        c.Source.RangeEnd,
		CredentialsFile: c.Source.CredentialsFile,
		APIKey:          c.Source.APIKey,
	}
}

// Validate checks the configuration for obvious mistakes. A missing
// spreadsheet ID is allowed here because the sheets client falls back to the
// environment.
func (c *Config) Validate() error {
	if c.Source.CredentialsFile != "" && c.Source.APIKey != "" {
		return fmt.Errorf("credentials_file and api_key are mutually exclusive")
	}
	if len(c.Source.RangeStart) > 2 || len(c.Source.RangeEnd) > 2 {
		return fmt.Errorf("range bounds must be column letters, got %q..%q",
			c.Source.RangeStart, c.Source.RangeEnd)
	}
	if c.Logging.Encoding != "json" && c.Logging.Encoding != "console" {
		return fmt.Errorf("logging encoding must be json or console, got %q", c.Logging.Encoding)
	}
	return nil
}

// Load loads a configuration from a YAML file
func Load(filePath string, config interface{}) error {
	data, err := os.ReadFile(filePath) //nolint:gosec // G304: File path is controlled by caller and validated
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Substitute environment variables
	content := string(data)
	content = substituteEnvVars(content)

	if err := yaml.Unmarshal([]byte(content), config); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	return nil
}

// Save saves a configuration to a YAML file
func Save(filePath string, config interface{}) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil { //nolint:gosec
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
func substituteEnvVars(content string) string {
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		varName := content[start+2 : end]
		envValue := os.Getenv(varName)
		content = content[:start] + envValue + content[end+1:]
	}
	return content
}
