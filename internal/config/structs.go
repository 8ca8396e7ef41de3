// Package config loads pipeline settings from files, environment
// variables, and defaults.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration.
type Config struct {
	DataDir    string `mapstructure:"data_dir" yaml:"data_dir"`
	ReportsDir string `mapstructure:"reports_dir" yaml:"reports_dir"`
	ChartsDir  string `mapstructure:"charts_dir" yaml:"charts_dir"`
	LogLevel   string `mapstructure:"log_level" yaml:"log_level"`
	Verbose    bool   `mapstructure:"verbose" yaml:"verbose"`

	OCR        OCRConfig        `mapstructure:"ocr" yaml:"ocr"`
	Matcher    MatcherConfig    `mapstructure:"matcher" yaml:"matcher"`
	Downloader DownloaderConfig `mapstructure:"downloader" yaml:"downloader"`
}

// OCRConfig configures text detection.
type OCRConfig struct {
	Language       string `mapstructure:"language" yaml:"language"`
	MinImageHeight int    `mapstructure:"min_image_height" yaml:"min_image_height"`
}

// MatcherConfig configures quarter/value pairing.
type MatcherConfig struct {
	BottomPercent float64 `mapstructure:"bottom_percent" yaml:"bottom_percent"`
	YTolerance    float64 `mapstructure:"y_tolerance" yaml:"y_tolerance"`
	XTolerance    float64 `mapstructure:"x_tolerance" yaml:"x_tolerance"`
}

// DownloaderConfig configures report fetching.
type DownloaderConfig struct {
	BaseURL           string  `mapstructure:"base_url" yaml:"base_url"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	MinDate           string  `mapstructure:"min_date" yaml:"min_date"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		DataDir:    "data",
		ReportsDir: "data/reports",
		ChartsDir:  "data/charts",
		LogLevel:   "info",
		OCR: OCRConfig{
			Language:       "eng",
			MinImageHeight: 0,
		},
		Matcher: MatcherConfig{
			BottomPercent: 0.3,
			YTolerance:    1000,
			XTolerance:    10,
		},
		Downloader: DownloaderConfig{
			BaseURL:           "https://insight.factset.com/hubfs/Resources%20Section/Research%20Desk/Earnings%20Insight",
			RequestsPerSecond: 2,
			MinDate:           "2016-01-01",
		},
	}
}

// Validate checks the configuration for values the pipeline cannot run
// with.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if c.ReportsDir == "" {
		return fmt.Errorf("reports_dir must not be empty")
	}
	if c.ChartsDir == "" {
		return fmt.Errorf("charts_dir must not be empty")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level %q is not one of debug, info, warn, error", c.LogLevel)
	}
	if c.OCR.Language == "" {
		return fmt.Errorf("ocr.language must not be empty")
	}
	if c.Matcher.BottomPercent <= 0 || c.Matcher.BottomPercent > 1 {
		return fmt.Errorf("matcher.bottom_percent %v must be in (0, 1]", c.Matcher.BottomPercent)
	}
	if c.Matcher.YTolerance <= 0 {
		return fmt.Errorf("matcher.y_tolerance %v must be positive", c.Matcher.YTolerance)
	}
	if c.Matcher.XTolerance <= 0 {
		return fmt.Errorf("matcher.x_tolerance %v must be positive", c.Matcher.XTolerance)
	}
	if c.Downloader.BaseURL == "" {
		return fmt.Errorf("downloader.base_url must not be empty")
	}
	if c.Downloader.RequestsPerSecond <= 0 {
		return fmt.Errorf("downloader.requests_per_second %v must be positive", c.Downloader.RequestsPerSecond)
	}
	if c.Downloader.MinDate != "" {
		if _, err := time.Parse("2006-01-02", c.Downloader.MinDate); err != nil {
			return fmt.Errorf("downloader.min_date %q is not a YYYY-MM-DD date", c.Downloader.MinDate)
		}
	}
	return nil
}

// MinDateTime returns the parsed minimum report date, or the zero time
// when unset.
func (c *Config) MinDateTime() time.Time {
	if c.Downloader.MinDate == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", c.Downloader.MinDate)
	if err != nil {
		return time.Time{}
	}
	return t
}
