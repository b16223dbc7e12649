package config

import (
	"errors"
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeFetch()
	c.normalizeWhisper()
	c.normalizeBook()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.LibraryDir, err = expandPath(c.Paths.LibraryDir); err != nil {
		return fmt.Errorf("paths.library_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeFetch() {
	if c.Fetch.MaxAttempts <= 0 {
		c.Fetch.MaxAttempts = defaultFetchAttempts
	}
	if c.Fetch.RetryBaseSeconds <= 0 {
		c.Fetch.RetryBaseSeconds = defaultRetryBaseSeconds
	}
	if c.Fetch.RetryMaxSeconds <= 0 {
		c.Fetch.RetryMaxSeconds = defaultRetryMaxSeconds
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		c.Fetch.TimeoutSeconds = defaultFetchTimeout
	}
	if strings.TrimSpace(c.Fetch.UserAgent) == "" {
		c.Fetch.UserAgent = defaultUserAgent
	}
}

func (c *Config) normalizeWhisper() {
	if strings.TrimSpace(c.Whisper.Model) == "" {
		c.Whisper.Model = defaultWhisperModel
	}
	c.Whisper.Language = strings.ToLower(strings.TrimSpace(c.Whisper.Language))
}

func (c *Config) normalizeBook() {
	if strings.TrimSpace(c.Book.Language) == "" {
		c.Book.Language = defaultBookLanguage
	}
	if strings.TrimSpace(c.Book.IntroNote) == "" {
		c.Book.IntroNote = defaultIntroNote
	}
	if strings.TrimSpace(c.Book.ClosingNote) == "" {
		c.Book.ClosingNote = defaultClosingNote
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateFetch(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.LibraryDir) == "" {
		return errors.New("paths.library_dir must be set")
	}
	return nil
}

func (c *Config) validateFetch() error {
	if c.Fetch.RetryMaxSeconds < c.Fetch.RetryBaseSeconds {
		return errors.New("fetch.retry_max_seconds must be >= fetch.retry_base_seconds")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
