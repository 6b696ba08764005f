package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/scan-io-git/vulnsmith/pkg/shared/files"
)

// ValidateConfig checks if the global configuration has valid values and
// resolves the home folder layout.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("YAML global config: configuration object is nil")
	}
	if err := ValidateVulnsmithConfig(cfg); err != nil {
		return fmt.Errorf("YAML global config: vulnsmith directive is invalid: %w", err)
	}
	if err := ValidateHTTPConfig(&cfg.HTTPClient); err != nil {
		return fmt.Errorf("YAML global config: http_client directive is invalid: %w", err)
	}
	if err := ValidateCodeQLConfig(&cfg.CodeQL); err != nil {
		return fmt.Errorf("YAML global config: codeql directive is invalid: %w", err)
	}
	if err := ValidateClaudeConfig(&cfg.Claude); err != nil {
		return fmt.Errorf("YAML global config: claude directive is invalid: %w", err)
	}
	return nil
}

// ValidateVulnsmithConfig resolves the home folder and its subfolders.
func ValidateVulnsmithConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("vulnsmith configuration is nil")
	}
	if err := updateHome(cfg); err != nil {
		return fmt.Errorf("failed to update home folder: %w", err)
	}
	if err := updateFolder(&cfg.Vulnsmith.PluginsFolder, "VULNSMITH_PLUGINS_FOLDER", "plugins", cfg); err != nil {
		return fmt.Errorf("failed to update plugins folder: %w", err)
	}
	if err := updateFolder(&cfg.Vulnsmith.ResultsFolder, "VULNSMITH_RESULTS_FOLDER", "results", cfg); err != nil {
		return fmt.Errorf("failed to update results folder: %w", err)
	}
	if err := updateFolder(&cfg.Vulnsmith.DatabasesFolder, "VULNSMITH_DATABASES_FOLDER", "databases", cfg); err != nil {
		return fmt.Errorf("failed to update databases folder: %w", err)
	}
	if err := updateFolder(&cfg.Vulnsmith.TempFolder, "VULNSMITH_TEMP_FOLDER", "tmp", cfg); err != nil {
		return fmt.Errorf("failed to update temp folder: %w", err)
	}
	return nil
}

// updateHome resolves the application home folder in priority order:
// config value, VULNSMITH_HOME, then ~/.vulnsmith.
func updateHome(cfg *Config) error {
	if cfg.Vulnsmith.HomeFolder != "" {
		expanded, err := files.ExpandPath(cfg.Vulnsmith.HomeFolder)
		if err != nil {
			return err
		}
		cfg.Vulnsmith.HomeFolder = expanded
		return nil
	}
	if envHome := os.Getenv("VULNSMITH_HOME"); envHome != "" {
		cfg.Vulnsmith.HomeFolder = envHome
		return nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("unable to get user home folder: %w", err)
	}
	cfg.Vulnsmith.HomeFolder = filepath.Join(home, ".vulnsmith")
	return nil
}

// updateFolder resolves a subfolder in priority order: config value,
// environment variable, then a subfolder of home.
func updateFolder(target *string, envVar, defaultName string, cfg *Config) error {
	if *target != "" {
		expanded, err := files.ExpandPath(*target)
		if err != nil {
			return err
		}
		*target = expanded
		return nil
	}
	if envValue := os.Getenv(envVar); envValue != "" {
		*target = envValue
		return nil
	}
	*target = filepath.Join(GetVulnsmithHome(cfg), defaultName)
	return nil
}

// ValidateHTTPConfig checks if the HTTP configuration has valid values.
func ValidateHTTPConfig(httpConfig *HTTPClient) error {
	if httpConfig == nil {
		return fmt.Errorf("HTTP configuration is nil")
	}
	if httpConfig.RetryCount < 0 || httpConfig.RetryCount > 20 {
		return fmt.Errorf("retry_count must be between 0 and 20: %d", httpConfig.RetryCount)
	}

	durations := map[string]time.Duration{
		"RetryMaxWaitTime": httpConfig.RetryMaxWaitTime,
		"RetryWaitTime":    httpConfig.RetryWaitTime,
		"Timeout":          httpConfig.Timeout,
	}
	for name, duration := range durations {
		if err := validateDuration(duration, name, 300*time.Second); err != nil {
			return err
		}
	}

	return validateProxy(&httpConfig.Proxy)
}

// ValidateCodeQLConfig checks if the CodeQL configuration has valid values.
func ValidateCodeQLConfig(codeqlConfig *CodeQL) error {
	if codeqlConfig == nil {
		return fmt.Errorf("codeql configuration is nil")
	}
	if err := validateDuration(codeqlConfig.Timeout, "timeout", 6*time.Hour); err != nil {
		return err
	}
	if err := validateDuration(codeqlConfig.DatabaseTimeout, "database_timeout", 6*time.Hour); err != nil {
		return err
	}
	if codeqlConfig.Threads < 0 {
		return fmt.Errorf("threads cannot be negative: %d", codeqlConfig.Threads)
	}
	return nil
}

// ValidateClaudeConfig checks if the Claude configuration has valid values.
func ValidateClaudeConfig(claudeConfig *Claude) error {
	if claudeConfig == nil {
		return fmt.Errorf("claude configuration is nil")
	}
	if claudeConfig.MaxTokens < 0 {
		return fmt.Errorf("max_tokens cannot be negative: %d", claudeConfig.MaxTokens)
	}
	if claudeConfig.TopN < 0 {
		return fmt.Errorf("top_n cannot be negative: %d", claudeConfig.TopN)
	}
	return nil
}

// validateDuration checks that a time.Duration is valid and within a specified maximum duration.
func validateDuration(d time.Duration, name string, max time.Duration) error {
	if d < 0 {
		return fmt.Errorf("invalid duration for %q: %v cannot be negative", name, d)
	}
	if d > max {
		return fmt.Errorf("%q duration is too long: %v exceeds maximum of %v", name, d, max)
	}
	return nil
}

// validateProxy checks if the given Proxy settings are valid.
func validateProxy(proxy *Proxy) error {
	if proxy == nil {
		return fmt.Errorf("proxy configuration is nil")
	}

	if proxy.Host == "" || proxy.Port == 0 {
		return nil
	}

	if net.ParseIP(proxy.Host) == nil {
		if _, err := net.LookupHost(proxy.Host); err != nil {
			return fmt.Errorf("proxy host %q is not resolvable: %w", proxy.Host, err)
		}
	}
	if proxy.Port < 1 || proxy.Port > 65535 {
		return fmt.Errorf("proxy port out of range: %s", strconv.Itoa(proxy.Port))
	}
	return nil
}

// GetVulnsmithHome returns the resolved application home folder.
func GetVulnsmithHome(cfg *Config) string {
	return cfg.Vulnsmith.HomeFolder
}

// GetPluginsHome returns the folder holding scanner plugin binaries.
func GetPluginsHome(cfg *Config) string {
	return cfg.Vulnsmith.PluginsFolder
}

// GetResultsHome returns the folder holding persisted analysis runs.
func GetResultsHome(cfg *Config) string {
	return cfg.Vulnsmith.ResultsFolder
}

// GetDatabasesHome returns the folder holding CodeQL databases.
func GetDatabasesHome(cfg *Config) string {
	return cfg.Vulnsmith.DatabasesFolder
}

// GetTempHome returns the scratch folder.
func GetTempHome(cfg *Config) string {
	return cfg.Vulnsmith.TempFolder
}
