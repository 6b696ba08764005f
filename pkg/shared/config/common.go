package config

import (
	"crypto/tls"
	"time"
)

// BaseHTTPConfig holds common HTTP client configuration settings.
type BaseHTTPConfig struct {
	RetryCount       int
	RetryWaitTime    time.Duration
	RetryMaxWaitTime time.Duration
	Timeout          time.Duration
	TLSClientConfig  *tls.Config
	Proxy            string
}

// RestyHTTPClientConfig holds additional configuration settings for the resty http client.
type RestyHTTPClientConfig struct {
	BaseHTTPConfig
	Debug bool
}

// DefaultHTTPConfig returns the base configuration applicable to all HTTP clients.
func DefaultHTTPConfig() BaseHTTPConfig {
	return BaseHTTPConfig{
		RetryCount:       5,
		RetryWaitTime:    1 * time.Second,
		RetryMaxWaitTime: 2 * time.Second,
		Timeout:          90 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		Proxy: "",
	}
}

// DefaultRestyConfig returns a specific http config for Resty.
func DefaultRestyConfig() RestyHTTPClientConfig {
	return RestyHTTPClientConfig{
		BaseHTTPConfig: DefaultHTTPConfig(),
		Debug:          false,
	}
}

// DefaultCodeQLConfig returns the CodeQL adapter defaults. Database creation
// gets a longer budget than query runs since extractors may build the project.
// An empty DefaultSuite means the suite is derived from the scan language.
func DefaultCodeQLConfig() CodeQL {
	return CodeQL{
		Path:            "codeql",
		Timeout:         time.Hour,
		DatabaseTimeout: 30 * time.Minute,
		DefaultSuite:    "",
		Threads:         0,
	}
}

// DefaultClaudeConfig returns the Anthropic client defaults.
func DefaultClaudeConfig() Claude {
	return Claude{
		BaseURL:   "https://api.anthropic.com",
		Model:     "claude-sonnet-4-20250514",
		MaxTokens: 8192,
		TopN:      20,
	}
}
