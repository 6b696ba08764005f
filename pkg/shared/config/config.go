package config

import (
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v2"
)

// Config is the root of the YAML configuration file.
type Config struct {
	Vulnsmith  Vulnsmith  `yaml:"vulnsmith"`
	Logger     Logger     `yaml:"logger"`
	HTTPClient HTTPClient `yaml:"http_client"`
	CodeQL     CodeQL     `yaml:"codeql"`
	Claude     Claude     `yaml:"claude"`
	Github     Github     `yaml:"github"`
	DefectDojo DefectDojo `yaml:"defectdojo"`
	S3         S3         `yaml:"s3"`
	GitClient  GitClient  `yaml:"git_client"`
}

// Vulnsmith holds the application home folders. Empty values are resolved
// during validation from environment variables or the default home layout.
type Vulnsmith struct {
	HomeFolder      string `yaml:"home_folder"`
	PluginsFolder   string `yaml:"plugins_folder"`
	ResultsFolder   string `yaml:"results_folder"`
	DatabasesFolder string `yaml:"databases_folder"`
	TempFolder      string `yaml:"temp_folder"`
}

type Logger struct {
	Level string `yaml:"level"`
}

type HTTPClient struct {
	Debug            *bool           `yaml:"debug"`
	RetryCount       int             `yaml:"retry_count"`
	RetryWaitTime    time.Duration   `yaml:"retry_wait_time"`
	RetryMaxWaitTime time.Duration   `yaml:"retry_max_wait_time"`
	Timeout          time.Duration   `yaml:"timeout"`
	TLSClientConfig  TLSClientConfig `yaml:"tls_client_config"`
	Proxy            Proxy           `yaml:"proxy"`
}

type TLSClientConfig struct {
	Verify *bool `yaml:"verify"`
}

type Proxy struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// CodeQL configures the CodeQL CLI adapter and the codeql scanner plugin.
type CodeQL struct {
	Path            string        `yaml:"path"`
	Timeout         time.Duration `yaml:"timeout"`
	DatabaseTimeout time.Duration `yaml:"database_timeout"`
	DefaultSuite    string        `yaml:"default_suite"`
	Threads         int           `yaml:"threads"`
}

// Claude configures the Anthropic Messages API client.
type Claude struct {
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
	// TopN bounds how many findings the triage agent is asked to prioritize.
	TopN int `yaml:"top_n"`
}

type Github struct {
	BaseOwner string `yaml:"base_owner"`
}

type DefectDojo struct {
	URL            string `yaml:"url"`
	ProjectsPrefix string `yaml:"projects_prefix"`
}

type S3 struct {
	Bucket string `yaml:"bucket"`
	Region string `yaml:"region"`
}

type GitClient struct {
	SSHKeyPath string        `yaml:"ssh_key_path"`
	Timeout    time.Duration `yaml:"timeout"`
}

// ValidateConfigPath checks that the path points to a regular file.
func ValidateConfigPath(path string) error {
	s, err := os.Stat(path)
	if err != nil {
		return err
	}
	if s.IsDir() {
		return fmt.Errorf("'%s' is a directory, not a file", path)
	}
	return nil
}

// LoadYAML decodes a YAML file into data.
func LoadYAML(configPath string, data interface{}) error {
	if err := ValidateConfigPath(configPath); err != nil {
		return err
	}

	file, err := os.Open(configPath)
	if err != nil {
		return err
	}
	defer file.Close()

	d := yaml.NewDecoder(file)
	if err := d.Decode(data); err != nil {
		return err
	}

	return nil
}

// LoadConfig reads the configuration file. A missing file is not an error:
// the defaults and environment variables are enough to run.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	if err := LoadYAML(configPath, config); err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, err
	}

	return config, nil
}
