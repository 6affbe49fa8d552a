package common

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

const (
	DefaultGitLabURI  = "https://gitlab.com"
	DefaultProjectID  = 25333072
	DefaultOutputDir  = "traces"
	DefaultStartPage  = 1
	defaultTimeoutSec = 30
)

type Config struct {
	GitLab  GitLabConfig  `toml:"gitlab"`
	Export  ExportConfig  `toml:"export"`
	Storage StorageConfig `toml:"storage"`
	Logging LoggingConfig `toml:"logging"`
}

type GitLabConfig struct {
	URI            string `toml:"uri"`
	ProjectID      int64  `toml:"project_id"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type ExportConfig struct {
	OutputDir string `toml:"output_dir"`
	StartPage int    `toml:"start_page"`
}

type StorageConfig struct {
	DatabasePath string `toml:"database_path"`
}

type LoggingConfig struct {
	Level      string `toml:"level"`
	Format     string `toml:"format"`
	Output     string `toml:"output"`
	MaxSize    int    `toml:"max_size"`
	MaxBackups int    `toml:"max_backups"`
}

// DefaultConfig returns the settings used when no file or environment overrides them
func DefaultConfig() *Config {
	execDir, execName := executableInfo()

	return &Config{
		GitLab: GitLabConfig{
			URI:            DefaultGitLabURI,
			ProjectID:      DefaultProjectID,
			TimeoutSeconds: defaultTimeoutSec,
		},
		Export: ExportConfig{
			OutputDir: DefaultOutputDir,
			StartPage: DefaultStartPage,
		},
		Storage: StorageConfig{
			DatabasePath: filepath.Join(execDir, "data", execName+".db"),
		},
		Logging: *DefaultLoggingConfig(),
	}
}

// LoadConfig layers defaults, the TOML file and process environment, then validates.
func LoadConfig(configFile string) (*Config, error) {
	config, err := ReadConfig(configFile, os.Getenv)
	if err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// ReadConfig layers defaults, the TOML file and environment overrides without validating,
// so callers can apply further overrides first. An empty configFile triggers auto-detection
// next to the executable and in the working directory; no file found is not an error.
func ReadConfig(configFile string, getenv func(string) string) (*Config, error) {
	config := DefaultConfig()

	if configFile == "" {
		execDir, execName := executableInfo()

		possiblePaths := []string{
			filepath.Join(execDir, execName+".toml"),
			filepath.Join(execDir, "config.toml"),
			"config.toml",
		}

		for _, path := range possiblePaths {
			if _, err := os.Stat(path); err == nil {
				configFile = path
				break
			}
		}
	}

	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return nil, WrapError(err, ErrorTypeConfiguration, "CONFIG_READ", fmt.Sprintf("failed to read config file %s", configFile))
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, WrapError(err, ErrorTypeConfiguration, "CONFIG_PARSE", "failed to parse config file")
		}
	}

	if err := applyEnvOverrides(config, getenv); err != nil {
		return nil, err
	}

	return config, nil
}

func applyEnvOverrides(config *Config, getenv func(string) string) error {
	if uri := getenv("GITLAB_URI"); uri != "" {
		config.GitLab.URI = uri
	}
	if projectID := getenv("GITLAB_PROJECT_ID"); projectID != "" {
		id, err := strconv.ParseInt(projectID, 10, 64)
		if err != nil {
			return WrapError(err, ErrorTypeConfiguration, "ENV_PARSE", "GITLAB_PROJECT_ID must be an integer").
				WithContext("value", projectID)
		}
		config.GitLab.ProjectID = id
	}
	if tracesDir := getenv("TRACES_DIR"); tracesDir != "" {
		config.Export.OutputDir = tracesDir
	}
	if dbPath := getenv("DATABASE_PATH"); dbPath != "" {
		config.Storage.DatabasePath = dbPath
	}

	if logLevel := getenv("LOG_LEVEL"); logLevel != "" {
		config.Logging.Level = logLevel
	}
	if logFormat := getenv("LOG_FORMAT"); logFormat != "" {
		config.Logging.Format = logFormat
	}
	if logOutput := getenv("LOG_OUTPUT"); logOutput != "" {
		config.Logging.Output = logOutput
	}

	return nil
}

func (c *Config) Validate() error {
	if c.GitLab.URI == "" {
		return NewConfigurationError("GITLAB_URI_REQUIRED", "gitlab uri is required")
	}
	u, err := url.Parse(c.GitLab.URI)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return NewConfigurationError("GITLAB_URI_INVALID", "gitlab uri must be an absolute http(s) URL").
			WithContext("uri", c.GitLab.URI)
	}

	if c.GitLab.ProjectID <= 0 {
		return NewConfigurationError("PROJECT_ID_INVALID", "gitlab project_id must be positive").
			WithContext("project_id", c.GitLab.ProjectID)
	}

	if c.GitLab.TimeoutSeconds <= 0 {
		c.GitLab.TimeoutSeconds = defaultTimeoutSec
	}

	if c.Export.OutputDir == "" {
		return NewConfigurationError("OUTPUT_DIR_REQUIRED", "export output_dir is required")
	}
	if c.Export.StartPage < 1 {
		return NewConfigurationError("START_PAGE_INVALID", "export start_page must be at least 1").
			WithContext("start_page", c.Export.StartPage)
	}

	if c.Storage.DatabasePath == "" {
		return NewConfigurationError("DATABASE_PATH_REQUIRED", "storage database_path is required")
	}

	validLogLevels := []string{"debug", "info", "warn", "error", "fatal", "panic"}
	validLevel := false
	for _, level := range validLogLevels {
		if c.Logging.Level == level {
			validLevel = true
			break
		}
	}
	if !validLevel {
		return NewConfigurationError("LOG_LEVEL_INVALID", fmt.Sprintf("invalid log level: %s", c.Logging.Level))
	}

	validOutputs := []string{"console", "file", "both"}
	validOutput := false
	for _, output := range validOutputs {
		if c.Logging.Output == output {
			validOutput = true
			break
		}
	}
	if !validOutput {
		return NewConfigurationError("LOG_OUTPUT_INVALID", fmt.Sprintf("invalid log output: %s", c.Logging.Output))
	}

	return nil
}

func executableInfo() (string, string) {
	execPath, _ := os.Executable()
	execDir := filepath.Dir(execPath)
	execName := filepath.Base(execPath)
	execName = execName[:len(execName)-len(filepath.Ext(execName))]
	return execDir, execName
}
