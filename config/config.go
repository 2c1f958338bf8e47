package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/grovetools/console/errors"
	"github.com/grovetools/console/pkg/paths"
	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// configNames lists the project config file names in lookup order.
var configNames = []string{
	"console.yml",
	"console.yaml",
	".console.yml",
	"console.toml",
}

// Load reads and parses a console configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config file").
			WithDetail("path", path)
	}

	if strings.HasSuffix(path, ".toml") {
		return LoadFromTOML(data)
	}
	return LoadFromBytes(data)
}

// LoadDefault finds and loads the configuration with hierarchical merging:
// 1. Global config (~/.config/console/console.yml) - base layer
// 2. Project config (console.yml, searched upward) - overrides global
func LoadDefault() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to get current directory")
	}

	return LoadFrom(cwd)
}

// LoadFrom loads configuration with hierarchical merging starting from the given directory
func LoadFrom(startDir string) (*Config, error) {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return LoadFromWithLogger(startDir, logger)
}

// LoadFromWithLogger loads configuration with hierarchical merging and logging.
// A missing project file is not an error as long as a global file exists.
func LoadFromWithLogger(startDir string, logger *logrus.Logger) (*Config, error) {
	var finalConfig *Config

	globalPath := getXDGConfigPath()
	if globalPath != "" {
		if _, err := os.Stat(globalPath); err == nil {
			logger.WithField("path", globalPath).Debug("Loading global configuration")
			globalConfig, err := parseFile(globalPath)
			if err != nil {
				logger.WithError(err).Warn("Failed to parse global configuration, continuing without it")
			} else {
				finalConfig = globalConfig
			}
		}
	}

	projectPath, err := FindConfigFile(startDir)
	if err == nil && projectPath != globalPath {
		logger.WithField("path", projectPath).Debug("Loading project configuration")
		projectConfig, err := parseFile(projectPath)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse project config").
				WithDetail("path", projectPath)
		}
		if finalConfig == nil {
			finalConfig = projectConfig
		} else {
			logger.Debug("Merging project configuration over global configuration")
			finalConfig = mergeConfigs(finalConfig, projectConfig)
		}
	}

	if finalConfig == nil {
		return nil, errors.ConfigNotFound(startDir).WithDetail("searchPath", startDir)
	}

	return finalize(finalConfig)
}

// LoadFromBytes parses YAML configuration from a byte array
func LoadFromBytes(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), &config); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse YAML configuration")
	}
	return finalize(&config)
}

// LoadFromTOML parses TOML configuration from a byte array
func LoadFromTOML(data []byte) (*Config, error) {
	config, err := decodeTOML([]byte(expandEnvVars(string(data))))
	if err != nil {
		return nil, err
	}
	return finalize(config)
}

// finalize validates against the schema, applies defaults and runs semantic checks.
func finalize(config *Config) (*Config, error) {
	validator, err := NewSchemaValidator()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to create validator")
	}
	if err := validator.Validate(config); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "schema validation failed")
	}

	config.SetDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func parseFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	expanded := []byte(expandEnvVars(string(data)))
	if strings.HasSuffix(path, ".toml") {
		return decodeTOML(expanded)
	}
	var config Config
	if err := yaml.Unmarshal(expanded, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

// decodeTOML reads TOML into a generic map and re-decodes it through the YAML
// tags so extension sections land in Config.Extensions the same way.
func decodeTOML(data []byte) (*Config, error) {
	var raw map[string]interface{}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse TOML configuration")
	}
	bridged, err := yaml.Marshal(raw)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to convert TOML configuration")
	}
	var config Config
	if err := yaml.Unmarshal(bridged, &config); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to decode TOML configuration")
	}
	return &config, nil
}

// FindConfigFile searches for console configuration files with the following precedence:
// 1. Current directory up to filesystem root
// 2. XDG config directory (~/.config/console/console.yml)
func FindConfigFile(startDir string) (string, error) {
	dir := startDir
	for {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	if xdgConfigPath := getXDGConfigPath(); xdgConfigPath != "" {
		if info, err := os.Stat(xdgConfigPath); err == nil && !info.IsDir() {
			return xdgConfigPath, nil
		}
	}

	return "", errors.ConfigNotFound(startDir).WithDetail("searchPath", startDir)
}

// expandEnvVars replaces ${VAR} with environment variable values
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		varName := envVarRegex.FindStringSubmatch(match)[1]

		// Handle default values: ${VAR:-default}
		parts := strings.SplitN(varName, ":-", 2)
		varName = parts[0]
		defaultValue := ""
		if len(parts) > 1 {
			defaultValue = parts[1]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}

		return defaultValue
	})
}

// getXDGConfigPath returns the global config path
func getXDGConfigPath() string {
	dir := paths.ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "console.yml")
}
