package noteforge

import (
	"errors"
	"sync"

	"github.com/caarlos0/env/v10"
)

// Config contains all configuration options for the engine.
type Config struct {
	// TemplateDir is the directory the Loader resolves template names in.
	TemplateDir string `env:"NOTEFORGE_TEMPLATE_DIR" envDefault:"templates"`
	// TemplateExt is appended to template names that carry no extension.
	TemplateExt string `env:"NOTEFORGE_TEMPLATE_EXT" envDefault:".md"`
	// CacheEnabled controls the Loader's template cache.
	CacheEnabled bool `env:"NOTEFORGE_CACHE_ENABLED" envDefault:"true"`
	// LogLevel controls logging verbosity (debug, info, warn, error, off).
	LogLevel string `env:"NOTEFORGE_LOG_LEVEL" envDefault:"info"`
	// MaxIncludeDepth bounds include-marker resolution in the Generator.
	MaxIncludeDepth int `env:"NOTEFORGE_MAX_INCLUDE_DEPTH" envDefault:"10"`
	// StrictMode makes the Generator return validation errors instead of
	// silently substituting the fallback document.
	StrictMode bool `env:"NOTEFORGE_STRICT_MODE" envDefault:"false"`
}

var (
	globalConfig      *Config
	globalConfigMutex sync.RWMutex
	configOnce        sync.Once
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		TemplateDir:     "templates",
		TemplateExt:     ".md",
		CacheEnabled:    true,
		LogLevel:        "info",
		MaxIncludeDepth: 10,
	}
}

// ConfigFromEnvironment creates a configuration from NOTEFORGE_* environment
// variables, falling back to defaults for anything unset or malformed.
func ConfigFromEnvironment() *Config {
	config := &Config{}
	if err := env.Parse(config); err != nil {
		return DefaultConfig()
	}
	return config
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.TemplateDir == "" {
		return errors.New("template directory cannot be empty")
	}
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"off":   true,
	}
	if !validLogLevels[c.LogLevel] {
		return errors.New("invalid log level: " + c.LogLevel)
	}
	if c.MaxIncludeDepth <= 0 {
		return errors.New("max include depth must be positive")
	}
	return nil
}

// GetGlobalConfig returns a copy of the global configuration.
func GetGlobalConfig() *Config {
	configOnce.Do(func() {
		globalConfig = ConfigFromEnvironment()
	})
	globalConfigMutex.RLock()
	defer globalConfigMutex.RUnlock()
	configCopy := *globalConfig
	return &configCopy
}

// SetGlobalConfig sets the global configuration.
func SetGlobalConfig(config *Config) {
	configOnce.Do(func() {})
	globalConfigMutex.Lock()
	globalConfig = config
	globalConfigMutex.Unlock()
}
