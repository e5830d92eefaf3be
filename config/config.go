package config

import (
	"reflect"
	"sync"

	"github.com/spf13/viper"

	"github.com/kochabx/ratelimit/core/validator"
	"github.com/kochabx/ratelimit/errors"
	"github.com/kochabx/ratelimit/log"
)

// Config manages application configuration
type Config struct {
	mu        sync.RWMutex         // protects concurrent access to target
	viper     *viper.Viper         // viper instance for configuration management
	validate  *validator.Validator // validator for configuration validation
	target    any                  // target is the destination where the configuration will be unmarshalled
	loader    Loader               // loader is responsible for loading configuration
	file      string               // config file used by the default FileLoader
	envPrefix string               // prefix of environment overrides
}

// New creates a new Config instance with the given options.
// target must be a non-nil pointer to a struct.
// If no loader is provided, a FileLoader reading "config.yaml" is created.
func New(target any, opts ...Option) *Config {
	c := &Config{
		viper:    viper.New(),
		validate: validator.Validate,
		target:   target,
		file:     "config.yaml",
	}

	// Apply options
	for _, opt := range opts {
		opt(c)
	}

	// Create default FileLoader if no loader is provided
	if c.loader == nil {
		c.loader = NewFileLoader(c.file, c.viper, c.validate, c.envPrefix)
	}

	return c
}

// Load reads the configuration using the configured loader
func (c *Config) Load() error {
	return c.Reload()
}

// Reload decodes the configuration into a fresh value and replaces target
// only when loading and validation succeed. Keys removed from the source
// disappear from maps in target.
func (c *Config) Reload() error {
	rv := reflect.ValueOf(c.target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return errors.New(500, "config target must be a non-nil pointer to struct, got %T", c.target)
	}

	fresh := reflect.New(rv.Elem().Type())
	if err := c.loader.Load(fresh.Interface()); err != nil {
		return err
	}

	c.mu.Lock()
	rv.Elem().Set(fresh.Elem())
	c.mu.Unlock()

	return nil
}

// Read calls fn while holding the read lock, so fn sees a consistent target.
func (c *Config) Read(fn func()) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fn()
}

// Watch reloads the configuration on every change of the source and then
// calls the callbacks in order. Failed reloads keep the previous value and
// skip the callbacks.
func (c *Config) Watch(callbacks ...func()) error {
	return c.loader.Watch(func() {
		log.Info().Msg("config change detected")

		// Attempt to reload configuration
		if err := c.Reload(); err != nil {
			log.Error().Err(err).Msg("failed to reload config after change")
			return
		}

		log.Info().Msg("config reloaded successfully")
		for _, cb := range callbacks {
			cb()
		}
	})
}

// GetViper returns the underlying viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.viper
}
