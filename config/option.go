package config

import (
	"github.com/spf13/viper"

	"github.com/kochabx/ratelimit/core/validator"
)

// Option is a function that configures a Config
type Option func(*Config)

// WithViper sets a custom viper instance
func WithViper(v *viper.Viper) Option {
	return func(c *Config) {
		c.viper = v
	}
}

// WithValidator sets a custom validator, nil disables validation
func WithValidator(v *validator.Validator) Option {
	return func(c *Config) {
		c.validate = v
	}
}

// WithLoader sets the configuration loader
func WithLoader(loader Loader) Option {
	return func(c *Config) {
		c.loader = loader
	}
}

// WithFile sets the file read by the default FileLoader
func WithFile(file string) Option {
	return func(c *Config) {
		c.file = file
	}
}

// WithEnvPrefix makes environment overrides use PREFIX_KEY names
func WithEnvPrefix(prefix string) Option {
	return func(c *Config) {
		c.envPrefix = prefix
	}
}
