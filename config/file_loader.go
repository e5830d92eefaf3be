package config

import (
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/kochabx/ratelimit/core/tag"
	"github.com/kochabx/ratelimit/core/validator"
	"github.com/kochabx/ratelimit/errors"
)

var _ Loader = (*FileLoader)(nil)

// FileLoader loads configuration from file
type FileLoader struct {
	viper    *viper.Viper
	validate *validator.Validator
	file     string
}

// NewFileLoader creates a new file loader. The config type follows the file
// extension; environment variables override file values with "." replaced by "_".
func NewFileLoader(file string, v *viper.Viper, validate *validator.Validator, envPrefix string) *FileLoader {
	v.SetConfigFile(file)
	if ext := strings.TrimPrefix(filepath.Ext(file), "."); ext != "" {
		v.SetConfigType(ext)
	}

	if envPrefix != "" {
		v.SetEnvPrefix(envPrefix)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &FileLoader{
		viper:    v,
		file:     file,
		validate: validate,
	}
}

// Load implements Loader interface
func (l *FileLoader) Load(target any) error {
	// Apply default values from struct tags BEFORE unmarshalling
	// This ensures that fields not present in config file get their defaults
	if err := tag.ApplyDefaults(target); err != nil {
		return errors.Wrap(err, 500, "failed to apply defaults")
	}

	if err := l.viper.ReadInConfig(); err != nil {
		return errors.Wrap(err, 404, "config file %s not readable", l.file)
	}

	if err := l.viper.Unmarshal(target, viper.DecodeHook(decodeHook())); err != nil {
		return errors.Wrap(err, 500, "config parse error")
	}

	// Validate configuration
	if l.validate != nil {
		if err := l.validate.Struct(target); err != nil {
			return errors.Wrap(err, 400, "config validation failed")
		}
	}

	return nil
}

// Watch implements Loader interface
func (l *FileLoader) Watch(callback func()) error {
	l.viper.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		if callback != nil {
			callback()
		}
	})

	l.viper.WatchConfig()
	return nil
}

// decodeHook 支持 "1m" 形式的时长、逗号分隔的列表和 TextUnmarshaler 类型
func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}
