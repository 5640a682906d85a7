// Package config loads the greeting service configuration with viper.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables overriding config keys.
// GREETING_HTTP_PORT overrides http.port.
const EnvPrefix = "GREETING"

// Config is the service configuration. It is intended to be mapped by viper.
type Config struct {
	Environment Environment `mapstructure:"environment"`

	Log    Log    `mapstructure:"log"`
	HTTP   HTTP   `mapstructure:"http"`
	Runner Runner `mapstructure:"runner"`
	OTEL   OTEL   `mapstructure:"otel"`
}

const (
	LocalEnv       Environment = "local"
	TestEnv        Environment = "test"
	DevelopmentEnv Environment = "dev"
	ProductionEnv  Environment = "prod"
)

// Environments is the list of all supported environments.
func Environments() []Environment {
	return []Environment{LocalEnv, TestEnv, DevelopmentEnv, ProductionEnv}
}

type Environment string

type (
	Log struct {
		Level  string `mapstructure:"level"  json:"level"  validate:"oneof=debug info warn error"`
		Format string `mapstructure:"format" json:"format" validate:"oneof=json text"`
	}

	HTTP struct {
		Port           int  `mapstructure:"port"            json:"port"           validate:"min=1,max=65535"`
		MetricsEnabled bool `mapstructure:"metrics_enabled" json:"metricsEnabled"`
	}

	Runner struct {
		Timeout     time.Duration `mapstructure:"timeout"      json:"timeout"     validate:"min=0"`
		GracePeriod time.Duration `mapstructure:"grace_period" json:"gracePeriod" validate:"min=0"`
	}

	OTEL struct {
		Enabled bool `mapstructure:"enabled" json:"enabled"`
	}
)

// SlogLevel returns the configured log level.
func (l Log) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// DefaultViper returns a new viper instance with all default values
// from Config set and environment overrides enabled.
func DefaultViper() *viper.Viper {
	vip := viper.New()

	vip.SetDefault("environment", "local")

	vip.SetDefault("log.level", "info")
	vip.SetDefault("log.format", "text")

	vip.SetDefault("http.port", 8080)
	vip.SetDefault("http.metrics_enabled", true)

	vip.SetDefault("runner.timeout", "30s")
	vip.SetDefault("runner.grace_period", "25s")

	vip.SetDefault("otel.enabled", false)

	vip.SetEnvPrefix(EnvPrefix)
	vip.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vip.AutomaticEnv()

	return vip
}

var errConfigLoadFailed = errors.New("loading configuration failed")

// Load reads the optional config file into vip, then decodes and
// validates the configuration.
func Load(vip *viper.Viper, file string) (Config, error) {
	if file != "" {
		vip.SetConfigFile(file)
		if err := vip.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("%w: could not read config file: %v", errConfigLoadFailed, err)
		}
	}

	var conf Config
	err := vip.Unmarshal(&conf, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		allowedEnvironmentHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
	)))
	if err != nil {
		return Config{}, fmt.Errorf("%w: could not decode configuration into struct: %v", errConfigLoadFailed, err)
	}

	if err := validator.New().Struct(conf); err != nil {
		return Config{}, fmt.Errorf("%w: %v", errConfigLoadFailed, err)
	}

	return conf, nil
}

func allowedEnvironmentHookFunc() mapstructure.DecodeHookFuncType {
	return func(_ reflect.Type, t reflect.Type, data any) (any, error) {
		if t != reflect.TypeOf(Environment("")) {
			return data, nil
		}

		s, _ := data.(string)
		env := Environments()
		if slices.Contains(env, Environment(s)) {
			return data, nil
		}

		e := make([]string, 0, len(env))
		for _, env := range env {
			e = append(e, string(env))
		}

		return data, fmt.Errorf("value is not allowed, use one of: %s", strings.Join(e, ", "))
	}
}
