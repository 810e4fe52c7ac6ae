package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Source describes where a service reads its settings from.
type Source struct {
	// Name is the config file name without extension.
	Name string
	// Dirs are searched in order; "." and "./config" are always appended.
	Dirs []string
	// Defaults maps dotted keys to fallback values.
	Defaults map[string]any
	// Env maps dotted keys to the environment variable overriding them.
	Env map[string]string
}

// Load builds a viper instance from src. A missing config file is not an
// error, defaults and the environment still apply. Any key can also be set
// through its upper-cased, underscore-joined env name.
func Load(src Source) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigName(src.Name)
	v.SetConfigType("yaml")
	for _, dir := range append(src.Dirs, ".", "./config") {
		if dir != "" {
			v.AddConfigPath(dir)
		}
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range src.Defaults {
		v.SetDefault(key, value)
	}
	for key, env := range src.Env {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s to %s: %w", key, env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read %s: %w", src.Name, err)
		}
	}
	return v, nil
}

// Decode loads src and unmarshals it into out. Duration fields accept
// strings such as "30s".
func Decode(src Source, out any) error {
	v, err := Load(src)
	if err != nil {
		return err
	}
	if err := v.Unmarshal(out); err != nil {
		return fmt.Errorf("decode %s: %w", src.Name, err)
	}
	return nil
}
