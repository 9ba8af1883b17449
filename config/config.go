// Package config loads Settings from layered config files, environment
// variables and struct defaults.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"github.com/creasty/defaults"
	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/leeforge/essentials/env_mode"
	apperrors "github.com/leeforge/essentials/errors"
	"github.com/spf13/viper"
)

// PathEnv overrides the default config directory.
const PathEnv = "ESSENTIALS_CONFIG_PATH"

var keyReplacer = strings.NewReplacer(".", "_", "-", "_")

func DefaultOptions() Options {
	basePath := os.Getenv(PathEnv)
	if basePath == "" {
		basePath = "config"
	}
	return Options{
		BasePath:  basePath,
		FileName:  "config",
		FileType:  "yaml",
		EnvPrefix: "ESSENTIALS",
	}
}

// Loader reads Settings and can watch the config directory for changes.
type Loader struct {
	opts     Options
	validate *validator.Validate
	mu       sync.Mutex
}

func NewLoader(opts Options) *Loader {
	if opts.FileType == "" {
		opts.FileType = "yaml"
	}
	if opts.FileName == "" {
		opts.FileName = "config"
	}
	return &Loader{opts: opts, validate: validator.New()}
}

// Load is shorthand for NewLoader(opts).Load().
func Load(opts Options) (*Settings, error) {
	return NewLoader(opts).Load()
}

// Load merges the config files that exist, in priority order, then applies
// environment overrides and defaults, and validates the result. Missing
// files are not an error.
func (l *Loader) Load() (*Settings, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var base Settings
	if err := defaults.Set(&base); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}

	v := viper.New()
	v.SetConfigType(l.opts.FileType)
	registerDefaults(v, reflect.ValueOf(base), "")

	for _, path := range l.configFiles() {
		fileV := viper.New()
		fileV.SetConfigFile(path)
		if err := fileV.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		for _, key := range fileV.AllKeys() {
			v.Set(key, fileV.Get(key))
		}
	}
	applyEnvOverrides(v, l.opts.EnvPrefix)

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal config (path: %s): %w", l.opts.BasePath, err)
	}
	if err := l.validate.Struct(&s); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorTypeValidation, "invalid configuration")
	}
	return &s, nil
}

// Watch reloads the settings whenever one of the config files is written
// and hands the result to onChange, until ctx is done.
func (l *Loader) Watch(ctx context.Context, onChange func(*Settings, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(l.opts.BasePath); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", l.opts.BasePath, err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !ev.Has(fsnotify.Write|fsnotify.Create) || !l.isConfigFile(ev.Name) {
					continue
				}
				onChange(l.Load())
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				onChange(nil, err)
			}
		}
	}()
	return nil
}

// fileNames lists candidate base names, lowest priority first.
func (l *Loader) fileNames() []string {
	name := l.opts.FileName
	names := []string{name, name + ".local"}
	for _, alias := range env_mode.Current().Aliases() {
		names = append(names, name+"."+alias, name+"."+alias+".local")
	}
	return names
}

func (l *Loader) configFiles() []string {
	var files []string
	for _, name := range l.fileNames() {
		path := filepath.Join(l.opts.BasePath, name+"."+l.opts.FileType)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			files = append(files, path)
		}
	}
	return files
}

func (l *Loader) isConfigFile(path string) bool {
	base := filepath.Base(path)
	for _, name := range l.fileNames() {
		if base == name+"."+l.opts.FileType {
			return true
		}
	}
	return false
}

// registerDefaults declares every mapstructure key with its default value so
// that environment variables can set keys no file mentions.
func registerDefaults(v *viper.Viper, val reflect.Value, prefix string) {
	t := val.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}
		key := prefix + tag
		if field.Type.Kind() == reflect.Struct {
			registerDefaults(v, val.Field(i), key+".")
			continue
		}
		v.SetDefault(key, val.Field(i).Interface())
	}
}

// applyEnvOverrides gives PREFIX_SECTION_KEY variables priority over files.
func applyEnvOverrides(v *viper.Viper, envPrefix string) {
	for _, key := range v.AllKeys() {
		envKey := strings.ToUpper(keyReplacer.Replace(key))
		if envPrefix != "" {
			envKey = envPrefix + "_" + envKey
		}
		if envValue, ok := os.LookupEnv(envKey); ok && envValue != "" {
			v.Set(key, envValue)
		}
	}
}
