// Package config loads copypath settings from defaults, a YAML file,
// COPYPATH_ environment variables and command line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"copypath/internal/model"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	envPrefix = "COPYPATH_"

	DefaultToastSeconds = 3
	DefaultPort         = 8080
	DefaultBackend      = "auto"
)

// ClipboardConfig selects the clipboard sink.
type ClipboardConfig struct {
	Backend string `koanf:"backend"` // auto, system or osc52
}

// WebConfig holds settings for --web mode.
type WebConfig struct {
	Port int `koanf:"port"`
}

// Config holds all copypath settings.
type Config struct {
	Roots        []string        `koanf:"roots"`
	ShowHidden   bool            `koanf:"show_hidden"`
	Watch        bool            `koanf:"watch"`
	ToastSeconds int             `koanf:"toast_seconds"`
	Verbose      int             `koanf:"verbose"`
	Clipboard    ClipboardConfig `koanf:"clipboard"`
	Web          WebConfig       `koanf:"web"`

	// FileUsed is the config file that was loaded, if any.
	FileUsed string `koanf:"-"`
}

// ToastDuration returns how long notifications stay in the footer.
func (c *Config) ToastDuration() time.Duration {
	return time.Duration(c.ToastSeconds) * time.Second
}

// DefaultFile returns the per-user config file location.
func DefaultFile() string {
	return filepath.Join(xdg.ConfigHome, "copypath", "config.yaml")
}

// findConfigFile finds the config file to use.
// Priority: explicit path > ./.copypath.yaml > user config dir
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, candidate := range []string{".copypath.yaml", ".copypath.yml", DefaultFile()} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// flagKeys maps flag names onto config keys where they differ.
var flagKeys = map[string]string{
	"root":      "roots",
	"port":      "web.port",
	"clipboard": "clipboard.backend",
}

// Load reads configuration.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"roots":             []string{},
		"show_hidden":       false,
		"watch":             true,
		"toast_seconds":     DefaultToastSeconds,
		"verbose":           0,
		"clipboard.backend": DefaultBackend,
		"web.port":          DefaultPort,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	used := findConfigFile(cfgFile)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	// 3. Environment: COPYPATH_SHOW_HIDDEN -> show_hidden, COPYPATH_WEB__PORT -> web.port
	if err := k.Load(env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
		key = strings.ReplaceAll(key, "__", ".")
		if key == "roots" {
			return key, filepath.SplitList(value)
		}
		return key, value
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags, only the ones explicitly set
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			if mapped, ok := flagKeys[f.Name]; ok {
				key = mapped
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.FileUsed = used

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// normalize applies defaults for unset values and makes local roots absolute.
// Roots with a URL scheme are kept verbatim; they are reported as
// unsupported when a copy is attempted.
func (c *Config) normalize() error {
	if c.ToastSeconds <= 0 {
		c.ToastSeconds = DefaultToastSeconds
	}
	if c.Web.Port == 0 {
		c.Web.Port = DefaultPort
	}
	switch c.Clipboard.Backend {
	case "":
		c.Clipboard.Backend = DefaultBackend
	case "auto", "system", "osc52":
	default:
		return fmt.Errorf("unknown clipboard backend %q (want auto, system or osc52)", c.Clipboard.Backend)
	}

	var roots []string
	for _, r := range c.Roots {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if model.HasScheme(r) {
			roots = append(roots, r)
			continue
		}
		r = model.ExpandTilde(r)
		if abs, err := filepath.Abs(r); err == nil {
			r = abs
		}
		roots = append(roots, r)
	}
	if len(roots) == 0 {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("no root configured and working directory unavailable: %w", err)
		}
		roots = []string{cwd}
	}
	c.Roots = roots
	return nil
}
