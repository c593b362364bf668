package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
	"gopkg.in/yaml.v3"

	"github.com/go-drift/reactive/pkg/logging"
)

// FileName is the optional configuration file looked up in the project root.
const FileName = "reactive.yaml"

// Config represents the optional reactive.yaml configuration.
type Config struct {
	Agent AgentConfig `yaml:"agent"`
	Log   LogConfig   `yaml:"log"`
	Serve ServeConfig `yaml:"serve"`
	NATS  NATSConfig  `yaml:"nats"`
}

// AgentConfig contains defaults for wrapped components.
type AgentConfig struct {
	Debounce    string `yaml:"debounce,omitempty"`
	DisplayName string `yaml:"display_name,omitempty"`
	Pure        *bool  `yaml:"pure,omitempty"`
}

// LogConfig selects the log level and format.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// ServeConfig configures `rxview serve`.
type ServeConfig struct {
	Addr        string `yaml:"addr,omitempty"`
	WSPath      string `yaml:"ws_path,omitempty"`
	MetricsPath string `yaml:"metrics_path,omitempty"`
}

// NATSConfig optionally feeds the served view from a NATS subject.
type NATSConfig struct {
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// Resolved contains resolved configuration values.
type Resolved struct {
	Root        string
	ModulePath  string
	DisplayName string
	Debounce    time.Duration
	Pure        bool
	LogLevel    logging.Level
	LogFormat   string
	Addr        string
	WSPath      string
	MetricsPath string
	NATSURL     string
	NATSSubject string
}

// LoadOptional reads reactive.yaml if present.
func LoadOptional(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}

	return &cfg, nil
}

// Resolve loads reactive.yaml (if present) and resolves defaults.
func Resolve(dir string) (*Resolved, error) {
	modulePath, err := modulePath(dir)
	if err != nil {
		return nil, err
	}

	cfg, err := LoadOptional(dir)
	if err != nil {
		return nil, err
	}

	r := &Resolved{
		Root:        dir,
		ModulePath:  modulePath,
		DisplayName: strings.TrimSpace(cfg.Agent.DisplayName),
		Pure:        true,
		LogLevel:    logging.LevelInfo,
		LogFormat:   "json",
		Addr:        orDefault(cfg.Serve.Addr, ":8080"),
		WSPath:      orDefault(cfg.Serve.WSPath, "/ws"),
		MetricsPath: orDefault(cfg.Serve.MetricsPath, "/metrics"),
		NATSURL:     strings.TrimSpace(cfg.NATS.URL),
		NATSSubject: strings.TrimSpace(cfg.NATS.Subject),
	}
	if r.DisplayName == "" {
		r.DisplayName = defaultDisplayName(modulePath, dir)
	}
	if cfg.Agent.Pure != nil {
		r.Pure = *cfg.Agent.Pure
	}

	if d := strings.TrimSpace(cfg.Agent.Debounce); d != "" {
		r.Debounce, err = time.ParseDuration(d)
		if err != nil {
			return nil, fmt.Errorf("invalid agent.debounce %q: %w", d, err)
		}
		if r.Debounce < 0 {
			return nil, fmt.Errorf("invalid agent.debounce %q: must not be negative", d)
		}
	}

	if l := strings.TrimSpace(cfg.Log.Level); l != "" {
		level, ok := logging.ParseLevel(l)
		if !ok {
			return nil, fmt.Errorf("invalid log.level %q (use debug, info, warn or error)", l)
		}
		r.LogLevel = level
	}

	switch f := strings.ToLower(strings.TrimSpace(cfg.Log.Format)); f {
	case "":
	case "json", "text":
		r.LogFormat = f
	default:
		return nil, fmt.Errorf("invalid log.format %q (use json or text)", cfg.Log.Format)
	}

	if r.NATSSubject != "" && r.NATSURL == "" {
		return nil, fmt.Errorf("nats.subject is set but nats.url is empty")
	}

	return r, nil
}

// FindProjectRoot walks up from the current directory to find go.mod or
// reactive.yaml. It falls back to the current directory.
func FindProjectRoot() (string, error) {
	start, err := os.Getwd()
	if err != nil {
		return "", err
	}

	dir := start
	for {
		for _, name := range []string{FileName, "go.mod"} {
			if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return start, nil
		}
		dir = parent
	}
}

// modulePath returns the module path declared in dir/go.mod, or "" when
// there is no go.mod.
func modulePath(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read go.mod: %w", err)
	}
	path := modfile.ModulePath(data)
	if path == "" {
		return "", fmt.Errorf("could not determine module path from go.mod")
	}
	if err := module.CheckImportPath(path); err != nil {
		return "", fmt.Errorf("invalid module path in go.mod: %w", err)
	}
	return path, nil
}

// defaultDisplayName is the last element of the module path with any
// major version suffix removed, or the directory name.
func defaultDisplayName(modulePath, dir string) string {
	base := filepath.Base(dir)
	if modulePath != "" {
		prefix, _, ok := module.SplitPathVersion(modulePath)
		if ok {
			parts := strings.Split(prefix, "/")
			base = parts[len(parts)-1]
		}
	}
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "app"
	}
	return base
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
