// Package config loads and writes the .stackdash.yaml project configuration.
package config

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/harshul/stackdash/internal/errors"
	"github.com/harshul/stackdash/internal/fsutil"
	"github.com/harshul/stackdash/internal/status"
)

// FileName is the config file looked up in the project root.
const FileName = ".stackdash.yaml"

// EnvPrefix prefixes environment overrides, e.g. STACKDASH_REFRESH_INTERVAL.
const EnvPrefix = "STACKDASH"

// Config is the complete .stackdash.yaml file.
type Config struct {
	// Launcher is the lifecycle script, relative to the project root.
	Launcher string `yaml:"launcher" mapstructure:"launcher"`
	// Interpreter runs the launcher (e.g. bash). Empty executes it directly.
	Interpreter string `yaml:"interpreter" mapstructure:"interpreter"`
	// Supervisor is the process manager binary.
	Supervisor string `yaml:"supervisor" mapstructure:"supervisor"`

	Markers Markers `yaml:"markers" mapstructure:"markers"`

	RefreshInterval   time.Duration `yaml:"refresh_interval" mapstructure:"refresh_interval"`
	AutoRefresh       bool          `yaml:"auto_refresh" mapstructure:"auto_refresh"`
	CommandTimeout    time.Duration `yaml:"command_timeout" mapstructure:"command_timeout"`
	SupervisorTimeout time.Duration `yaml:"supervisor_timeout" mapstructure:"supervisor_timeout"`
	CPUSample         time.Duration `yaml:"cpu_sample" mapstructure:"cpu_sample"`

	LogCapacity  int    `yaml:"log_capacity" mapstructure:"log_capacity"`
	LogView      int    `yaml:"log_view" mapstructure:"log_view"`
	ExportDir    string `yaml:"export_dir" mapstructure:"export_dir"`
	ExportPrefix string `yaml:"export_prefix" mapstructure:"export_prefix"`

	WatchMarkers bool `yaml:"watch_markers" mapstructure:"watch_markers"`

	LogFile  string `yaml:"log_file,omitempty" mapstructure:"log_file"`
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
}

// Markers names the project marker entries.
type Markers struct {
	Manifest     string `yaml:"manifest" mapstructure:"manifest"`
	Dependencies string `yaml:"dependencies" mapstructure:"dependencies"`
	Build        string `yaml:"build" mapstructure:"build"`
}

// Status converts the markers for the status poller.
func (m Markers) Status() status.Markers {
	return status.Markers{
		Manifest:     m.Manifest,
		Dependencies: m.Dependencies,
		Build:        m.Build,
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	m := status.DefaultMarkers()
	return &Config{
		Launcher:    "stackdash.sh",
		Interpreter: "bash",
		Supervisor:  "pm2",
		Markers: Markers{
			Manifest:     m.Manifest,
			Dependencies: m.Dependencies,
			Build:        m.Build,
		},
		RefreshInterval:   5 * time.Second,
		AutoRefresh:       true,
		CommandTimeout:    5 * time.Minute,
		SupervisorTimeout: 10 * time.Second,
		CPUSample:         200 * time.Millisecond,
		LogCapacity:       1000,
		LogView:           50,
		ExportDir:         ".",
		ExportPrefix:      "stackdash_logs",
		WatchMarkers:      true,
		LogLevel:          "info",
	}
}

// setDefaults registers every key so env overrides apply even when the
// file omits them.
func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("launcher", d.Launcher)
	v.SetDefault("interpreter", d.Interpreter)
	v.SetDefault("supervisor", d.Supervisor)
	v.SetDefault("markers.manifest", d.Markers.Manifest)
	v.SetDefault("markers.dependencies", d.Markers.Dependencies)
	v.SetDefault("markers.build", d.Markers.Build)
	v.SetDefault("refresh_interval", d.RefreshInterval)
	v.SetDefault("auto_refresh", d.AutoRefresh)
	v.SetDefault("command_timeout", d.CommandTimeout)
	v.SetDefault("supervisor_timeout", d.SupervisorTimeout)
	v.SetDefault("cpu_sample", d.CPUSample)
	v.SetDefault("log_capacity", d.LogCapacity)
	v.SetDefault("log_view", d.LogView)
	v.SetDefault("export_dir", d.ExportDir)
	v.SetDefault("export_prefix", d.ExportPrefix)
	v.SetDefault("watch_markers", d.WatchMarkers)
	v.SetDefault("log_file", d.LogFile)
	v.SetDefault("log_level", d.LogLevel)
}

// Find returns the config path to use: explicit if given (it must exist),
// else root/.stackdash.yaml if present, else "".
func Find(explicit, root string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Specified config file not found: "+explicit,
				"Check the path is correct")
		}
		return explicit, nil
	}

	local := filepath.Join(root, FileName)
	if fsutil.Exists(local) {
		return local, nil
	}
	return "", nil
}

// Load reads the config for the project at root. Without a file the
// defaults (plus env overrides) are returned. The path actually read is
// returned alongside, empty when none.
func Load(explicit, root string) (*Config, string, error) {
	path, err := Find(explicit, root)
	if err != nil {
		return nil, "", err
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, path, errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to read config file: "+path,
				"Check the YAML syntax")
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, path, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the value types in "+FileName)
	}

	if err := cfg.Validate(); err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// Validate checks the config for values the dashboard cannot run with.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Launcher) == "" {
		problems = append(problems, "launcher is empty")
	}
	if c.Markers.Manifest == "" {
		problems = append(problems, "markers.manifest is empty")
	}
	for name, d := range map[string]time.Duration{
		"refresh_interval":   c.RefreshInterval,
		"command_timeout":    c.CommandTimeout,
		"supervisor_timeout": c.SupervisorTimeout,
		"cpu_sample":         c.CPUSample,
	} {
		if d <= 0 {
			problems = append(problems, fmt.Sprintf("%s must be positive, got %s", name, d))
		}
	}
	if c.LogCapacity < 1 {
		problems = append(problems, fmt.Sprintf("log_capacity must be at least 1, got %d", c.LogCapacity))
	}
	if c.LogView < 1 {
		problems = append(problems, fmt.Sprintf("log_view must be at least 1, got %d", c.LogView))
	}

	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)
	return errors.New(errors.ErrConfig,
		"Invalid configuration: "+strings.Join(problems, "; "),
		"Fix the listed values in "+FileName)
}

// Write writes cfg as YAML to path.
func Write(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	header := []byte("# stackdash project configuration\n")
	return fsutil.AtomicWriteFile(path, append(header, data...), 0o644)
}

// Read parses a config file strictly, without defaults or env overrides.
// Unknown keys are errors, which catches typos Load would silently ignore.
func Read(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	var cfg Config
	if err := dec.Decode(&cfg); err != nil && !stderrors.Is(err, io.EOF) {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot parse "+filepath.Base(path),
			"Check the key names against `stackdash init` output")
	}
	return &cfg, nil
}
