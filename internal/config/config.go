package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDt       = 0.01
	DefaultDuration = 10.0
	DefaultArena    = 50.0
	DefaultWorld    = "mixed"
)

type Config struct {
	World    string        `yaml:"world" mapstructure:"world"`
	Dt       float64       `yaml:"dt" mapstructure:"dt"`
	Duration float64       `yaml:"duration" mapstructure:"duration"`
	LogLevel string        `yaml:"log_level" mapstructure:"log_level"`
	Metrics  []string      `yaml:"metrics" mapstructure:"metrics"`
	Arena    float64       `yaml:"arena" mapstructure:"arena"`
	Physics  PhysicsConfig `yaml:"physics" mapstructure:"physics"`
	Storage  StorageConfig `yaml:"storage" mapstructure:"storage"`
}

type PhysicsConfig struct {
	Gravity            []float64 `yaml:"gravity" mapstructure:"gravity"`
	VelocityIterations int       `yaml:"velocity_iterations" mapstructure:"velocity_iterations"`
	PositionIterations int       `yaml:"position_iterations" mapstructure:"position_iterations"`
}

type StorageConfig struct {
	Type string `yaml:"type" mapstructure:"type"`
	Dir  string `yaml:"dir" mapstructure:"dir"`
	Path string `yaml:"path" mapstructure:"path"`
}

func DefaultConfig() *Config {
	return &Config{
		World:    DefaultWorld,
		Dt:       DefaultDt,
		Duration: DefaultDuration,
		LogLevel: "info",
		Metrics:  []string{"distance", "max_speed", "control_effort"},
		Arena:    DefaultArena,
		Physics: PhysicsConfig{
			Gravity:            []float64{0, 0},
			VelocityIterations: 8,
			PositionIterations: 3,
		},
		Storage: StorageConfig{
			Type: "file",
			Dir:  "./runs",
			Path: "./runs/mv2dsim.db",
		},
	}
}

// flagKeys maps CLI flag names onto configuration keys.
var flagKeys = map[string]string{
	"world":     "world",
	"dt":        "dt",
	"duration":  "duration",
	"log-level": "log_level",
	"metrics":   "metrics",
	"arena":     "arena",
	"store":     "storage.type",
	"data-dir":  "storage.dir",
	"db":        "storage.path",
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("world", d.World)
	v.SetDefault("dt", d.Dt)
	v.SetDefault("duration", d.Duration)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("metrics", d.Metrics)
	v.SetDefault("arena", d.Arena)
	v.SetDefault("physics.gravity", d.Physics.Gravity)
	v.SetDefault("physics.velocity_iterations", d.Physics.VelocityIterations)
	v.SetDefault("physics.position_iterations", d.Physics.PositionIterations)
	v.SetDefault("storage.type", d.Storage.Type)
	v.SetDefault("storage.dir", d.Storage.Dir)
	v.SetDefault("storage.path", d.Storage.Path)
}

// Load resolves the configuration from defaults, the YAML file at path (if
// non-empty), MV2DSIM_* environment variables and the changed flags in fs,
// in increasing order of precedence.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("mv2dsim")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if fs != nil {
		for name, key := range flagKeys {
			f := fs.Lookup(name)
			if f == nil || !f.Changed {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Dt <= 0 {
		errs = append(errs, fmt.Errorf("dt must be positive, got %g", c.Dt))
	}
	if c.Duration <= 0 {
		errs = append(errs, fmt.Errorf("duration must be positive, got %g", c.Duration))
	}
	if len(c.Physics.Gravity) != 2 {
		errs = append(errs, fmt.Errorf("physics.gravity needs 2 components, got %d", len(c.Physics.Gravity)))
	}
	if c.Physics.VelocityIterations <= 0 || c.Physics.PositionIterations <= 0 {
		errs = append(errs, errors.New("physics iterations must be positive"))
	}
	if c.Arena < 0 {
		errs = append(errs, fmt.Errorf("arena must not be negative, got %g", c.Arena))
	}
	return errors.Join(errs...)
}

// Gravity returns the physics gravity as a fixed pair.
func (c *Config) Gravity() [2]float64 {
	if len(c.Physics.Gravity) != 2 {
		return [2]float64{}
	}
	return [2]float64{c.Physics.Gravity[0], c.Physics.Gravity[1]}
}

// WorldText returns the world document named by c.World: a preset name or a
// path to an XML or YAML file.
func (c *Config) WorldText() (string, error) {
	if text, ok := GetPreset(c.World); ok {
		return text, nil
	}
	data, err := os.ReadFile(c.World)
	if err != nil {
		return "", fmt.Errorf("world %q is neither a preset nor a readable file: %w", c.World, err)
	}
	return string(data), nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
