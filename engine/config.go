package engine

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/anima-atlas/engine/atlas"
	"github.com/spaghettifunk/anima-atlas/engine/core"
	"github.com/spaghettifunk/anima-atlas/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-atlas/engine/systems"
)

type LogConfig struct {
	Level  string `toml:"level"`
	Prefix string `toml:"prefix"`
}

type AssetsConfig struct {
	Dir   string `toml:"dir"`
	Watch bool   `toml:"watch"`
}

type LoaderConfig struct {
	Workers   int `toml:"workers"`
	QueueSize int `toml:"queue_size"`
}

type EngineConfig struct {
	Name      string `toml:"name"`
	TargetFPS int    `toml:"target_fps"`
	// MaxFrames stops the loop after that many frames. Zero runs until quit.
	MaxFrames uint64 `toml:"max_frames"`
	// MetricsEvery logs frame metrics every that many frames. Zero disables it.
	MetricsEvery uint64 `toml:"metrics_every"`
}

// Config is the on-disk configuration, usually anima.toml.
type Config struct {
	Log    LogConfig                    `toml:"log"`
	Assets AssetsConfig                 `toml:"assets"`
	Atlas  atlas.DynamicAtlasConfig     `toml:"atlas"`
	Loader LoaderConfig                 `toml:"loader"`
	Engine EngineConfig                 `toml:"engine"`
	Fonts  []*metadata.BitmapFontConfig `toml:"fonts"`
}

func DefaultConfig() *Config {
	return &Config{
		Log:    LogConfig{Level: "info"},
		Assets: AssetsConfig{Dir: "assets", Watch: true},
		Atlas:  atlas.DefaultDynamicAtlasConfig(),
		Loader: LoaderConfig{Workers: 2, QueueSize: 64},
		Engine: EngineConfig{Name: "anima-atlas", TargetFPS: 60, MetricsEvery: 120},
	}
}

// LoadConfig decodes the file at path on top of DefaultConfig, so missing
// fields keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(data)
}

func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if _, err := core.ParseLogLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %w", core.ErrInvalidConfig, err)
	}
	if c.Loader.Workers < 1 {
		return fmt.Errorf("%w: loader.workers must be at least 1", core.ErrInvalidConfig)
	}
	if c.Loader.QueueSize < 0 {
		return fmt.Errorf("%w: loader.queue_size must be non-negative", core.ErrInvalidConfig)
	}
	if c.Engine.TargetFPS < 0 {
		return fmt.Errorf("%w: engine.target_fps must be non-negative", core.ErrInvalidConfig)
	}
	for i, f := range c.Fonts {
		if f == nil || f.Name == "" || f.ResourceName == "" {
			return fmt.Errorf("%w: fonts[%d] needs a name and a resource", core.ErrInvalidConfig, i)
		}
	}
	return c.Atlas.Validate()
}

// SystemManagerConfig maps the file configuration onto the systems.
func (c *Config) SystemManagerConfig() systems.SystemManagerConfig {
	return systems.SystemManagerConfig{
		Atlas:      c.Atlas,
		Workers:    c.Loader.Workers,
		QueueSize:  c.Loader.QueueSize,
		AssetsDir:  c.Assets.Dir,
		WatchAsset: c.Assets.Watch,
		Fonts:      c.Fonts,
	}
}

// ApplyLogging sets the global log level and prefix.
func (c *Config) ApplyLogging() {
	if level, err := core.ParseLogLevel(c.Log.Level); err == nil {
		core.SetLogLevel(level)
	}
	if c.Log.Prefix != "" {
		core.SetLogPrefix(c.Log.Prefix)
	}
}
