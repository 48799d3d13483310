package atlas

import (
	"fmt"

	"github.com/spaghettifunk/anima-atlas/engine/core"
	"github.com/spaghettifunk/anima-atlas/engine/renderer/metadata"
)

// DynamicAtlasConfig holds the atlas page policy.
type DynamicAtlasConfig struct {
	// ExpansionStrategy is "fixed" or "dynamic". Default: fixed
	ExpansionStrategy metadata.ExpansionStrategy `toml:"expansion_strategy"`

	// InitialPageSize is the side of page 0 under the dynamic strategy. Default: 256
	InitialPageSize int `toml:"initial_page_size"`

	// FixedPageSize is the side of every page under the fixed strategy. Default: 1024
	FixedPageSize int `toml:"fixed_page_size"`

	// MaxPageSize caps page growth. Default: 2048
	MaxPageSize int `toml:"max_page_size"`

	// MaxPages limits the number of pages. Default: 4
	MaxPages int `toml:"max_pages"`

	// MaxTextureSize rejects textures wider or taller than this. Default: 512
	MaxTextureSize int `toml:"max_texture_size"`

	// Padding is added to the right and bottom of every packed texture. Default: 1
	Padding int `toml:"padding"`
}

// DefaultDynamicAtlasConfig returns default configuration.
func DefaultDynamicAtlasConfig() DynamicAtlasConfig {
	return DynamicAtlasConfig{
		ExpansionStrategy: metadata.ExpansionStrategyFixed,
		InitialPageSize:   256,
		FixedPageSize:     1024,
		MaxPageSize:       2048,
		MaxPages:          4,
		MaxTextureSize:    512,
		Padding:           1,
	}
}

// Validate checks if the configuration is valid.
func (c *DynamicAtlasConfig) Validate() error {
	if c.InitialPageSize < 1 {
		return &ConfigError{Field: "InitialPageSize", Reason: "must be positive"}
	}
	if c.FixedPageSize < 1 {
		return &ConfigError{Field: "FixedPageSize", Reason: "must be positive"}
	}
	if c.MaxPageSize < c.InitialPageSize {
		return &ConfigError{Field: "MaxPageSize", Reason: "must be at least InitialPageSize"}
	}
	if c.MaxPages < 1 {
		return &ConfigError{Field: "MaxPages", Reason: "must be at least 1"}
	}
	if c.MaxTextureSize < 1 {
		return &ConfigError{Field: "MaxTextureSize", Reason: "must be positive"}
	}
	if c.Padding < 0 {
		return &ConfigError{Field: "Padding", Reason: "must be non-negative"}
	}
	switch c.ExpansionStrategy {
	case metadata.ExpansionStrategyFixed, metadata.ExpansionStrategyDynamic:
	default:
		return &ConfigError{Field: "ExpansionStrategy", Reason: fmt.Sprintf("unknown value %d", c.ExpansionStrategy)}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "atlas: invalid config." + e.Field + ": " + e.Reason
}

func (e *ConfigError) Unwrap() error {
	return core.ErrInvalidConfig
}
