package engine

type ApplicationConfig struct {
	// The application name used in logs.
	Name string
	// Path of the TOML configuration. Empty means DefaultConfig.
	ConfigPath string
	// Config, when set, is used as is and ConfigPath is ignored.
	Config *Config
}

func (ac *ApplicationConfig) load() (*Config, error) {
	if ac.Config != nil {
		if err := ac.Config.Validate(); err != nil {
			return nil, err
		}
		return ac.Config, nil
	}
	if ac.ConfigPath == "" {
		return DefaultConfig(), nil
	}
	return LoadConfig(ac.ConfigPath)
}
