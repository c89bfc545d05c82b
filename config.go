package shapley

import (
	"fmt"
	"os"

	"github.com/absmach/shapley/pkg/attribution"
	"github.com/pelletier/go-toml"
)

const (
	DefAttributorURL = "http://localhost:7070"
	filePermission   = 0o644
)

type Config struct {
	Attribution attribution.Config `toml:"attribution"`
	Attributor  AttributorConfig   `toml:"attributor"`
}

type AttributorConfig struct {
	URL       string `toml:"url"`
	DomainID  string `toml:"domain_id"`
	ChannelID string `toml:"channel_id"`
	ClientID  string `toml:"client_id"`
	ClientKey string `toml:"client_key"`
}

func DefaultConfig() Config {
	return Config{
		Attribution: attribution.DefaultConfig(),
		Attributor:  AttributorConfig{URL: DefAttributorURL},
	}
}

// LoadConfig reads a TOML file. Keys missing from the file keep their
// default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	tree, err := toml.Load(string(data))
	if err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	defaults, err := toml.Marshal(DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("error encoding default config: %w", err)
	}
	base, err := toml.LoadBytes(defaults)
	if err != nil {
		return nil, fmt.Errorf("error parsing default config: %w", err)
	}
	merge(base, tree, nil)

	var cfg Config
	if err := base.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}

func SaveConfig(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, filePermission); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// merge copies every leaf of src into dst at the same path.
func merge(dst, src *toml.Tree, path []string) {
	for _, key := range src.Keys() {
		keyPath := append(append([]string{}, path...), key)
		if sub, ok := src.GetPath([]string{key}).(*toml.Tree); ok {
			merge(dst, sub, keyPath)

			continue
		}
		dst.SetPath(keyPath, src.GetPath([]string{key}))
	}
}
