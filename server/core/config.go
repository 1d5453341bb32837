package core

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/automoto/netfps/shared/netconfig"
	"gopkg.in/yaml.v3"
)

// Config holds server settings. Zero values are replaced by defaults in
// DefaultConfig; a YAML file may override any of them.
type Config struct {
	Port     uint   `yaml:"port"`
	TickRate int    `yaml:"tick_rate"`
	Level    string `yaml:"level"`
	// AssetsDir holds a levels/ directory of TMX files. Empty means the
	// levels embedded in the binary.
	AssetsDir  string `yaml:"assets_dir"`
	MaxPlayers int    `yaml:"max_players"`
	Auth       Auth   `yaml:"auth"`
}

// Auth is what a connect request is checked against.
type Auth struct {
	ProtocolID uint64 `yaml:"protocol_id"`
	// PrivateKey is hex encoded; empty means all zeroes.
	PrivateKey string `yaml:"private_key"`
}

// DefaultConfig returns the dev configuration.
func DefaultConfig() Config {
	return Config{
		Port:       netconfig.DefaultPort,
		TickRate:   netconfig.TickRate,
		MaxPlayers: 16,
		Auth:       Auth{ProtocolID: netconfig.DefaultProtocolID},
	}
}

// LoadConfig overlays the YAML file at path onto DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks settings the client cannot adapt to. Clients simulate at
// netconfig.TickRate, so the server must too.
func (c Config) Validate() error {
	if c.TickRate != netconfig.TickRate {
		return fmt.Errorf("tick rate %d: clients only run at %d", c.TickRate, netconfig.TickRate)
	}
	if _, err := c.Auth.Key(); err != nil {
		return err
	}
	return nil
}

// Key decodes the private key.
func (a Auth) Key() ([netconfig.KeySize]byte, error) {
	var key [netconfig.KeySize]byte
	if a.PrivateKey == "" {
		return key, nil
	}
	raw, err := hex.DecodeString(a.PrivateKey)
	if err != nil {
		return key, fmt.Errorf("private key: %w", err)
	}
	if len(raw) != netconfig.KeySize {
		return key, fmt.Errorf("private key: got %d bytes, want %d", len(raw), netconfig.KeySize)
	}
	copy(key[:], raw)
	return key, nil
}
