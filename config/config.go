package config

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/automoto/netfps/shared/netconfig"
	"gopkg.in/yaml.v3"
)

// Config contains window settings.
type Config struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
}

// ClientConfig contains connection settings.
type ClientConfig struct {
	ServerAddr string `yaml:"server_addr"`
	PlayerName string `yaml:"player_name"`
	// AppName keys the on-disk data directory (client id persistence).
	AppName string `yaml:"app_name"`
	// Profile selects one of several client ids kept under AppName, so two
	// clients run by the same user can join the same server.
	Profile string `yaml:"profile"`
	// Headless runs the client without a window, driven by scripted input.
	Headless bool `yaml:"headless"`
}

// AuthConfig is the shape of the connect token.
type AuthConfig struct {
	ProtocolID uint64 `yaml:"protocol_id"`
	// PrivateKey is hex encoded; empty means all zeroes.
	PrivateKey string `yaml:"private_key"`
	// TokenExpireSecs <= 0 means never expires.
	TokenExpireSecs int64 `yaml:"token_expire_secs"`
}

// NetConfig tunes prediction and interpolation.
type NetConfig struct {
	InterpolationDelayTicks int `yaml:"interpolation_delay_ticks"`
	InputRedundancy         int `yaml:"input_redundancy"`
	InputLeadTicks          int `yaml:"input_lead_ticks"`
}

// DebugConfig toggles debug overlays.
type DebugConfig struct {
	ShowColliders bool `yaml:"show_colliders"`
	ShowNetStats  bool `yaml:"show_net_stats"`
}

// File is the on-disk layout of a client config file. Every section is
// optional; missing values keep their defaults.
type File struct {
	Window Config       `yaml:"window"`
	Client ClientConfig `yaml:"client"`
	Auth   AuthConfig   `yaml:"auth"`
	Net    NetConfig    `yaml:"net"`
	Debug  DebugConfig  `yaml:"debug"`
}

var C *Config
var Client ClientConfig
var Auth AuthConfig
var Net NetConfig
var Debug DebugConfig

func init() {
	C = &Config{
		Width:  960,
		Height: 540,
		Title:  "netfps",
	}

	Client = ClientConfig{
		ServerAddr: fmt.Sprintf("127.0.0.1:%d", netconfig.DefaultPort),
		PlayerName: "player",
		AppName:    "netfps",
	}

	// Dev defaults: zero key, protocol 0, tokens never expire.
	Auth = AuthConfig{
		ProtocolID:      netconfig.DefaultProtocolID,
		TokenExpireSecs: -1,
	}

	Net = NetConfig{
		InterpolationDelayTicks: netconfig.InterpolationDelayTicks,
		InputRedundancy:         netconfig.InputRedundancy,
		InputLeadTicks:          netconfig.InputLeadTicks,
	}

	Debug = DebugConfig{
		ShowColliders: true,
	}
}

// Load overlays a YAML file onto the current configuration.
func Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse overlays YAML bytes onto the current configuration.
func Parse(data []byte) error {
	f := File{Window: *C, Client: Client, Auth: Auth, Net: Net, Debug: Debug}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if _, err := f.Auth.Key(); err != nil {
		return err
	}
	*C = f.Window
	Client, Auth, Net, Debug = f.Client, f.Auth, f.Net, f.Debug
	return nil
}

// Key decodes the private key.
func (a AuthConfig) Key() ([netconfig.KeySize]byte, error) {
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
