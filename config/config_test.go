package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseOverlaysDefaults(t *testing.T) {
	saved := Client
	savedNet := Net
	t.Cleanup(func() { Client, Net = saved, savedNet })

	err := Parse([]byte(`
client:
  server_addr: "10.0.0.5:9393"
net:
  interpolation_delay_ticks: 10
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if Client.ServerAddr != "10.0.0.5:9393" {
		t.Errorf("server addr = %q", Client.ServerAddr)
	}
	if Client.PlayerName != "player" {
		t.Errorf("player name default lost: %q", Client.PlayerName)
	}
	if Net.InterpolationDelayTicks != 10 || Net.InputRedundancy == 0 {
		t.Errorf("net = %+v", Net)
	}
}

func TestPrivateKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"empty is zero key", "", false},
		{"32 bytes", "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f", false},
		{"short", "0001", true},
		{"not hex", "zz", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := AuthConfig{PrivateKey: tt.key}.Key()
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.name == "32 bytes" && key[31] != 0x1f {
				t.Fatalf("key decoded wrong: %x", key)
			}
		})
	}
}

func TestParseRejectsBadKeyWithoutApplying(t *testing.T) {
	saved := Auth
	t.Cleanup(func() { Auth = saved })

	if err := Parse([]byte("auth:\n  private_key: \"abcd\"\n")); err == nil {
		t.Fatal("expected an error")
	}
	if Auth.PrivateKey != saved.PrivateKey {
		t.Fatal("bad config was partially applied")
	}
}

func TestLoad(t *testing.T) {
	saved := *C
	t.Cleanup(func() { *C = saved })

	path := filepath.Join(t.TempDir(), "client.yaml")
	if err := os.WriteFile(path, []byte("window:\n  width: 1280\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if C.Width != 1280 || C.Height != saved.Height {
		t.Fatalf("window = %+v", *C)
	}
	if err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
