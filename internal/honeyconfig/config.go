// Package honeyconfig loads the honeypot's JSON configuration file and
// watches it for changes to the subset of settings that are safe to apply
// without restarting (the deception replacement table and banner strings).
package honeyconfig

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/stamparm/hontel/internal/deception"
)

// ReplacementEntry is one extra substring rewrite loaded from config, on
// top of the built-in hostname/distro/architecture/banner defaults.
type ReplacementEntry struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// Config is the honeypot's full runtime configuration.
type Config struct {
	AuthUsername *string `json:"auth_username"`
	AuthPassword *string `json:"auth_password"`
	MaxAuthAttempts int  `json:"max_auth_attempts"`

	ListenAddress string `json:"listen_address"`
	ListenPort    int    `json:"listen_port"`

	UseBusybox  bool `json:"use_busybox"`
	CheckChroot bool `json:"check_chroot"`

	LogPath    string `json:"log_path"`
	SamplesDir string `json:"samples_dir"`

	FakeHostname      string `json:"fake_hostname"`
	FakeArchitecture  string `json:"fake_architecture"`
	BusyboxFakeBanner string `json:"busybox_fake_banner"`

	Replacements []ReplacementEntry `json:"replacements"`
}

func strPtr(s string) *string { return &s }

// Default returns the configuration hontel.py shipped with: root/123456
// over a BusyBox shell on 0.0.0.0:23, three auth attempts, chroot required.
func Default() *Config {
	return &Config{
		AuthUsername:      strPtr("root"),
		AuthPassword:      strPtr("123456"),
		MaxAuthAttempts:   3,
		ListenAddress:     "0.0.0.0",
		ListenPort:        23,
		UseBusybox:        true,
		CheckChroot:       true,
		LogPath:           "/var/log/hontel.log",
		SamplesDir:        "/var/lib/hontel/samples",
		FakeHostname:      "prodigy",
		FakeArchitecture:  "MIPS",
		BusyboxFakeBanner: deception.DefaultFakeBanner,
	}
}

// Load reads path, applying it over Default(). A missing file is not an
// error: the honeypot runs with defaults. A field absent from the JSON
// document leaves the corresponding default untouched; a field explicitly
// set to null (auth_username, auth_password) disables that prompt.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("honeyconfig: reading %s: %w", path, err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("honeyconfig: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// BuildTable constructs the deception table described by this config:
// the built-in defaults (hostname/distro/arch/banner) followed by every
// configured extra replacement, in declaration order.
func (c *Config) BuildTable(realHostname, realBanner string) *deception.Table {
	t := deception.DefaultTable(realHostname, c.FakeHostname, c.FakeArchitecture, realBanner, c.BusyboxFakeBanner)
	for _, r := range c.Replacements {
		t.Append(r.Old, r.New)
	}
	return t
}
