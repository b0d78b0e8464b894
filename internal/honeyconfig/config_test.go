package honeyconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ListenPort != 23 || cfg.AuthUsername == nil || *cfg.AuthUsername != "root" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadOverridesOnlyGivenFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hontel.json")
	if err := os.WriteFile(path, []byte(`{"listen_port": 2323}`), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ListenPort != 2323 {
		t.Fatalf("got port %d want 2323", cfg.ListenPort)
	}
	if cfg.ListenAddress != "0.0.0.0" {
		t.Fatalf("default listen_address was clobbered: %q", cfg.ListenAddress)
	}
}

func TestLoadNullAuthUsernameDisablesPrompt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hontel.json")
	if err := os.WriteFile(path, []byte(`{"auth_username": null}`), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.AuthUsername != nil {
		t.Fatalf("expected auth_username to be nil, got %v", *cfg.AuthUsername)
	}
	if cfg.AuthPassword == nil || *cfg.AuthPassword != "123456" {
		t.Fatalf("auth_password default should survive: %+v", cfg.AuthPassword)
	}
}

func TestBuildTableIncludesConfiguredReplacements(t *testing.T) {
	cfg := Default()
	cfg.Replacements = []ReplacementEntry{{Old: "secret-corp", New: "acme"}}
	tbl := cfg.BuildTable("myhost", "")
	out := string(tbl.Apply([]byte("welcome to secret-corp, myhost")))
	want := "welcome to acme, prodigy"
	if out != want {
		t.Fatalf("got %q want %q", out, want)
	}
}
