package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestDefaultConfig_Prefix verifies the command prefix default
func TestDefaultConfig_Prefix(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Bot.CommandPrefix != "!" {
		t.Errorf("expected prefix '!', got %q", cfg.Bot.CommandPrefix)
	}
}

// TestDefaultConfig_Endpoints verifies provider endpoints are set
func TestDefaultConfig_Endpoints(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.PDB.BaseURL == "" {
		t.Error("PDB base URL should not be empty")
	}
	if cfg.Stream.BaseURL == "" || cfg.Stream.WSURL == "" {
		t.Error("Stream endpoints should not be empty")
	}
	if cfg.Trivia.BaseURL == "" {
		t.Error("Trivia base URL should not be empty")
	}
}

// TestLoad_MissingFileUsesDefaults verifies a fresh start works
func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Bot.CommandPrefix != "!" {
		t.Errorf("defaults should apply, got prefix %q", cfg.Bot.CommandPrefix)
	}
}

// TestLoad_FileOverridesDefaults verifies file values win over defaults
func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := []byte(`{"bot": {"name": "akane", "command_prefix": "?"}}`)
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Bot.Name != "akane" || cfg.Bot.CommandPrefix != "?" {
		t.Errorf("file values should override defaults, got %+v", cfg.Bot)
	}
	if cfg.PDB.BaseURL == "" {
		t.Error("unset fields should keep defaults")
	}
}

// TestLoad_EnvOverridesFile verifies environment beats the file
func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := []byte(`{"bot": {"command_prefix": "?"}}`)
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PDBOT_BOT_COMMAND_PREFIX", "$")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Bot.CommandPrefix != "$" {
		t.Errorf("env should override the file, got %q", cfg.Bot.CommandPrefix)
	}
}

// TestSetCredentials_RoundTrip verifies credentials persist through Save/Load
func TestSetCredentials_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.SetCredentials("bot@example.com", "acc", "ref", 123456); err != nil {
		t.Fatal(err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.PDB.Email != "bot@example.com" ||
		reloaded.PDB.AccessToken != "acc" ||
		reloaded.PDB.RefreshToken != "ref" ||
		reloaded.PDB.ExpireAt != 123456 {
		t.Errorf("credentials did not round-trip: %+v", reloaded.PDB)
	}
}

// TestClearCredentials verifies the wipe used on refresh failure
func TestClearCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.SetCredentials("bot@example.com", "acc", "ref", 123456); err != nil {
		t.Fatal(err)
	}
	if err := cfg.ClearCredentials(); err != nil {
		t.Fatal(err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.PDB.Email != "" || reloaded.PDB.AccessToken != "" || reloaded.PDB.ExpireAt != 0 {
		t.Errorf("credentials should be wiped, got %+v", reloaded.PDB)
	}
}

// TestExpandPath verifies home expansion
func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	if got := ExpandPath("~/x/y.db"); got != filepath.Join(home, "x/y.db") {
		t.Errorf("unexpected expansion: %q", got)
	}
	if got := ExpandPath("/abs/path"); got != "/abs/path" {
		t.Errorf("absolute paths should pass through, got %q", got)
	}
}
