package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Parses TOML", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		content := `
[credentials.spotify]
client_id = "cid"
client_secret = "secret"
delay_ms = 250

[credentials.musicbrainz]
user_agent = "curator/1.0 (ops@example.com)"

[credentials.youtube]
api_keys = ["k1", "k2"]

[database]
path = "curator.db"

[curation]
daily_count = 10
overfetch_multiplier = 2
reuse_cooldown_days = 30
genre_tags = ["pop", "rock"]

[schedule]
time = "03:30"
settle_delay_secs = 10
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		config, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}

		if config.Credentials.Spotify.ClientID != "cid" {
			t.Errorf("unexpected client id %q", config.Credentials.Spotify.ClientID)
		}
		if config.Credentials.Spotify.DelayMs != 250 {
			t.Errorf("unexpected delay %d", config.Credentials.Spotify.DelayMs)
		}
		if len(config.Credentials.YouTube.APIKeys) != 2 {
			t.Errorf("unexpected api keys %v", config.Credentials.YouTube.APIKeys)
		}
		if config.Curation.DailyCount != 10 {
			t.Errorf("unexpected daily count %d", config.Curation.DailyCount)
		}
		if config.Schedule.Time != "03:30" {
			t.Errorf("unexpected schedule time %q", config.Schedule.Time)
		}
		if err := config.Validate(); err != nil {
			t.Errorf("expected valid config, got %v", err)
		}
	})

	t.Run("Missing File", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("Environment Overlay Wins", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		content := `
[credentials.spotify]
client_id = "from-file"
client_secret = "from-file"

[credentials.youtube]
api_keys = ["file-key"]

[database]
path = "curator.db"
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		t.Setenv("SPOTIFY_CLIENT_ID", "from-env")
		t.Setenv("YOUTUBE_API_KEYS", "env-k1, env-k2")
		t.Setenv("CURATOR_DB_PATH", "/var/lib/curator.db")

		config, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}

		if config.Credentials.Spotify.ClientID != "from-env" {
			t.Errorf("expected env value, got %q", config.Credentials.Spotify.ClientID)
		}
		if config.Credentials.Spotify.ClientSecret != "from-file" {
			t.Errorf("expected file value preserved, got %q", config.Credentials.Spotify.ClientSecret)
		}
		keys := config.Credentials.YouTube.APIKeys
		if len(keys) != 2 || keys[0] != "env-k1" || keys[1] != "env-k2" {
			t.Errorf("expected env keys split and trimmed, got %v", keys)
		}
		if config.Database.Path != "/var/lib/curator.db" {
			t.Errorf("expected env db path, got %q", config.Database.Path)
		}
	})
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Curation.DailyCount <= 0 {
		t.Errorf("default daily count must be positive, got %d", config.Curation.DailyCount)
	}
	if config.Curation.OverfetchMultiplier <= 0 {
		t.Errorf("default multiplier must be positive, got %d", config.Curation.OverfetchMultiplier)
	}
	if config.Schedule.Time == "" {
		t.Error("default schedule time missing")
	}
	if len(config.Curation.GenreTags) == 0 {
		t.Error("default genre tags missing")
	}
	if err := config.Validate(); err != nil {
		t.Errorf("default config must validate, got %v", err)
	}
}

func TestCreateConfigFile(t *testing.T) {
	t.Run("Writes Example Config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")

		if err := CreateConfigFile(path); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if _, err := LoadConfig(path); err != nil {
			t.Errorf("created file should parse, got %v", err)
		}
	})

	t.Run("Refuses To Overwrite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("# existing"), 0644); err != nil {
			t.Fatalf("failed to seed file: %v", err)
		}

		if err := CreateConfigFile(path); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected refusal, got %v", err)
		}
	})
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		c := DefaultConfig()
		c.Database.Path = "curator.db"
		return c
	}

	t.Run("Rejects Zero Daily Count", func(t *testing.T) {
		c := base()
		c.Curation.DailyCount = 0
		if err := c.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected invalid config, got %v", err)
		}
	})

	t.Run("Rejects Missing Database Path", func(t *testing.T) {
		c := base()
		c.Database.Path = ""
		if err := c.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected invalid config, got %v", err)
		}
	})
}
