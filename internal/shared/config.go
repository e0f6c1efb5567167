package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Curation    CurationConfig    `toml:"curation"`
	Schedule    ScheduleConfig    `toml:"schedule"`
}

// CredentialsConfig contains source-specific credentials.
type CredentialsConfig struct {
	Spotify     SpotifyConfig     `toml:"spotify"`
	MusicBrainz MusicBrainzConfig `toml:"musicbrainz"`
	YouTube     YouTubeConfig     `toml:"youtube"`
}

// SpotifyConfig contains Spotify client-credentials secrets and pacing.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	DelayMs      int    `toml:"delay_ms"`
}

// MusicBrainzConfig contains the mandatory descriptive user agent and pacing.
//
// MusicBrainz rejects anonymous clients and requires at least one second
// between requests.
type MusicBrainzConfig struct {
	UserAgent string `toml:"user_agent"`
	DelayMs   int    `toml:"delay_ms"`
}

// YouTubeConfig contains YouTube Data API keys and pacing.
// Multiple keys enable rotation when a key's daily quota runs out.
type YouTubeConfig struct {
	APIKeys []string `toml:"api_keys"`
	DelayMs int      `toml:"delay_ms"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// CurationConfig holds the curation pipeline tunables. The thresholds are
// empirically chosen; they are configuration rather than constants so they
// stay overridable without a rebuild.
type CurationConfig struct {
	DailyCount           int      `toml:"daily_count"`
	OverfetchMultiplier  int      `toml:"overfetch_multiplier"`
	ReuseCooldownDays    int      `toml:"reuse_cooldown_days"`
	MatchThreshold       int      `toml:"match_threshold"`
	DurationToleranceMs  int      `toml:"duration_tolerance_ms"`
	DurationTolerancePct float64  `toml:"duration_tolerance_pct"`
	GenreTags            []string `toml:"genre_tags"`
	RequestTimeoutSecs   int      `toml:"request_timeout_secs"`
}

// ScheduleConfig controls when the daily curation run fires.
type ScheduleConfig struct {
	Time             string `toml:"time"` // "HH:MM", local time
	SettleDelaySecs  int    `toml:"settle_delay_secs"`
	LookaheadEnabled bool   `toml:"lookahead_enabled"` // curate tomorrow's challenge instead of today's
}

// LoadConfig reads and parses a TOML configuration file from the specified
// path, then overlays secrets from the environment (a .env file is honored
// when present).
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.overlayEnv()
	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the
// embedded example config, with the environment overlay applied.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	config.overlayEnv()
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, ErrInvalidInput)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// overlayEnv replaces credential fields with environment values when set.
// Secrets live in the environment (or a .env file) so the TOML file can be
// checked in without them.
func (c *Config) overlayEnv() {
	_ = godotenv.Load()

	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Credentials.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Credentials.Spotify.ClientSecret = v
	}
	if v := os.Getenv("MUSICBRAINZ_USER_AGENT"); v != "" {
		c.Credentials.MusicBrainz.UserAgent = v
	}
	if v := os.Getenv("YOUTUBE_API_KEYS"); v != "" {
		keys := []string{}
		for _, k := range strings.Split(v, ",") {
			if k = strings.TrimSpace(k); k != "" {
				keys = append(keys, k)
			}
		}
		if len(keys) > 0 {
			c.Credentials.YouTube.APIKeys = keys
		}
	}
	if v := os.Getenv("CURATOR_DB_PATH"); v != "" {
		c.Database.Path = v
	}
}

// Validate checks that the configuration can support a curation run.
func (c *Config) Validate() error {
	if c.Curation.DailyCount <= 0 {
		return fmt.Errorf("%w: daily_count must be positive", ErrInvalidConfig)
	}
	if c.Curation.OverfetchMultiplier <= 0 {
		return fmt.Errorf("%w: overfetch_multiplier must be positive", ErrInvalidConfig)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("%w: database path required", ErrInvalidConfig)
	}
	return nil
}
