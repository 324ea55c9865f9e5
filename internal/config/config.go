package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const EnvPrefix = "KOSBOT_"

var (
	ErrMissingToken         = errors.New("config: discord token is required")
	ErrMissingApplicationID = errors.New("config: discord application id is required")
)

type Config struct {
	Discord     DiscordConfig     `yaml:"discord" envPrefix:"DISCORD_"`
	Snapshot    SnapshotConfig    `yaml:"snapshot" envPrefix:"SNAPSHOT_"`
	NATS        NATSConfig        `yaml:"nats" envPrefix:"NATS_"`
	HTTP        HTTPConfig        `yaml:"http" envPrefix:"HTTP_"`
	Submissions SubmissionsConfig `yaml:"submissions" envPrefix:"SUBMISSIONS_"`
	LogLevel    string            `yaml:"log_level" env:"LOG_LEVEL"`
}

type DiscordConfig struct {
	Token         string `yaml:"token" env:"TOKEN"`
	OwnerID       string `yaml:"owner_id" env:"OWNER_ID"`
	ApplicationID string `yaml:"application_id" env:"APPLICATION_ID"`
	// GuildID — куда регистрировать команды; пусто = глобально.
	GuildID          string        `yaml:"guild_id" env:"GUILD_ID"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout" env:"HANDSHAKE_TIMEOUT"`
	UseProxy         bool          `yaml:"use_proxy" env:"USE_PROXY"`
}

type SnapshotConfig struct {
	Driver          string `yaml:"driver" env:"DRIVER"` // json | sqlite
	Path            string `yaml:"path" env:"PATH"`
	CreateIfMissing bool   `yaml:"create_if_missing" env:"CREATE_IF_MISSING"`
}

type NATSConfig struct {
	URL     string `yaml:"url" env:"URL"`
	Subject string `yaml:"subject" env:"SUBJECT"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr" env:"ADDR"`
}

type SubmissionsConfig struct {
	PerMinute float64 `yaml:"per_minute" env:"PER_MINUTE"`
	Burst     int     `yaml:"burst" env:"BURST"`
}

func Default() Config {
	return Config{
		Discord: DiscordConfig{
			HandshakeTimeout: 10 * time.Second,
		},
		Snapshot: SnapshotConfig{
			Driver:          "json",
			Path:            "conf/kos.json",
			CreateIfMissing: true,
		},
		NATS: NATSConfig{
			Subject: "kos.roster.admitted",
		},
		Submissions: SubmissionsConfig{
			PerMinute: 6,
			Burst:     3,
		},
		LogLevel: "info",
	}
}

// Load: дефолты → YAML (если файл есть) → .env (если есть) → окружение.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to unmarshal config: %w", err)
			}
		case errors.Is(err, fs.ErrNotExist):
			// конфиг-файл необязателен, всё можно задать через окружение
		default:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// Validate проверяет то, без чего бот не стартует.
func (c *Config) Validate() error {
	if c.Discord.Token == "" {
		return ErrMissingToken
	}
	if c.Snapshot.Path == "" {
		return errors.New("config: snapshot path is required")
	}
	return nil
}

// ValidateRegister — для регистрации команд нужен ещё application id.
func (c *Config) ValidateRegister() error {
	if c.Discord.Token == "" {
		return ErrMissingToken
	}
	if c.Discord.ApplicationID == "" {
		return ErrMissingApplicationID
	}
	return nil
}
