package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const (
	CatalogNone     = "none"
	CatalogSqlite   = "sqlite"
	CatalogPostgres = "postgres"
)

type Config struct {
	HttpServerPort uint16 `env:"HTTP_SERVER_PORT" envDefault:"4000" validate:"min=1000,max=65535"`
	InstanceID     string `env:"INSTANCE_ID"`

	LogLevel  string `env:"LOG_LEVEL"  envDefault:"debug" validate:"oneof=debug info warn error"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console" validate:"oneof=console json"`

	WsAllowedOrigins []string      `env:"WS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	WsSendQueue      int           `env:"WS_SEND_QUEUE"  envDefault:"64"    validate:"min=1,max=4096"`
	WsReadLimit      int64         `env:"WS_READ_LIMIT"  envDefault:"4096"  validate:"min=512"`
	WsWriteWait      time.Duration `env:"WS_WRITE_WAIT"  envDefault:"10s"   validate:"min=100ms"`
	WsPongWait       time.Duration `env:"WS_PONG_WAIT"   envDefault:"60s"   validate:"min=1s"`

	RedisEnabled  bool   `env:"REDIS_ENABLED"  envDefault:"false"`
	RedisHost     string `env:"REDIS_HOST"     envDefault:"localhost"`
	RedisPort     uint16 `env:"REDIS_PORT"     envDefault:"6379"   validate:"min=1000,max=65535"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDb       int    `env:"REDIS_DB"       envDefault:"0"      validate:"min=0,max=15"`

	PresenceResyncInterval time.Duration `env:"PRESENCE_RESYNC_INTERVAL" envDefault:"10s" validate:"min=1s"`
	PresenceTTL            time.Duration `env:"PRESENCE_TTL"             envDefault:"30s" validate:"gtfield=PresenceResyncInterval"`

	CatalogDriver string `env:"CATALOG_DRIVER" envDefault:"none" validate:"oneof=none sqlite postgres"`
	SqlitePath    string `env:"SQLITE_PATH"    envDefault:"media.db"`

	PostgresHost     string `env:"POSTGRES_HOST"     envDefault:"localhost"`
	PostgresPort     string `env:"POSTGRES_PORT"     envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER"     envDefault:"songsync_user"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"songsync_password"`
	PostgresDb       string `env:"POSTGRES_DB"       envDefault:"songsync_db"`

	UploadDir      string `env:"UPLOAD_DIR"       envDefault:"/tmp/uploads"   validate:"required"`
	DownloadDir    string `env:"DOWNLOAD_DIR"     envDefault:"/tmp/downloads" validate:"required"`
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES" envDefault:"52428800"       validate:"min=1"`
	YtDlpPath      string `env:"YTDLP_PATH"       envDefault:"yt-dlp"`
	FfmpegPath     string `env:"FFMPEG_PATH"`
	SearchLimit    int    `env:"SEARCH_LIMIT"     envDefault:"7"              validate:"min=1,max=50"`
}

func LoadConfig() (*Config, error) {
	// Load environment variables from .env file
	err := godotenv.Load(".env")
	if err != nil {
		zap.L().Debug(".env file not found", zap.Error(err))
	}

	cfg := &Config{}
	// Parse config from environment variables
	if err = env.Parse(cfg); err != nil {
		zap.L().Error("config_load_failed", zap.Error(err))
		return nil, err
	}

	// Validate the config
	validate := validator.New()
	err = validate.Struct(cfg)
	if err != nil {
		zap.L().Error("config_validation_failed", zap.Error(err))
		return nil, err
	}
	return cfg, nil
}

// PostgresDSN builds the pgx connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		c.PostgresUser, c.PostgresPassword, c.PostgresHost, c.PostgresPort, c.PostgresDb,
	)
}
