package internal

import (
	"fmt"
	"time"

	"room-sync/domain"
	"room-sync/infrastructure/socket"
	"room-sync/runtime"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

type Config struct {
	LogLevel       string `env:"LOG_LEVEL,required=true"`
	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	SocketURL      string `env:"SOCKET_URL,required=true"`
	RoomID         string `env:"ROOM_ID,required=true"`
	UserID         string `env:"USER_ID,required=true"`
	SessionToken   string `env:"SESSION_TOKEN,required=true"`
	JWTSecret      string `env:"JWT_SECRET,required=true"`

	SnapshotTimeout    time.Duration `env:"SNAPSHOT_TIMEOUT,default=5s"`
	StoreTimeout       time.Duration `env:"STORE_TIMEOUT,default=8s"`
	TombstoneWindow    time.Duration `env:"TOMBSTONE_WINDOW,default=5s"`
	BoostCheckInterval time.Duration `env:"BOOST_CHECK_INTERVAL,default=1s"`
	SinkTimeout        time.Duration `env:"SINK_TIMEOUT,default=1s"`
	RestartInterval    time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	BufferSize         int           `env:"BUFFER_SIZE,default=64"`

	Host       string `env:"HOST,default=localhost"`
	HealthPort int    `env:"HEALTH_PORT,default=8081"`
	DebugPort  *int   `env:"DEBUG_PORT"`
}

// LoadConfig reads a local .env when present, then the environment.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	if config.BufferSize <= 0 {
		return Config{}, fmt.Errorf("BUFFER_SIZE must be positive, got %d", config.BufferSize)
	}
	return config, nil
}

func (c Config) Room() domain.RoomID {
	return domain.RoomID(c.RoomID)
}

// Runtime maps the timing keys onto the orchestrator configuration.
func (c Config) Runtime() runtime.Config {
	cfg := runtime.DefaultConfig()
	cfg.Session.SnapshotTimeout = c.SnapshotTimeout
	cfg.Session.StoreTimeout = c.StoreTimeout
	cfg.Session.TombstoneWindow = c.TombstoneWindow
	cfg.BoostCheckInterval = c.BoostCheckInterval
	cfg.SinkTimeout = c.SinkTimeout
	cfg.RestartInterval = c.RestartInterval
	cfg.BufferSize = c.BufferSize
	return cfg
}

func (c Config) Socket() socket.Config {
	return socket.DefaultConfig(c.SocketURL, c.SessionToken)
}
