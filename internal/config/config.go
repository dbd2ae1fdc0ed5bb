package config

import (
	"time"

	"github.com/spf13/viper"
	pkgconfig "github.com/weiawesome/wes-io-chat/pkg/config"
	"github.com/weiawesome/wes-io-chat/pkg/log"
	"github.com/weiawesome/wes-io-chat/pkg/pubsub"
)

type Config struct {
	Server    ServerConfig
	WebSocket WebSocketConfig
	History   HistoryConfig
	Rooms     RoomsConfig
	IDs       IDConfig `mapstructure:"ids"`
	Presence  PresenceConfig
	Events    pubsub.Config
	Log       log.Config
}

type ServerConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type WebSocketConfig struct {
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
	SendBuffer     int           `mapstructure:"send_buffer"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// HistoryConfig bounds the message pages handed to clients.
type HistoryConfig struct {
	JoinWindow int `mapstructure:"join_window"`
	PageSize   int `mapstructure:"page_size"`
}

type RoomsConfig struct {
	AnnounceLeave bool `mapstructure:"announce_leave"`
}

type IDConfig struct {
	Generator string
	MachineID int64 `mapstructure:"machine_id"`
}

type PresenceConfig struct {
	Redis PresenceRedisConfig
}

type PresenceRedisConfig struct {
	Enabled           bool
	Address           string
	Password          string
	DB                int
	Key               string
	KeyTTL            time.Duration `mapstructure:"key_ttl"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
}

// Default returns the configuration used when neither a file nor env vars override anything.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 4000, ShutdownTimeout: 30 * time.Second},
		WebSocket: WebSocketConfig{
			PingInterval:   30 * time.Second,
			PongWait:       60 * time.Second,
			WriteWait:      10 * time.Second,
			MaxMessageSize: 10 << 20,
			SendBuffer:     256,
			AllowedOrigins: []string{"*"},
		},
		History: HistoryConfig{JoinWindow: 50, PageSize: 30},
		IDs:     IDConfig{Generator: "uuid", MachineID: 1},
		Presence: PresenceConfig{Redis: PresenceRedisConfig{
			Address:           "localhost:6379",
			Key:               "chat:presence:online",
			KeyTTL:            30 * time.Second,
			HeartbeatInterval: 10 * time.Second,
		}},
		Events: pubsub.DefaultConfig(),
		Log:    log.Config{Level: "info", ServiceName: "chat-service"},
	}
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}
	return FromViper(v)
}

// FromViper applies defaults and env bindings to v and decodes it.
func FromViper(v *viper.Viper) (*Config, error) {
	d := Default()

	// Set defaults
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.pong_wait", "60s")
	v.SetDefault("websocket.write_wait", "10s")
	v.SetDefault("websocket.max_message_size", d.WebSocket.MaxMessageSize)
	v.SetDefault("websocket.send_buffer", d.WebSocket.SendBuffer)
	v.SetDefault("websocket.allowed_origins", d.WebSocket.AllowedOrigins)
	v.SetDefault("history.join_window", d.History.JoinWindow)
	v.SetDefault("history.page_size", d.History.PageSize)
	v.SetDefault("rooms.announce_leave", false)
	v.SetDefault("ids.generator", d.IDs.Generator)
	v.SetDefault("ids.machine_id", d.IDs.MachineID)
	v.SetDefault("presence.redis.enabled", false)
	v.SetDefault("presence.redis.address", d.Presence.Redis.Address)
	v.SetDefault("presence.redis.password", "")
	v.SetDefault("presence.redis.db", 0)
	v.SetDefault("presence.redis.key", d.Presence.Redis.Key)
	v.SetDefault("presence.redis.key_ttl", "30s")
	v.SetDefault("presence.redis.heartbeat_interval", "10s")
	v.SetDefault("events.driver", d.Events.Driver)
	v.SetDefault("events.channel", d.Events.Channel)
	v.SetDefault("events.queue_size", d.Events.QueueSize)
	v.SetDefault("events.redis.address", d.Events.Redis.Address)
	v.SetDefault("events.redis.pool_size", d.Events.Redis.PoolSize)
	v.SetDefault("events.redis.read_timeout", "3s")
	v.SetDefault("events.redis.write_timeout", "3s")
	v.SetDefault("events.kafka.brokers", d.Events.Kafka.Brokers)
	v.SetDefault("events.kafka.partitions", d.Events.Kafka.Partitions)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.pretty", false)
	v.SetDefault("log.service_name", d.Log.ServiceName)

	// Override from environment
	v.BindEnv("server.port", "PORT")
	v.BindEnv("presence.redis.address", "REDIS_ADDRESS")
	v.BindEnv("presence.redis.password", "REDIS_PASSWORD")
	v.BindEnv("events.driver", "EVENTS_DRIVER")
	v.BindEnv("events.kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("log.level", "LOG_LEVEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Parse durations
	cfg.Server.ShutdownTimeout = parseDuration(v, "server.shutdown_timeout", d.Server.ShutdownTimeout)
	cfg.WebSocket.PingInterval = parseDuration(v, "websocket.ping_interval", d.WebSocket.PingInterval)
	cfg.WebSocket.PongWait = parseDuration(v, "websocket.pong_wait", d.WebSocket.PongWait)
	cfg.WebSocket.WriteWait = parseDuration(v, "websocket.write_wait", d.WebSocket.WriteWait)
	cfg.Presence.Redis.KeyTTL = parseDuration(v, "presence.redis.key_ttl", d.Presence.Redis.KeyTTL)
	cfg.Presence.Redis.HeartbeatInterval = parseDuration(v, "presence.redis.heartbeat_interval", d.Presence.Redis.HeartbeatInterval)
	cfg.Events.Redis.ReadTimeout = parseDuration(v, "events.redis.read_timeout", d.Events.Redis.ReadTimeout)
	cfg.Events.Redis.WriteTimeout = parseDuration(v, "events.redis.write_timeout", d.Events.Redis.WriteTimeout)

	if cfg.History.JoinWindow <= 0 {
		cfg.History.JoinWindow = d.History.JoinWindow
	}
	if cfg.History.PageSize <= 0 {
		cfg.History.PageSize = d.History.PageSize
	}
	if cfg.WebSocket.SendBuffer <= 0 {
		cfg.WebSocket.SendBuffer = d.WebSocket.SendBuffer
	}

	return &cfg, nil
}

func parseDuration(v *viper.Viper, key string, defaultVal time.Duration) time.Duration {
	str := v.GetString(key)
	d, err := time.ParseDuration(str)
	if err != nil {
		return defaultVal
	}
	return d
}
