package config

import (
	"time"

	pkgconfig "github.com/forfuturefoundation2024-hash/AIVEX/pkg/config"
	"github.com/forfuturefoundation2024-hash/AIVEX/pkg/database"
	pkglog "github.com/forfuturefoundation2024-hash/AIVEX/pkg/log"
	"github.com/forfuturefoundation2024-hash/AIVEX/pkg/pubsub"
	"github.com/forfuturefoundation2024-hash/AIVEX/pkg/storage"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	WebSocket WebSocketConfig `mapstructure:"websocket"`
	Realtime  RealtimeConfig
	Redis     RedisConfig
	Cache     CacheConfig
	PubSub    pubsub.Config  `mapstructure:"pubsub"`
	Storage   storage.Config `mapstructure:"storage"`
	CORS      CORSConfig     `mapstructure:"cors"`
	Log       pkglog.Config
}

type ServerConfig struct {
	Host            string
	Port            int
	StaticDir       string        `mapstructure:"static_dir"`
	MaxUploadSize   int64         `mapstructure:"max_upload_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	TimeZone        string `mapstructure:"timezone"`
	FilePath        string `mapstructure:"file_path"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	LogLevel        string `mapstructure:"log_level"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
	Issuer    string
}

type WebSocketConfig struct {
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
	SendBuffer     int           `mapstructure:"send_buffer"`
}

// RealtimeConfig holds relay hardening options.
type RealtimeConfig struct {
	// RequireToken makes the relay verify a bearer token at upgrade time
	// and only accept auth frames for the identity it carries.
	RequireToken bool `mapstructure:"require_token"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Prefix  string        `mapstructure:"prefix"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	MaxAge         int      `mapstructure:"max_age"`
}

var defaults = map[string]any{
	"server.host":                "0.0.0.0",
	"server.port":                3000,
	"server.static_dir":          "",
	"server.max_upload_size":     256 << 20,
	"server.shutdown_timeout":    "30s",
	"database.driver":            "sqlite",
	"database.file_path":         "market.db",
	"database.host":              "localhost",
	"database.port":              5432,
	"database.sslmode":           "disable",
	"database.log_level":         "warn",
	"database.max_idle_conns":    5,
	"database.max_open_conns":    20,
	"database.conn_max_lifetime": 30,
	"auth.jwt_secret":            "globalsoft-secret-key",
	"auth.token_ttl":             "0s",
	"auth.issuer":                "globalsoft",
	"websocket.ping_interval":    "30s",
	"websocket.pong_wait":        "60s",
	"websocket.write_wait":       "10s",
	"websocket.max_message_size": 64 * 1024,
	"websocket.send_buffer":      256,
	"realtime.require_token":     false,
	"redis.address":              "localhost:6379",
	"redis.db":                   0,
	"cache.enabled":              false,
	"cache.prefix":               "market:product",
	"cache.ttl":                  "5m",
	"pubsub.driver":              pubsub.DriverNone,
	"pubsub.kafka.brokers":       "localhost:9092",
	"pubsub.kafka.group_id":      "market",
	"pubsub.kafka.partitions":    1,
	"storage.driver":             "local",
	"storage.local.base_path":    "./data/releases",
	"storage.s3.region":          "us-east-1",
	"storage.s3.prefix":          "releases",
	"cors.allowed_origins":       []string{"*"},
	"cors.max_age":               300,
	"log.level":                  "info",
	"log.format":                 "json",
	"log.service_name":           "market-api",
}

var envOverrides = map[string]string{
	"server.port":                  "PORT",
	"server.static_dir":            "STATIC_DIR",
	"database.driver":              "DB_DRIVER",
	"database.file_path":           "DB_FILE_PATH",
	"database.host":                "DB_HOST",
	"database.port":                "DB_PORT",
	"database.user":                "DB_USER",
	"database.password":            "DB_PASSWORD",
	"database.dbname":              "DB_NAME",
	"auth.jwt_secret":              "JWT_SECRET",
	"auth.token_ttl":               "JWT_TOKEN_TTL",
	"realtime.require_token":       "REALTIME_REQUIRE_TOKEN",
	"redis.address":                "REDIS_ADDRESS",
	"redis.password":               "REDIS_PASSWORD",
	"cache.enabled":                "CACHE_ENABLED",
	"pubsub.driver":                "PUBSUB_DRIVER",
	"pubsub.kafka.brokers":         "KAFKA_BROKERS",
	"storage.driver":               "STORAGE_DRIVER",
	"storage.local.base_path":      "STORAGE_BASE_PATH",
	"storage.s3.endpoint":          "S3_ENDPOINT",
	"storage.s3.bucket":            "S3_BUCKET",
	"storage.s3.access_key_id":     "S3_ACCESS_KEY_ID",
	"storage.s3.secret_access_key": "S3_SECRET_ACCESS_KEY",
	"storage.s3.public_url":        "S3_PUBLIC_URL",
	"log.level":                    "LOG_LEVEL",
	"log.format":                   "LOG_FORMAT",
}

// Load reads config.yaml from dir (or ./config) and applies env overrides.
func Load(dir string) (*Config, error) {
	var cfg Config
	err := pkgconfig.Decode(pkgconfig.Source{
		Name:     "config",
		Dirs:     []string{dir},
		Defaults: defaults,
		Env:      envOverrides,
	}, &cfg)
	if err != nil {
		return nil, err
	}

	// The bus shares the Redis connection settings.
	cfg.PubSub.Redis.Address = cfg.Redis.Address
	cfg.PubSub.Redis.Password = cfg.Redis.Password
	cfg.PubSub.Redis.DB = cfg.Redis.DB

	return &cfg, nil
}

// DBConfig maps the loaded settings onto pkg/database.
func (c *Config) DBConfig() *database.Config {
	return &database.Config{
		Driver:          c.Database.Driver,
		Host:            c.Database.Host,
		Port:            c.Database.Port,
		User:            c.Database.User,
		Password:        c.Database.Password,
		DBName:          c.Database.DBName,
		SSLMode:         c.Database.SSLMode,
		TimeZone:        c.Database.TimeZone,
		FilePath:        c.Database.FilePath,
		MaxIdleConns:    c.Database.MaxIdleConns,
		MaxOpenConns:    c.Database.MaxOpenConns,
		ConnMaxLifetime: c.Database.ConnMaxLifetime,
		LogLevel:        c.Database.LogLevel,
	}
}
