package pubsub

import (
	"fmt"
	"time"
)

const (
	DriverNone  = "none"
	DriverRedis = "redis"
	DriverKafka = "kafka"
)

// Config selects and configures the bus used to fan catalogue events out
// to every API instance.
type Config struct {
	Driver string      `mapstructure:"driver"`
	Redis  RedisConfig `mapstructure:"redis"`
	Kafka  KafkaConfig `mapstructure:"kafka"`
}

type RedisConfig struct {
	Address      string        `mapstructure:"address"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// KafkaConfig configures the Kafka driver. Brokers is a comma separated
// bootstrap list; each instance joins its own consumer group derived from
// GroupID so every instance sees every event.
type KafkaConfig struct {
	Brokers    string `mapstructure:"brokers"`
	GroupID    string `mapstructure:"group_id"`
	Partitions int    `mapstructure:"partitions"`
}

// Enabled reports whether a bus driver is configured.
func (c Config) Enabled() bool {
	return c.Driver != "" && c.Driver != DriverNone
}

// NewPubSub connects the configured driver.
func NewPubSub(cfg Config) (PubSub, error) {
	if cfg.Driver == DriverKafka {
		return NewKafkaPubSub(cfg.Kafka)
	}
	if cfg.Driver == DriverRedis {
		return NewRedisPubSub(cfg.Redis)
	}
	return nil, fmt.Errorf("pubsub: unsupported driver %q", cfg.Driver)
}
