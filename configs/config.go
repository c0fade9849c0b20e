package configs

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/nimeshabuddhika/account-service-go/pkg/utils"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config holds application configuration loaded from environment variables and optional config file.
type Config struct {
	Port                string        `mapstructure:"PORT" validate:"required"`
	PrimaryDbAddr       string        `mapstructure:"PRIMARY_DB_ADDR" validate:"required"`
	ReplicaDbAddr       string        `mapstructure:"REPLICA_DB_ADDR"`
	MaxDbCons           int32         `mapstructure:"MAX_DB_CONNECTIONS" validate:"min=1"`
	MinDbCons           int32         `mapstructure:"MIN_DB_CONNECTIONS" validate:"min=1"`
	KafkaBrokers        string        `mapstructure:"KAFKA_BROKERS"` // empty disables event publishing
	KafkaAccountTopic   string        `mapstructure:"KAFKA_ACCOUNT_TOPIC" validate:"required"`
	KafkaPartition      uint32        `mapstructure:"KAFKA_PARTITION" validate:"min=1"`
	KafkaEventRetention time.Duration `mapstructure:"KAFKA_EVENT_RETENTION" validate:"required"`
	RedisAddr           string        `mapstructure:"REDIS_ADDR"` // empty keeps rate limiting per-instance
	RedisPassword       string        `mapstructure:"REDIS_PASSWORD"`
	RateLimitRps        int           `mapstructure:"RATE_LIMIT_RPS" validate:"min=0"` // 0 disables rate limiting
	RateLimitBurst      int           `mapstructure:"RATE_LIMIT_BURST" validate:"min=1"`
}

// Load reads configuration from environment (and optional config file), then validates it.
func Load(logger *zap.Logger) (*Config, error) {
	viper.SetEnvPrefix("app") // Prefix for env vars
	viper.AutomaticEnv()

	// Default values
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("MAX_DB_CONNECTIONS", "10")
	viper.SetDefault("MIN_DB_CONNECTIONS", "2")
	viper.SetDefault("KAFKA_ACCOUNT_TOPIC", "account.events")
	viper.SetDefault("KAFKA_PARTITION", "4")
	viper.SetDefault("KAFKA_EVENT_RETENTION", "168h")
	viper.SetDefault("RATE_LIMIT_RPS", "0")
	viper.SetDefault("RATE_LIMIT_BURST", "20")

	// Optional: Read from config.yaml if exists
	if gin.ReleaseMode == gin.Mode() {
		viper.SetConfigName("config.prod")
	} else if gin.TestMode == gin.Mode() {
		logger.Warn("running in test mode")
		viper.SetConfigName("config.test")
	} else {
		logger.Warn("running in development mode")
		viper.SetConfigName("config.dev")
	}
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	_ = viper.ReadInConfig() // Ignore if no file

	var cfg Config
	if err := utils.ParseStructEnv(&cfg); err != nil {
		return nil, err
	}
	// Validate after unmarshal
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, utils.FormatConfigErrors(logger, err, cfg)
	}
	return &cfg, nil
}
