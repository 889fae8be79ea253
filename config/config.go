package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env       string
	Server    ServerConfig
	Redis     RedisConfig
	MySQL     MySQLConfig
	Admission AdmissionConfig
	Queue     QueueConfig
	Seats     SeatConfig
	Booking   BookingConfig
	JWT       JWTConfig
	Log       LogConfig
	Kafka     KafkaConfig
}

type ServerConfig struct {
	HTTPPort        int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	MaxRetries   int
	PoolSize     int
	MinIdleConns int
	OpTimeout    time.Duration
}

type MySQLConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// AdmissionConfig drives the capacity formula:
// maxActiveSessions = min(fleetSize * BaseSessionsPerReplica, MaxTotalSessions).
type AdmissionConfig struct {
	SessionTimeout         time.Duration
	BaseSessionsPerReplica int
	MaxTotalSessions       int
	FallbackFleetSize      int
	DynamicScalingEnabled  bool
}

type QueueConfig struct {
	PromotionInterval time.Duration
	ExpiryInterval    time.Duration
	StatsInterval     time.Duration
	BatchCeiling      int
	PartitionEnabled  bool
	ReplicaIndex      int
}

type SeatConfig struct {
	LockTTL       time.Duration
	MaxPerRequest int
}

type BookingConfig struct {
	TotalSeats   int
	PricePerSeat int
	SoldOutTTL   time.Duration
}

type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

type LogConfig struct {
	Level    string
	Mode     string
	Encoding string
}

type KafkaConfig struct {
	Brokers              []string
	ProducerRetryMax     int
	ProducerRequiredAcks int
	Enabled              bool
}

func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	cfg := &Config{
		Env: getEnv("ENV", "development"),
		Server: ServerConfig{
			HTTPPort:        getEnvAsInt("SERVER_HTTP_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Redis: RedisConfig{
			Addr:         getEnv("REDIS_ADDR", "localhost:6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			MaxRetries:   getEnvAsInt("REDIS_MAX_RETRIES", 3),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", 5),
			OpTimeout:    getEnvAsDuration("REDIS_OP_TIMEOUT", 3*time.Second),
		},
		MySQL: MySQLConfig{
			Host:            getEnv("MYSQL_HOST", "localhost"),
			Port:            getEnvAsInt("MYSQL_PORT", 3306),
			User:            getEnv("MYSQL_USER", "cinema"),
			Password:        getEnv("MYSQL_PASSWORD", "cinema"),
			Database:        getEnv("MYSQL_DATABASE", "cinema_gate"),
			MaxOpenConns:    getEnvAsInt("MYSQL_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("MYSQL_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("MYSQL_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Admission: AdmissionConfig{
			SessionTimeout:         getEnvAsDuration("ADMISSION_SESSION_TIMEOUT", 300*time.Second),
			BaseSessionsPerReplica: getEnvAsInt("ADMISSION_BASE_SESSIONS_PER_REPLICA", 500),
			MaxTotalSessions:       getEnvAsInt("ADMISSION_MAX_TOTAL_SESSIONS", 5000),
			FallbackFleetSize:      getEnvAsInt("ADMISSION_FALLBACK_FLEET_SIZE", 2),
			DynamicScalingEnabled:  getEnvAsBool("ADMISSION_DYNAMIC_SCALING_ENABLED", true),
		},
		Queue: QueueConfig{
			PromotionInterval: getEnvAsDuration("QUEUE_PROMOTION_INTERVAL", 2*time.Second),
			ExpiryInterval:    getEnvAsDuration("QUEUE_EXPIRY_INTERVAL", 10*time.Second),
			StatsInterval:     getEnvAsDuration("QUEUE_STATS_INTERVAL", 1*time.Second),
			BatchCeiling:      getEnvAsInt("QUEUE_BATCH_CEILING", 100),
			PartitionEnabled:  getEnvAsBool("QUEUE_PARTITION_ENABLED", false),
			ReplicaIndex:      getEnvAsInt("QUEUE_REPLICA_INDEX", 0),
		},
		Seats: SeatConfig{
			LockTTL:       getEnvAsDuration("SEAT_LOCK_TTL", 300*time.Second),
			MaxPerRequest: getEnvAsInt("SEAT_MAX_PER_REQUEST", 4),
		},
		Booking: BookingConfig{
			TotalSeats:   getEnvAsInt("BOOKING_TOTAL_SEATS", 6000),
			PricePerSeat: getEnvAsInt("BOOKING_PRICE_PER_SEAT", 15000),
			SoldOutTTL:   getEnvAsDuration("BOOKING_SOLD_OUT_TTL", time.Hour),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "jwt-secret"),
			Expiry: getEnvAsDuration("JWT_EXPIRY", 300*time.Second),
		},
		Log: LogConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			Mode:     getEnv("LOG_MODE", "development"),
			Encoding: getEnv("LOG_ENCODING", "console"),
		},
		Kafka: KafkaConfig{
			Brokers:              getEnvAsSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			ProducerRetryMax:     getEnvAsInt("KAFKA_PRODUCER_RETRY_MAX", 3),
			ProducerRequiredAcks: getEnvAsInt("KAFKA_PRODUCER_REQUIRED_ACKS", 1),
			Enabled:              getEnvAsBool("KAFKA_ENABLED", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.HTTPPort)
	}

	if c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required")
	}

	if c.Admission.BaseSessionsPerReplica <= 0 {
		return fmt.Errorf("base sessions per replica must be positive")
	}

	if c.Admission.FallbackFleetSize <= 0 {
		return fmt.Errorf("fallback fleet size must be positive")
	}

	if c.Seats.MaxPerRequest <= 0 {
		return fmt.Errorf("max seats per request must be positive")
	}

	if c.Booking.TotalSeats <= 0 {
		return fmt.Errorf("total seats must be positive")
	}

	if c.JWT.Secret == "" && c.Env == "production" {
		return fmt.Errorf("JWT secret must be set in production")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}

	return result
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
