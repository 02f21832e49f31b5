package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// InstanceID identifies this process on the change-notification channel
	// so it can ignore notifications caused by its own saves.
	InstanceID string

	SweepInterval time.Duration // interval between integrity sweeps (default: 24h)

	// Redis
	RedisAddr           string        // ex: "localhost:6379"
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold  int           // warn after this many attempts
}

// fileConfig is the optional YAML layer (FAVULS_CONFIG_FILE).
// Env vars always win over file values.
type fileConfig struct {
	ListenPort    string `yaml:"listen_port"`
	LogLevel      string `yaml:"log_level"`
	PrettyLog     *bool  `yaml:"pretty_log"`
	SweepInterval string `yaml:"sweep_interval"`
	Redis         struct {
		Addr     string `yaml:"addr"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		DB       *int   `yaml:"db"`
	} `yaml:"redis"`
}

func Load() *Config {
	file := loadFile(os.Getenv("FAVULS_CONFIG_FILE"))

	cfg := &Config{
		// Server settings
		ListenPort:      getenv("FAVULS_LISTEN_PORT", fileString(file.ListenPort, ":8080")),
		ShutdownTimeout: mustDuration("FAVULS_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("FAVULS_LOG_LEVEL", fileString(file.LogLevel, "info")),
		PrettyLog: mustBool("FAVULS_PRETTY_LOG", fileBool(file.PrettyLog, true)),

		InstanceID:    getenv("FAVULS_INSTANCE_ID", uuid.NewString()),
		SweepInterval: mustDuration("FAVULS_SWEEP_INTERVAL", fileDuration(file.SweepInterval, 24*time.Hour)),

		// Redis settings
		RedisAddr:           getenv("FAVULS_REDIS_ADDR", fileString(file.Redis.Addr, "localhost:6379")),
		RedisUser:           getenv("FAVULS_REDIS_USERNAME", fileString(file.Redis.User, "default")),
		RedisPassword:       getenv("FAVULS_REDIS_PASSWORD", file.Redis.Password),
		RedisDB:             getenvInt("FAVULS_REDIS_DB", fileInt(file.Redis.DB, 0)),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("REDIS_WARN_THRESHOLD", 3),
	}

	return cfg
}

// loadFile parses the optional YAML config file. A missing path is fine;
// an unreadable or unparsable file is fatal (a misconfiguration, not a default).
func loadFile(path string) fileConfig {
	var fc fileConfig
	if path == "" {
		return fc
	}
	data, err := os.ReadFile(path)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: cannot read config file %s: %v", path, err))
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		panic(fmt.Sprintf("❌ FATAL: cannot parse config file %s: %v", path, err))
	}
	return fc
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func fileString(v, def string) string {
	if strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func fileBool(v *bool, def bool) bool {
	if v != nil {
		return *v
	}
	return def
}

func fileInt(v *int, def int) int {
	if v != nil {
		return *v
	}
	return def
}

func fileDuration(v string, def time.Duration) time.Duration {
	if v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
