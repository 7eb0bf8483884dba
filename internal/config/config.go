package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
// If FOO_FILE is set, reads the file content and sets FOO.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	fileKey := envKey + "_FILE"
	filePath := os.Getenv(fileKey)
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	val := strings.TrimSpace(string(data))
	os.Setenv(envKey, val)
}

type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	Store     StoreConfig
	Worker    WorkerConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	R2        R2Config
	Render    RenderConfig
	Gateway   GatewayConfig
}

type ServerConfig struct {
	Port      string
	Env       string
	LogLevel  string
	ApiDomain string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// StoreConfig selects the record store backend: "redis" or "memory".
type StoreConfig struct {
	Driver string
}

// WorkerConfig selects how render jobs are driven: "asynq" hands them to the
// asynq worker server, "inline" runs them in a detached goroutine.
type WorkerConfig struct {
	Mode        string
	Concurrency int
}

type JWTConfig struct {
	Secret string
}

type RateLimitConfig struct {
	RenderPerHour int
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string
}

// RenderConfig holds canvas geometry and photo acquisition limits.
type RenderConfig struct {
	SquareWidth    int
	SquareHeight   int
	Gap            int
	JPEGQuality    int
	HexScale       float64
	FetchWorkers   int
	FetchTimeout   int // seconds
	CDNHosts       []string
	PlaceholderHex string
}

type GatewayConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	// Read Docker Swarm secrets from _FILE env vars before Viper binds
	readSecret("REDIS_PASSWORD")
	readSecret("JWT_SECRET")
	readSecret("R2_ACCOUNT_ID")
	readSecret("R2_ACCESS_KEY_ID")
	readSecret("R2_SECRET_ACCESS_KEY")

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables
	v.AutomaticEnv()

	// Bind environment variables with underscores to nested config keys
	_ = v.BindEnv("server.port", "SERVER_PORT")
	_ = v.BindEnv("server.env", "SERVER_ENV")
	_ = v.BindEnv("server.log_level", "LOG_LEVEL")
	_ = v.BindEnv("server.api_domain", "API_DOMAIN")
	_ = v.BindEnv("redis.addr", "REDIS_ADDR")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("redis.db", "REDIS_DB")
	_ = v.BindEnv("store.driver", "STORE_DRIVER")
	_ = v.BindEnv("worker.mode", "WORKER_MODE")
	_ = v.BindEnv("worker.concurrency", "WORKER_CONCURRENCY")
	_ = v.BindEnv("jwt.secret", "JWT_SECRET")
	_ = v.BindEnv("ratelimit.render_per_hour", "RATELIMIT_RENDER_PER_HOUR")
	_ = v.BindEnv("r2.account_id", "R2_ACCOUNT_ID")
	_ = v.BindEnv("r2.access_key_id", "R2_ACCESS_KEY_ID")
	_ = v.BindEnv("r2.secret_access_key", "R2_SECRET_ACCESS_KEY")
	_ = v.BindEnv("r2.bucket_name", "R2_BUCKET_NAME")
	_ = v.BindEnv("r2.public_url", "R2_PUBLIC_URL")
	_ = v.BindEnv("render.square_width", "RENDER_SQUARE_WIDTH")
	_ = v.BindEnv("render.square_height", "RENDER_SQUARE_HEIGHT")
	_ = v.BindEnv("render.gap", "RENDER_GAP")
	_ = v.BindEnv("render.jpeg_quality", "RENDER_JPEG_QUALITY")
	_ = v.BindEnv("render.hex_scale", "RENDER_HEX_SCALE")
	_ = v.BindEnv("render.fetch_workers", "RENDER_FETCH_WORKERS")
	_ = v.BindEnv("render.fetch_timeout", "RENDER_FETCH_TIMEOUT")
	_ = v.BindEnv("render.cdn_hosts", "RENDER_CDN_HOSTS")
	_ = v.BindEnv("render.placeholder_color", "RENDER_PLACEHOLDER_COLOR")
	_ = v.BindEnv("gateway.enabled", "GATEWAY_ENABLED")

	// Defaults
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("store.driver", "redis")
	v.SetDefault("worker.mode", "asynq")
	v.SetDefault("worker.concurrency", 4)
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("ratelimit.render_per_hour", 30)

	// Render defaults
	v.SetDefault("render.square_width", 2400)
	v.SetDefault("render.square_height", 2800)
	v.SetDefault("render.gap", 12)
	v.SetDefault("render.jpeg_quality", 90)
	v.SetDefault("render.hex_scale", 2.0)
	v.SetDefault("render.fetch_workers", 5)
	v.SetDefault("render.fetch_timeout", 15)
	v.SetDefault("render.cdn_hosts", []string{"res.cloudinary.com"})
	v.SetDefault("render.placeholder_color", "#d9d9de")

	// Gateway defaults
	v.SetDefault("gateway.enabled", false)

	// Try to read config file (optional)
	_ = v.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:      v.GetString("server.port"),
			Env:       v.GetString("server.env"),
			LogLevel:  v.GetString("server.log_level"),
			ApiDomain: v.GetString("server.api_domain"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(v.GetString("store.driver")),
		},
		Worker: WorkerConfig{
			Mode:        strings.ToLower(v.GetString("worker.mode")),
			Concurrency: v.GetInt("worker.concurrency"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("jwt.secret"),
		},
		RateLimit: RateLimitConfig{
			RenderPerHour: v.GetInt("ratelimit.render_per_hour"),
		},
		R2: R2Config{
			AccountID:       v.GetString("r2.account_id"),
			AccessKeyID:     v.GetString("r2.access_key_id"),
			SecretAccessKey: v.GetString("r2.secret_access_key"),
			BucketName:      v.GetString("r2.bucket_name"),
			PublicURL:       v.GetString("r2.public_url"),
		},
		Render: RenderConfig{
			SquareWidth:    v.GetInt("render.square_width"),
			SquareHeight:   v.GetInt("render.square_height"),
			Gap:            v.GetInt("render.gap"),
			JPEGQuality:    v.GetInt("render.jpeg_quality"),
			HexScale:       v.GetFloat64("render.hex_scale"),
			FetchWorkers:   v.GetInt("render.fetch_workers"),
			FetchTimeout:   v.GetInt("render.fetch_timeout"),
			CDNHosts:       v.GetStringSlice("render.cdn_hosts"),
			PlaceholderHex: v.GetString("render.placeholder_color"),
		},
		Gateway: GatewayConfig{
			Enabled: v.GetBool("gateway.enabled"),
		},
	}

	return cfg, nil
}
