package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port           int      `yaml:"port"`
		CORSOrigins    []string `yaml:"corsOrigins"`
		MaxUploadBytes int64    `yaml:"maxUploadBytes"`
	} `yaml:"server"`

	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`

	Database struct {
		Driver     string `yaml:"driver"` // mysql | postgres | sqlite
		Host       string `yaml:"host"`
		Port       int    `yaml:"port"`
		User       string `yaml:"user"`
		Password   string `yaml:"password"`
		Name       string `yaml:"name"`
		SSLMode    string `yaml:"sslMode"`
		SQLitePath string `yaml:"sqlitePath"`
	} `yaml:"database"`

	Storage struct {
		Driver    string `yaml:"driver"` // local | minio
		LocalRoot string `yaml:"localRoot"`
	} `yaml:"storage"`

	Minio struct {
		Endpoint      string        `yaml:"endpoint"`
		AccessKey     string        `yaml:"accessKey"`
		SecretKey     string        `yaml:"secretKey"`
		BucketName    string        `yaml:"bucketName"`
		Region        string        `yaml:"region"`
		UseSSL        bool          `yaml:"useSSL"`
		PresignExpiry time.Duration `yaml:"presignExpiry"`
	} `yaml:"minio"`

	AI struct {
		Provider    string        `yaml:"provider"` // service | openai | local
		ServiceURL  string        `yaml:"serviceURL"`
		OpenAIKey   string        `yaml:"openaiKey"`
		OpenAIModel string        `yaml:"openaiModel"`
		OpenAIBase  string        `yaml:"openaiBaseURL"`
		Timeout     time.Duration `yaml:"timeout"`
	} `yaml:"ai"`

	Auth struct {
		// APIKeys maps an API key to the user id it authenticates as.
		APIKeys map[string]int64 `yaml:"apiKeys"`
	} `yaml:"auth"`

	RateLimit struct {
		PerSecond float64 `yaml:"perSecond"`
		Burst     int     `yaml:"burst"`
	} `yaml:"rateLimit"`
}

// Load baca file config.yaml, lalu env override dan default
func Load(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// env-only setup
	default:
		return nil, err
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnvAsInt("SERVER_PORT", c.Server.Port)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Database.Driver = getEnv("DB_DRIVER", c.Database.Driver)
	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnvAsInt("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.Name = getEnv("DB_NAME", c.Database.Name)
	c.Database.SQLitePath = getEnv("SQLITE_PATH", c.Database.SQLitePath)
	c.Storage.Driver = getEnv("STORAGE_DRIVER", c.Storage.Driver)
	c.Minio.AccessKey = getEnv("MINIO_ACCESS_KEY", c.Minio.AccessKey)
	c.Minio.SecretKey = getEnv("MINIO_SECRET_KEY", c.Minio.SecretKey)
	c.AI.Provider = getEnv("AI_PROVIDER", c.AI.Provider)
	c.AI.ServiceURL = getEnv("AI_SERVICE_URL", c.AI.ServiceURL)
	c.AI.OpenAIKey = getEnv("OPENAI_API_KEY", c.AI.OpenAIKey)
	c.AI.OpenAIModel = getEnv("OPENAI_MODEL", c.AI.OpenAIModel)

	// API_KEYS=key1:1,key2:2
	if v := os.Getenv("API_KEYS"); v != "" {
		keys := make(map[string]int64)
		for _, pair := range strings.Split(v, ",") {
			k, id, ok := strings.Cut(strings.TrimSpace(pair), ":")
			if !ok {
				continue
			}
			if n, err := strconv.ParseInt(id, 10, 64); err == nil {
				keys[k] = n
			}
		}
		c.Auth.APIKeys = keys
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.MaxUploadBytes == 0 {
		c.Server.MaxUploadBytes = 10 << 20
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "report-agent.db"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "local"
	}
	if c.Storage.LocalRoot == "" {
		c.Storage.LocalRoot = "uploads"
	}
	if c.Minio.PresignExpiry == 0 {
		c.Minio.PresignExpiry = 15 * time.Minute
	}
	if c.AI.Provider == "" {
		c.AI.Provider = "local"
	}
	if c.AI.Timeout == 0 {
		c.AI.Timeout = 120 * time.Second
	}
	if c.RateLimit.PerSecond == 0 {
		c.RateLimit.PerSecond = 5
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 10
	}
}

// Validate checks combinations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	switch c.Storage.Driver {
	case "local":
	case "minio":
		if c.Minio.Endpoint == "" || c.Minio.BucketName == "" {
			return fmt.Errorf("minio storage needs endpoint and bucketName")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	switch c.AI.Provider {
	case "local":
	case "service":
		if c.AI.ServiceURL == "" {
			return fmt.Errorf("ai provider service needs serviceURL")
		}
	case "openai":
		if c.AI.OpenAIKey == "" {
			return fmt.Errorf("ai provider openai needs openaiKey or OPENAI_API_KEY")
		}
	default:
		return fmt.Errorf("unknown ai provider %q", c.AI.Provider)
	}
	for k, id := range c.Auth.APIKeys {
		if k == "" || id <= 0 {
			return fmt.Errorf("auth.apiKeys entries need a non-empty key and a positive user id")
		}
	}
	return nil
}

// Helper untuk build DSN MySQL. clientFoundRows supaya UPDATE yang tidak
// mengubah nilai tetap dihitung sebagai affected row.
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC&clientFoundRows=true",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Helper untuk build DSN Postgres (URL form untuk lib/pq)
func (c *Config) PostgresDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
		Path:     "/" + c.Database.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.Database.SSLMode),
	}
	return u.String()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
