package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var (
	ErrMissingGiteaHost   = errors.New("URL_GITEA_HOST is required")
	ErrInvalidGiteaHost   = errors.New(`URL_GITEA_HOST must include the protocol, for example "http://gitea.local"`)
	ErrMissingGiteaAPIKey = errors.New("URL_GITEA_API_KEY is required")
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Gitea     GiteaConfig
	Collector CollectorConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port         string
	Mode         string
	ReadTimeout  int
	WriteTimeout int
	BasePath     string
	StaticDir    string
}

type DatabaseConfig struct {
	Path string
}

type GiteaConfig struct {
	Host      string
	Port      string
	APIKey    string
	Timeout   time.Duration
	RateLimit float64
	RateBurst int
}

// CollectorConfig bounds the activity collection run
type CollectorConfig struct {
	MaxConcurrentRepos int
	RepoPageSize       int
	BranchPageSize     int
	CommitPageSize     int
	MaxRepoPages       int
	MaxBranchPages     int
	MaxCommitPages     int
}

type LogConfig struct {
	Level string
}

var AppConfig *Config

// Load loads configuration from .env file and environment variables
func Load() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	AppConfig = &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "4040"),
			Mode:         getEnv("GIN_MODE", "release"),
			ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 300),
			BasePath:     NormalizeBasePath(getEnv("BASE_PATH", "/")),
			StaticDir:    getEnv("STATIC_DIR", "./public"),
		},
		Database: DatabaseConfig{
			Path: os.Getenv("DB_PATH"),
		},
		Gitea: GiteaConfig{
			Host:      os.Getenv("URL_GITEA_HOST"),
			Port:      os.Getenv("URL_GITEA_PORT"),
			APIKey:    os.Getenv("URL_GITEA_API_KEY"),
			Timeout:   getEnvAsDuration("GITEA_TIMEOUT", 30*time.Second),
			RateLimit: getEnvAsFloat("GITEA_RATE_LIMIT", 0),
			RateBurst: getEnvAsInt("GITEA_RATE_BURST", 1),
		},
		Collector: CollectorConfig{
			MaxConcurrentRepos: getEnvAsInt("MAX_CONCURRENT_REPOS", 4),
			RepoPageSize:       getEnvAsInt("REPO_PAGE_SIZE", 50),
			BranchPageSize:     getEnvAsInt("BRANCH_PAGE_SIZE", 50),
			CommitPageSize:     getEnvAsInt("COMMIT_PAGE_SIZE", 50),
			MaxRepoPages:       getEnvAsInt("MAX_REPO_PAGES", 200),
			MaxBranchPages:     getEnvAsInt("MAX_BRANCH_PAGES", 200),
			MaxCommitPages:     getEnvAsInt("MAX_COMMIT_PAGES", 200),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if _, ok := os.LookupEnv("DB_PATH"); !ok {
		AppConfig.Database.Path = "./giteastats.db"
	}

	return AppConfig.Validate()
}

// Validate checks the settings the service cannot start without
func (c *Config) Validate() error {
	if c.Gitea.Host == "" {
		return ErrMissingGiteaHost
	}
	if _, err := c.Gitea.BaseURL(); err != nil {
		return err
	}
	if c.Gitea.APIKey == "" {
		return ErrMissingGiteaAPIKey
	}
	if c.Collector.MaxConcurrentRepos < 1 {
		return fmt.Errorf("MAX_CONCURRENT_REPOS must be at least 1, got %d", c.Collector.MaxConcurrentRepos)
	}
	return nil
}

// BaseURL builds the Gitea API root, e.g. http://gitea.local:3000/api/v1/
func (g GiteaConfig) BaseURL() (*url.URL, error) {
	u, err := url.Parse(g.Host)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, ErrInvalidGiteaHost
	}

	if g.Port != "" && u.Port() == "" {
		u.Host = u.Hostname() + ":" + g.Port
	}

	u.Path = strings.TrimSuffix(u.Path, "/") + "/api/v1/"
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

// NormalizeBasePath turns BASE_PATH into "/" or "/prefix" without a trailing slash
func NormalizeBasePath(value string) string {
	base := strings.TrimSpace(value)
	if base == "" {
		return "/"
	}
	if !strings.HasPrefix(base, "/") {
		base = "/" + base
	}
	base = strings.TrimRight(base, "/")
	if base == "" {
		return "/"
	}
	return base
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("45s") or plain seconds ("45")
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}
