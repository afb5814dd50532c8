package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Theme is the only palette the dashboard ships. The site used to keep a
// mutable dark-mode flag that was forced on at every mount; it is a constant now.
const Theme = "dark"

// Config stores the application configuration.
type Config struct {
	Port string
	Env  string

	// WordPress GraphQL API
	GraphQLEndpoint string
	GraphQLToken    string // optional bearer for the GraphQL endpoint
	QueryRetries    int    // silent retries for reads before the error escalates
	AlbumCategoryID int    // category listed by the albums dashboard

	// Media upload collaborator
	MediaBackend  string // "wordpress" or "minio"
	MediaEndpoint string // WordPress REST media endpoint
	TokenEndpoint string // token-fetch endpoint used before each upload
	MediaUsername string
	MediaPassword string

	// Editor drafts
	DraftBackend      string // "memory", "redis" or "mysql"
	MaxEditSessions   int
	TitleDebounce     time.Duration
	ContentDebounce   time.Duration
	MinCoverDimension int

	// Dashboard auth
	JWTSecret             string
	JWTTTL                time.Duration
	DashboardUser         string
	DashboardPasswordHash string // bcrypt, see `trackdesk hash-password`

	// MySQL
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// MinIO
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool
	MinioPublicURL string

	// Logging
	LogLevel      string
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("300ms") and falls back on parse errors.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() does not override variables that are already set.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on existing environment variables and defaults.")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment without touching .env.
func FromEnv() *Config {
	return &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("APP_ENV", "development"),

		GraphQLEndpoint: getEnv("WP_GRAPHQL_ENDPOINT", "http://localhost/graphql"),
		GraphQLToken:    os.Getenv("WP_GRAPHQL_TOKEN"),
		QueryRetries:    getEnvInt("WP_QUERY_RETRIES", 3),
		AlbumCategoryID: getEnvInt("WP_ALBUM_CATEGORY_ID", 233),

		MediaBackend:  getEnv("MEDIA_BACKEND", "wordpress"),
		MediaEndpoint: getEnv("WP_MEDIA_ENDPOINT", "http://localhost/wp-json/wp/v2/media"),
		TokenEndpoint: getEnv("WP_TOKEN_ENDPOINT", "http://localhost:8080/api/token"),
		MediaUsername: getEnv("WP_MEDIA_USERNAME", ""),
		MediaPassword: os.Getenv("WP_MEDIA_PASSWORD"),

		DraftBackend:      getEnv("DRAFT_BACKEND", "memory"),
		MaxEditSessions:   getEnvInt("DRAFT_MAX_EDIT_SESSIONS", 2),
		TitleDebounce:     getEnvDuration("EDITOR_TITLE_DEBOUNCE", 300*time.Millisecond),
		ContentDebounce:   getEnvDuration("EDITOR_CONTENT_DEBOUNCE", 400*time.Millisecond),
		MinCoverDimension: getEnvInt("EDITOR_MIN_COVER_PX", 1400),

		JWTSecret:             getEnv("JWT_SECRET", "change-me"),
		JWTTTL:                getEnvDuration("JWT_TTL", 24*time.Hour),
		DashboardUser:         getEnv("DASHBOARD_USER", "editor"),
		DashboardPasswordHash: os.Getenv("DASHBOARD_PASSWORD_HASH"),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"), // no hardcoded default for secrets
		DBName:     getEnv("DB_NAME", "trackdesk"),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "trackdesk"),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),
		MinioPublicURL: getEnv("MINIO_PUBLIC_URL", "http://127.0.0.1:9000"),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFile:       getEnv("LOG_FILE", ""),
		LogMaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 100),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
		LogMaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 30),
	}
}
