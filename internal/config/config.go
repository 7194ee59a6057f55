package config

import (
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	Port       string
	CORSOrigin string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	JWTSecret string
	JWTTTL    time.Duration

	// Empty RedisURL disables rate limiting.
	RedisURL string
	// Empty MeiliURL keeps search on the database.
	MeiliURL       string
	MeiliMasterKey string

	// Client side
	APIURL      string
	PageSize    int
	HTTPTimeout time.Duration
	TokenFile   string
}

func Load() Config {
	return Config{
		Port:       getenv("PORT", "8080"),
		CORSOrigin: getenv("CORS_ORIGIN", "*"),

		DBHost:     getenv("DB_HOST", "localhost"),
		DBPort:     getenv("DB_PORT", "5432"),
		DBUser:     getenv("DB_USER", "newsboard"),
		DBPassword: getenv("DB_PASSWORD", "newsboard"),
		DBName:     getenv("DB_NAME", "newsboard"),
		DBSSLMode:  getenv("DB_SSLMODE", "disable"),

		JWTSecret: getenv("JWT_SECRET", "newsboard-dev-secret"),
		JWTTTL:    time.Duration(getenvInt("JWT_TTL_HOURS", 72)) * time.Hour,

		RedisURL:       os.Getenv("REDIS_URL"),
		MeiliURL:       os.Getenv("MEILI_URL"),
		MeiliMasterKey: os.Getenv("MEILI_MASTER_KEY"),

		APIURL:      getenv("NEWSBOARD_API_URL", "http://localhost:8080"),
		PageSize:    getenvInt("NEWSBOARD_PAGE_SIZE", 20),
		HTTPTimeout: time.Duration(getenvInt("NEWSBOARD_HTTP_TIMEOUT_SECONDS", 10)) * time.Second,
		TokenFile:   os.Getenv("NEWSBOARD_TOKEN_FILE"),
	}
}

// DSN builds the postgres connection string used by gorm.
func (c Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
