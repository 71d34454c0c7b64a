package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort string
	JWTKey  []byte
	JWTExp  time.Duration

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// S3-compatible object storage for attempt recordings. Bucket and
	// region are required; there are no defaults.
	StorageEndpoint  string
	StorageAccessKey string
	StorageSecretKey string
	StorageBucket    string
	StorageRegion    string
	StorageUseSSL    bool

	ScoringQueueName       string
	ScoringLockKey         string
	ScoringLockTTLSeconds  int
	TranscribeLanguageCode string

	RankingWindow time.Duration
	RankingTopN   int
	ProblemsLimit int
}

// Load reads .env plus the process environment and returns the assembled
// configuration. The returned value is injected into every component; there
// is no package-level instance.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		APIPort:                getEnv("API_PORT", "8080"),
		JWTKey:                 []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp:                 time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 72)) * time.Hour,
		DBHost:                 getEnv("DB_HOST", "localhost"),
		DBPort:                 getEnv("DB_PORT", "5432"),
		DBUser:                 getEnv("DB_USER", "user"),
		DBPassword:             getEnv("DB_PASSWORD", "password"),
		DBName:                 getEnv("DB_NAME", "speak_score_db"),
		DBSslMode:              getEnv("DB_SSLMODE", "disable"),
		RedisAddr:              getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:          getEnv("REDIS_PASSWORD", ""),
		RedisDB:                getEnvAsInt("REDIS_DB", 0),
		StorageEndpoint:        getEnv("STORAGE_ENDPOINT", "s3.amazonaws.com"),
		StorageAccessKey:       getEnv("STORAGE_ACCESS_KEY", ""),
		StorageSecretKey:       getEnv("STORAGE_SECRET_KEY", ""),
		StorageBucket:          getEnv("STORAGE_BUCKET", ""),
		StorageRegion:          getEnv("STORAGE_REGION", ""),
		StorageUseSSL:          getEnvAsBool("STORAGE_USE_SSL", true),
		ScoringQueueName:       getEnv("SCORING_QUEUE_NAME", "scoring_jobs_queue"),
		ScoringLockKey:         getEnv("SCORING_LOCK_KEY", "scoring_job_lock"),
		ScoringLockTTLSeconds:  getEnvAsInt("SCORING_LOCK_TTL_SECONDS", 600),
		TranscribeLanguageCode: getEnv("TRANSCRIBE_LANGUAGE_CODE", "en-US"),
		RankingWindow:          time.Duration(getEnvAsInt("RANKING_WINDOW_MINUTES", 60)) * time.Minute,
		RankingTopN:            getEnvAsInt("RANKING_TOP_N", 10),
		ProblemsLimit:          getEnvAsInt("PROBLEMS_LIST_LIMIT", 30),
	}

	var missing []string
	if cfg.StorageBucket == "" {
		missing = append(missing, "STORAGE_BUCKET")
	}
	if cfg.StorageRegion == "" {
		missing = append(missing, "STORAGE_REGION")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	cfg.DBConnStr = "host=" + cfg.DBHost +
		" port=" + cfg.DBPort +
		" user=" + cfg.DBUser +
		" password=" + cfg.DBPassword +
		" dbname=" + cfg.DBName +
		" sslmode=" + cfg.DBSslMode

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}
