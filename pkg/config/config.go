package config

import (
	"os"
	"strconv"
	"time"

	"github.com/karanagg166/playto/internal/karma"
)

type Config struct {
	Port          string
	Env           string
	PostgresUrl   string
	MongoURI      string
	MongoDatabase string
	JWTSecret     string

	KarmaWindowSeconds  int
	KarmaTopK           int
	KarmaPostWeight     int64
	KarmaCommentWeight  int64
	KarmaCountSelfLikes bool
}

func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PostgresUrl:   getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:      getEnv("MONGO_URI", ""),
		MongoDatabase: getEnv("MONGO_DATABASE", "playto"),
		JWTSecret:     getEnv("JWT_SECRET", "supersecretjwtkey"),

		KarmaWindowSeconds:  getEnvInt("KARMA_WINDOW_SECONDS", 86400),
		KarmaTopK:           getEnvInt("KARMA_TOP_K", 5),
		KarmaPostWeight:     int64(getEnvInt("KARMA_POST_WEIGHT", 5)),
		KarmaCommentWeight:  int64(getEnvInt("KARMA_COMMENT_WEIGHT", 1)),
		KarmaCountSelfLikes: getEnvBool("KARMA_COUNT_SELF_LIKES", true),
	}
}

// Karma maps the env-level knobs onto the aggregator's config.
func (c *Config) Karma() karma.Config {
	return karma.Config{
		Window:         time.Duration(c.KarmaWindowSeconds) * time.Second,
		TopK:           c.KarmaTopK,
		PostWeight:     c.KarmaPostWeight,
		CommentWeight:  c.KarmaCommentWeight,
		CountSelfLikes: c.KarmaCountSelfLikes,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
