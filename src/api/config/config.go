package config

import (
	"log"
	"os"
	"strconv"
)

type Config struct {
	MySQLDSN      string
	RedisURL      string
	JWTSecret     string
	Port          string
	RatePerMinute int
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		if def == "" {
			log.Fatalf("missing env %s", key)
		}
		return def
	}
	return v
}

func Load() Config {
	rate, _ := strconv.Atoi(getenv("RATE_PER_MINUTE", "30"))
	return Config{
		MySQLDSN:      getenv("MYSQL_DSN", "budget:budget@tcp(localhost:3306)/budget"),
		RedisURL:      getenv("REDIS_URL", "redis://localhost:6379/0"),
		JWTSecret:     getenv("JWT_SECRET", "dev-only-secret-change-me"),
		Port:          getenv("PORT", "8080"),
		RatePerMinute: rate,
	}
}
