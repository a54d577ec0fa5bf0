package main

import (
	"os"
	"strconv"
	"time"
)

// Config is read from the environment once at startup.
type Config struct {
	Port               string
	APIKey             string
	ChromePath         string
	NavigationTimeout  time.Duration
	MaxBodyBytes       int64
	Workers            int
	DBPath             string
	PubSubProjectID    string
	PubSubTopic        string
	PubSubSubscription string
}

func LoadConfig() Config {
	return Config{
		Port:               envString("PORT", "5000"),
		APIKey:             os.Getenv("API_KEY"),
		ChromePath:         os.Getenv("CHROME_PATH"),
		NavigationTimeout:  envDuration("NAVIGATION_TIMEOUT", DefaultNavigationTimeout),
		MaxBodyBytes:       int64(envInt("MAX_BODY_BYTES", int(DefaultMaxBodyBytes))),
		Workers:            envInt("CHROME_WORKERS", 5),
		DBPath:             envString("DB_PATH", "impact.db"),
		PubSubProjectID:    os.Getenv("PUBSUB_PROJECT_ID"),
		PubSubTopic:        os.Getenv("PUBSUB_TOPIC"),
		PubSubSubscription: os.Getenv("PUBSUB_SUBSCRIPTION"),
	}
}

func envString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

// envInt falls back to def when the variable is unset, malformed or not positive.
func envInt(key string, def int) int {
	num, err := strconv.Atoi(os.Getenv(key))
	if err != nil || num <= 0 {
		return def
	}
	return num
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
