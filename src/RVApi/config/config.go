package config

import (
	"log"
	"os"
	"strconv"
)

type Config struct {
	MySQLDSN      string
	RedisURL      string
	Port          string
	ClassifierURL string
	AnchorURL     string
	AnchorSeed    string // sr25519 seed phrase or 0x hex key for gateway signing
	ChainRPCURL   string // websocket RPC for the settlement watcher, optional
	PollInterval  int
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
	pi, _ := strconv.Atoi(getenv("POLL_INTERVAL", "15"))
	return Config{
		MySQLDSN:      getenv("MYSQL_DSN", "dev:test@tcp(localhost:3306)/reviewverify"),
		RedisURL:      getenv("REDIS_URL", "redis://localhost:6379/0"),
		Port:          getenv("PORT", "8080"),
		ClassifierURL: getenv("CLASSIFIER_URL", "http://localhost:8000"),
		AnchorURL:     getenv("ANCHOR_URL", "http://localhost:9933"),
		AnchorSeed:    os.Getenv("ANCHOR_SEED"),
		ChainRPCURL:   os.Getenv("CHAIN_RPC_URL"),
		PollInterval:  pi,
	}
}
