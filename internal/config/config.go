package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ServerConfig drives the registry API process.
type ServerConfig struct {
	Addr           string   // API bind address, e.g. ":8080"
	LogDir         string   // logs directory
	DatabaseURL    string   // postgres DSN; empty means in-memory store
	ListLimit      int      // default/maximum list response size
	RateLimitRPM   int      // per-IP requests per minute; 0 disables
	RateLimitBurst int      // per-IP burst
	AllowedOrigins []string // CORS; empty allows all (local dev)
}

// AgentConfig drives the scheduling agent process.
type AgentConfig struct {
	RegistryURL      string        // registry base URL
	LogDir           string        // logs directory
	SyncInterval     time.Duration // reconcile cadence
	ListLimit        int           // enabled-check page size per reconcile
	MaxConcurrent    int           // in-flight probe bound across all slots
	ProbeTimeout     time.Duration // upper bound on a single probe
	RequestTimeout   time.Duration // per registry RPC call
	QueueSize        int           // dispatcher queue capacity
	DeliveryAttempts int           // dispatcher retries per result
}

func ServerFromEnv() ServerConfig {
	cfg := ServerConfig{
		Addr:           envString("ADDR", ":8080"),
		LogDir:         envString("LOG_DIR", "logs"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		ListLimit:      envInt("LIST_LIMIT", 50),
		RateLimitRPM:   envInt("RATE_LIMIT_RPM", 0),
		RateLimitBurst: envInt("RATE_LIMIT_BURST", 0),
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}
	return cfg
}

func AgentFromEnv() AgentConfig {
	return AgentConfig{
		RegistryURL:      envString("REGISTRY_URL", "http://localhost:8080"),
		LogDir:           envString("LOG_DIR", "logs"),
		SyncInterval:     envDurationSec("SYNC_INTERVAL_SEC", 30*time.Second),
		ListLimit:        envInt("LIST_LIMIT", 1000),
		MaxConcurrent:    envInt("MAX_CONCURRENT_PROBES", 16),
		ProbeTimeout:     envDurationSec("PROBE_TIMEOUT_SEC", 10*time.Second),
		RequestTimeout:   envDurationSec("REQUEST_TIMEOUT_SEC", 10*time.Second),
		QueueSize:        envInt("DISPATCH_QUEUE_SIZE", 256),
		DeliveryAttempts: envInt("DELIVERY_ATTEMPTS", 5),
	}
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}

func envDurationSec(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return def
}
