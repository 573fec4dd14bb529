package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Scanning
	TargetHost      string        // host whose ports are probed (default: localhost)
	ScanStartPort   int           // default start of a full sweep
	ScanEndPort     int           // default end of a full sweep
	ScanConcurrency int           // ports probed concurrently within one batch
	ScanTimeout     time.Duration // per-port connect + HTTP classification timeout
	ScanPause       time.Duration // pause between per-server pipelines in one scan
	QuickScanPorts  []int         // curated port list for quick scans

	// Health monitoring
	HealthTimeout  time.Duration // per-request timeout of a health check
	HealthInterval time.Duration // periodic sweep interval over all known apps

	// Collaborators
	IdentifyURL       string        // identification collaborator endpoint (empty = fallback rules only)
	IdentifyTimeout   time.Duration // identification request timeout
	ScreenshotURL     string        // screenshot collaborator endpoint (empty = captures disabled)
	ScreenshotTimeout time.Duration // capture request timeout

	// Classification data
	RulesFile string // optional classify.yaml overriding built-in rules and non-HTTP ports

	// Redis
	RedisAddr           string        // ex: "localhost:6379"; "none" selects the in-memory registry
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold  int           // warn after this many attempts
}

// DefaultQuickScanPorts is the curated list swept by a quick scan: the
// usual suspects for local dev servers, UIs and reverse proxies.
var DefaultQuickScanPorts = []int{
	80, 443, 3000, 3001, 3030, 4000, 4200, 4321, 5000, 5173, 5174,
	6006, 7000, 8000, 8080, 8081, 8088, 8443, 8888, 9000, 9090,
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("SCOUT_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("SCOUT_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("SCOUT_LOG_LEVEL", "info"),
		PrettyLog: mustBool("SCOUT_PRETTY_LOG", true),

		// Scanning
		TargetHost:      getenv("SCOUT_TARGET_HOST", "localhost"),
		ScanStartPort:   getenvInt("SCOUT_SCAN_START_PORT", 3000),
		ScanEndPort:     getenvInt("SCOUT_SCAN_END_PORT", 9999),
		ScanConcurrency: getenvInt("SCOUT_SCAN_CONCURRENCY", 50),
		ScanTimeout:     mustDuration("SCOUT_SCAN_TIMEOUT", 2*time.Second),
		ScanPause:       mustDuration("SCOUT_SCAN_PAUSE", 500*time.Millisecond),
		QuickScanPorts:  getenvInts("SCOUT_QUICK_SCAN_PORTS", DefaultQuickScanPorts),

		// Health monitoring
		HealthTimeout:  mustDuration("SCOUT_HEALTH_TIMEOUT", 5*time.Second),
		HealthInterval: mustDuration("SCOUT_HEALTH_INTERVAL", 5*time.Minute),

		// Collaborators
		IdentifyURL:       getenv("SCOUT_IDENTIFY_URL", ""),
		IdentifyTimeout:   mustDuration("SCOUT_IDENTIFY_TIMEOUT", 10*time.Second),
		ScreenshotURL:     getenv("SCOUT_SCREENSHOT_URL", ""),
		ScreenshotTimeout: mustDuration("SCOUT_SCREENSHOT_TIMEOUT", 30*time.Second),

		// Classification data
		RulesFile: getenv("SCOUT_RULES_FILE", ""),

		// Redis settings
		RedisAddr:           getenv("SCOUT_REDIS_ADDR", "localhost:6379"),
		RedisUser:           getenv("SCOUT_REDIS_USERNAME", "default"),
		RedisPassword:       getenv("SCOUT_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("SCOUT_REDIS_DB", 0),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("REDIS_WARN_THRESHOLD", 3),
	}

	if cfg.ScanStartPort < 1 || cfg.ScanEndPort > 65535 || cfg.ScanStartPort > cfg.ScanEndPort {
		panic(fmt.Sprintf("❌ FATAL: invalid scan port range %d-%d", cfg.ScanStartPort, cfg.ScanEndPort))
	}
	if cfg.ScanConcurrency < 1 {
		panic(fmt.Sprintf("❌ FATAL: SCOUT_SCAN_CONCURRENCY must be >= 1, got %d", cfg.ScanConcurrency))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

// getenvInts parses a comma-separated list of ints (ex: "3000,8080,8443").
func getenvInts(key string, def []int) []int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []int
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		i, err := strconv.Atoi(part)
		if err != nil {
			panic(fmt.Sprintf("❌ FATAL: Invalid port %q in %s", part, key))
		}
		out = append(out, i)
	}
	if len(out) == 0 {
		return def
	}
	return out
}

func mustDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Invalid duration value for %s: %s", key, v))
	}
	return d
}

func mustBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Invalid boolean value for %s: %s", key, v))
	}
	return b
}
