package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the runtime settings of the process. The service catalog
// itself lives in a YAML file, see Global.
type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request timeout applied by the router

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	RootPath      string        // application root, every catalog path is resolved under it
	CatalogFile   string        // path to the tenancy.yaml catalog
	MountCacheTTL time.Duration // how long a built service router is reused
	WatchFiles    bool          // flush cached routers when routes/service files change
	WatchDebounce time.Duration // debounce window for file events

	// Redis (optional, empty address disables usage tracking)
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password when Redis is enabled
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts
	UsageGCInterval       time.Duration // time between usage counter collections
	UsageRetention        time.Duration // drop counters of services unseen for this long

	AllowedCIDRS []string // optional, restrict infra endpoints to specific IPs/CIDRs
	TrustProxy   bool     // true => trust X-Forwarded-For headers

	// Named middleware services can opt into
	AllowedHosts  []string // hosts accepted by "enforce_host" ("*.example.com", "shop*")
	RateBurst     int      // "ratelimit" bucket size per host+IP
	RatePerMinute int      // "ratelimit" refill per minute
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("TENANCY_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("TENANCY_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("TENANCY_REQUEST_TIMEOUT", 2*time.Second),

		// Logging
		LogLevel:  getenv("TENANCY_LOG_LEVEL", "info"),
		PrettyLog: mustBool("TENANCY_PRETTY_LOG", true),

		// Catalog
		RootPath:      getenv("TENANCY_ROOT_PATH", "."),
		CatalogFile:   getenv("TENANCY_CONFIG_FILE", "tenancy.yaml"),
		MountCacheTTL: mustDuration("TENANCY_MOUNT_CACHE_TTL", 10*time.Minute),
		WatchFiles:    mustBool("TENANCY_WATCH_FILES", true),
		WatchDebounce: mustDuration("TENANCY_WATCH_DEBOUNCE", 500*time.Millisecond),

		// Redis settings
		RedisAddr:             getenv("TENANCY_REDIS_ADDR", ""),
		RedisUser:             getenv("TENANCY_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("TENANCY_REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         getenv("TENANCY_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("TENANCY_REDIS_DB", 0),
		RedisDT:               mustDuration("TENANCY_REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("TENANCY_REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("TENANCY_REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("TENANCY_REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("TENANCY_REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("TENANCY_REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("TENANCY_REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("TENANCY_REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("TENANCY_REDIS_WARN_THRESHOLD", 3),
		UsageGCInterval:       mustDuration("TENANCY_USAGE_GC_INTERVAL", 24*time.Hour),
		UsageRetention:        mustDuration("TENANCY_USAGE_RETENTION", 30*24*time.Hour),

		// Access restrictions
		AllowedCIDRS: parseAllowedIPs(getenv("TENANCY_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("TENANCY_TRUST_PROXY", false),

		// Named middleware
		AllowedHosts:  splitAndTrim(getenv("TENANCY_ALLOWED_HOSTS", "")),
		RateBurst:     getenvInt("TENANCY_RATE_BURST", 60),
		RatePerMinute: getenvInt("TENANCY_RATE_PER_MINUTE", 60),
	}

	if cfg.RedisEnabled() && cfg.RedisPasswordRequired {
		cfg.RedisPassword = requireEnv("TENANCY_REDIS_PASSWORD")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// RedisEnabled reports whether usage tracking in Redis is configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
