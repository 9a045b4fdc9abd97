package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	BackendURL     string
	SiteOrigin     string
	NSEDataURL     string
	FinnhubBaseURL string
	GNewsBaseURL   string
	NewsRSSURL     string
	FinnhubAPIKey  string
	NewsAPIKey     string
	GNewsAPIKey    string

	RedisURL    string
	HTTPPort    int
	AdminAPIKey string

	PollQuoteSecs  int
	PollIndexSecs  int
	PollMoversSecs int
	PollFIIDIISecs int
	PollPCRSecs    int
	PollNewsSecs   int

	TelegramBotToken string

	SSHPort               int
	SSHHostKeyPath        string
	SSHAllowedFingerprint []string

	MCPTransport       string
	MCPHTTPBind        string
	MCPHTTPPort        int
	MCPAuthToken       string
	MCPRateLimitPerMin int

	TracingEnabled bool
	OTLPEndpoint   string
}

func Load() *Config {
	cfg := &Config{
		BackendURL:       firstEnv("BACKEND_URL", "NEXT_PUBLIC_BACKEND_URL"),
		SiteOrigin:       strings.TrimSpace(os.Getenv("SITE_ORIGIN")),
		NSEDataURL:       strings.TrimSpace(os.Getenv("NSE_DATA_URL")),
		FinnhubBaseURL:   strings.TrimSpace(os.Getenv("FINNHUB_BASE_URL")),
		GNewsBaseURL:     strings.TrimSpace(os.Getenv("GNEWS_BASE_URL")),
		NewsRSSURL:       strings.TrimSpace(os.Getenv("NEWS_RSS_URL")),
		FinnhubAPIKey:    firstEnv("FINNHUB_API_KEY", "NEXT_PUBLIC_FINNHUB_API_KEY"),
		NewsAPIKey:       strings.TrimSpace(os.Getenv("NEWS_API_KEY")),
		GNewsAPIKey:      strings.TrimSpace(os.Getenv("GNEWS_API_KEY")),
		RedisURL:         os.Getenv("REDIS_URL"),
		AdminAPIKey:      os.Getenv("ADMIN_API_KEY"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		MCPAuthToken:     os.Getenv("MCP_AUTH_TOKEN"),
		OTLPEndpoint:     strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
	}

	if cfg.BackendURL == "" {
		log.Println("Warning: BACKEND_URL not set, resolving from SITE_ORIGIN")
	}
	if cfg.FinnhubAPIKey == "" {
		log.Println("Warning: FINNHUB_API_KEY not set, quotes will use fallback data")
	}
	if cfg.GNewsAPIKey == "" {
		log.Println("Warning: GNEWS_API_KEY not set")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}
	if cfg.AdminAPIKey == "" {
		log.Println("Warning: ADMIN_API_KEY not set, refresh endpoint disabled")
	}
	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set")
	}

	cfg.HTTPPort = positiveInt("HTTP_PORT", 8080)

	cfg.PollQuoteSecs = positiveInt("POLL_QUOTE_SECS", 30)
	cfg.PollIndexSecs = positiveInt("POLL_INDEX_SECS", 60)
	cfg.PollMoversSecs = positiveInt("POLL_MOVERS_SECS", 300)
	cfg.PollFIIDIISecs = positiveInt("POLL_FIIDII_SECS", 900)
	cfg.PollPCRSecs = positiveInt("POLL_PCR_SECS", 300)
	cfg.PollNewsSecs = positiveInt("POLL_NEWS_SECS", 600)

	cfg.SSHPort = positiveInt("SSH_PORT", 2222)
	cfg.SSHHostKeyPath = strings.TrimSpace(os.Getenv("SSH_HOST_KEY_PATH"))
	if cfg.SSHHostKeyPath == "" {
		cfg.SSHHostKeyPath = ".ssh/sharada_ed25519"
	}
	for _, fp := range strings.Split(os.Getenv("SSH_ALLOWED_FINGERPRINTS"), ",") {
		if fp = strings.TrimSpace(fp); fp != "" {
			cfg.SSHAllowedFingerprint = append(cfg.SSHAllowedFingerprint, fp)
		}
	}

	cfg.MCPTransport = strings.ToLower(strings.TrimSpace(os.Getenv("MCP_TRANSPORT")))
	if cfg.MCPTransport == "" {
		cfg.MCPTransport = "stdio"
	}
	if cfg.MCPTransport != "stdio" && cfg.MCPTransport != "http" {
		log.Printf("Warning: unsupported MCP_TRANSPORT=%q, defaulting to stdio", cfg.MCPTransport)
		cfg.MCPTransport = "stdio"
	}

	cfg.MCPHTTPBind = strings.TrimSpace(os.Getenv("MCP_HTTP_BIND"))
	if cfg.MCPHTTPBind == "" {
		cfg.MCPHTTPBind = "127.0.0.1"
	}
	cfg.MCPHTTPPort = positiveInt("MCP_HTTP_PORT", 8090)
	cfg.MCPRateLimitPerMin = positiveInt("MCP_RATE_LIMIT_PER_MIN", 60)

	cfg.TracingEnabled = !strings.EqualFold(strings.TrimSpace(os.Getenv("TRACING_ENABLED")), "false")

	return cfg
}

// PollInterval converts a seconds setting to a duration.
func PollInterval(secs int) time.Duration {
	return time.Duration(secs) * time.Second
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

func positiveInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("Warning: invalid %s=%q, defaulting to %d", key, v, def)
		return def
	}
	return n
}
