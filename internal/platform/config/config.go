package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr          string
	ProxyAddr     string
	JWTSigningKey string

	// ClientSecretHash is the bcrypt hash token requests must match. Empty
	// skips secret verification (local development only).
	ClientSecretHash string

	// PostgresURL selects the durable store; empty means in-memory stores.
	PostgresURL string

	// RedisURL enables the proxy document cache; empty disables it.
	RedisURL string

	// KafkaBrokers enables the audit mirror publisher; empty disables it.
	KafkaBrokers []string
	AuditTopic   string

	// DriveBaseURL is the upstream for the Save-to-Drive collaborator.
	DriveBaseURL string

	// ProxyAllowedHosts is the destination allowlist for the document proxy.
	ProxyAllowedHosts []string
}

// ShutdownTimeout bounds graceful shutdown on SIGINT.
var ShutdownTimeout = 10 * time.Second

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:             envOr("PATCHDESK_ADDR", ":8080"),
		ProxyAddr:        envOr("PATCHDESK_PROXY_ADDR", ":8081"),
		JWTSigningKey:    envOr("PATCHDESK_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		ClientSecretHash: os.Getenv("PATCHDESK_CLIENT_SECRET_HASH"),
		PostgresURL:      os.Getenv("PATCHDESK_POSTGRES_URL"),
		RedisURL:         os.Getenv("PATCHDESK_REDIS_URL"),
		AuditTopic:       envOr("PATCHDESK_AUDIT_TOPIC", "patchdesk.audit-events"),
		DriveBaseURL:     envOr("PATCHDESK_DRIVE_BASE_URL", "http://localhost:9090"),
	}
	if brokers := os.Getenv("PATCHDESK_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitAndTrim(brokers)
	}
	hosts := envOr("PATCHDESK_PROXY_ALLOWED_HOSTS",
		"s3.amazonaws.com,s3.us-east-1.amazonaws.com,s3.us-west-2.amazonaws.com")
	cfg.ProxyAllowedHosts = splitAndTrim(hosts)
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitAndTrim(csv string) []string {
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
