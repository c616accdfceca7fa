package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cast"
)

type Config struct {
	Server    ServerConfig
	Upstream  UpstreamConfig
	Pipeline  PipelineConfig
	Session   SessionConfig
	Redis     RedisConfig
	Postgres  PostgresConfig
	Kafka     KafkaConfig
	AMQP      AMQPConfig
	Events    EventsConfig
	Logging   LoggingConfig
	Websocket WebsocketConfig
}

type ServerConfig struct {
	Port     string
	Location *time.Location
}

type UpstreamConfig struct {
	BaseURL        string
	Timeout        time.Duration
	ListingTimeout time.Duration
	BreakerTrips   int
	BreakerCooloff time.Duration
}

// PipelineConfig tunes the fetch, reconcile and enrich stages.
type PipelineConfig struct {
	PageSize            int
	MaxPages            int
	WidenDays           int
	DefaultLookbackDays int
	EnrichConcurrency   int
	CacheTTL            time.Duration
	OperatorSeed        map[string]string
	OperatorOverrides   map[string]string
}

type SessionConfig struct {
	Backend   string
	KeyPrefix string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type PostgresConfig struct {
	DSN string
}

type KafkaConfig struct {
	Brokers          []string
	EventsTopic      string
	GroupID          string
	InvalidateTopics []string
}

type AMQPConfig struct {
	URL   string
	Queue string
}

// EventsConfig lists the pipeline event sinks to enable (log, kafka, amqp, ws).
type EventsConfig struct {
	Sinks []string
}

type LoggingConfig struct {
	Level     string
	Format    string
	Directory string
}

type WebsocketConfig struct {
	SendBuffer int
}

const (
	SessionBackendMemory   = "memory"
	SessionBackendRedis    = "redis"
	SessionBackendPostgres = "postgres"
)

// DefaultOperatorSeed names the booking engine and the usual channel-manager
// partners before the upstream catalog is consulted.
var DefaultOperatorSeed = map[string]string{
	"0": "Motor de reservas",
	"1": "Booking.com",
	"2": "Expedia",
	"3": "Airbnb",
}

func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Port: getenv("PORT", "8080"),
		},
		Upstream: UpstreamConfig{
			BaseURL:        strings.TrimRight(getenv("UPSTREAM_BASE_URL", "https://apiv3.avirato.com/v3"), "/"),
			Timeout:        getDuration("UPSTREAM_TIMEOUT", 15*time.Second),
			ListingTimeout: getDuration("UPSTREAM_LISTING_TIMEOUT", 60*time.Second),
			BreakerTrips:   getInt("UPSTREAM_BREAKER_TRIPS", 5),
			BreakerCooloff: getDuration("UPSTREAM_BREAKER_COOLOFF", 30*time.Second),
		},
		Pipeline: PipelineConfig{
			PageSize:            getInt("PAGE_SIZE", 100),
			MaxPages:            getInt("MAX_PAGES", 50),
			WidenDays:           getInt("WINDOW_WIDEN_DAYS", 90),
			DefaultLookbackDays: getInt("DEFAULT_LOOKBACK_DAYS", 30),
			EnrichConcurrency:   getInt("ENRICH_CONCURRENCY", 5),
			CacheTTL:            getDuration("CACHE_TTL", 2*time.Minute),
		},
		Session: SessionConfig{
			Backend:   strings.ToLower(getenv("SESSION_BACKEND", SessionBackendMemory)),
			KeyPrefix: getenv("SESSION_KEY_PREFIX", ""),
		},
		Redis: RedisConfig{
			Addr:     getenv("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
		},
		Postgres: PostgresConfig{
			DSN: os.Getenv("DATABASE_URL"),
		},
		Kafka: KafkaConfig{
			Brokers:          splitList(firstEnv("KAFKA_BROKERS", "KAFKA_BROKER")),
			EventsTopic:      getenv("KAFKA_TOPIC", "pms.pipeline.events"),
			GroupID:          getenv("KAFKA_GROUP_ID", "avirato-dashboard"),
			InvalidateTopics: splitList(os.Getenv("KAFKA_INVALIDATE_TOPICS")),
		},
		AMQP: AMQPConfig{
			URL:   os.Getenv("AMQP_URL"),
			Queue: getenv("AMQP_QUEUE", "pms.pipeline.events"),
		},
		Events: EventsConfig{
			Sinks: splitList(getenv("EVENTS_SINKS", "log,ws")),
		},
		Logging: LoggingConfig{
			Level:     getenv("LOG_LEVEL", "info"),
			Format:    getenv("LOG_FORMAT", "text"),
			Directory: getenv("LOG_DIR", "./logs"),
		},
		Websocket: WebsocketConfig{
			SendBuffer: getInt("WS_SEND_BUFFER", 16),
		},
	}

	seed, err := ParseNameTable(os.Getenv("OPERATOR_SEED"))
	if err != nil {
		return Config{}, fmt.Errorf("OPERATOR_SEED: %w", err)
	}
	if len(seed) == 0 {
		seed = cloneTable(DefaultOperatorSeed)
	}
	cfg.Pipeline.OperatorSeed = seed

	overrides, err := ParseNameTable(os.Getenv("OPERATOR_OVERRIDES"))
	if err != nil {
		return Config{}, fmt.Errorf("OPERATOR_OVERRIDES: %w", err)
	}
	cfg.Pipeline.OperatorOverrides = overrides

	loc := time.Local
	if tz := strings.TrimSpace(os.Getenv("TIMEZONE")); tz != "" {
		loc, err = time.LoadLocation(tz)
		if err != nil {
			return Config{}, fmt.Errorf("TIMEZONE: %w", err)
		}
	}
	cfg.Server.Location = loc

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("UPSTREAM_BASE_URL is required")
	}
	if c.Pipeline.PageSize <= 0 {
		return fmt.Errorf("PAGE_SIZE must be positive, got %d", c.Pipeline.PageSize)
	}
	if c.Pipeline.MaxPages < 10 || c.Pipeline.MaxPages > 100 {
		return fmt.Errorf("MAX_PAGES must be between 10 and 100, got %d", c.Pipeline.MaxPages)
	}
	if c.Pipeline.WidenDays < 0 {
		return fmt.Errorf("WINDOW_WIDEN_DAYS must not be negative")
	}
	if c.Pipeline.EnrichConcurrency <= 0 {
		return fmt.Errorf("ENRICH_CONCURRENCY must be positive")
	}
	switch c.Session.Backend {
	case SessionBackendMemory, SessionBackendRedis:
	case SessionBackendPostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres session backend")
		}
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q", c.Session.Backend)
	}
	return nil
}

// ParseNameTable reads "id=name;id=name" pairs. Empty input yields an empty table.
func ParseNameTable(raw string) (map[string]string, error) {
	table := map[string]string{}
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		id, name, ok := strings.Cut(entry, "=")
		id, name = strings.TrimSpace(id), strings.TrimSpace(name)
		if !ok || id == "" || name == "" {
			return nil, fmt.Errorf("malformed entry %q, expected id=name", entry)
		}
		table[id] = name
	}
	return table, nil
}

// Sink reports whether the named event sink is enabled.
func (e EventsConfig) Sink(name string) bool {
	for _, s := range e.Sinks {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := cast.ToIntE(raw)
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	d, err := cast.ToDurationE(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func cloneTable(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
