// Package config provides configuration management for the citation graph service.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// SSL mode constants for database connections.
const (
	// SSLModeDisable disables SSL (use only for local development).
	SSLModeDisable = "disable"
	// SSLModeRequire requires SSL but does not verify certificates.
	SSLModeRequire = "require"
	// SSLModeVerifyCA verifies the server certificate against a CA.
	SSLModeVerifyCA = "verify-ca"
	// SSLModeVerifyFull verifies the server certificate and hostname.
	SSLModeVerifyFull = "verify-full"
)

// Config holds all configuration for the citation graph service.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Database contains PostgreSQL connection settings.
	Database DatabaseConfig `mapstructure:"database"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// Crawler contains crawl orchestration settings.
	Crawler CrawlerConfig `mapstructure:"crawler"`
	// Resolver contains citation resolution settings.
	Resolver ResolverConfig `mapstructure:"resolver"`
	// Graph contains citation graph query settings.
	Graph GraphConfig `mapstructure:"graph"`
	// Embedding contains embedding service client settings.
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	// Kafka contains Kafka publisher settings for crawl events.
	Kafka KafkaConfig `mapstructure:"kafka"`
	// Sources contains per-platform source API configurations.
	Sources SourcesConfig `mapstructure:"sources"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP server port (default: 8080).
	HTTPPort int `mapstructure:"http_port"`
	// MetricsPort is the metrics server port (default: 9091).
	MetricsPort int `mapstructure:"metrics_port"`
	// ReadTimeout is the maximum duration for reading request body.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing response.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	// Host is the PostgreSQL server hostname.
	Host string `mapstructure:"host"`
	// Port is the PostgreSQL server port (default: 5432).
	Port int `mapstructure:"port"`
	// User is the database username.
	User string `mapstructure:"user"`
	// Password is the database password (use environment variable in production).
	Password string `mapstructure:"password"`
	// Name is the database name.
	Name string `mapstructure:"name"`
	// SSLMode controls SSL connection security (require, verify-ca, verify-full, disable).
	// Default is "require" for production security. Use "disable" only for local development.
	SSLMode string `mapstructure:"ssl_mode"`
	// MaxConns is the maximum number of connections in the pool (default: 50).
	MaxConns int32 `mapstructure:"max_conns"`
	// MinConns is the minimum number of connections to keep open (default: 10).
	MinConns int32 `mapstructure:"min_conns"`
	// MaxConnLifetime is the maximum lifetime of a connection before it's closed.
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	// MaxConnIdleTime is the maximum time a connection can be idle before it's closed.
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	// HealthCheckPeriod is the interval between health checks of idle connections.
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
	// ConnectTimeout is the maximum time to wait for a connection.
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	// MigrationPath is the path to migration files (relative or absolute).
	MigrationPath string `mapstructure:"migration_path"`
	// MigrationAutoRun enables automatic migration on startup (default: false).
	MigrationAutoRun bool `mapstructure:"migration_auto_run"`
	// StatementCacheCapacity is the size of the prepared statement cache.
	StatementCacheCapacity int `mapstructure:"statement_cache_capacity"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr, file path).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for metrics endpoint.
	Path string `mapstructure:"path"`
}

// CrawlerConfig holds crawl orchestration configuration.
type CrawlerConfig struct {
	// Schedule is the cron expression for the daily crawl.
	Schedule string `mapstructure:"schedule"`
	// MaxResults is the default total result cap per source per crawl.
	MaxResults int `mapstructure:"max_results"`
	// MaxPages is the page-loop safety cap per source.
	MaxPages int `mapstructure:"max_pages"`
	// LookbackDays is the default date window when a crawl request has no bounds.
	LookbackDays int `mapstructure:"lookback_days"`
	// Categories is the default list of categories crawled by the scheduled run.
	Categories []string `mapstructure:"categories"`
}

// ResolverConfig holds citation resolution configuration.
type ResolverConfig struct {
	// Enabled controls whether citation edges are resolved after a crawl.
	Enabled bool `mapstructure:"enabled"`
}

// GraphConfig holds citation graph query configuration.
type GraphConfig struct {
	// DefaultDepth is the traversal depth when the request omits one.
	DefaultDepth int `mapstructure:"default_depth"`
	// MaxDepth is the maximum allowed traversal depth.
	MaxDepth int `mapstructure:"max_depth"`
	// MaxNodes bounds how many nodes one graph query may return.
	MaxNodes int `mapstructure:"max_nodes"`
}

// EmbeddingConfig holds embedding service client settings.
type EmbeddingConfig struct {
	// Enabled controls whether crawled papers get embeddings attached.
	Enabled bool `mapstructure:"enabled"`
	// BaseURL is the embedding service HTTP endpoint.
	BaseURL string `mapstructure:"base_url"`
	// Timeout is the timeout for embedding calls.
	Timeout time.Duration `mapstructure:"timeout"`
}

// KafkaConfig holds Kafka publisher settings for crawl completion events.
type KafkaConfig struct {
	// Enabled controls whether Kafka publishing is active.
	Enabled bool `mapstructure:"enabled"`
	// Brokers is the list of Kafka broker addresses.
	Brokers []string `mapstructure:"brokers"`
	// Topic is the Kafka topic crawl events are published to.
	Topic string `mapstructure:"topic"`
	// BatchSize is the maximum number of messages to batch before sending.
	BatchSize int `mapstructure:"batch_size"`
	// BatchTimeout is the maximum time to wait for a batch to fill before sending.
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
}

// SourcesConfig holds configuration for all paper source APIs.
type SourcesConfig struct {
	// ArXiv contains arXiv query API settings.
	ArXiv ArXivSourceConfig `mapstructure:"arxiv"`
	// ArXivRSS contains arXiv RSS feed settings.
	ArXivRSS ArXivRSSSourceConfig `mapstructure:"arxiv_rss"`
	// BioRxiv contains bioRxiv API settings.
	BioRxiv PreprintSourceConfig `mapstructure:"biorxiv"`
	// MedRxiv contains medRxiv API settings (same details API as bioRxiv).
	MedRxiv PreprintSourceConfig `mapstructure:"medrxiv"`
	// PMC contains PubMed Central E-utilities settings.
	PMC PMCSourceConfig `mapstructure:"pmc"`
	// PLOS contains PLOS search API settings.
	PLOS PLOSSourceConfig `mapstructure:"plos"`
	// DOAJ contains DOAJ API settings.
	DOAJ DOAJSourceConfig `mapstructure:"doaj"`
	// SemanticScholar contains Semantic Scholar Graph API settings.
	SemanticScholar SemanticScholarSourceConfig `mapstructure:"semantic_scholar"`
}

// ArXivSourceConfig holds arXiv query API configuration.
type ArXivSourceConfig struct {
	// Enabled controls whether this source is used.
	Enabled bool `mapstructure:"enabled"`
	// BaseURL is the arXiv query API URL.
	BaseURL string `mapstructure:"base_url"`
	// Timeout is the timeout for API calls.
	Timeout time.Duration `mapstructure:"timeout"`
	// RequestInterval is the minimum spacing between requests.
	RequestInterval time.Duration `mapstructure:"request_interval"`
	// MaxResults is the result cap per page.
	MaxResults int `mapstructure:"max_results"`
}

// ArXivRSSSourceConfig holds arXiv RSS feed configuration.
type ArXivRSSSourceConfig struct {
	// Enabled controls whether this source is used.
	Enabled bool `mapstructure:"enabled"`
	// BaseURL is the arXiv RSS base URL.
	BaseURL string `mapstructure:"base_url"`
	// Category is the default feed category.
	Category string `mapstructure:"category"`
	// Timeout is the timeout for feed fetches.
	Timeout time.Duration `mapstructure:"timeout"`
	// RequestInterval is the minimum spacing between requests.
	RequestInterval time.Duration `mapstructure:"request_interval"`
}

// PreprintSourceConfig holds bioRxiv/medRxiv details API configuration.
type PreprintSourceConfig struct {
	// Enabled controls whether this source is used.
	Enabled bool `mapstructure:"enabled"`
	// BaseURL is the details API base URL.
	BaseURL string `mapstructure:"base_url"`
	// Timeout is the timeout for API calls.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
	// BurstSize is the maximum burst of requests allowed.
	BurstSize int `mapstructure:"burst_size"`
	// WindowDays is the lookback window when no date bounds are given.
	WindowDays int `mapstructure:"window_days"`
}

// PMCSourceConfig holds PubMed Central E-utilities configuration.
type PMCSourceConfig struct {
	// Enabled controls whether this source is used.
	Enabled bool `mapstructure:"enabled"`
	// BaseURL is the E-utilities base URL.
	BaseURL string `mapstructure:"base_url"`
	// Tool is the tool name sent with every request.
	Tool string `mapstructure:"tool"`
	// Email is the contact address sent with every request.
	Email string `mapstructure:"email"`
	// APIKey raises the NCBI rate limit (loaded from CITEGRAPH_SOURCES_PMC_API_KEY).
	APIKey string `mapstructure:"-"`
	// Timeout is the timeout for API calls.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
	// BurstSize is the maximum burst of requests allowed.
	BurstSize int `mapstructure:"burst_size"`
	// MaxResults is the maximum results per search request.
	MaxResults int `mapstructure:"max_results"`
}

// PLOSSourceConfig holds PLOS search API configuration.
type PLOSSourceConfig struct {
	// Enabled controls whether this source is used.
	Enabled bool `mapstructure:"enabled"`
	// BaseURL is the PLOS search API URL.
	BaseURL string `mapstructure:"base_url"`
	// Timeout is the timeout for API calls.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
	// BurstSize is the maximum burst of requests allowed.
	BurstSize int `mapstructure:"burst_size"`
	// MaxResults is the maximum results per search request.
	MaxResults int `mapstructure:"max_results"`
}

// DOAJSourceConfig holds DOAJ API configuration.
type DOAJSourceConfig struct {
	// Enabled controls whether this source is used.
	Enabled bool `mapstructure:"enabled"`
	// BaseURL is the DOAJ API base URL.
	BaseURL string `mapstructure:"base_url"`
	// Timeout is the timeout for API calls.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
	// BurstSize is the maximum burst of requests allowed.
	BurstSize int `mapstructure:"burst_size"`
	// PageSize is the page size for search requests.
	PageSize int `mapstructure:"page_size"`
}

// SemanticScholarSourceConfig holds Semantic Scholar Graph API configuration.
type SemanticScholarSourceConfig struct {
	// Enabled controls whether this source is used.
	Enabled bool `mapstructure:"enabled"`
	// BaseURL is the Graph API base URL.
	BaseURL string `mapstructure:"base_url"`
	// APIKey is the API key (loaded from CITEGRAPH_SOURCES_SEMANTIC_SCHOLAR_API_KEY).
	APIKey string `mapstructure:"-"`
	// Timeout is the timeout for API calls.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
	// BurstSize is the maximum burst of requests allowed.
	BurstSize int `mapstructure:"burst_size"`
	// MaxResults is the maximum results per search request.
	MaxResults int `mapstructure:"max_results"`
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	params := url.Values{}
	params.Set("sslmode", c.SSLMode)
	if c.ConnectTimeout > 0 {
		params.Set("connect_timeout", fmt.Sprintf("%d", int(c.ConnectTimeout.Seconds())))
	}
	if c.StatementCacheCapacity > 0 {
		params.Set("statement_cache_capacity", fmt.Sprintf("%d", c.StatementCacheCapacity))
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?%s",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		c.Name,
		params.Encode(),
	)
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// MetricsAddress returns the metrics server address.
func (c *ServerConfig) MetricsAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.MetricsPort)
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read from environment variables
	v.SetEnvPrefix("CITEGRAPH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file if present
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/citation-graph-service")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use env vars and defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Load secrets exclusively from environment variables.
	// These fields use mapstructure:"-" to prevent loading from config files.
	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadSecrets populates secret fields exclusively from environment variables.
// These fields are tagged with mapstructure:"-" to prevent loading from config files.
func loadSecrets(cfg *Config) {
	cfg.Sources.PMC.APIKey = os.Getenv("CITEGRAPH_SOURCES_PMC_API_KEY")
	cfg.Sources.SemanticScholar.APIKey = os.Getenv("CITEGRAPH_SOURCES_SEMANTIC_SCHOLAR_API_KEY")
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.metrics_port", 9091)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "citegraph")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "citation_graph_service")
	// Default to "require" for production security. Use CITEGRAPH_DATABASE_SSL_MODE=disable for local development.
	v.SetDefault("database.ssl_mode", SSLModeRequire)
	v.SetDefault("database.max_conns", 50)
	v.SetDefault("database.min_conns", 10)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")
	v.SetDefault("database.health_check_period", "30s")
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.migration_path", "migrations")
	v.SetDefault("database.migration_auto_run", false)
	v.SetDefault("database.statement_cache_capacity", 512)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// Crawler defaults
	v.SetDefault("crawler.schedule", "0 2 * * *")
	v.SetDefault("crawler.max_results", 100)
	v.SetDefault("crawler.max_pages", 10)
	v.SetDefault("crawler.lookback_days", 1)
	v.SetDefault("crawler.categories", []string{"cs.AI"})

	// Resolver defaults
	v.SetDefault("resolver.enabled", true)

	// Graph defaults
	v.SetDefault("graph.default_depth", 1)
	v.SetDefault("graph.max_depth", 3)
	v.SetDefault("graph.max_nodes", 500)

	// Embedding defaults
	v.SetDefault("embedding.enabled", false)
	v.SetDefault("embedding.base_url", "http://localhost:8500")
	v.SetDefault("embedding.timeout", "30s")

	// Kafka defaults
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "events.crawl.citation_graph_service")
	v.SetDefault("kafka.batch_size", 100)
	v.SetDefault("kafka.batch_timeout", "10ms")

	// Sources defaults - arXiv query API
	// API keys are loaded exclusively from environment variables (see loadSecrets).
	v.SetDefault("sources.arxiv.enabled", true)
	v.SetDefault("sources.arxiv.base_url", "http://export.arxiv.org/api/query")
	v.SetDefault("sources.arxiv.timeout", "30s")
	v.SetDefault("sources.arxiv.request_interval", "3s") // arXiv asks for one request every 3 seconds
	v.SetDefault("sources.arxiv.max_results", 50)

	// Sources defaults - arXiv RSS
	v.SetDefault("sources.arxiv_rss.enabled", true)
	v.SetDefault("sources.arxiv_rss.base_url", "https://export.arxiv.org/rss")
	v.SetDefault("sources.arxiv_rss.category", "cs.AI")
	v.SetDefault("sources.arxiv_rss.timeout", "30s")
	v.SetDefault("sources.arxiv_rss.request_interval", "3s")

	// Sources defaults - bioRxiv
	v.SetDefault("sources.biorxiv.enabled", true)
	v.SetDefault("sources.biorxiv.base_url", "https://api.biorxiv.org")
	v.SetDefault("sources.biorxiv.timeout", "30s")
	v.SetDefault("sources.biorxiv.rate_limit", 1.0)
	v.SetDefault("sources.biorxiv.burst_size", 1)
	v.SetDefault("sources.biorxiv.window_days", 30)

	// Sources defaults - medRxiv (same details API, different server)
	v.SetDefault("sources.medrxiv.enabled", true)
	v.SetDefault("sources.medrxiv.base_url", "https://api.biorxiv.org")
	v.SetDefault("sources.medrxiv.timeout", "30s")
	v.SetDefault("sources.medrxiv.rate_limit", 1.0)
	v.SetDefault("sources.medrxiv.burst_size", 1)
	v.SetDefault("sources.medrxiv.window_days", 30)

	// Sources defaults - PubMed Central
	v.SetDefault("sources.pmc.enabled", true)
	v.SetDefault("sources.pmc.base_url", "https://eutils.ncbi.nlm.nih.gov/entrez/eutils")
	v.SetDefault("sources.pmc.tool", "citation-graph-service")
	v.SetDefault("sources.pmc.email", "")
	v.SetDefault("sources.pmc.timeout", "30s")
	v.SetDefault("sources.pmc.rate_limit", 3.0) // NCBI allows max 3 req/sec without API key
	v.SetDefault("sources.pmc.burst_size", 3)
	v.SetDefault("sources.pmc.max_results", 100)

	// Sources defaults - PLOS
	v.SetDefault("sources.plos.enabled", true)
	v.SetDefault("sources.plos.base_url", "http://api.plos.org/search")
	v.SetDefault("sources.plos.timeout", "30s")
	v.SetDefault("sources.plos.rate_limit", 0.1) // PLOS asks for no more than 10 requests per minute
	v.SetDefault("sources.plos.burst_size", 1)
	v.SetDefault("sources.plos.max_results", 100)

	// Sources defaults - DOAJ
	v.SetDefault("sources.doaj.enabled", true)
	v.SetDefault("sources.doaj.base_url", "https://doaj.org/api/v2")
	v.SetDefault("sources.doaj.timeout", "30s")
	v.SetDefault("sources.doaj.rate_limit", 2.0)
	v.SetDefault("sources.doaj.burst_size", 2)
	v.SetDefault("sources.doaj.page_size", 100)

	// Sources defaults - Semantic Scholar
	v.SetDefault("sources.semantic_scholar.enabled", true)
	v.SetDefault("sources.semantic_scholar.base_url", "https://api.semanticscholar.org/graph/v1")
	v.SetDefault("sources.semantic_scholar.timeout", "30s")
	v.SetDefault("sources.semantic_scholar.rate_limit", 1.0) // unauthenticated quota is shared
	v.SetDefault("sources.semantic_scholar.burst_size", 1)
	v.SetDefault("sources.semantic_scholar.max_results", 100)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	// Validate server ports
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}
	if c.Server.MetricsPort <= 0 || c.Server.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", c.Server.MetricsPort)
	}

	// Validate database config
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("max_conns (%d) must be >= min_conns (%d)", c.Database.MaxConns, c.Database.MinConns)
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	// Validate crawler config
	if c.Crawler.MaxPages <= 0 {
		return fmt.Errorf("crawler max_pages must be positive")
	}
	if c.Crawler.MaxResults <= 0 {
		return fmt.Errorf("crawler max_results must be positive")
	}
	if c.Crawler.LookbackDays < 0 {
		return fmt.Errorf("crawler lookback_days must not be negative")
	}

	// Validate graph config
	if c.Graph.DefaultDepth < 0 {
		return fmt.Errorf("graph default_depth must not be negative")
	}
	if c.Graph.MaxDepth < c.Graph.DefaultDepth {
		return fmt.Errorf("graph max_depth (%d) must be >= default_depth (%d)", c.Graph.MaxDepth, c.Graph.DefaultDepth)
	}
	if c.Graph.MaxNodes <= 0 {
		return fmt.Errorf("graph max_nodes must be positive")
	}

	// Validate embedding config
	if c.Embedding.Enabled && c.Embedding.BaseURL == "" {
		return fmt.Errorf("embedding base_url is required when embedding is enabled")
	}

	// Validate Kafka config
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka brokers are required when kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka topic is required when kafka is enabled")
		}
	}

	return nil
}
