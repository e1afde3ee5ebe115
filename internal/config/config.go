// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults, Load(ctx) to layer sources.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: console or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StorePath points at the SQLite database file.
	StorePath string `koanf:"store_path"`

	// Encoder selects and configures the embedding backend.
	EncoderProvider  string `koanf:"encoder_provider"` // bge or gemini
	EncoderBaseURL   string `koanf:"encoder_base_url"`
	EncoderAPIKey    string `koanf:"encoder_api_key"`
	EncoderModel     string `koanf:"encoder_model"`
	EncoderDims      int    `koanf:"encoder_dims"`
	EncoderTimeoutMS int    `koanf:"encoder_timeout_ms"`
	EncoderCacheTTLS int    `koanf:"encoder_cache_ttl_s"`

	// Index selects and configures the vector index backend.
	IndexProvider  string `koanf:"index_provider"` // memory or pinecone
	IndexHost      string `koanf:"index_host"`
	IndexAPIKey    string `koanf:"index_api_key"`
	IndexNamespace string `koanf:"index_namespace"`
	IndexTimeoutMS int    `koanf:"index_timeout_ms"`

	// Ranking knobs. Floors and thresholds are calibrated per encoder family.
	TopKDefault       int     `koanf:"top_k_default"`
	TopKMax           int     `koanf:"top_k_max"`
	ScoreFloor        float64 `koanf:"score_floor"`
	GapThreshold      float64 `koanf:"gap_threshold"`
	CandidatePageSize int     `koanf:"candidate_page_size"`

	// Feed credentials.
	AdzunaAppID   string `koanf:"adzuna_app_id"`
	AdzunaAppKey  string `koanf:"adzuna_app_key"`
	AdzunaCountry string `koanf:"adzuna_country"`
	JSearchAPIKey string `koanf:"jsearch_api_key"`

	// Notification (SMTP) settings.
	SMTPHost         string  `koanf:"smtp_host"`
	SMTPPort         int     `koanf:"smtp_port"`
	SMTPUser         string  `koanf:"smtp_user"`
	SMTPPassword     string  `koanf:"smtp_password"`
	SMTPFrom         string  `koanf:"smtp_from"`
	NotifyMinScore   float64 `koanf:"notify_min_score"`
	NotifyMaxPerJob  int     `koanf:"notify_max_per_job"`
	DigestCron       string  `koanf:"digest_cron"`
	DigestTopK       int     `koanf:"digest_top_k"`

	// Chat assistant settings. Chat stays disabled without an API key.
	ChatAPIKey string `koanf:"chat_api_key"`
	ChatModel  string `koanf:"chat_model"`

	// Ingest pipeline sizing.
	IngestQueueSize int    `koanf:"ingest_queue_size"`
	WorkerCount     int    `koanf:"worker_count"`
	DedupeSize      int    `koanf:"dedupe_size"`
	RefreshCron     string `koanf:"refresh_cron"`
}

// New creates a Config populated with defaults.
func New() *Config {
	c := &Config{
		LogLevel:  "info",
		LogFormat: "console",
		Addr:      ":9080",
		StorePath: "matchd.db",

		EncoderProvider:  "bge",
		EncoderBaseURL:   "http://localhost:8081",
		EncoderModel:     "BAAI/bge-base-en-v1.5",
		EncoderDims:      768,
		EncoderTimeoutMS: 15_000,
		EncoderCacheTTLS: 3600,

		IndexProvider:  "memory",
		IndexNamespace: "job-matcher",
		IndexTimeoutMS: 10_000,

		TopKDefault:       20,
		TopKMax:           100,
		ScoreFloor:        50,
		GapThreshold:      0.65,
		CandidatePageSize: 200,

		AdzunaCountry: "in",

		SMTPPort:        587,
		NotifyMinScore:  70,
		NotifyMaxPerJob: 50,
		DigestCron:      "0 8 * * *",
		DigestTopK:      10,

		ChatModel: "gemini-2.0-flash",

		IngestQueueSize: 10_000,
		WorkerCount:     runtime.NumCPU() * 2,
		DedupeSize:      100_000,
		RefreshCron:     "0 */6 * * *",
	}
	return c
}
