// Package config assembles runtime settings for the chat client from
// defaults, an optional JSON file and command-line flags, in that order
// of precedence.
package config

import "time"

// Config holds runtime settings for the chat client.
//
// Fields:
//   - APIEndpointURL: base URL of the backend REST API.
//   - StreamEndpointURL: websocket URL of the realtime gateway.
//   - HistoryLimit: how many messages to load per conversation.
//   - RetentionDays: local messages older than this are pruned at startup.
//   - ReconnectMaxInterval: ceiling for the reconnect backoff.
//   - BlobBucket / BlobRegion / BlobEndpointURL / BlobPublicBaseURL:
//     object-store settings for file attachments.
type Config struct {
	APIEndpointURL       string
	StreamEndpointURL    string
	HistoryLimit         int
	RetentionDays        int
	ReconnectMaxInterval time.Duration

	BlobBucket        string
	BlobRegion        string
	BlobEndpointURL   string
	BlobPublicBaseURL string
	BlobAccessKey     string
	BlobSecretKey     string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIEndpointURL = "http://127.0.0.1:8080"
	c.StreamEndpointURL = "ws://127.0.0.1:8080/ws"
	c.HistoryLimit = 50
	c.RetentionDays = 30
	c.ReconnectMaxInterval = 30 * time.Second

	c.BlobBucket = "echochat-files"
	c.BlobRegion = "us-east-1"
	c.BlobEndpointURL = ""
	c.BlobPublicBaseURL = ""
	c.BlobAccessKey = ""
	c.BlobSecretKey = ""
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present) and command-line flags (if present). Later
// sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
