package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/echochat/internal/flagx"
	"github.com/dmitrijs2005/echochat/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies
// on timex.Duration so JSON can specify intervals either as strings like
// "30s" or as integer nanoseconds. After parsing, values are copied into
// the runtime Config.
type JsonConfig struct {
	APIEndpointURL       string         `json:"api_endpoint_url"`
	StreamEndpointURL    string         `json:"stream_endpoint_url"`
	HistoryLimit         int            `json:"history_limit"`
	RetentionDays        int            `json:"retention_days"`
	ReconnectMaxInterval timex.Duration `json:"reconnect_max_interval"`

	BlobBucket        string `json:"blob_bucket"`
	BlobRegion        string `json:"blob_region"`
	BlobEndpointURL   string `json:"blob_endpoint_url"`
	BlobPublicBaseURL string `json:"blob_public_base_url"`
	BlobAccessKey     string `json:"blob_access_key"`
	BlobSecretKey     string `json:"blob_secret_key"`
}

// parseJson overlays Config with values loaded from a JSON file. The file
// path comes from the -c/-config flags via flagx.JsonConfigFlags; when no
// path is given the function is a no-op. Read and unmarshal errors panic,
// matching the loader's fail-fast contract.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.APIEndpointURL != "" {
		cfg.APIEndpointURL = jc.APIEndpointURL
	}
	if jc.StreamEndpointURL != "" {
		cfg.StreamEndpointURL = jc.StreamEndpointURL
	}
	if jc.HistoryLimit > 0 {
		cfg.HistoryLimit = jc.HistoryLimit
	}
	if jc.RetentionDays > 0 {
		cfg.RetentionDays = jc.RetentionDays
	}
	if jc.ReconnectMaxInterval.Duration > 0 {
		cfg.ReconnectMaxInterval = time.Duration(jc.ReconnectMaxInterval.Duration)
	}
	if jc.BlobBucket != "" {
		cfg.BlobBucket = jc.BlobBucket
	}
	if jc.BlobRegion != "" {
		cfg.BlobRegion = jc.BlobRegion
	}
	if jc.BlobEndpointURL != "" {
		cfg.BlobEndpointURL = jc.BlobEndpointURL
	}
	if jc.BlobPublicBaseURL != "" {
		cfg.BlobPublicBaseURL = jc.BlobPublicBaseURL
	}
	if jc.BlobAccessKey != "" {
		cfg.BlobAccessKey = jc.BlobAccessKey
	}
	if jc.BlobSecretKey != "" {
		cfg.BlobSecretKey = jc.BlobSecretKey
	}
}
