package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Search.Threshold != DefaultThreshold {
		t.Errorf("threshold = %v, want %v", cfg.Search.Threshold, DefaultThreshold)
	}
	if cfg.Fetch.Timeout.Duration != DefaultFetchTimeout {
		t.Errorf("timeout = %v, want %v", cfg.Fetch.Timeout.Duration, DefaultFetchTimeout)
	}
	if cfg.Fetch.MetadataFile != "ro-crate-metadata.json" {
		t.Errorf("metadata_file = %q", cfg.Fetch.MetadataFile)
	}
	if cfg.Server.Addr != DefaultAddr {
		t.Errorf("addr = %q, want %q", cfg.Server.Addr, DefaultAddr)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, `
[search]
threshold = 0.25
limit = 5

[fetch]
timeout = "3s"
retries = 2
rate_limit = 4.5

[cache]
max_entries = 16

[jsonld.contexts]
"https://w3id.org/ro/crate/1.1/context" = "/tmp/context.json"

[server]
addr = "127.0.0.1:9000"
session_ttl = "5m"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"threshold", cfg.Search.Threshold, 0.25},
		{"limit", cfg.Search.Limit, 5},
		{"min token length default", cfg.Search.MinTokenLength, DefaultMinTokenLength},
		{"timeout", cfg.Fetch.Timeout.Duration, 3 * time.Second},
		{"retries", cfg.Fetch.Retries, 2},
		{"rate limit", cfg.Fetch.RateLimit, 4.5},
		{"max entries", cfg.Cache.MaxEntries, 16},
		{"context mapping", cfg.JSONLD.Contexts["https://w3id.org/ro/crate/1.1/context"], "/tmp/context.json"},
		{"addr", cfg.Server.Addr, "127.0.0.1:9000"},
		{"session ttl", cfg.Server.SessionTTL.Duration, 5 * time.Minute},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestLoadConfigFromXDG(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	if err := os.MkdirAll(filepath.Join(home, appName), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(home, appName, "config.toml"), "[search]\nlimit = 7\n")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Search.Limit != 7 {
		t.Errorf("limit = %d, want 7", cfg.Search.Limit)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad toml", "[search\n", "load config"},
		{"bad duration", "[fetch]\ntimeout = \"soon\"\n", "load config"},
		{"threshold range", "[search]\nthreshold = 1.5\n", "search.threshold"},
		{"metadata file", "[fetch]\nmetadata_file = \"meta.json\"\n", "fetch.metadata_file"},
		{"metadata path", "[fetch]\nmetadata_file = \"sub/ro-crate-metadata.json\"\n", "fetch.metadata_file"},
		{"negative rate", "[fetch]\nrate_limit = -1.0\n", "fetch.rate_limit"},
		{"short ttl", "[server]\nsession_ttl = \"10ms\"\n", "server.session_ttl"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_")+".toml")
			writeFile(t, path, tt.content)
			_, err := LoadConfig(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadConfig() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfigMissingExplicit(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("a missing explicit config file should be an error")
	}
}
