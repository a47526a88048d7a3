package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port = %q", cfg.Port)
	}
	if cfg.APIBasePath != "/api" {
		t.Fatalf("APIBasePath = %q", cfg.APIBasePath)
	}
	if cfg.DBPath != "chat.db" {
		t.Fatalf("DBPath = %q", cfg.DBPath)
	}
	if cfg.RateRPS != 5.0 || cfg.RateBurst != 10 {
		t.Fatalf("rate = %v/%d", cfg.RateRPS, cfg.RateBurst)
	}
	if cfg.Client.ServerURL != "http://localhost:8080/api" {
		t.Fatalf("Client.ServerURL = %q", cfg.Client.ServerURL)
	}
	if cfg.Client.ProbeTimeout != 2*time.Second {
		t.Fatalf("Client.ProbeTimeout = %v", cfg.Client.ProbeTimeout)
	}
}

func TestLoadOverridesAndValidation(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "warning") // normalized to warn
	t.Setenv("GIN_MODE", "bogus")    // coerced to release
	t.Setenv("RATE_RPS", "2.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Fatalf("Port = %q", cfg.Port)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("LogLevel = %q", cfg.LogLevel)
	}
	if cfg.GinMode != "release" {
		t.Fatalf("GinMode = %q", cfg.GinMode)
	}
	if cfg.RateRPS != 2.5 {
		t.Fatalf("RateRPS = %v", cfg.RateRPS)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := []struct {
		key, val string
	}{
		{"LOG_LEVEL", "verbose"},
		{"SHUTDOWN_TIMEOUT", "-1s"},
		{"DB_POOL_MAX_OPEN", "0"},
		{"RATE_BURST", "0"},
		{"OTEL_TRACES_SAMPLER_ARG", "1.5"},
		{"CHAT_PROBE_TIMEOUT", "-2s"},
	}
	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			t.Setenv(tc.key, tc.val)
			if _, err := Load(); err == nil {
				t.Fatalf("%s=%s: expected validation error", tc.key, tc.val)
			}
		})
	}
}

func TestBoolParsing(t *testing.T) {
	t.Setenv("LOG_PRETTY", "on")
	t.Setenv("OTEL_ENABLED", "off")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "banana") // unrecognized keeps default

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.LogPretty {
		t.Fatal("LOG_PRETTY=on not recognized")
	}
	if cfg.OTEL.Enabled {
		t.Fatal("OTEL_ENABLED=off not recognized")
	}
	if !cfg.OTEL.Insecure {
		t.Fatal("unrecognized bool must keep its default")
	}
}

func TestNormalizeBasePath(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", "/"},
		{"/", "/"},
		{"api", "/api"},
		{"/api/", "/api"},
		{"/api/v1/", "/api/v1"},
	}
	for _, tc := range cases {
		if got := normalizeBasePath(tc.in); got != tc.want {
			t.Fatalf("normalizeBasePath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSplitCSV(t *testing.T) {
	got := splitCSV(" a.example.com , ,b.example.com,")
	if len(got) != 2 || got[0] != "a.example.com" || got[1] != "b.example.com" {
		t.Fatalf("splitCSV = %v", got)
	}
	if splitCSV("") != nil {
		t.Fatal("splitCSV(\"\") should be nil")
	}
}
