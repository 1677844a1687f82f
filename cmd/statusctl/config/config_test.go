package config

import (
	"strings"
	"testing"
	"time"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.MonitorURL != "http://localhost:8080" {
		t.Errorf("MonitorURL = %q, want %q", cfg.MonitorURL, "http://localhost:8080")
	}
	if cfg.Transport != TransportHTTP {
		t.Errorf("Transport = %q, want %q", cfg.Transport, TransportHTTP)
	}
	if cfg.Output != OutputText {
		t.Errorf("Output = %q, want %q", cfg.Output, OutputText)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.Timeout)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "warn")
	}
}

func TestParse_CustomValues(t *testing.T) {
	cfg, err := Parse([]string{
		"-transport=grpc",
		"-grpc-addr=monitor:50051",
		"-plant=fern",
		"-output=json",
		"-timeout=2s",
	})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Transport != TransportGRPC || cfg.GRPCAddr != "monitor:50051" {
		t.Errorf("transport = %q %q", cfg.Transport, cfg.GRPCAddr)
	}
	if cfg.Plant != "fern" || cfg.Output != OutputJSON {
		t.Errorf("plant/output = %q/%q", cfg.Plant, cfg.Output)
	}
	if cfg.Timeout != 2*time.Second {
		t.Errorf("Timeout = %v, want 2s", cfg.Timeout)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"unknown transport", []string{"-transport=mqtt"}, "-transport"},
		{"unknown output", []string{"-output=yaml"}, "-output"},
		{"empty plant", []string{"-plant="}, "-plant"},
		{"history over grpc", []string{"-transport=grpc", "-history"}, "-history"},
		{"unknown flag", []string{"-bogus"}, "bogus"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.args)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Parse() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue time.Duration
		want         time.Duration
	}{
		{"valid duration", "5m", time.Minute, 5 * time.Minute},
		{"invalid duration", "not-a-duration", 30 * time.Second, 30 * time.Second},
		{"not set", "", 10 * time.Second, 10 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("STATUSCTL_TEST_DURATION", tt.envValue)
			if got := getEnvDuration("STATUSCTL_TEST_DURATION", tt.defaultValue); got != tt.want {
				t.Errorf("getEnvDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}
