// Package config provides configuration parsing for statusctl.
//
// Flags take precedence over environment variables, which take precedence
// over defaults.
//
//	cfg, err := config.Parse(os.Args[1:])
package config

import (
	"flag"
	"fmt"
	"os"
	"time"
)

const (
	TransportHTTP = "http"
	TransportGRPC = "grpc"

	OutputText = "text"
	OutputJSON = "json"
)

type Config struct {
	MonitorURL string
	GRPCAddr   string
	Transport  string
	Plant      string
	Output     string
	History    bool
	Timeout    time.Duration
	LogFormat  string
	LogLevel   string
}

// Parse parses args with environment fallbacks and validates the result.
func Parse(args []string) (*Config, error) {
	cfg := &Config{}
	fs := flag.NewFlagSet("statusctl", flag.ContinueOnError)

	fs.StringVar(&cfg.MonitorURL, "monitor-url", getEnv("MONITOR_URL", "http://localhost:8080"), "Monitor HTTP endpoint")
	fs.StringVar(&cfg.GRPCAddr, "grpc-addr", getEnv("MONITOR_GRPC_ADDR", "localhost:50051"), "Monitor gRPC address")
	fs.StringVar(&cfg.Transport, "transport", getEnv("TRANSPORT", TransportHTTP), "Transport (http|grpc)")
	fs.StringVar(&cfg.Plant, "plant", getEnv("PLANT", "plant"), "Plant name")
	fs.StringVar(&cfg.Output, "output", getEnv("OUTPUT", OutputText), "Output format (text|json)")
	fs.BoolVar(&cfg.History, "history", false, "Print the stored history instead of the status (http only)")
	fs.DurationVar(&cfg.Timeout, "timeout", getEnvDuration("TIMEOUT", 5*time.Second), "Request timeout")
	fs.StringVar(&cfg.LogFormat, "log-format", getEnv("LOG_FORMAT", "text"), "Log format (text|json)")
	fs.StringVar(&cfg.LogLevel, "log-level", getEnv("LOG_LEVEL", "warn"), "Log level (debug|info|warn|error)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	switch cfg.Transport {
	case TransportHTTP:
	case TransportGRPC:
		if cfg.History {
			return nil, fmt.Errorf("-history is only available over http")
		}
	default:
		return nil, fmt.Errorf("unknown -transport %q", cfg.Transport)
	}
	if cfg.Output != OutputText && cfg.Output != OutputJSON {
		return nil, fmt.Errorf("unknown -output %q", cfg.Output)
	}
	if cfg.Plant == "" {
		return nil, fmt.Errorf("-plant cannot be empty")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
