// Package config implements the plantwater monitor config.
package config

import (
	"flag"
	"fmt"
	"os"
	"time"
)

// Source kinds accepted by -source.
const (
	SourcePrometheus = "prometheus"
	SourceCSV        = "csv"
	SourceTail       = "tail"
)

// Config holds all monitor configuration.
type Config struct {
	Listen            string
	GRPCListen        string
	Plant             string
	Source            string
	PromURL           string
	PromSoilQuery     string
	PromTempQuery     string
	PromHumidityQuery string
	PromLightQuery    string
	SoilRaw           bool
	File              string
	Interval          time.Duration
	TuningPath        string
	LogFormat         string
	LogLevel          string
}

// ParseFlags parses command-line flags and environment variables into a Config.
// Environment variables are used as fallbacks when flags are not provided.
// Exits with status 1 when the source settings are incomplete.
func ParseFlags() *Config {
	cfg := &Config{}

	// Server
	flag.StringVar(&cfg.Listen, "listen", getEnv("LISTEN", ":8080"), "HTTP listen address")
	flag.StringVar(&cfg.GRPCListen, "grpc-listen", getEnv("GRPC_LISTEN", ":50051"), "gRPC listen address (empty disables gRPC)")

	// Plant
	flag.StringVar(&cfg.Plant, "plant", getEnv("PLANT", "plant"), "Plant name")

	// Source
	flag.StringVar(&cfg.Source, "source", getEnv("SOURCE", SourcePrometheus), "Observation source: prometheus, csv or tail")
	flag.StringVar(&cfg.PromURL, "prom-url", getEnv("PROM_URL", "http://localhost:9090"), "Prometheus URL")
	flag.StringVar(&cfg.PromSoilQuery, "prom-soil-query", getEnv("PROM_SOIL_QUERY", ""), "PromQL for soil moisture (required for prometheus source)")
	flag.StringVar(&cfg.PromTempQuery, "prom-temp-query", getEnv("PROM_TEMP_QUERY", ""), "PromQL for air temperature in °C")
	flag.StringVar(&cfg.PromHumidityQuery, "prom-humidity-query", getEnv("PROM_HUMIDITY_QUERY", ""), "PromQL for relative humidity in %")
	flag.StringVar(&cfg.PromLightQuery, "prom-light-query", getEnv("PROM_LIGHT_QUERY", ""), "PromQL for raw light level")
	flag.BoolVar(&cfg.SoilRaw, "soil-raw", getEnvBool("SOIL_RAW", false), "Soil query returns raw ADC counts")
	flag.StringVar(&cfg.File, "file", getEnv("FILE", ""), "Serial log path (required for csv and tail sources)")

	// Timing
	flag.DurationVar(&cfg.Interval, "interval", getEnvDuration("INTERVAL", 5*time.Minute), "Sampling interval")

	// Tuning
	flag.StringVar(&cfg.TuningPath, "tuning", getEnv("TUNING", ""), "YAML tuning file")

	// Logging
	flag.StringVar(&cfg.LogFormat, "log-format", getEnv("LOG_FORMAT", "text"), "Log format: text or json")
	flag.StringVar(&cfg.LogLevel, "log-level", getEnv("LOG_LEVEL", "info"), "Log level: debug, info, warn, error")

	flag.Parse()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	return cfg
}

// Validate checks that the selected source has what it needs.
func (c *Config) Validate() error {
	if c.Plant == "" {
		return fmt.Errorf("--plant cannot be empty")
	}
	if c.Interval <= 0 {
		return fmt.Errorf("--interval must be positive")
	}
	switch c.Source {
	case SourcePrometheus:
		if c.PromSoilQuery == "" {
			return fmt.Errorf("--prom-soil-query is required for the prometheus source")
		}
	case SourceCSV, SourceTail:
		if c.File == "" {
			return fmt.Errorf("--file is required for the %s source", c.Source)
		}
	default:
		return fmt.Errorf("unknown --source %q", c.Source)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	switch os.Getenv(key) {
	case "1", "true", "TRUE", "True", "yes":
		return true
	case "0", "false", "FALSE", "False", "no":
		return false
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
