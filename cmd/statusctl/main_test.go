package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"google.golang.org/grpc"

	"github.com/HatiCode/plantwater/cmd/statusctl/config"
	"github.com/HatiCode/plantwater/pkg/api/statusrpc"
	"github.com/HatiCode/plantwater/pkg/client"
	"github.com/HatiCode/plantwater/pkg/history"
	"github.com/HatiCode/plantwater/pkg/httpx"
	"github.com/HatiCode/plantwater/pkg/status"
	"github.com/HatiCode/plantwater/pkg/storage"
	"github.com/HatiCode/plantwater/pkg/watering"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func snapshot() storage.Snapshot {
	return storage.Snapshot{
		Plant:       "fern",
		Epoch:       "e1",
		GeneratedAt: time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC),
		Observation: history.Observation{
			SoilMoisture:        0.312,
			TemperatureC:        33,
			RelativeHumidityPct: math.NaN(),
			LightRaw:            250,
		},
		Derived: history.Derived{
			VPD:          history.Unknown(),
			SlopePerHour: -0.012,
			ETA:          history.Known(4.2),
		},
		Assessment: status.Assessment{
			Status:     status.VeryDry,
			Advisories: []status.Advisory{status.Hot, status.Dark},
		},
		Health: status.HealthScore{
			Score:   36,
			Soil:    40,
			Light:   50,
			Reasons: []status.Reason{status.SoilDry, status.HighTemp, status.PoorLight},
		},
		HistorySize: 20,
		Watering:    &watering.Event{Rise: 0.2, Discarded: 4},
	}
}

func TestPrintStatus_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := printStatus(&buf, config.OutputText, &client.StatusResult{Snapshot: snapshot(), Stale: true}); err != nil {
		t.Fatalf("printStatus() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"VeryDry (stale)",
		"Hot, Dark",
		"36/100 (SoilDry, HighTemp, PoorLight)",
		"0.312",
		"33.0 °C",
		"n/a",
		"4.2 h",
		"-0.0120 /h",
		"20 records",
		"4 records discarded",
		"2025-05-01T12:00:00Z",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintStatus_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := printStatus(&buf, config.OutputJSON, &client.StatusResult{Snapshot: snapshot()}); err != nil {
		t.Fatalf("printStatus() error = %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if got["plant"] != "fern" || got["stale"] != false {
		t.Errorf("plant/stale = %v/%v", got["plant"], got["stale"])
	}
}

func TestEstimate(t *testing.T) {
	tests := []struct {
		e    history.Estimate
		want string
	}{
		{history.Known(2.25), "2.2 h"},
		{history.Rising(), "rising"},
		{history.Never(), "not drying"},
		{history.Unknown(), "n/a"},
	}
	for _, tt := range tests {
		if got := estimate(tt.e, "%.1f h"); got != tt.want {
			t.Errorf("estimate(%v) = %q, want %q", tt.e, got, tt.want)
		}
	}
}

func TestRun_HTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/status/current":
			httpx.WriteJSON(w, http.StatusOK, snapshot())
		case "/history":
			httpx.WriteJSON(w, http.StatusOK, storage.History{
				Plant: "fern",
				Records: []history.Record{
					{Observation: history.Observation{SoilMoisture: 0.5, TimestampMs: 300000}, Derived: history.Derived{ETA: history.Rising()}},
				},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	cfg := &config.Config{MonitorURL: server.URL, Transport: config.TransportHTTP, Plant: "fern", Output: config.OutputText, Timeout: time.Second}

	var buf bytes.Buffer
	if err := run(context.Background(), cfg, &buf, discard); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if !strings.Contains(buf.String(), "VeryDry") {
		t.Errorf("status output = %s", buf.String())
	}

	cfg.History = true
	buf.Reset()
	if err := run(context.Background(), cfg, &buf, discard); err != nil {
		t.Fatalf("run() history error = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "TIMESTAMP_MS") || !strings.Contains(out, "300000") || !strings.Contains(out, "rising") {
		t.Errorf("history output = %s", out)
	}
}

func TestRun_HTTPNotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	cfg := &config.Config{MonitorURL: server.URL, Transport: config.TransportHTTP, Plant: "fern", Output: config.OutputText, Timeout: time.Second}
	if err := run(context.Background(), cfg, io.Discard, discard); err == nil {
		t.Fatal("run() expected error for unknown plant")
	}
}

func TestRun_GRPC(t *testing.T) {
	store := storage.NewMemoryStore()
	store.Put(snapshot())

	srv := grpc.NewServer()
	statusrpc.RegisterStatusServer(srv, statusrpc.NewServer(store, "fern", discard))
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go srv.Serve(lis) //nolint:errcheck
	defer srv.Stop()

	cfg := &config.Config{GRPCAddr: lis.Addr().String(), Transport: config.TransportGRPC, Plant: "fern", Output: config.OutputJSON, Timeout: time.Second}

	var buf bytes.Buffer
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := run(ctx, cfg, &buf, discard); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	var got storage.Snapshot
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if got.Assessment.Status != status.VeryDry {
		t.Errorf("Status = %q, want VeryDry", got.Assessment.Status)
	}
}
