// Command statusctl prints a plant's current status or stored history from a
// running plantwater monitor.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/HatiCode/plantwater/cmd/statusctl/config"
	"github.com/HatiCode/plantwater/cmd/statusctl/logger"
	"github.com/HatiCode/plantwater/pkg/api/statusrpc"
	"github.com/HatiCode/plantwater/pkg/client"
)

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	log := logger.New(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	if err := run(ctx, cfg, os.Stdout, log); err != nil {
		log.Error("statusctl failed", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, out io.Writer, log *slog.Logger) error {
	switch cfg.Transport {
	case config.TransportGRPC:
		log.Debug("fetching status over grpc", "addr", cfg.GRPCAddr, "plant", cfg.Plant)
		conn, err := grpc.NewClient(cfg.GRPCAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return fmt.Errorf("dial %s: %w", cfg.GRPCAddr, err)
		}
		defer conn.Close()

		snap, err := statusrpc.NewClient(conn).GetStatus(ctx, cfg.Plant)
		if err != nil {
			return fmt.Errorf("get status: %w", err)
		}
		return printStatus(out, cfg.Output, &client.StatusResult{Snapshot: snap})

	default:
		c := client.NewStatusClientWithTimeout(cfg.MonitorURL, cfg.Timeout)
		if cfg.History {
			log.Debug("fetching history", "url", cfg.MonitorURL, "plant", cfg.Plant)
			h, err := c.GetHistory(ctx, cfg.Plant)
			if err != nil {
				return fmt.Errorf("get history: %w", err)
			}
			return printHistory(out, cfg.Output, h)
		}

		log.Debug("fetching status", "url", cfg.MonitorURL, "plant", cfg.Plant)
		res, err := c.GetStatus(ctx, cfg.Plant)
		if err != nil {
			return fmt.Errorf("get status: %w", err)
		}
		if res.Stale {
			log.Warn("snapshot is stale", "generated_at", res.Snapshot.GeneratedAt)
		}
		return printStatus(out, cfg.Output, res)
	}
}
