package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/HatiCode/plantwater/cmd/statusctl/config"
	"github.com/HatiCode/plantwater/pkg/client"
	"github.com/HatiCode/plantwater/pkg/history"
	"github.com/HatiCode/plantwater/pkg/storage"
)

func printStatus(w io.Writer, format string, res *client.StatusResult) error {
	if format == config.OutputJSON {
		return writeJSON(w, struct {
			storage.Snapshot
			Stale bool `json:"stale"`
		}{res.Snapshot, res.Stale})
	}

	s := res.Snapshot
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Plant:\t%s\n", s.Plant)
	status := string(s.Assessment.Status)
	if res.Stale {
		status += " (stale)"
	}
	fmt.Fprintf(tw, "Status:\t%s\n", status)
	if len(s.Assessment.Advisories) > 0 {
		adv := make([]string, len(s.Assessment.Advisories))
		for i, a := range s.Assessment.Advisories {
			adv[i] = string(a)
		}
		fmt.Fprintf(tw, "Advisories:\t%s\n", strings.Join(adv, ", "))
	}
	health := fmt.Sprintf("%d/100", s.Health.Score)
	if len(s.Health.Reasons) > 0 {
		reasons := make([]string, len(s.Health.Reasons))
		for i, r := range s.Health.Reasons {
			reasons[i] = string(r)
		}
		health += " (" + strings.Join(reasons, ", ") + ")"
	}
	fmt.Fprintf(tw, "Health:\t%s\n", health)
	fmt.Fprintf(tw, "Soil:\t%s\n", number(s.Observation.SoilMoisture, "%.3f"))
	fmt.Fprintf(tw, "Temperature:\t%s\n", number(s.Observation.TemperatureC, "%.1f °C"))
	fmt.Fprintf(tw, "Humidity:\t%s\n", number(s.Observation.RelativeHumidityPct, "%.1f %%"))
	fmt.Fprintf(tw, "Light:\t%s\n", number(s.Observation.LightRaw, "%.0f"))
	fmt.Fprintf(tw, "VPD:\t%s\n", estimate(s.Derived.VPD, "%.2f kPa"))
	fmt.Fprintf(tw, "Slope:\t%s\n", number(s.Derived.SlopePerHour, "%+.4f /h"))
	fmt.Fprintf(tw, "ETA to dry:\t%s\n", estimate(s.Derived.ETA, "%.1f h"))
	fmt.Fprintf(tw, "History:\t%d records\n", s.HistorySize)
	if s.Watering != nil {
		fmt.Fprintf(tw, "Watered:\trise %.3f, %d records discarded\n", s.Watering.Rise, s.Watering.Discarded)
	}
	if !s.GeneratedAt.IsZero() {
		fmt.Fprintf(tw, "Updated:\t%s\n", s.GeneratedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}

func printHistory(w io.Writer, format string, h *storage.History) error {
	if format == config.OutputJSON {
		return writeJSON(w, h)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIMESTAMP_MS\tSOIL\tTEMP_C\tRH_PCT\tLIGHT\tSLOPE_H\tETA_H")
	for _, r := range h.Records {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Observation.TimestampMs,
			number(r.Observation.SoilMoisture, "%.3f"),
			number(r.Observation.TemperatureC, "%.1f"),
			number(r.Observation.RelativeHumidityPct, "%.1f"),
			number(r.Observation.LightRaw, "%.0f"),
			number(r.Derived.SlopePerHour, "%+.4f"),
			estimate(r.Derived.ETA, "%.1f"),
		)
	}
	return tw.Flush()
}

func number(v float64, format string) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf(format, v)
}

func estimate(e history.Estimate, format string) string {
	switch e.Kind {
	case history.Value:
		return fmt.Sprintf(format, e.Val)
	case history.RisingStable:
		return "rising"
	case history.EffectivelyInfinite:
		return "not drying"
	default:
		return "n/a"
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
