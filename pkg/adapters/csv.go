package adapters

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/HatiCode/plantwater/pkg/history"
)

// Column layout of the firmware serial log:
//
//	timestamp,temperature,humidity,light,soil[,status,slope,ETA,health]
const (
	colTimestamp = iota
	colTemperature
	colHumidity
	colLight
	colSoil
	minColumns
)

// CSVSource replays observations from a firmware serial log. The header,
// boot messages and other lines that are not data rows are skipped.
type CSVSource struct {
	r *csv.Reader
}

func NewCSVSource(r io.Reader) *CSVSource {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	return &CSVSource{r: cr}
}

func (c *CSVSource) Name() string { return "csv" }

// Read returns the next data row, or io.EOF once the log is exhausted.
func (c *CSVSource) Read(ctx context.Context) (history.Observation, error) {
	for {
		if err := ctx.Err(); err != nil {
			return history.Observation{}, err
		}
		fields, err := c.r.Read()
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				continue
			}
			return history.Observation{}, err
		}
		if obs, ok := parseRow(fields); ok {
			return obs, nil
		}
	}
}

// parseRow converts one serial log row. Sensor fields printed as "nan"
// become NaN; a row without a valid timestamp is rejected.
func parseRow(fields []string) (history.Observation, bool) {
	if len(fields) < minColumns {
		return history.Observation{}, false
	}
	ts, err := strconv.ParseUint(strings.TrimSpace(fields[colTimestamp]), 10, 32)
	if err != nil {
		return history.Observation{}, false
	}

	var vals [minColumns]float64
	for i := colTemperature; i < minColumns; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(fields[i]), 64)
		if err != nil {
			return history.Observation{}, false
		}
		vals[i] = v
	}

	return history.Observation{
		SoilMoisture:        vals[colSoil],
		TemperatureC:        vals[colTemperature],
		RelativeHumidityPct: vals[colHumidity],
		LightRaw:            vals[colLight],
		TimestampMs:         uint32(ts),
	}, true
}

// parseLine is parseRow for a raw comma separated line.
func parseLine(line string) (history.Observation, bool) {
	return parseRow(strings.Split(strings.TrimRight(line, "\r"), ","))
}
