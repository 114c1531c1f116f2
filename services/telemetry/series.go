package telemetry

import (
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/diengg/diengg/services"
)

const readingTimeLayout = "2006-01-02 15:04"

// Reading is a single timestamped sensor sample
type Reading struct {
	Timestamp time.Time          `json:"timestamp"`
	Sensors   map[string]float64 `json:"sensors"`
}

// Series holds the cleaned readings of one machine, ordered by timestamp
// with duplicate timestamps removed (the first occurrence wins).
type Series struct {
	Machine  string    `json:"machine"`
	Readings []Reading `json:"readings"`
}

// SensorSummary holds descriptive statistics for one sensor channel
type SensorSummary struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

type wireReading struct {
	Timestamp string             `json:"timestamp"`
	Sensors   map[string]float64 `json:"sensors"`
}

// Parse decodes a telemetry document keyed by machine identifier. Each
// machine's readings are sorted by timestamp and deduplicated.
func Parse(data []byte) ([]Series, error) {
	var doc map[string][]wireReading
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, services.NewDomainError(services.ErrorTypeSchema,
			"telemetry document does not match the expected schema", err)
	}

	series := make([]Series, 0, len(doc))
	for machine, readings := range doc {
		parsed := make([]Reading, 0, len(readings))
		for _, r := range readings {
			ts, err := parseReadingTime(r.Timestamp)
			if err != nil {
				return nil, services.NewDomainError(services.ErrorTypeSchema,
					"telemetry reading has an invalid timestamp", err).
					WithDetail("machine", machine).
					WithDetail("timestamp", r.Timestamp)
			}
			parsed = append(parsed, Reading{Timestamp: ts, Sensors: r.Sensors})
		}

		sort.SliceStable(parsed, func(i, j int) bool {
			return parsed[i].Timestamp.Before(parsed[j].Timestamp)
		})

		deduped := parsed[:0]
		for _, r := range parsed {
			if len(deduped) > 0 && deduped[len(deduped)-1].Timestamp.Equal(r.Timestamp) {
				continue
			}
			deduped = append(deduped, r)
		}

		series = append(series, Series{Machine: machine, Readings: deduped})
	}

	sort.Slice(series, func(i, j int) bool { return series[i].Machine < series[j].Machine })
	return series, nil
}

func parseReadingTime(value string) (time.Time, error) {
	if t, err := time.Parse(readingTimeLayout, value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

// Summarize computes per-sensor descriptive statistics over a series
func Summarize(s Series) map[string]SensorSummary {
	values := make(map[string][]float64)
	for _, r := range s.Readings {
		for sensor, v := range r.Sensors {
			values[sensor] = append(values[sensor], v)
		}
	}

	summaries := make(map[string]SensorSummary, len(values))
	for sensor, vs := range values {
		summaries[sensor] = summarizeValues(vs)
	}
	return summaries
}

func summarizeValues(vs []float64) SensorSummary {
	s := SensorSummary{
		Count: len(vs),
		Min:   vs[0],
		Max:   vs[0],
	}

	var sum float64
	for _, v := range vs {
		sum += v
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	s.Mean = sum / float64(len(vs))

	var sq float64
	for _, v := range vs {
		d := v - s.Mean
		sq += d * d
	}
	s.StdDev = math.Sqrt(sq / float64(len(vs)))
	return s
}
