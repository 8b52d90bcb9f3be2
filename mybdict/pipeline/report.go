package pipeline

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/ZanzyTHEbar/mybdict/mybdict/types"
)

// Report summarizes one finished conversion.
type Report struct {
	BuildID        uuid.UUID
	DictionaryID   string
	Input          string
	Output         string
	DescriptorPath string

	Source           types.SourceStats
	Records          int64
	DroppedEmptyCode int64
	DirectEntries    int
	DerivedEntries   int
	DeriveSources    int64 // words that contributed derived characters
	DerivePooled     int64 // distinct (code, character) pairs before capping
	Codes            int
	PayloadSize      int
	StoredSize       int64

	Weights  WeightStats
	Duration time.Duration
}

// WeightStats describes the weight distribution of the written entries.
type WeightStats struct {
	Min    int32
	Max    int32
	Mean   float64
	StdDev float64
	Median float64
	P95    float64
}

func weightStats(entries []types.Entry) WeightStats {
	if len(entries) == 0 {
		return WeightStats{}
	}
	xs := make([]float64, len(entries))
	ws := WeightStats{Min: entries[0].Weight, Max: entries[0].Weight}
	for i, e := range entries {
		xs[i] = float64(e.Weight)
		ws.Min = min(ws.Min, e.Weight)
		ws.Max = max(ws.Max, e.Weight)
	}
	ws.Mean, ws.StdDev = stat.MeanStdDev(xs, nil)
	if len(xs) < 2 {
		ws.StdDev = 0
	}
	sort.Float64s(xs)
	ws.Median = stat.Quantile(0.5, stat.Empirical, xs, nil)
	ws.P95 = stat.Quantile(0.95, stat.Empirical, xs, nil)
	return ws
}

// MarshalZerologObject lets a Report be logged with Object.
func (r *Report) MarshalZerologObject(e *zerolog.Event) {
	e.Str("build_id", r.BuildID.String()).
		Str("dictionary_id", r.DictionaryID).
		Str("output", r.Output).
		Int64("records", r.Records).
		Int64("skipped", r.Source.Skipped).
		Int64("bad_weights", r.Source.BadWeights).
		Int64("dropped_empty_code", r.DroppedEmptyCode).
		Int("direct", r.DirectEntries).
		Int("derived", r.DerivedEntries).
		Int("codes", r.Codes).
		Int("payload_bytes", r.PayloadSize).
		Int64("file_bytes", r.StoredSize).
		Float64("weight_mean", r.Weights.Mean).
		Float64("weight_p95", r.Weights.P95).
		Dur("took", r.Duration)
}
