package logging

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"collectorai/internal/eval"
	"collectorai/internal/ga"
)

// GenerationRecord is one row of the generation CSV and one JSON line
type GenerationRecord struct {
	Type       string  `csv:"-" json:"type"`
	Generation int     `csv:"generation" json:"generation"`
	Min        float64 `csv:"min" json:"min"`
	Max        float64 `csv:"max" json:"max"`
	Avg        float64 `csv:"avg" json:"avg"`
	Report     string  `csv:"report" json:"report"`
}

// BenchmarkRecord is the JSON line written for a champion benchmark
type BenchmarkRecord struct {
	Type          string  `json:"type"`
	Generation    int     `json:"generation"`
	CollectedMean float64 `json:"collected_mean"`
	CollectedStd  float64 `json:"collected_std"`
	CollectedMin  float64 `json:"collected_min"`
	CollectedMax  float64 `json:"collected_max"`
	Episodes      int     `json:"episodes"`
	RobustScore   float64 `json:"robust_score"`
}

// Logger handles all training output. An empty path disables that output.
type Logger struct {
	log      *slog.Logger
	summary  bool
	csvFile  *os.File
	jsonFile *os.File

	csvHeaderWritten bool
}

// NewLogger creates the output files and their directories
func NewLogger(csvPath, jsonPath string, log *slog.Logger, everyGenSummary bool) (*Logger, error) {
	l := &Logger{log: log, summary: everyGenSummary}

	var err error
	if l.csvFile, err = create(csvPath); err != nil {
		return nil, fmt.Errorf("creating generation csv: %w", err)
	}
	if l.jsonFile, err = create(jsonPath); err != nil {
		l.Close()
		return nil, fmt.Errorf("creating generation json: %w", err)
	}
	return l, nil
}

func create(path string) (*os.File, error) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return os.Create(path)
}

// Close closes all log files
func (l *Logger) Close() error {
	var first error
	for _, f := range []*os.File{l.csvFile, l.jsonFile} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// LogGeneration records the statistics of generation gen
func (l *Logger) LogGeneration(gen int, stats ga.Statistics) error {
	rec := GenerationRecord{
		Type:       "generation",
		Generation: gen,
		Min:        stats.Min,
		Max:        stats.Max,
		Avg:        stats.Avg,
		Report:     stats.String(),
	}

	if l.csvFile != nil {
		records := []GenerationRecord{rec}
		if !l.csvHeaderWritten {
			if err := gocsv.Marshal(records, l.csvFile); err != nil {
				return fmt.Errorf("writing generation csv: %w", err)
			}
			l.csvHeaderWritten = true
		} else if err := gocsv.MarshalWithoutHeaders(records, l.csvFile); err != nil {
			return fmt.Errorf("writing generation csv: %w", err)
		}
	}
	if err := l.writeJSON(rec); err != nil {
		return err
	}

	if l.summary {
		l.log.Info("generation", "gen", gen, "min", stats.Min, "max", stats.Max, "avg", stats.Avg)
	}
	return nil
}

// LogBenchmark records the champion's results on the benchmark seeds, scored
// as mean - lambda*std.
func (l *Logger) LogBenchmark(gen int, agg eval.AggregatedStats, lambda float64) error {
	if agg.NumEpisodes == 0 {
		return nil
	}
	rec := BenchmarkRecord{
		Type:          "benchmark",
		Generation:    gen,
		CollectedMean: agg.CollectedMean,
		CollectedStd:  agg.CollectedStd,
		CollectedMin:  agg.CollectedMin,
		CollectedMax:  agg.CollectedMax,
		Episodes:      agg.NumEpisodes,
		RobustScore:   agg.RobustnessScore(lambda),
	}
	if err := l.writeJSON(rec); err != nil {
		return err
	}

	l.log.Info("benchmark",
		"gen", gen,
		"mean", agg.CollectedMean,
		"std", agg.CollectedStd,
		"min", agg.CollectedMin,
		"max", agg.CollectedMax,
		"episodes", agg.NumEpisodes,
		"robust_score", rec.RobustScore,
	)
	return nil
}

// LogTopK writes one console line with the fitness of the best individuals
func (l *Logger) LogTopK(gen int, top []*ga.Individual) {
	if len(top) == 0 {
		return
	}
	fitness := make([]string, len(top))
	for i, ind := range top {
		fitness[i] = strconv.FormatFloat(ind.Fitness, 'f', 0, 64)
	}
	l.log.Info("top individuals", "gen", gen, "k", len(top), "fitness", strings.Join(fitness, " "))
}

func (l *Logger) writeJSON(v any) error {
	if l.jsonFile == nil {
		return nil
	}
	line, err := json.Marshal(v)
	if err != nil {
		return err
	}
	line = append(line, '\n')
	if _, err := l.jsonFile.Write(line); err != nil {
		return fmt.Errorf("writing generation json: %w", err)
	}
	return nil
}
