package ga

import (
	"fmt"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ReportPrecision is the number of decimals in the report string
const ReportPrecision = 2

// Statistics summarises one generation's fitness
type Statistics struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
}

// NewStatistics computes min, max and arithmetic mean fitness
func NewStatistics(pop []*Individual) Statistics {
	if len(pop) == 0 {
		panic("ga: statistics over an empty population")
	}
	fitness := make([]float64, len(pop))
	for i, ind := range pop {
		fitness[i] = ind.Fitness
	}
	return Statistics{
		Min: floats.Min(fitness),
		Max: floats.Max(fitness),
		Avg: stat.Mean(fitness, nil),
	}
}

// String formats the statistics as "min=F max=F avg=F"
func (s Statistics) String() string {
	return fmt.Sprintf("min=%s max=%s avg=%s",
		decimal.NewFromFloat(s.Min).StringFixed(ReportPrecision),
		decimal.NewFromFloat(s.Max).StringFixed(ReportPrecision),
		decimal.NewFromFloat(s.Avg).StringFixed(ReportPrecision),
	)
}
