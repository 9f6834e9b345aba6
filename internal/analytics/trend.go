package analytics

import (
	"math"
	"sort"
	"time"
)

// TimeSeriesPoint is one timestamped observation. Category is an optional
// tag supplied by the caller; the engine never writes it.
type TimeSeriesPoint struct {
	Timestamp time.Time
	Value     float64
	Category  string
}

// TrendDirection summarizes a fitted linear trend.
type TrendDirection string

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendDecreasing TrendDirection = "decreasing"
	TrendStable     TrendDirection = "stable"
)

// TrendAnalysis is the result of fitting a linear trend to a series.
type TrendAnalysis struct {
	Direction            TrendDirection
	Confidence           float64
	Slope                float64
	RSquared             float64
	NextPeriod           float64
	NextPeriodConfidence float64
}

// Thresholds below which a fitted trend is reported as stable.
const (
	minTrendSlope    = 0.01
	minTrendRSquared = 0.3
)

// AnalyzeTrends fits an ordinary least-squares line over the series and
// predicts the next period. Input order does not matter; points are sorted
// by timestamp internally. Fewer than three points yields a stable result
// with zero confidence and the last known value as the prediction.
func AnalyzeTrends(points []TimeSeriesPoint) TrendAnalysis {
	if len(points) < 3 {
		last := 0.0
		if len(points) > 0 {
			sorted := sortedByTime(points)
			last = sorted[len(sorted)-1].Value
		}
		return TrendAnalysis{
			Direction:  TrendStable,
			NextPeriod: last,
		}
	}

	sorted := sortedByTime(points)
	first := sorted[0].Timestamp

	n := float64(len(sorted))
	var sumX, sumY, sumXY, sumXX float64
	days := make([]float64, len(sorted))
	for i, p := range sorted {
		x := p.Timestamp.Sub(first).Hours() / 24
		days[i] = x
		sumX += x
		sumY += p.Value
		sumXY += x * p.Value
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	var slope, intercept float64
	if denom != 0 {
		slope = (n*sumXY - sumX*sumY) / denom
		intercept = (sumY - slope*sumX) / n
	} else {
		intercept = sumY / n
	}

	mean := sumY / n
	var ssRes, ssTot float64
	for i, p := range sorted {
		predicted := slope*days[i] + intercept
		ssRes += (p.Value - predicted) * (p.Value - predicted)
		ssTot += (p.Value - mean) * (p.Value - mean)
	}
	rSquared := 1.0
	if ssTot != 0 {
		rSquared = 1 - ssRes/ssTot
	}

	direction := TrendStable
	if math.Abs(slope) >= minTrendSlope && math.Abs(rSquared) >= minTrendRSquared {
		if slope > 0 {
			direction = TrendIncreasing
		} else {
			direction = TrendDecreasing
		}
	}

	confidence := math.Abs(rSquared)
	prediction := slope*(days[len(days)-1]+1) + intercept
	if prediction < 0 {
		prediction = 0
	}
	predictionConfidence := confidence
	if predictionConfidence > 1 {
		predictionConfidence = 1
	}

	return TrendAnalysis{
		Direction:            direction,
		Confidence:           confidence,
		Slope:                slope,
		RSquared:             rSquared,
		NextPeriod:           prediction,
		NextPeriodConfidence: predictionConfidence,
	}
}

func sortedByTime(points []TimeSeriesPoint) []TimeSeriesPoint {
	sorted := make([]TimeSeriesPoint, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return sorted
}
