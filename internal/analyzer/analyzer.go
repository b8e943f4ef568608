// Package analyzer computes offline performance aggregates over the
// closed-trade log. Read-only: nothing here feeds back into trading
// decisions.
package analyzer

import (
	"math"
	"sort"

	"github.com/Leo-moon-max/BagsAiTradingBot/internal/domain"
)

// Summary aggregates closed-trade performance. Outcomes are fractional P&L
// per trade (PnLPct), order-dependent fields use chronological close order.
type Summary struct {
	TotalTrades int
	Wins        int
	Losses      int
	WinRate     float64

	// Expectancy is the mean fractional outcome per trade; ProfitFactor is
	// gross wins over gross losses in lamports.
	Expectancy   float64
	ProfitFactor float64
	AvgWin       float64
	AvgLoss      float64

	NetPnLLamports int64

	OutcomeMedian float64
	OutcomeP10    float64
	OutcomeP25    float64
	OutcomeP75    float64
	OutcomeP90    float64
	OutcomeMin    float64
	OutcomeMax    float64
	OutcomeStddev float64

	MaxDrawdown          float64
	MaxConsecutiveLosses int
}

// Compute calculates the summary over a closed-trade log. Trades are sorted
// by ClosedAt ASC, ID ASC before computing order-dependent metrics.
func Compute(trades []*domain.ClosedTrade) *Summary {
	n := len(trades)
	if n == 0 {
		return &Summary{}
	}

	sorted := make([]*domain.ClosedTrade, n)
	copy(sorted, trades)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].ClosedAt.Equal(sorted[j].ClosedAt) {
			return sorted[i].ClosedAt.Before(sorted[j].ClosedAt)
		}
		return sorted[i].ID < sorted[j].ID
	})

	outcomes := make([]float64, n)
	wins, losses := 0, 0
	var grossWin, grossLoss, net int64
	var winSum, lossSum float64
	for i, t := range sorted {
		outcomes[i] = t.PnLPct
		net += t.PnLLamports
		if t.PnLLamports > 0 {
			wins++
			grossWin += t.PnLLamports
			winSum += t.PnLPct
		} else {
			losses++
			grossLoss += -t.PnLLamports
			lossSum += t.PnLPct
		}
	}

	sortedOutcomes := make([]float64, n)
	copy(sortedOutcomes, outcomes)
	sort.Float64s(sortedOutcomes)

	mean := computeMean(outcomes)

	s := &Summary{
		TotalTrades: n,
		Wins:        wins,
		Losses:      losses,
		WinRate:     float64(wins) / float64(n),

		Expectancy:     mean,
		ProfitFactor:   computeProfitFactor(grossWin, grossLoss),
		NetPnLLamports: net,

		OutcomeMedian: computePercentile(sortedOutcomes, 0.50),
		OutcomeP10:    computePercentile(sortedOutcomes, 0.10),
		OutcomeP25:    computePercentile(sortedOutcomes, 0.25),
		OutcomeP75:    computePercentile(sortedOutcomes, 0.75),
		OutcomeP90:    computePercentile(sortedOutcomes, 0.90),
		OutcomeMin:    sortedOutcomes[0],
		OutcomeMax:    sortedOutcomes[n-1],
		OutcomeStddev: computeStddev(outcomes, mean),

		MaxDrawdown:          computeMaxDrawdown(outcomes),
		MaxConsecutiveLosses: computeMaxConsecutiveLosses(outcomes),
	}

	if wins > 0 {
		s.AvgWin = winSum / float64(wins)
	}
	if losses > 0 {
		s.AvgLoss = lossSum / float64(losses)
	}
	return s
}

// computeProfitFactor is gross wins over gross losses. With no losing trades
// the factor is +Inf; with no trades at all it is 0.
func computeProfitFactor(grossWin, grossLoss int64) float64 {
	if grossLoss == 0 {
		if grossWin == 0 {
			return 0
		}
		return math.Inf(1)
	}
	return float64(grossWin) / float64(grossLoss)
}

// computeMean calculates arithmetic mean of outcomes.
func computeMean(outcomes []float64) float64 {
	if len(outcomes) == 0 {
		return 0
	}
	sum := 0.0
	for _, o := range outcomes {
		sum += o
	}
	return sum / float64(len(outcomes))
}

// computeStddev calculates sample standard deviation (n-1 denominator).
func computeStddev(outcomes []float64, mean float64) float64 {
	n := len(outcomes)
	if n < 2 {
		return 0
	}
	sumSq := 0.0
	for _, o := range outcomes {
		diff := o - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// computePercentile uses linear interpolation. sorted must be pre-sorted ASC.
func computePercentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// computeMaxDrawdown calculates worst peak-to-trough on cumulative outcomes.
// Outcomes must be in chronological order.
func computeMaxDrawdown(outcomes []float64) float64 {
	cumulative := 0.0
	peak := 0.0
	maxDrawdown := 0.0

	for _, o := range outcomes {
		cumulative += o
		if cumulative > peak {
			peak = cumulative
		}
		drawdown := peak - cumulative
		if drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}
	return maxDrawdown
}

// computeMaxConsecutiveLosses finds the longest streak of outcome <= 0.
// Outcomes must be in chronological order.
func computeMaxConsecutiveLosses(outcomes []float64) int {
	maxStreak := 0
	currentStreak := 0

	for _, o := range outcomes {
		if o <= 0 {
			currentStreak++
			if currentStreak > maxStreak {
				maxStreak = currentStreak
			}
		} else {
			currentStreak = 0
		}
	}
	return maxStreak
}
