package analyzer

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/Leo-moon-max/BagsAiTradingBot/internal/domain"
)

func closedTrade(seq int, pnlLamports int64, pnlPct float64) *domain.ClosedTrade {
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	return &domain.ClosedTrade{
		ID:          fmt.Sprintf("trade-%03d", seq),
		Mint:        fmt.Sprintf("Mint%03d", seq),
		PnLLamports: pnlLamports,
		PnLPct:      pnlPct,
		ClosedAt:    base.Add(time.Duration(seq) * time.Minute),
	}
}

func TestCompute_Empty(t *testing.T) {
	s := Compute(nil)
	if s.TotalTrades != 0 || s.WinRate != 0 || s.ProfitFactor != 0 {
		t.Errorf("empty log must produce a zero summary, got %+v", s)
	}
}

func TestCompute_Counts(t *testing.T) {
	trades := []*domain.ClosedTrade{
		closedTrade(1, 50_000_000, 0.50),
		closedTrade(2, -20_000_000, -0.20),
		closedTrade(3, 30_000_000, 0.30),
		closedTrade(4, -10_000_000, -0.10),
	}

	s := Compute(trades)

	if s.TotalTrades != 4 {
		t.Errorf("total = %d, want 4", s.TotalTrades)
	}
	if s.Wins != 2 || s.Losses != 2 {
		t.Errorf("wins/losses = %d/%d, want 2/2", s.Wins, s.Losses)
	}
	if s.WinRate != 0.5 {
		t.Errorf("win rate = %v, want 0.5", s.WinRate)
	}
	if s.NetPnLLamports != 50_000_000 {
		t.Errorf("net = %d, want 50000000", s.NetPnLLamports)
	}
}

func TestCompute_ExpectancyAndProfitFactor(t *testing.T) {
	trades := []*domain.ClosedTrade{
		closedTrade(1, 60_000_000, 0.60),
		closedTrade(2, -20_000_000, -0.20),
	}

	s := Compute(trades)

	if got, want := s.Expectancy, 0.20; math.Abs(got-want) > 1e-9 {
		t.Errorf("expectancy = %v, want %v", got, want)
	}
	if got, want := s.ProfitFactor, 3.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("profit factor = %v, want %v", got, want)
	}
	if got, want := s.AvgWin, 0.60; math.Abs(got-want) > 1e-9 {
		t.Errorf("avg win = %v, want %v", got, want)
	}
	if got, want := s.AvgLoss, -0.20; math.Abs(got-want) > 1e-9 {
		t.Errorf("avg loss = %v, want %v", got, want)
	}
}

func TestCompute_ProfitFactorNoLosses(t *testing.T) {
	s := Compute([]*domain.ClosedTrade{closedTrade(1, 10, 0.1)})
	if !math.IsInf(s.ProfitFactor, 1) {
		t.Errorf("profit factor = %v, want +Inf", s.ProfitFactor)
	}
}

func TestCompute_Percentiles(t *testing.T) {
	// Outcomes 0.1..0.5, uniform.
	var trades []*domain.ClosedTrade
	for i := 1; i <= 5; i++ {
		trades = append(trades, closedTrade(i, int64(i), float64(i)/10))
	}

	s := Compute(trades)

	if got, want := s.OutcomeMedian, 0.3; math.Abs(got-want) > 1e-9 {
		t.Errorf("median = %v, want %v", got, want)
	}
	if got, want := s.OutcomeP25, 0.2; math.Abs(got-want) > 1e-9 {
		t.Errorf("p25 = %v, want %v", got, want)
	}
	if s.OutcomeMin != 0.1 || s.OutcomeMax != 0.5 {
		t.Errorf("min/max = %v/%v, want 0.1/0.5", s.OutcomeMin, s.OutcomeMax)
	}
}

func TestCompute_MaxDrawdown(t *testing.T) {
	// Cumulative: 0.5, 0.3, 0.0, 0.4 → peak 0.5, trough 0.0.
	trades := []*domain.ClosedTrade{
		closedTrade(1, 5, 0.5),
		closedTrade(2, -2, -0.2),
		closedTrade(3, -3, -0.3),
		closedTrade(4, 4, 0.4),
	}

	s := Compute(trades)
	if got, want := s.MaxDrawdown, 0.5; math.Abs(got-want) > 1e-9 {
		t.Errorf("max drawdown = %v, want %v", got, want)
	}
}

func TestCompute_MaxConsecutiveLosses(t *testing.T) {
	trades := []*domain.ClosedTrade{
		closedTrade(1, -1, -0.1),
		closedTrade(2, 1, 0.1),
		closedTrade(3, -1, -0.1),
		closedTrade(4, -1, -0.1),
		closedTrade(5, -1, -0.1),
		closedTrade(6, 1, 0.1),
	}

	s := Compute(trades)
	if s.MaxConsecutiveLosses != 3 {
		t.Errorf("max consecutive losses = %d, want 3", s.MaxConsecutiveLosses)
	}
}

func TestCompute_OrderIndependentInput(t *testing.T) {
	// Order-dependent metrics sort by close time, not input order.
	inOrder := []*domain.ClosedTrade{
		closedTrade(1, 5, 0.5),
		closedTrade(2, -2, -0.2),
		closedTrade(3, -3, -0.3),
	}
	shuffled := []*domain.ClosedTrade{inOrder[2], inOrder[0], inOrder[1]}

	a, b := Compute(inOrder), Compute(shuffled)
	if a.MaxDrawdown != b.MaxDrawdown {
		t.Errorf("drawdown differs by input order: %v vs %v", a.MaxDrawdown, b.MaxDrawdown)
	}
	if a.MaxConsecutiveLosses != b.MaxConsecutiveLosses {
		t.Errorf("loss streak differs by input order: %d vs %d", a.MaxConsecutiveLosses, b.MaxConsecutiveLosses)
	}
}
