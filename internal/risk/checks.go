package risk

import (
	"strings"

	"github.com/Leo-moon-max/BagsAiTradingBot/internal/config"
)

// Check names. Reason strings returned by the gate always start with the
// check name so callers and tests can match on them.
const (
	CheckEligibility = "ecosystem-eligibility"
	CheckCreator     = "creator-verification"
	CheckMomentum    = "momentum-chase"
	CheckActiveDump  = "active-dump"
	CheckImpact      = "price-impact"
	CheckSizing      = "position-sizing"
	CheckVolume      = "volume-sanity"
)

// EligibilityCheck requires the asset to belong to the configured tradeable
// set: either its venue tag is allowed or its address matches the suffix rule.
type EligibilityCheck struct {
	AllowedDexIDs []string
	MintSuffix    string
}

func (c *EligibilityCheck) Name() string       { return CheckEligibility }
func (c *EligibilityCheck) Severity() Severity { return SeverityCritical }

func (c *EligibilityCheck) Evaluate(in Inputs) Outcome {
	if in.Snapshot == nil {
		return block("no market snapshot for %s", in.Intent.Mint)
	}
	if c.MintSuffix != "" && strings.HasSuffix(in.Intent.Mint, c.MintSuffix) {
		return pass()
	}
	for _, dex := range c.AllowedDexIDs {
		if strings.EqualFold(in.Snapshot.DexID, dex) {
			return pass()
		}
	}
	return block("venue %q not in tradeable set and mint lacks %q suffix", in.Snapshot.DexID, c.MintSuffix)
}

// CreatorCheck blocks the combination of an unverifiable creator and extreme
// one-sided flow. Either signal alone is at most a warning: skew on a
// verified creator warns, an unverified creator without skew passes.
type CreatorCheck struct {
	Required       bool
	MaxBuySellSkew float64
}

func (c *CreatorCheck) Name() string       { return CheckCreator }
func (c *CreatorCheck) Severity() Severity { return SeverityCritical }

func (c *CreatorCheck) Evaluate(in Inputs) Outcome {
	if !c.Required {
		return pass()
	}
	if in.Snapshot == nil {
		return block("no market snapshot for %s", in.Intent.Mint)
	}

	skew := in.Snapshot.Txns.H24.BuySellRatio()
	skewed := skew > c.MaxBuySellSkew

	if !in.Verification.Verified() {
		if skewed {
			return block("unverified creator with %.1f:1 buy/sell skew (max %.1f:1)", skew, c.MaxBuySellSkew)
		}
		return pass()
	}
	if skewed {
		return warn("verified creator but %.1f:1 buy/sell skew (max %.1f:1)", skew, c.MaxBuySellSkew)
	}
	return pass()
}

// MomentumCheck refuses to chase pumps: a short-window price change above the
// block threshold blocks, moderate excess warns.
type MomentumCheck struct {
	BlockPct float64
	WarnPct  float64
}

func (c *MomentumCheck) Name() string       { return CheckMomentum }
func (c *MomentumCheck) Severity() Severity { return SeverityCritical }

func (c *MomentumCheck) Evaluate(in Inputs) Outcome {
	if in.Snapshot == nil {
		return block("no market snapshot for %s", in.Intent.Mint)
	}
	change := in.Snapshot.PriceChange.H1
	switch {
	case change > c.BlockPct:
		return block("h1 change %+.1f%% exceeds %.0f%% ceiling, not chasing", change, c.BlockPct)
	case change > c.WarnPct:
		return warn("h1 change %+.1f%% above %.0f%% caution level", change, c.WarnPct)
	}
	return pass()
}

// ActiveDumpCheck fires only when depressed short-window buy/sell flow and a
// falling short-window price co-occur. Neither condition alone is sufficient.
type ActiveDumpCheck struct {
	MinBuySellRatio float64
	BlockDropPct    float64 // negative
	WarnDropPct     float64 // negative
}

func (c *ActiveDumpCheck) Name() string       { return CheckActiveDump }
func (c *ActiveDumpCheck) Severity() Severity { return SeverityCritical }

func (c *ActiveDumpCheck) Evaluate(in Inputs) Outcome {
	if in.Snapshot == nil {
		return block("no market snapshot for %s", in.Intent.Mint)
	}

	ratio := in.Snapshot.Txns.M5.BuySellRatio()
	change := in.Snapshot.PriceChange.M5

	if ratio >= c.MinBuySellRatio || change >= 0 {
		return pass()
	}
	switch {
	case change <= c.BlockDropPct:
		return block("m5 buy/sell ratio %.2f with price %+.1f%%, active dump", ratio, change)
	case change <= c.WarnDropPct:
		return warn("m5 buy/sell ratio %.2f with price %+.1f%%, sell pressure building", ratio, change)
	}
	return pass()
}

// ImpactCheck enforces the price-impact ceiling against the live quote. The
// snapshot's liquidity field is deliberately never consulted: bonding-curve
// venues report none, and the realizable quote is the authoritative signal.
type ImpactCheck struct {
	MaxImpactPct float64
}

func (c *ImpactCheck) Name() string       { return CheckImpact }
func (c *ImpactCheck) Severity() Severity { return SeverityCritical }

func (c *ImpactCheck) Evaluate(in Inputs) Outcome {
	if in.Quote == nil {
		return block("no executable quote for %s", in.Intent.Mint)
	}

	ceiling := c.MaxImpactPct
	if in.Intent.MaxImpactPct > 0 && in.Intent.MaxImpactPct < ceiling {
		ceiling = in.Intent.MaxImpactPct
	}
	if in.Quote.PriceImpactPct > ceiling {
		return block("price impact %.2f%% exceeds %.2f%% ceiling", in.Quote.PriceImpactPct, ceiling)
	}
	return pass()
}

// SizingCheck bounds the per-trade notional.
type SizingCheck struct {
	MinLamports uint64
	MaxLamports uint64
}

func (c *SizingCheck) Name() string       { return CheckSizing }
func (c *SizingCheck) Severity() Severity { return SeverityCritical }

func (c *SizingCheck) Evaluate(in Inputs) Outcome {
	if !in.Intent.Direction.Entry() {
		// Exit notionals are bounded by the open position itself.
		return pass()
	}
	switch {
	case in.Intent.Amount < c.MinLamports:
		return block("notional %d lamports below %d minimum", in.Intent.Amount, c.MinLamports)
	case in.Intent.Amount > c.MaxLamports:
		return block("notional %d lamports above %d maximum", in.Intent.Amount, c.MaxLamports)
	}
	return pass()
}

// VolumeSanityCheck warns on thin 24h volume relative to market cap. Advisory
// only: an illiquid-looking market with an acceptable-impact quote is tradeable.
type VolumeSanityCheck struct {
	MinVolumeToMcap float64
}

func (c *VolumeSanityCheck) Name() string       { return CheckVolume }
func (c *VolumeSanityCheck) Severity() Severity { return SeverityAdvisory }

func (c *VolumeSanityCheck) Evaluate(in Inputs) Outcome {
	if in.Snapshot == nil || in.Snapshot.MarketCap <= 0 {
		return pass()
	}
	ratio := in.Snapshot.Volume.H24 / in.Snapshot.MarketCap
	if ratio < c.MinVolumeToMcap {
		return warn("24h volume is %.3f of market cap (floor %.3f)", ratio, c.MinVolumeToMcap)
	}
	return pass()
}

// EntryChecks returns the ordered check list for entry intents.
func EntryChecks(cfg config.Risk, verifyRequired bool) []Check {
	return []Check{
		&EligibilityCheck{AllowedDexIDs: cfg.AllowedDexIDs, MintSuffix: cfg.MintSuffix},
		&CreatorCheck{Required: verifyRequired, MaxBuySellSkew: cfg.MaxBuySellSkew},
		&MomentumCheck{BlockPct: cfg.MomentumBlockPct, WarnPct: cfg.MomentumWarnPct},
		&ActiveDumpCheck{MinBuySellRatio: cfg.DumpMinBuySellRatio, BlockDropPct: cfg.DumpBlockDropPct, WarnDropPct: cfg.DumpWarnDropPct},
		&ImpactCheck{MaxImpactPct: cfg.MaxImpactPct},
		&SizingCheck{MinLamports: cfg.MinTradeLamports, MaxLamports: cfg.MaxTradeLamports},
		&VolumeSanityCheck{MinVolumeToMcap: cfg.MinVolumeToMcap},
	}
}

// ExitChecks returns the ordered check list for exit intents. Market-entry
// guards (momentum, dump, eligibility, creator) do not apply when reducing
// exposure; the impact ceiling and sizing rules still do.
func ExitChecks(cfg config.Risk) []Check {
	return []Check{
		&ImpactCheck{MaxImpactPct: cfg.MaxImpactPct},
		&SizingCheck{MinLamports: cfg.MinTradeLamports, MaxLamports: cfg.MaxTradeLamports},
	}
}
