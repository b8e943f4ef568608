package risk

import (
	"fmt"
	"strings"

	"github.com/Leo-moon-max/BagsAiTradingBot/internal/domain"
)

// Severity classifies how a failing check aggregates into the verdict.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityAdvisory Severity = "advisory"
)

// Status is the result of one check.
type Status string

const (
	StatusPass  Status = "pass"
	StatusWarn  Status = "warn"
	StatusBlock Status = "block"
)

// Outcome is one check's result with its human-readable reason.
type Outcome struct {
	Status Status
	Reason string
}

func pass() Outcome                              { return Outcome{Status: StatusPass} }
func warn(format string, args ...any) Outcome    { return Outcome{Status: StatusWarn, Reason: fmt.Sprintf(format, args...)} }
func block(format string, args ...any) Outcome   { return Outcome{Status: StatusBlock, Reason: fmt.Sprintf(format, args...)} }

// Inputs is everything a check may consult. Checks are pure functions of
// these inputs; no check may assume another already ran.
type Inputs struct {
	Intent       *domain.TradeIntent
	Snapshot     *domain.MarketSnapshot
	Verification *domain.Verification // nil when verification was not fetched
	Quote        *domain.Quote
}

// Check is one named gate rule.
type Check interface {
	Name() string
	Severity() Severity
	Evaluate(in Inputs) Outcome
}

// Decision is the aggregated verdict.
type Decision string

const (
	DecisionAllow Decision = "ALLOW"
	DecisionWarn  Decision = "WARN"
	DecisionBlock Decision = "BLOCK"
)

// CheckResult records one check's evaluation inside a verdict.
type CheckResult struct {
	Name     string
	Severity Severity
	Status   Status
	Reason   string
}

// Verdict is the gate's full, itemized result.
type Verdict struct {
	Decision Decision
	Results  []CheckResult
}

// Blocked reports whether the verdict forbids execution.
func (v *Verdict) Blocked() bool {
	return v.Decision == DecisionBlock
}

// BlockReasons returns the reasons of all blocking checks.
func (v *Verdict) BlockReasons() []string {
	var reasons []string
	for _, r := range v.Results {
		if r.Status == StatusBlock {
			reasons = append(reasons, fmt.Sprintf("%s: %s", r.Name, r.Reason))
		}
	}
	return reasons
}

// WarnReasons returns the reasons of all warning checks.
func (v *Verdict) WarnReasons() []string {
	var reasons []string
	for _, r := range v.Results {
		if r.Status == StatusWarn {
			reasons = append(reasons, fmt.Sprintf("%s: %s", r.Name, r.Reason))
		}
	}
	return reasons
}

// BlockedError carries a BLOCK verdict up to the caller with its itemized
// reasons. The trade never reaches the executor.
type BlockedError struct {
	Verdict *Verdict
}

func (e *BlockedError) Error() string {
	return "trade blocked: " + strings.Join(e.Verdict.BlockReasons(), "; ")
}
