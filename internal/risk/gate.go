// Package risk implements the multi-factor pre-trade checklist. The gate is
// deterministic: identical inputs always yield the identical verdict, and
// evaluation has no side effects beyond the verdict itself.
package risk

// Gate runs an ordered, extensible set of named checks over a trade intent
// and its market inputs. Checks are registered in a list rather than inline
// branching so adding one cannot silently change aggregation semantics.
type Gate struct {
	checks []Check
}

// NewGate creates a gate with the given ordered checks.
func NewGate(checks []Check) *Gate {
	return &Gate{checks: checks}
}

// Evaluate runs every check and aggregates: BLOCK if any critical check
// blocks, WARN if only advisory outcomes or warnings remain, ALLOW otherwise.
// All checks run even after a block so the verdict is fully itemized.
func (g *Gate) Evaluate(in Inputs) *Verdict {
	verdict := &Verdict{Results: make([]CheckResult, 0, len(g.checks))}

	anyBlock := false
	anyWarn := false
	for _, check := range g.checks {
		out := check.Evaluate(in)
		verdict.Results = append(verdict.Results, CheckResult{
			Name:     check.Name(),
			Severity: check.Severity(),
			Status:   out.Status,
			Reason:   out.Reason,
		})

		switch out.Status {
		case StatusBlock:
			if check.Severity() == SeverityCritical {
				anyBlock = true
			} else {
				// An advisory check can at most warn, whatever it reports.
				anyWarn = true
			}
		case StatusWarn:
			anyWarn = true
		}
	}

	switch {
	case anyBlock:
		verdict.Decision = DecisionBlock
	case anyWarn:
		verdict.Decision = DecisionWarn
	default:
		verdict.Decision = DecisionAllow
	}
	return verdict
}
