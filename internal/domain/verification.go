package domain

// Claimant is one fee-share entry returned by the creator-verification API.
type Claimant struct {
	Handle      string // linked identity, empty when unlinked
	Wallet      string
	FeeShareBps int
}

// Verification is the creator fee-share lookup result for a mint.
type Verification struct {
	Mint      string
	Claimants []Claimant
}

// Verified reports whether any claimant carries a linked identity. No linked
// identity across all entries means the creator is unverifiable.
func (v *Verification) Verified() bool {
	if v == nil {
		return false
	}
	for _, c := range v.Claimants {
		if c.Handle != "" {
			return true
		}
	}
	return false
}
