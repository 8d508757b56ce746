// Package trust holds the report/verify threshold rules that move a toilet
// between its visible, verified and hidden states. It performs no I/O; the
// stores call Apply inside the vote transaction with post-increment counters.
package trust

import (
	"fmt"

	"github.com/ehdro06/EuroLoo/euroloo-go/internal/domain"
)

const (
	// DefaultVerifyThreshold verifies a toilet at its third VERIFY vote.
	DefaultVerifyThreshold = 3
	// DefaultHideMargin hides a toilet once reports lead verifications by three.
	DefaultHideMargin = 3
)

// Policy is the pair of thresholds driving the state machine.
type Policy struct {
	VerifyThreshold int `mapstructure:"verify_threshold"`
	HideMargin      int `mapstructure:"hide_margin"`
}

// DefaultPolicy returns the production thresholds.
func DefaultPolicy() Policy {
	return Policy{VerifyThreshold: DefaultVerifyThreshold, HideMargin: DefaultHideMargin}
}

// State is a toilet's trust fields after the current vote was counted.
type State struct {
	ReportCount int
	VerifyCount int
	IsVerified  bool
	IsHidden    bool
}

// Transition describes the flag changes caused by one vote.
type Transition struct {
	Hidden   bool
	Verified bool
}

// None reports whether the vote left both flags untouched.
func (t Transition) None() bool { return !t.Hidden && !t.Verified }

// Name is the metrics label for the transition.
func (t Transition) Name() string {
	switch {
	case t.Hidden:
		return "hidden"
	case t.Verified:
		return "verified"
	default:
		return "none"
	}
}

// Validate rejects thresholds that would hide or verify on zero votes.
func (p Policy) Validate() error {
	if p.VerifyThreshold < 1 {
		return fmt.Errorf("verify threshold must be >= 1, got %d", p.VerifyThreshold)
	}
	if p.HideMargin < 1 {
		return fmt.Errorf("hide margin must be >= 1, got %d", p.HideMargin)
	}
	return nil
}

// Apply evaluates the vote that produced s. Verified is never revoked and
// hidden is never cleared here; only an admin restore clears hidden.
func (p Policy) Apply(s State, vt domain.VoteType) (Transition, error) {
	if s.ReportCount < 0 || s.VerifyCount < 0 {
		return Transition{}, fmt.Errorf("%w: negative counters (%d reports, %d verifies)",
			domain.ErrInvariant, s.ReportCount, s.VerifyCount)
	}

	var t Transition
	switch vt {
	case domain.VoteReport:
		t.Hidden = !s.IsHidden && s.ReportCount >= s.VerifyCount+p.HideMargin
	case domain.VoteVerify:
		t.Verified = !s.IsVerified && s.VerifyCount >= p.VerifyThreshold
	default:
		return Transition{}, fmt.Errorf("%w: unknown vote type %q", domain.ErrValidation, vt)
	}

	if t.Hidden && t.Verified {
		return Transition{}, fmt.Errorf("%w: vote would both hide and verify", domain.ErrInvariant)
	}
	return t, nil
}

// Next returns s with the transition applied.
func (s State) Next(t Transition) State {
	if t.Hidden {
		s.IsHidden = true
	}
	if t.Verified {
		s.IsVerified = true
	}
	return s
}
