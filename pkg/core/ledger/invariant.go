package ledger

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// PositionTolerance is the tolerance used when two positions are compared
// for equality (§3 invariants, §4.3 step 3). Kept deliberately distinct
// from fx.AmbiguityTolerance (§9, Open Questions).
const PositionTolerance = 1e-6

// IntegrityReport is a structured pass/fail summary over a transaction
// sequence, in the idiom of the teacher's cross-statement
// LinkageReport (pkg/core/validate/linkage.go) — adapted here to this
// spec's invariant table (§3) instead of balance-sheet linkage.
type IntegrityReport struct {
	AllPassed    bool
	FailedChecks []string
}

func (r *IntegrityReport) fail(msg string) {
	r.AllPassed = false
	r.FailedChecks = append(r.FailedChecks, msg)
}

// CheckInvariants verifies the invariant table in §3 against an already
// normalized sequence. It never mutates txs; callers that need a hard
// failure (as normalization does, per §7) should treat any non-passing
// report as a fatal IntegrityError.
func CheckInvariants(txs []Transaction) *IntegrityReport {
	r := &IntegrityReport{AllPassed: true}
	for _, t := range txs {
		if t.Position < -PositionTolerance {
			r.fail(locMsg(t, "position is negative"))
		}
		if t.IsPositional() {
			if t.PayoutDate != nil || t.ExDate != nil {
				r.fail(locMsg(t, "positional-only transaction carries a payout or ex-date"))
			}
			continue
		}
		if t.Amount != nil && t.Dividend != nil && t.Amount.Symbol == t.Dividend.Symbol {
			expected := t.Dividend.Value.Mul(decimal.NewFromFloat(t.Position))
			diff := expected.Sub(t.Amount.Value).Abs()
			if diff.GreaterThan(decimal.NewFromFloat(PositionTolerance)) {
				r.fail(locMsg(t, "amount does not equal position times dividend"))
			}
		}
		if t.ExDate != nil && t.PayoutDate != nil && t.ExDate.After(*t.PayoutDate) {
			r.fail(locMsg(t, "ex-date is after payout date"))
		}
		if t.Amount != nil && t.Amount.Value.IsPositive() && t.Position <= PositionTolerance {
			r.fail(locMsg(t, "amount is positive but position is not"))
		}
	}
	return r
}

func locMsg(t Transaction, msg string) string {
	if t.Attrs.Location.Path == "" {
		return t.Ticker + ": " + msg
	}
	return t.Attrs.Location.Path + ":" + strconv.Itoa(t.Attrs.Location.Line) + ": " + t.Ticker + ": " + msg
}

