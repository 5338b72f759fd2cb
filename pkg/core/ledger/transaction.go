// Package ledger defines the canonical transaction model (§3) and the
// operations every pipeline stage shares: canonical ordering (§4.2) and
// post-normalization invariant checking (§3's invariant table).
package ledger

import (
	"github.com/google/uuid"

	"divledger/pkg/core/caldate"
	"divledger/pkg/core/money"
)

// Directive selects how a Positioning value modifies the prior position
// for the same ticker (§3 Positioning directive).
type Directive int

const (
	// DirectiveSet makes the value an absolute position (or, if the value
	// is unset, "infer from history").
	DirectiveSet Directive = iota
	DirectiveAdd
	DirectiveSub
	DirectiveSplit
	DirectiveSplitWhole
)

// Positioning pairs a directive with its operand. HasValue is false for a
// bare Set directive meaning "infer from history."
type Positioning struct {
	Directive Directive
	Value     float64
	HasValue  bool
}

// Kind is a dividend distribution kind (§3 Distribution kind).
type Kind int

const (
	Final Kind = iota
	Interim
	Special
)

func (k Kind) String() string {
	switch k {
	case Interim:
		return "interim"
	case Special:
		return "special"
	default:
		return "final"
	}
}

// SourceLocation identifies where a transaction was read from. The zero
// value (empty Path, Line 0) is used for generated records with no
// journal origin; it sorts before any real location in canonical order,
// which is relied upon deliberately (§9, Open Questions).
type SourceLocation struct {
	Path string
	Line int
}

// Less implements the tie-break ordering: path, then line number.
func (s SourceLocation) Less(o SourceLocation) bool {
	if s.Path != o.Path {
		return s.Path < o.Path
	}
	return s.Line < o.Line
}

// EntryAttributes carries the journal-reader-era metadata that must
// survive every subsequent transformation (§3 "Ownership & lifecycle").
type EntryAttributes struct {
	Location            SourceLocation
	Positioning         Positioning
	IsPreliminary       bool
	PreliminaryTemplate money.Template
	PreliminarySymbol   string
	Tags                []string
}

// Transaction is the canonical record shape every pipeline stage
// transforms (§3 Transaction).
type Transaction struct {
	EntryDate  caldate.Date
	Ticker     string
	Position   float64
	Amount     *money.Amount
	Dividend   *money.Amount
	Kind       Kind
	PayoutDate *caldate.Date
	ExDate     *caldate.Date
	Attrs      EntryAttributes

	// RunID is a correlation id for the run that produced the
	// transaction; no pipeline stage sets it, and it has no bearing on
	// any invariant or ordering rule.
	RunID string
}

// NewRunID mints a correlation id for a pipeline run (adapted from the
// teacher's debate-session id pattern).
func NewRunID() string {
	return uuid.NewString()
}

// IsPositional reports whether t carries neither an amount nor a
// dividend — a "purely positional transaction" (§3).
func (t Transaction) IsPositional() bool {
	return t.Amount == nil && t.Dividend == nil
}

// EffectiveExDate returns the ex-dividend date if present, else the entry
// date — the date used for "as of" position lookups throughout the spec
// (§4.3 step 2, §4.9 sample selection).
func (t Transaction) EffectiveExDate() caldate.Date {
	if t.ExDate != nil {
		return *t.ExDate
	}
	return t.EntryDate
}

// Clone makes a deep-enough copy for a transformation pass to mutate
// without aliasing the input slice's pointers (Amount/Dividend/dates).
func (t Transaction) Clone() Transaction {
	out := t
	if t.Amount != nil {
		a := *t.Amount
		out.Amount = &a
	}
	if t.Dividend != nil {
		d := *t.Dividend
		out.Dividend = &d
	}
	if t.PayoutDate != nil {
		p := *t.PayoutDate
		out.PayoutDate = &p
	}
	if t.ExDate != nil {
		e := *t.ExDate
		out.ExDate = &e
	}
	out.Attrs.Tags = append([]string(nil), t.Attrs.Tags...)
	return out
}
