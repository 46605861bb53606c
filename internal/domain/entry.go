package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the day-precision format the entry form works with.
const DateLayout = "2006-01-02"

// EntryType distinguishes money in from money out.
type EntryType string

const (
	EntryCredit EntryType = "credit" // money in
	EntryDebit  EntryType = "debit"  // money out
)

// Valid reports whether t is exactly one of the two variants.
func (t EntryType) Valid() bool {
	return t == EntryCredit || t == EntryDebit
}

// Sign returns "+" for credits and "-" for everything else.
func (t EntryType) Sign() string {
	if t == EntryCredit {
		return "+"
	}
	return "-"
}

// Entry is a single credit or debit record owned by the backend.
type Entry struct {
	ID        string          `json:"id"`
	Type      EntryType       `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	Note      string          `json:"note,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewEntry is the validated payload of the add-entry form.
type NewEntry struct {
	Type      EntryType
	Amount    decimal.Decimal
	Note      string
	Timestamp string // YYYY-MM-DD, as entered
}

// EntryForm holds the raw add-entry form fields.
type EntryForm struct {
	Type   EntryType `json:"type"`
	Amount string    `json:"amount"`
	Note   string    `json:"note"`
	Date   string    `json:"date"`
}

// DefaultEntryForm returns the reset state of the form: a credit dated today.
func DefaultEntryForm(now time.Time) EntryForm {
	return EntryForm{
		Type: EntryCredit,
		Date: now.Format(DateLayout),
	}
}

// Validate converts the raw form into a NewEntry.
// The amount must parse as a finite number greater than zero.
func (f EntryForm) Validate() (*NewEntry, error) {
	if !f.Type.Valid() {
		return nil, &ErrValidation{Field: "type", Message: "must be credit or debit"}
	}

	raw := strings.TrimSpace(f.Amount)
	if raw == "" {
		return nil, &ErrValidation{Field: "amount", Message: "is required"}
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, &ErrValidation{Field: "amount", Message: "must be a number"}
	}
	if !amount.IsPositive() {
		return nil, &ErrValidation{Field: "amount", Message: "must be greater than zero"}
	}

	if _, err := time.Parse(DateLayout, f.Date); err != nil {
		return nil, &ErrValidation{Field: "date", Message: "must be a YYYY-MM-DD date"}
	}

	return &NewEntry{
		Type:      f.Type,
		Amount:    amount,
		Note:      strings.TrimSpace(f.Note),
		Timestamp: f.Date,
	}, nil
}

// Totals are derived from the entry collection and never stored.
type Totals struct {
	Credit  decimal.Decimal `json:"credit"`
	Debit   decimal.Decimal `json:"debit"`
	Balance decimal.Decimal `json:"balance"`
}

// DeriveTotals folds entries into credit, debit and balance sums.
// Anything that is not a credit counts as a debit.
func DeriveTotals(entries []Entry) Totals {
	credit := decimal.Zero
	debit := decimal.Zero
	for _, e := range entries {
		if e.Type == EntryCredit {
			credit = credit.Add(e.Amount)
		} else {
			debit = debit.Add(e.Amount)
		}
	}
	return Totals{
		Credit:  credit,
		Debit:   debit,
		Balance: credit.Sub(debit),
	}
}

// Dashboard is everything the dashboard view renders.
type Dashboard struct {
	Username string  `json:"username"`
	Greeting string  `json:"greeting"`
	Totals   Totals  `json:"totals"`
	Entries  []Entry `json:"entries"`
}
