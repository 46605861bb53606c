// Package render turns the dashboard into markdown, then styles that
// markdown for a terminal or converts it to an HTML page.
package render

import (
	"fmt"
	"strings"

	"github.com/boddenberg/ledger-client-go/internal/domain"

	"github.com/shopspring/decimal"
)

const emptyCell = "—"

// Markdown renders the dashboard: greeting, totals table and entries table.
func Markdown(d *domain.Dashboard) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", escape(d.Greeting))

	fmt.Fprintln(&b, "## Totals")
	fmt.Fprintln(&b)
	b.WriteString(TotalsMarkdown(d.Totals))
	fmt.Fprintln(&b)

	b.WriteString(EntriesMarkdown(d.Entries))
	return b.String()
}

// EntriesMarkdown renders the entries table alone, in list order.
func EntriesMarkdown(entries []domain.Entry) string {
	var b strings.Builder

	fmt.Fprintln(&b, "## Entries")
	fmt.Fprintln(&b)
	if len(entries) == 0 {
		fmt.Fprintln(&b, "_No entries yet._")
		return b.String()
	}

	fmt.Fprintln(&b, "| Date | Type | Amount | Note | ID |")
	fmt.Fprintln(&b, "|:---|:---|---:|:---|:---|")
	for _, e := range entries {
		fmt.Fprintf(&b, "| %s | %s | %s%s | %s | `%s` |\n",
			date(e),
			e.Type,
			e.Type.Sign(),
			Amount(e.Amount),
			note(e.Note),
			e.ID,
		)
	}
	return b.String()
}

// TotalsMarkdown renders only the totals table.
func TotalsMarkdown(t domain.Totals) string {
	var b strings.Builder
	fmt.Fprintln(&b, "| Credit | Debit | Balance |")
	fmt.Fprintln(&b, "|---:|---:|---:|")
	fmt.Fprintf(&b, "| %s | %s | %s |\n", Amount(t.Credit), Amount(t.Debit), Amount(t.Balance))
	return b.String()
}

// Amount formats a value with exactly two decimals.
func Amount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func date(e domain.Entry) string {
	if e.Timestamp.IsZero() {
		return emptyCell
	}
	return e.Timestamp.Format(domain.DateLayout)
}

func note(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return emptyCell
	}
	return escape(s)
}

// escaper keeps user text from breaking table cells or adding markup.
var escaper = strings.NewReplacer(
	"|", `\|`,
	"\n", " ",
	"*", `\*`,
	"_", `\_`,
	"<", "&lt;",
	">", "&gt;",
)

func escape(s string) string {
	return escaper.Replace(s)
}

// AuthMarkdown renders the signed-out prompt for the given form state.
func AuthMarkdown(mode domain.AuthMode, errMsg string) string {
	var b strings.Builder
	fmt.Fprintln(&b, "# Ledger")
	fmt.Fprintln(&b)
	if mode == domain.AuthModeSignup {
		fmt.Fprintln(&b, "Create an account with `POST /v1/auth/signup` or `ledger signup`.")
	} else {
		fmt.Fprintln(&b, "Log in with `POST /v1/auth/login` or `ledger login`.")
	}
	if errMsg != "" {
		fmt.Fprintln(&b)
		b.WriteString(ErrorMarkdown(errMsg))
	}
	return b.String()
}

// ErrorMarkdown renders msg as a single quoted line.
func ErrorMarkdown(msg string) string {
	return "> **Error:** " + escape(msg) + "\n"
}
