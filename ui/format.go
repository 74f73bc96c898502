package ui

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"fraudguard/claim"
)

// Printers and casers keep per-call state, so each render builds its own.
func newPrinter() *message.Printer {
	return message.NewPrinter(language.English)
}

// formatMoney renders 5000 as "$5,000.00".
func formatMoney(v float64) string {
	return newPrinter().Sprintf("$%.2f", v)
}

// formatPercent renders a probability as a one-decimal percentage.
func formatPercent(p float64) string {
	return newPrinter().Sprintf("%.1f%%", p*100)
}

func formatClaimType(t claim.ClaimType) string {
	return cases.Upper(language.English).String(string(t))
}

func yesNo(flag int) string {
	if flag == 1 {
		return "Yes"
	}
	return "No"
}
