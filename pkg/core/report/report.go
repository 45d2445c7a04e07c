// Package report renders a valuation analysis as Markdown or HTML.
package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"intrinsic_valuation/pkg/core/sensitivity"
)

var md = goldmark.New(goldmark.WithExtensions(extension.Table))

// Money formats a per-share value as "$12.34".
func Money(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	if d.IsNegative() {
		return "-$" + d.Neg().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}

// Markdown renders the headline value and the sensitivity table.
func Markdown(a *sensitivity.Analysis) string {
	var b strings.Builder

	b.WriteString("## Valuation Results\n\n")
	fmt.Fprintf(&b, "**Intrinsic Value / Share:** %s\n\n", Money(a.IntrinsicValue))

	base := a.Base
	if base.EnterpriseValue != 0 || base.EquityValue != 0 {
		b.WriteString("| Metric | Value |\n|---|---:|\n")
		fmt.Fprintf(&b, "| Enterprise Value | %s |\n", decimal.NewFromFloat(base.EnterpriseValue).StringFixed(2))
		fmt.Fprintf(&b, "| Equity Value | %s |\n", decimal.NewFromFloat(base.EquityValue).StringFixed(2))
		fmt.Fprintf(&b, "| Terminal Value | %s |\n", decimal.NewFromFloat(base.TerminalValue).StringFixed(2))
		fmt.Fprintf(&b, "| PV of Terminal Value | %s |\n\n", decimal.NewFromFloat(base.DiscountedTerminalValue).StringFixed(2))
	}

	grid := a.Sensitivity
	b.WriteString("### Sensitivity Analysis\n\n")
	b.WriteString(`| WACC \ Growth |`)
	for _, h := range grid.GrowthHeaders {
		fmt.Fprintf(&b, " %s |", h)
	}
	b.WriteString("\n|---|")
	for range grid.GrowthHeaders {
		b.WriteString("---:|")
	}
	b.WriteString("\n")
	for row, values := range grid.Table {
		header := ""
		if row < len(grid.WACCHeaders) {
			header = grid.WACCHeaders[row]
		}
		fmt.Fprintf(&b, "| **%s** |", header)
		for _, v := range values {
			fmt.Fprintf(&b, " %s |", Money(v))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// HTML converts the Markdown report with the GFM table extension.
func HTML(a *sensitivity.Analysis) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(Markdown(a)), &buf); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return buf.String(), nil
}
