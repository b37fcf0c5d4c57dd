package dashboard

import (
	"errors"
	"fmt"
	"html/template"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/obra-dashboard/obra/internal/finance"
	"github.com/obra-dashboard/obra/internal/shared"
)

const (
	chartWidth   = 720
	chartHeight  = 240
	chartPadding = 32.0
	chartTicks   = 4

	axisColor   = "#475569"
	gridColor   = "#cbd5e1"
	budgetColor = "#0ea5e9"
	spentColor  = "#f97316"
	overColor   = "#dc2626"
)

var errNoSeries = errors.New("dashboard: nothing to chart")

// BudgetChart draws budget against spending per stage column as grouped bars.
// Columns with neither budget nor spending are left out.
func BudgetChart(ov finance.Overview) (template.HTML, error) {
	var labels []string
	var budget, spent []decimal.Decimal
	for i, col := range ov.Stages {
		if i >= len(ov.StageTotals) {
			break
		}
		cell := ov.StageTotals[i]
		if cell.Budget.IsZero() && cell.Spent.IsZero() {
			continue
		}
		labels = append(labels, col.Name)
		budget = append(budget, cell.Budget)
		spent = append(spent, cell.Spent)
	}
	if len(labels) == 0 {
		return "", errNoSeries
	}
	return bars(labels, budget, spent), nil
}

func bars(labels []string, budget, spent []decimal.Decimal) template.HTML {
	innerW := float64(chartWidth) - 2*chartPadding
	innerH := float64(chartHeight) - 2*chartPadding
	top := 0.0
	for i := range labels {
		top = math.Max(top, math.Max(budget[i].InexactFloat64(), spent[i].InexactFloat64()))
	}
	if top == 0 {
		top = 1
	}
	scale := innerH / top
	bottom := chartPadding + innerH
	group := innerW / float64(len(labels))
	barW := group / 3

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" role="img" aria-labelledby="budget-chart-title">`, chartWidth, chartHeight)
	b.WriteString(`<title id="budget-chart-title">Previsto x gasto por etapa</title>`)

	for i := 0; i <= chartTicks; i++ {
		ratio := float64(i) / chartTicks
		y := bottom - ratio*innerH
		fmt.Fprintf(&b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="0.5" stroke-dasharray="2,4"></line>`, chartPadding, y, chartPadding+innerW, y, gridColor)
		fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" fill="%s" font-size="10" text-anchor="end">%s</text>`, chartPadding-4, y+3, axisColor, tick(top*ratio))
	}
	fmt.Fprintf(&b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s"></line>`, chartPadding, bottom, chartPadding+innerW, bottom, axisColor)

	for i, label := range labels {
		x := chartPadding + float64(i)*group
		name := template.HTMLEscapeString(label)
		hb := budget[i].InexactFloat64() * scale
		fmt.Fprintf(&b, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"><title>%s previsto: %s</title></rect>`,
			x+barW*0.3, bottom-hb, barW, hb, budgetColor, name, shared.FormatBRL(budget[i]))
		hs := spent[i].InexactFloat64() * scale
		color := spentColor
		if spent[i].GreaterThan(budget[i]) {
			color = overColor
		}
		fmt.Fprintf(&b, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"><title>%s gasto: %s</title></rect>`,
			x+barW*1.4, bottom-hs, barW, hs, color, name, shared.FormatBRL(spent[i]))
		fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" fill="%s" font-size="10" text-anchor="middle">%s</text>`, x+group/2, bottom+14, axisColor, name)
	}

	fmt.Fprintf(&b, `<rect x="%.2f" y="8" width="10" height="10" fill="%s"></rect>`, chartPadding, budgetColor)
	fmt.Fprintf(&b, `<text x="%.2f" y="17" fill="%s" font-size="10">Previsto</text>`, chartPadding+14, axisColor)
	fmt.Fprintf(&b, `<rect x="%.2f" y="8" width="10" height="10" fill="%s"></rect>`, chartPadding+80, spentColor)
	fmt.Fprintf(&b, `<text x="%.2f" y="17" fill="%s" font-size="10">Gasto</text>`, chartPadding+94, axisColor)
	b.WriteString("</svg>")
	return template.HTML(b.String())
}

func tick(v float64) string {
	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("%.1fM", v/1_000_000)
	case v >= 1_000:
		return fmt.Sprintf("%.0fk", v/1_000)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}
