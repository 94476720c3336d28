package report

import (
	"fmt"
	"sort"
	"strings"
)

// RenderMarkdown formats the daily report. Missing numbers render as "-".
func RenderMarkdown(d *Daily) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Daily Briefing — %s\n\n", d.GeneratedAt.Format("2006-01-02"))

	b.WriteString("## Prices & Signals\n\n")
	b.WriteString(renderTable(
		[]string{"Ticker", "Last", "Signal", "RSI", "5d Forecast"},
		signalRows(d),
	))

	if len(d.Sectors) > 0 {
		b.WriteString("\n## Sectors\n\n")
		rows := make([][]string, 0, len(d.Sectors))
		for _, s := range d.Sectors {
			rows = append(rows, []string{
				s.Sector,
				formatNum(s.AvgPrice, s.Covered > 0),
				formatNum(s.MedianPrice, s.Covered > 0),
				fmt.Sprintf("%d", s.Covered),
				fmt.Sprintf("%d", s.Missing),
			})
		}
		b.WriteString(renderTable([]string{"Sector", "Avg", "Median", "Covered", "Missing"}, rows))
	}

	if len(d.ScreenerPicks) > 0 {
		b.WriteString("\n## Screener Picks\n\n")
		sectors := make([]string, 0, len(d.ScreenerPicks))
		for sector := range d.ScreenerPicks {
			sectors = append(sectors, sector)
		}
		sort.Strings(sectors)

		var rows [][]string
		for _, sector := range sectors {
			for _, pick := range d.ScreenerPicks[sector] {
				rows = append(rows, []string{
					sector,
					pick.Ticker,
					fmt.Sprintf("%.2f", pick.Score),
					fmt.Sprintf("%+.1f%%", pick.Factors.Momentum12M*100),
				})
			}
		}
		b.WriteString(renderTable([]string{"Sector", "Ticker", "Score", "12m Mom"}, rows))
	}

	b.WriteString("\n## Risk Settings\n\n")
	fmt.Fprintf(&b, "- Stop loss: %.0f%%\n", d.Risk.StopLossPct*100)
	fmt.Fprintf(&b, "- Take profit: %.0f%%\n", d.Risk.TakeProfitPct*100)
	fmt.Fprintf(&b, "- Max position: %.0f%%\n", d.Risk.MaxPositionPct*100)
	fmt.Fprintf(&b, "- Target portfolio vol: %.0f%%\n", d.Risk.TargetPortfolioVol*100)

	return b.String()
}

func signalRows(d *Daily) [][]string {
	tickers := make([]string, 0, len(d.Prices))
	seen := map[string]bool{}
	for t := range d.Prices {
		tickers = append(tickers, t)
		seen[t] = true
	}
	for t := range d.Signals {
		if !seen[t] {
			tickers = append(tickers, t)
		}
	}
	sort.Strings(tickers)

	rows := make([][]string, 0, len(tickers))
	for _, ticker := range tickers {
		price, hasPrice := d.Prices[ticker]
		snapshot, hasSignal := d.Signals[ticker]
		fc, hasForecast := d.Forecast[ticker]

		signal, rsi := "-", "-"
		if hasSignal {
			signal = snapshot.Signal
			rsi = fmt.Sprintf("%.0f", snapshot.RSI)
		}

		rows = append(rows, []string{
			ticker,
			formatNum(price, hasPrice),
			signal,
			rsi,
			formatNum(fc, hasForecast),
		})
	}
	return rows
}

func formatNum(v float64, ok bool) string {
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.2f", v)
}

// renderTable writes a markdown table with columns padded to equal width
// so the raw text stays readable in Slack and email clients.
func renderTable(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var b strings.Builder
	writeRow := func(cells []string) {
		b.WriteString("|")
		for i, cell := range cells {
			fmt.Fprintf(&b, " %-*s |", widths[i], cell)
		}
		b.WriteString("\n")
	}

	writeRow(header)
	b.WriteString("|")
	for _, w := range widths {
		b.WriteString(" " + strings.Repeat("-", w) + " |")
	}
	b.WriteString("\n")

	for _, row := range rows {
		writeRow(row)
	}
	return b.String()
}
