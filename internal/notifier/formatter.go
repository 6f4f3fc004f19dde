package notifier

import (
	"fmt"
	"math"
	"strings"
	"text/tabwriter"
	"time"

	"PriceLab/internal/calculator"
	"PriceLab/internal/regime"
)

// FormatSummary renders descriptive indicators for each series, one row per symbol.
func FormatSummary(sums []calculator.Summary) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tPOINTS\tLAST\tMEAN\tSMA20\tRSI14\tLOW\tHIGH\tPOS\tVOL")
	for _, s := range sums {
		fmt.Fprintf(w, "%s\t%d\t%.2f\t%.2f\t%.2f\t%.0f\t%.2f\t%.2f\t%.0f%%\t%s\n",
			s.Symbol, s.Points, s.Last, s.Mean, s.SMA20, s.RSI14, s.Low, s.High, s.Position*100, pct(s.Volatility))
	}
	w.Flush()
	return b.String()
}

// FormatMatrix renders a labelled square matrix.
func FormatMatrix(title string, labels []string, rows [][]float64) string {
	var b strings.Builder
	b.WriteString(title + "\n")
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "\t%s\t\n", strings.Join(labels, "\t"))
	for i, row := range rows {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = fmt.Sprintf("%.6g", v)
		}
		fmt.Fprintf(w, "%s\t%s\t\n", labels[i], strings.Join(cells, "\t"))
	}
	w.Flush()
	return b.String()
}

// FormatRegime renders the fit diagnostics and the state breakdown of a fitted model.
func FormatRegime(m *regime.Model) (string, error) {
	states, err := m.States()
	if err != nil {
		return "", err
	}
	h := m.HMM
	var b strings.Builder
	fmt.Fprintf(&b, "Regimes for %s (%d states, %s covariance)\n", strings.Join(m.Ticks, ", "), h.States, h.CovarianceType)
	fmt.Fprintf(&b, "converged: %v after %d iterations, log-likelihood %.2f\n", h.Converged, h.Iter, h.LogLikelihood)

	counts := make([]int, h.States)
	for _, s := range states {
		counts[s]++
	}
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STATE\tROWS\tSHARE\tMEAN RETURN\tSTAY")
	for k := 0; k < h.States; k++ {
		fmt.Fprintf(w, "%d\t%d\t%.0f%%\t%s\t%.2f\n", k, counts[k],
			100*float64(counts[k])/float64(len(states)), pct(h.Means[k][0]), h.TransMat[k][k])
	}
	w.Flush()

	if n := len(states); n > 0 {
		prices := m.PrimaryPrices()
		fmt.Fprintf(&b, "latest: %s state %d at %.2f (%s)\n", m.Primary, states[n-1],
			prices.Values[n-1], prices.Index[n-1].Format(time.RFC3339))
	}
	return b.String(), nil
}

// FormatRegimeChange announces that the latest regime of a watchlist moved.
func FormatRegimeChange(ticks []string, from, to int, at time.Time, price float64) string {
	return fmt.Sprintf("Regime change for %s: state %d -> %d at %s (price %.2f)",
		strings.Join(ticks, ", "), from, to, at.Format("2006-01-02 15:04"), price)
}

func pct(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%+.2f%%", v*100)
}
