package metrics

import (
	"math"
	"time"

	"polymarket-smartmoney/internal/domain"
)

const daysPerYear = 365

// DaysHeld returns the number of calendar days (UTC) between first and last trade,
// clamped to at least 1 so same-day activity annualizes over a single day.
func DaysHeld(first, last time.Time) int {
	f := first.UTC()
	l := last.UTC()
	fd := time.Date(f.Year(), f.Month(), f.Day(), 0, 0, 0, 0, time.UTC)
	ld := time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, time.UTC)

	days := int(ld.Sub(fd).Hours() / 24)
	if days < 1 {
		return 1
	}
	return days
}

// Annualize returns x^(365/daysHeld).
//
// Negative bases are annualized on |x| with the sign reapplied, zero stays zero, and
// results beyond float64 range are clamped to ±math.MaxFloat64. daysHeld below 1 is treated as 1.
func Annualize(x float64, daysHeld int) float64 {
	if x == 0 || math.IsNaN(x) {
		return 0
	}
	if daysHeld < 1 {
		daysHeld = 1
	}

	exp := float64(daysPerYear) / float64(daysHeld)
	r := math.Pow(math.Abs(x), exp)
	if math.IsNaN(r) {
		return 0
	}
	if math.IsInf(r, 0) {
		r = math.MaxFloat64
	}
	if x < 0 {
		return -r
	}
	return r
}

// ApplyAnnualization fills the annual ROI fields of w from its ROIs and trade span.
func ApplyAnnualization(w *domain.WalletMetrics) {
	days := DaysHeld(w.FirstTradeAt, w.LastTradeAt)
	w.AnnualAvgROI = Annualize(w.AvgROI, days)
	w.AnnualPortfolioROI = Annualize(w.PortfolioROI, days)
}
