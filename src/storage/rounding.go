package storage

import "github.com/shopspring/decimal"

// round2 rounds to 2 decimal places, half away from zero. Grouped sums and
// averages are rounded here rather than in SQL so Postgres and SQLite agree
// on results like 1.005 + 2.005 = 3.01.
func round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
