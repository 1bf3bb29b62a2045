package models

// MAggregateRecord is one (ticker, year) group of the dividend/volume report.
// TotalDividends and AvgVolume are rounded to 2 decimal places, half away
// from zero.
type MAggregateRecord struct {
	Ticker         string  `json:"ticker"`
	Year           int     `json:"year"`
	TotalDividends float64 `json:"total_dividends"`
	AvgVolume      float64 `json:"avg_volume"`
}
