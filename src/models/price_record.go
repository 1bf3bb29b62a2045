package models

import "time"

// MPriceRecord is one trading day of history for a single security.
// The fetcher leaves Ticker empty; the save path stamps it before writing.
type MPriceRecord struct {
	Ticker    string    `json:"ticker"`
	Date      time.Time `json:"date"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
	Dividends float64   `json:"dividends"`
}
