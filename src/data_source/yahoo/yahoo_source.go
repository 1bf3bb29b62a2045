package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"stock-historian/src/interfaces"
	"stock-historian/src/logger"
	"stock-historian/src/models"
)

const defaultBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// -----------------------------------------------------------------------------

// YahooFinanceSource fetches daily historical bars (with dividend events)
// from the Yahoo Finance chart API.
type YahooFinanceSource struct {
	Config  *models.MConfig
	Network interfaces.INetworkManager
	Logger  *logger.Logger
}

// -----------------------------------------------------------------------------

func NewYahooFinanceSource(cfg *models.MConfig, netMgr interfaces.INetworkManager) *YahooFinanceSource {
	return &YahooFinanceSource{
		Config:  cfg,
		Network: netMgr,
		Logger:  logger.NewLogger(cfg.LogLevel, "YahooFinanceSource"),
	}
}

// -----------------------------------------------------------------------------

func (s *YahooFinanceSource) Name() string {
	return "yahoo"
}

// -----------------------------------------------------------------------------

// FetchDailyHistory fetches one bar per trading day in [start, end], ordered
// by date ascending. Unknown symbols yield an empty slice.
func (s *YahooFinanceSource) FetchDailyHistory(ctx context.Context, symbol string, start, end time.Time) ([]models.MPriceRecord, error) {
	if symbol == "" {
		return nil, nil
	}

	params := map[string]string{
		"interval": "1d",
		// Yahoo treats period2 as exclusive; add a day so the end date's bar
		// is included, matching the date-picker semantics.
		"period1":        strconv.FormatInt(start.UTC().Unix(), 10),
		"period2":        strconv.FormatInt(end.UTC().AddDate(0, 0, 1).Unix(), 10),
		"events":         "div",
		"includePrePost": "false",
	}

	url := fmt.Sprintf("%s/%s", s.baseURL(), symbol)

	respBytes, netErr := s.Network.Get(ctx, url, params)
	records, parseErr := s.parseChartResponse(symbol, respBytes)
	if parseErr != nil {
		if netErr != nil {
			return nil, fmt.Errorf("network error for %s: %w", symbol, netErr)
		}
		return nil, parseErr
	}

	return records, nil
}

// -----------------------------------------------------------------------------

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency             string `json:"currency"`
				Symbol               string `json:"symbol"`
				ExchangeTimezoneName string `json:"exchangeTimezoneName"`
				Gmtoffset            int    `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					High   []*float64 `json:"high"`   // Use pointers to handle null
					Low    []*float64 `json:"low"`    // Use pointers to handle null
					Open   []*float64 `json:"open"`   // Use pointers to handle null
					Close  []*float64 `json:"close"`  // Use pointers to handle null
					Volume []*int64   `json:"volume"` // Use pointers to handle null
				} `json:"quote"`
			} `json:"indicators"`
			Events struct {
				Dividends map[string]struct {
					Amount float64 `json:"amount"`
					Date   int64   `json:"date"`
				} `json:"dividends"`
			} `json:"events"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// -----------------------------------------------------------------------------

func (s *YahooFinanceSource) parseChartResponse(symbol string, data []byte) ([]models.MPriceRecord, error) {
	var resp yahooChartResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("json unmarshal failed: %w", err)
	}

	if resp.Chart.Error != nil {
		// Unknown symbols come back as a "Not Found" error payload. The
		// provider convention is "no data", not a failure.
		s.Logger.Info("No data for %s: %s - %s", symbol, resp.Chart.Error.Code, resp.Chart.Error.Description)
		return []models.MPriceRecord{}, nil
	}

	if len(resp.Chart.Result) == 0 {
		return []models.MPriceRecord{}, nil
	}

	result := resp.Chart.Result[0]
	if len(result.Timestamp) == 0 {
		return []models.MPriceRecord{}, nil
	}

	indicators := result.Indicators.Quote
	if len(indicators) == 0 {
		return []models.MPriceRecord{}, nil
	}

	quote := indicators[0]

	// Alignment check before indexing the parallel arrays.
	if len(result.Timestamp) != len(quote.Close) ||
		len(result.Timestamp) != len(quote.Open) ||
		len(result.Timestamp) != len(quote.High) ||
		len(result.Timestamp) != len(quote.Low) ||
		len(result.Timestamp) != len(quote.Volume) {
		return nil, fmt.Errorf("data alignment error for %s", symbol)
	}

	// Dividends arrive as a separate event stream keyed by timestamp; index
	// them by trading day so they can be merged into the daily bars.
	dividendsByDay := make(map[string]float64, len(result.Events.Dividends))
	exchangeTZ := time.FixedZone(result.Meta.ExchangeTimezoneName, result.Meta.Gmtoffset)
	for _, div := range result.Events.Dividends {
		day := time.Unix(div.Date, 0).In(exchangeTZ).Format("2006-01-02")
		dividendsByDay[day] += div.Amount
	}

	var records []models.MPriceRecord
	for i, ts := range result.Timestamp {
		// Null bars are non-trading days or halted sessions; skip them.
		if quote.Open[i] == nil || quote.High[i] == nil || quote.Low[i] == nil ||
			quote.Close[i] == nil || quote.Volume[i] == nil {
			continue
		}

		barTime := time.Unix(ts, 0).In(exchangeTZ)
		day := barTime.Format("2006-01-02")

		records = append(records, models.MPriceRecord{
			Date:      time.Date(barTime.Year(), barTime.Month(), barTime.Day(), 0, 0, 0, 0, time.UTC),
			Open:      *quote.Open[i],
			High:      *quote.High[i],
			Low:       *quote.Low[i],
			Close:     *quote.Close[i],
			Volume:    *quote.Volume[i],
			Dividends: dividendsByDay[day],
		})
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})

	if len(records) > 0 {
		s.Logger.Info("Fetched %s: %d trading days [%s -> %s]", symbol, len(records),
			records[0].Date.Format("2006-01-02"), records[len(records)-1].Date.Format("2006-01-02"))
	}

	return records, nil
}

// -----------------------------------------------------------------------------

func (s *YahooFinanceSource) baseURL() string {
	if s.Config.DataSource.BaseURL != "" {
		return s.Config.DataSource.BaseURL
	}
	return defaultBaseURL
}
