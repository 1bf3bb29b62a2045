package interfaces

import (
	"context"
	"time"

	"stock-historian/src/models"
)

// -----------------------------------------------------------------------------
// IMarketDataSource interface for fetching historical stock data from an
// external provider.
// -----------------------------------------------------------------------------

type IMarketDataSource interface {

	// Name returns the unique identifier of the source
	Name() string

	// -----------------------------------------------------------------------------

	// FetchDailyHistory retrieves one record per trading day in [start, end],
	// ordered by date ascending. An unknown symbol yields an empty slice, not
	// an error; callers must treat empty as "no data".
	FetchDailyHistory(ctx context.Context, symbol string, start, end time.Time) ([]models.MPriceRecord, error)
}
