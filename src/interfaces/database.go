package interfaces

import (
	"time"

	"stock-historian/src/models"
)

// -----------------------------------------------------------------------------
// IStore defines the contract for the stock_price_history storage.
// -----------------------------------------------------------------------------

type IStore interface {

	// -----------------------------------------------------------------------------

	// Initialize opens the database handle and bootstraps the schema.
	Initialize() error

	// -----------------------------------------------------------------------------

	// SavePriceHistory bulk-inserts the records in a single transaction and
	// returns the number of rows written. The whole batch commits or the error
	// surfaces; there is no partial success.
	SavePriceHistory(records []models.MPriceRecord) (int64, error)

	// -----------------------------------------------------------------------------

	// AggregateDividends groups persisted rows for the given tickers by
	// (ticker, year of market_date) within [start, end] and returns yearly
	// dividend totals and average volumes, ordered by ticker then year.
	// A blank symbol2 narrows the filter to symbol1 alone.
	AggregateDividends(symbol1, symbol2 string, start, end time.Time) ([]models.MAggregateRecord, error)

	// -----------------------------------------------------------------------------

	// ReadPriceHistory returns the persisted rows for one ticker in
	// [start, end], ordered by market_date ascending.
	ReadPriceHistory(symbol string, start, end time.Time) ([]models.MPriceRecord, error)

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
