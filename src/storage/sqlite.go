package storage

import (
	"database/sql"
	"fmt"
	"time"

	"stock-historian/src/logger"
	"stock-historian/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

// SQLiteStore is the embedded alternative to Postgres for single-machine
// runs. Dates are stored as ISO-8601 text so BETWEEN and strftime behave.
type SQLiteStore struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewSQLiteStore(cfg *models.MConfig, log *logger.Logger) (*SQLiteStore, error) {
	return &SQLiteStore{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) Initialize() error {
	dsn := d.Config.Storage.DBPath

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}

	query := `
		CREATE TABLE IF NOT EXISTS stock_price_history (
			opening_price REAL,
			high          REAL,
			low           REAL,
			closing_price REAL,
			volume        INTEGER,
			dividends     REAL,
			market_date   TEXT,
			ticker        TEXT
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create stock_price_history: %w", err)
	}

	d.Logger.Info("SQLiteStore initialized (path: %s)", dsn)
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) SavePriceHistory(records []models.MPriceRecord) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO stock_price_history (opening_price, high, low, closing_price, volume, dividends, market_date, ticker)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	var written int64
	for _, r := range records {
		res, err := stmt.Exec(r.Open, r.High, r.Low, r.Close, r.Volume, r.Dividends, r.Date.Format("2006-01-02"), r.Ticker)
		if err != nil {
			return 0, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		written += n
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return written, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) AggregateDividends(symbol1, symbol2 string, start, end time.Time) ([]models.MAggregateRecord, error) {
	query := `
		SELECT ticker, CAST(strftime('%Y', market_date) AS INTEGER) AS year,
		       SUM(dividends) AS total_dividends, AVG(volume) AS avg_volume
		FROM stock_price_history
		WHERE ticker IN (?, ?) AND market_date BETWEEN ? AND ?
		GROUP BY ticker, strftime('%Y', market_date)
		ORDER BY ticker, year ASC
	`
	args := []interface{}{symbol1, symbol2, start.Format("2006-01-02"), end.Format("2006-01-02")}
	if symbol2 == "" {
		query = `
			SELECT ticker, CAST(strftime('%Y', market_date) AS INTEGER) AS year,
			       SUM(dividends) AS total_dividends, AVG(volume) AS avg_volume
			FROM stock_price_history
			WHERE ticker = ? AND market_date BETWEEN ? AND ?
			GROUP BY ticker, strftime('%Y', market_date)
			ORDER BY ticker, year ASC
		`
		args = []interface{}{symbol1, start.Format("2006-01-02"), end.Format("2006-01-02")}
	}

	rows, err := d.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var aggs []models.MAggregateRecord
	for rows.Next() {
		var a models.MAggregateRecord
		if err := rows.Scan(&a.Ticker, &a.Year, &a.TotalDividends, &a.AvgVolume); err != nil {
			return nil, err
		}
		a.TotalDividends = round2(a.TotalDividends)
		a.AvgVolume = round2(a.AvgVolume)
		aggs = append(aggs, a)
	}

	return aggs, rows.Err()
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) ReadPriceHistory(symbol string, start, end time.Time) ([]models.MPriceRecord, error) {
	rows, err := d.DB.Query(`
		SELECT opening_price, high, low, closing_price, volume, dividends, market_date, ticker
		FROM stock_price_history
		WHERE ticker = ? AND market_date BETWEEN ? AND ?
		ORDER BY market_date ASC
	`, symbol, start.Format("2006-01-02"), end.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.MPriceRecord
	for rows.Next() {
		var r models.MPriceRecord
		var day string
		if err := rows.Scan(&r.Open, &r.High, &r.Low, &r.Close, &r.Volume, &r.Dividends, &day, &r.Ticker); err != nil {
			return nil, err
		}
		date, err := time.ParseInLocation("2006-01-02", day, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("bad market_date %q: %w", day, err)
		}
		r.Date = date
		records = append(records, r)
	}

	return records, rows.Err()
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
