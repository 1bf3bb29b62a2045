package storage

import (
	"database/sql"
	"fmt"
	"time"

	"stock-historian/src/logger"
	"stock-historian/src/models"

	_ "github.com/lib/pq"
)

// -----------------------------------------------------------------------------

type PostgresStore struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewPostgresStore(cfg *models.MConfig, log *logger.Logger) (*PostgresStore, error) {
	return &PostgresStore{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

// Initialize opens the pooled handle and bootstraps the history table. The
// pool lives for the process lifetime; saves never close it.
func (d *PostgresStore) Initialize() error {
	db, err := sql.Open("postgres", d.dsn())
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}

	d.DB = db

	// No primary key: re-saving an overlapping range duplicates rows, which
	// is the accepted write semantics for this table.
	query := `
		CREATE TABLE IF NOT EXISTS stock_price_history (
			opening_price DOUBLE PRECISION,
			high          DOUBLE PRECISION,
			low           DOUBLE PRECISION,
			closing_price DOUBLE PRECISION,
			volume        BIGINT,
			dividends     DOUBLE PRECISION,
			market_date   DATE,
			ticker        TEXT
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create stock_price_history: %w", err)
	}

	d.Logger.Info("PostgresStore initialized (db: %s)", d.Config.Storage.Database.DBName)
	return nil
}

// -----------------------------------------------------------------------------

// dsn builds the lib/pq connection string. TLS identity verification is
// mandatory; ssl_ca points at the CA bundle when the server certificate is
// not signed by a system root.
func (d *PostgresStore) dsn() string {
	db := d.Config.Storage.Database
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=verify-full",
		db.Host, db.Port, db.User, db.Password, db.DBName)
	if db.SSLCA != "" {
		dsn += fmt.Sprintf(" sslrootcert=%s", db.SSLCA)
	}
	return dsn
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) SavePriceHistory(records []models.MPriceRecord) (int64, error) {
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
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
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

func (d *PostgresStore) AggregateDividends(symbol1, symbol2 string, start, end time.Time) ([]models.MAggregateRecord, error) {
	// A blank comparison symbol narrows the filter to symbol1 alone instead
	// of matching the empty-string ticker.
	query := `
		SELECT ticker, EXTRACT(YEAR FROM market_date)::int AS year,
		       SUM(dividends) AS total_dividends, AVG(volume) AS avg_volume
		FROM stock_price_history
		WHERE ticker IN ($1, $2) AND market_date BETWEEN $3 AND $4
		GROUP BY ticker, EXTRACT(YEAR FROM market_date)
		ORDER BY ticker, year ASC
	`
	args := []interface{}{symbol1, symbol2, start.Format("2006-01-02"), end.Format("2006-01-02")}
	if symbol2 == "" {
		query = `
			SELECT ticker, EXTRACT(YEAR FROM market_date)::int AS year,
			       SUM(dividends) AS total_dividends, AVG(volume) AS avg_volume
			FROM stock_price_history
			WHERE ticker = $1 AND market_date BETWEEN $2 AND $3
			GROUP BY ticker, EXTRACT(YEAR FROM market_date)
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

func (d *PostgresStore) ReadPriceHistory(symbol string, start, end time.Time) ([]models.MPriceRecord, error) {
	rows, err := d.DB.Query(`
		SELECT opening_price, high, low, closing_price, volume, dividends, market_date, ticker
		FROM stock_price_history
		WHERE ticker = $1 AND market_date BETWEEN $2 AND $3
		ORDER BY market_date ASC
	`, symbol, start.Format("2006-01-02"), end.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.MPriceRecord
	for rows.Next() {
		var r models.MPriceRecord
		if err := rows.Scan(&r.Open, &r.High, &r.Low, &r.Close, &r.Volume, &r.Dividends, &r.Date, &r.Ticker); err != nil {
			return nil, err
		}
		records = append(records, r)
	}

	return records, rows.Err()
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
