package storage

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"zomato-dashboard/internal/engine"
)

const batchSize = 100

// SQLStore keeps a normalised snapshot of the dataset in one table. The SQL
// it issues is understood by both PostgreSQL and SQLite.
type SQLStore struct {
	db    *sql.DB
	table string
	log   *zap.Logger
}

// OpenSQL connects with the given driver ("postgres" or "sqlite3"), waits
// for the database to answer and makes sure the snapshot table exists.
func OpenSQL(ctx context.Context, driver, dsn, table string, retries int, log *zap.Logger) (*SQLStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: open: %w", driver, err)
	}
	if driver == "sqlite3" {
		db.SetMaxOpenConns(1)
	}

	err = retry(ctx, log, driver+" ping", retries, 500*time.Millisecond, func() error {
		return db.PingContext(ctx)
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	s, err := NewSQLStore(ctx, db, table, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLStore wraps an open database.
func NewSQLStore(ctx context.Context, db *sql.DB, table string, log *zap.Logger) (*SQLStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &SQLStore{db: db, table: table, log: log}
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLStore) quoted() string { return pq.QuoteIdentifier(s.table) }

func (s *SQLStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			row_index    INTEGER          PRIMARY KEY,
			name         TEXT             NOT NULL DEFAULT '',
			online_order TEXT,
			book_table   TEXT,
			rating       DOUBLE PRECISION,
			votes        BIGINT,
			cost         DOUBLE PRECISION,
			category     TEXT
		)`, s.quoted()))
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (category)`,
		pq.QuoteIdentifier(s.table+"_category_idx"), s.quoted()))
	return err
}

// Save replaces the snapshot with the rows of cs.
func (s *SQLStore) Save(ctx context.Context, cs *engine.ColumnStore) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+s.quoted()); err != nil {
		return fmt.Errorf("save: clear: %w", err)
	}

	for start := 0; start < cs.Len(); start += batchSize {
		end := start + batchSize
		if end > cs.Len() {
			end = cs.Len()
		}
		if err := s.insertBatch(ctx, tx, cs, start, end); err != nil {
			return fmt.Errorf("save: rows %d-%d: %w", start, end, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save: commit: %w", err)
	}
	s.log.Info("snapshot saved", zap.String("table", s.table), zap.Int("rows", cs.Len()))
	return nil
}

func (s *SQLStore) insertBatch(ctx context.Context, tx *sql.Tx, cs *engine.ColumnStore, start, end int) error {
	const cols = 8
	valueStrings := make([]string, 0, end-start)
	valueArgs := make([]interface{}, 0, (end-start)*cols)

	for i := start; i < end; i++ {
		base := (i - start) * cols
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8))

		r := cs.Record(i)
		valueArgs = append(valueArgs,
			i, r.Name, nullString(r.OnlineOrder), nullString(r.BookTable),
			nullFloat(r.Rating), nullVotes(r.Votes), nullFloat(r.Cost), nullString(r.Category))
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (row_index, name, online_order, book_table, rating, votes, cost, category)
		VALUES %s`, s.quoted(), strings.Join(valueStrings, ","))

	_, err := tx.ExecContext(ctx, query, valueArgs...)
	return err
}

// Load reads the snapshot back into a ColumnStore, in saved order.
func (s *SQLStore) Load(ctx context.Context) (*engine.ColumnStore, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT name, online_order, book_table, rating, votes, cost, category
		FROM %s
		ORDER BY row_index`, s.quoted()))
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	defer rows.Close()

	b := engine.NewBuilder(1024)
	for rows.Next() {
		var (
			name                    string
			mode, booking, category sql.NullString
			rating, cost            sql.NullFloat64
			votes                   sql.NullInt64
		)
		if err := rows.Scan(&name, &mode, &booking, &rating, &votes, &cost, &category); err != nil {
			return nil, fmt.Errorf("load: scan row: %w", err)
		}
		r := engine.Record{
			Name:        name,
			OnlineOrder: mode.String,
			BookTable:   booking.String,
			Category:    category.String,
			Rating:      math.NaN(),
			Cost:        math.NaN(),
			Votes:       engine.MissingVotes,
		}
		if rating.Valid {
			r.Rating = rating.Float64
		}
		if cost.Valid {
			r.Cost = cost.Float64
		}
		if votes.Valid {
			r.Votes = votes.Int64
		}
		b.Append(r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}

	cs := b.Build()
	s.log.Info("snapshot loaded", zap.String("table", s.table), zap.Int("rows", cs.Len()))
	return cs, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func nullString(v string) interface{} {
	if v == "" {
		return nil
	}
	return v
}

func nullFloat(v float64) interface{} {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

func nullVotes(v int64) interface{} {
	if v == engine.MissingVotes {
		return nil
	}
	return v
}
