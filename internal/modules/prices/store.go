package prices

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/esfolk/DefiHedge/internal/database"
	"github.com/esfolk/DefiHedge/internal/domain"
)

const dateLayout = "2006-01-02"

// FetchRecord describes the last window downloaded for a ticker
type FetchRecord struct {
	Ticker    string
	Start     time.Time
	End       time.Time
	FetchedAt time.Time
}

// Covers reports whether the recorded window contains [start, end]
func (r *FetchRecord) Covers(start, end time.Time) bool {
	return !r.Start.After(domain.TruncateToDay(start)) && !r.End.Before(domain.TruncateToDay(end))
}

// HistoryStore persists raw daily closes in the history database
type HistoryStore struct {
	db  *database.DB
	log zerolog.Logger
}

// NewHistoryStore creates a store on an already migrated history database
func NewHistoryStore(db *database.DB, log zerolog.Logger) *HistoryStore {
	return &HistoryStore{
		db:  db,
		log: log.With().Str("component", "history_store").Logger(),
	}
}

// GetCloses returns stored closes for ticker within [start, end], oldest first
func (s *HistoryStore) GetCloses(ctx context.Context, ticker string, start, end time.Time) ([]domain.DailyClose, error) {
	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT date, close FROM daily_prices
		WHERE ticker = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`, ticker, domain.TruncateToDay(start).Format(dateLayout), domain.TruncateToDay(end).Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query closes for %s: %w", ticker, err)
	}
	defer rows.Close()

	closes := []domain.DailyClose{}
	for rows.Next() {
		var dateStr string
		var c domain.DailyClose
		if err := rows.Scan(&dateStr, &c.Close); err != nil {
			return nil, fmt.Errorf("failed to scan close for %s: %w", ticker, err)
		}
		c.Date, err = time.Parse(dateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("invalid stored date %q for %s: %w", dateStr, ticker, err)
		}
		closes = append(closes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate closes for %s: %w", ticker, err)
	}

	return closes, nil
}

// SaveCloses upserts closes and records [start, end] as the fetched window
// for ticker, in one transaction.
func (s *HistoryStore) SaveCloses(ctx context.Context, ticker string, start, end time.Time, closes []domain.DailyClose, fetchedAt time.Time) error {
	err := database.WithTransaction(s.db.Conn(), func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO daily_prices (ticker, date, close) VALUES (?, ?, ?)
			ON CONFLICT(ticker, date) DO UPDATE SET close = excluded.close
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, c := range closes {
			if _, err := stmt.ExecContext(ctx, ticker, domain.TruncateToDay(c.Date).Format(dateLayout), c.Close); err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO price_fetches (ticker, start_date, end_date, fetched_at) VALUES (?, ?, ?, ?)
			ON CONFLICT(ticker) DO UPDATE SET
				start_date = excluded.start_date,
				end_date = excluded.end_date,
				fetched_at = excluded.fetched_at
		`, ticker,
			domain.TruncateToDay(start).Format(dateLayout),
			domain.TruncateToDay(end).Format(dateLayout),
			fetchedAt.Unix())
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to save closes for %s: %w", ticker, err)
	}

	s.log.Debug().Str("ticker", ticker).Int("days", len(closes)).Msg("Stored closes")
	return nil
}

// LastFetch returns the fetch record for ticker, or nil if it was never fetched
func (s *HistoryStore) LastFetch(ctx context.Context, ticker string) (*FetchRecord, error) {
	var startStr, endStr string
	var fetchedAt int64
	err := s.db.Conn().QueryRowContext(ctx, `
		SELECT start_date, end_date, fetched_at FROM price_fetches WHERE ticker = ?
	`, ticker).Scan(&startStr, &endStr, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read fetch record for %s: %w", ticker, err)
	}

	start, err := time.Parse(dateLayout, startStr)
	if err != nil {
		return nil, fmt.Errorf("invalid fetch start %q for %s: %w", startStr, ticker, err)
	}
	end, err := time.Parse(dateLayout, endStr)
	if err != nil {
		return nil, fmt.Errorf("invalid fetch end %q for %s: %w", endStr, ticker, err)
	}

	return &FetchRecord{
		Ticker:    ticker,
		Start:     start,
		End:       end,
		FetchedAt: time.Unix(fetchedAt, 0).UTC(),
	}, nil
}

// PruneBefore deletes closes older than cutoff and returns the number removed
func (s *HistoryStore) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.Conn().ExecContext(ctx,
		`DELETE FROM daily_prices WHERE date < ?`, domain.TruncateToDay(cutoff).Format(dateLayout))
	if err != nil {
		return 0, fmt.Errorf("failed to prune closes: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
