package nav

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/STTM-NSU/fund-tracker/internal/model"
	"github.com/STTM-NSU/fund-tracker/internal/postgres"
	"github.com/STTM-NSU/fund-tracker/internal/tools"
	"github.com/jmoiron/sqlx"
)

const (
	_queryTrackedCodes = `SELECT DISTINCT code FROM investments
							UNION
						  SELECT DISTINCT code FROM watchlist`
	_queryLatestDates  = "SELECT date FROM price_history WHERE code = $1 ORDER BY date DESC LIMIT 2"
	_queryEarliestDate = "SELECT MIN(date) FROM price_history WHERE code = $1"
	_queryRequiredFrom = `SELECT MIN(d) FROM (
							SELECT added_on AS d FROM watchlist WHERE code = $1
							UNION ALL
							SELECT purchase_date AS d FROM investments WHERE code = $1
						  ) AS required`
	_queryExistingDates  = "SELECT date FROM price_history WHERE code = $1"
	_queryInstrumentMeta = "SELECT category, fund_house FROM instruments WHERE code = $1"
)

const (
	_upsertInstrument = `INSERT INTO instruments (
							code, name, alt_id_1, alt_id_2, category, price, price_date, refreshed_at
						) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
						ON CONFLICT (code)
						DO UPDATE SET
							name = COALESCE(NULLIF(instruments.name, ''), EXCLUDED.name),
							alt_id_1 = COALESCE(NULLIF(instruments.alt_id_1, ''), EXCLUDED.alt_id_1),
							alt_id_2 = COALESCE(NULLIF(instruments.alt_id_2, ''), EXCLUDED.alt_id_2),
							category = COALESCE(NULLIF(EXCLUDED.category, ''), instruments.category),
							price = EXCLUDED.price,
							price_date = EXCLUDED.price_date,
							refreshed_at = EXCLUDED.refreshed_at;`
	_insertPricePoint = `INSERT INTO price_history (code, date, price) VALUES ($1,$2,$3)
						ON CONFLICT (code, date) DO NOTHING`
	_updateInstrumentMeta = "UPDATE instruments SET category = $1, fund_house = $2 WHERE code = $3"
)

// Store reads and writes instruments and their price history.
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) TrackedCodes(ctx context.Context) ([]string, error) {
	var codes []string
	if err := s.db.SelectContext(ctx, &codes, _queryTrackedCodes); err != nil {
		return nil, fmt.Errorf("%w: can't query tracked codes", err)
	}
	return codes, nil
}

func (s *Store) Coverage(ctx context.Context, code string) (model.HistoryCoverage, error) {
	var (
		cov      model.HistoryCoverage
		earliest sql.NullTime
		required sql.NullTime
	)

	if err := s.db.SelectContext(ctx, &cov.Latest, _queryLatestDates, code); err != nil {
		return cov, fmt.Errorf("%w: can't query latest dates", err)
	}
	if err := s.db.GetContext(ctx, &earliest, _queryEarliestDate, code); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return cov, fmt.Errorf("%w: can't query earliest date", err)
	}
	if err := s.db.GetContext(ctx, &required, _queryRequiredFrom, code); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return cov, fmt.Errorf("%w: can't query required start date", err)
	}

	if earliest.Valid {
		cov.Earliest = &earliest.Time
	}
	if required.Valid {
		cov.RequiredFrom = &required.Time
	}
	return cov, nil
}

func (s *Store) ExistingDates(ctx context.Context, code string) (map[time.Time]struct{}, error) {
	var dates []time.Time
	if err := s.db.SelectContext(ctx, &dates, _queryExistingDates, code); err != nil {
		return nil, fmt.Errorf("%w: can't query existing dates", err)
	}

	existing := make(map[time.Time]struct{}, len(dates))
	for _, d := range dates {
		existing[tools.Day(d)] = struct{}{}
	}
	return existing, nil
}

// InsertHistory writes points in one transaction and returns how many rows
// were actually added.
func (s *Store) InsertHistory(ctx context.Context, points []model.PricePoint) (int, error) {
	if len(points) == 0 {
		return 0, nil
	}

	var inserted int
	err := postgres.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		for _, p := range points {
			res, err := tx.ExecContext(ctx, _insertPricePoint, p.Code, p.Date, p.Price)
			if err != nil {
				return fmt.Errorf("%w: can't insert price point %s %s", err, p.Code, p.Date.Format(time.DateOnly))
			}
			if n, err := res.RowsAffected(); err == nil {
				inserted += int(n)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func (s *Store) Meta(ctx context.Context, code string) (category, fundHouse string, err error) {
	var row struct {
		Category  sql.NullString `db:"category"`
		FundHouse sql.NullString `db:"fund_house"`
	}
	if err := s.db.GetContext(ctx, &row, _queryInstrumentMeta, code); err != nil {
		return "", "", fmt.Errorf("%w: can't query instrument meta", err)
	}
	return row.Category.String, row.FundHouse.String, nil
}

func (s *Store) UpdateMeta(ctx context.Context, code, category, fundHouse string) error {
	if _, err := s.db.ExecContext(ctx, _updateInstrumentMeta, category, fundHouse, code); err != nil {
		return fmt.Errorf("%w: can't update instrument meta", err)
	}
	return nil
}
