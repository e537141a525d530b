package valuation

import (
	"context"
	"fmt"
	"time"

	"github.com/STTM-NSU/fund-tracker/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	_queryLots = `SELECT id, code, account_name, kind, amount, units, price, purchase_date, holding_period
					FROM investments ORDER BY purchase_date, id`
	_queryAccountLots = `SELECT id, code, account_name, kind, amount, units, price, purchase_date, holding_period
					FROM investments WHERE account_name = $1 ORDER BY purchase_date, id`
	_queryInstruments = `SELECT code, name, alt_id_1, alt_id_2, category, fund_house, price, price_date, refreshed_at
					FROM instruments WHERE code = ANY($1)`
	_queryPriceHistory = "SELECT code, date, price FROM price_history WHERE code = $1 AND date >= $2 ORDER BY date"
)

type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Lots returns the lots of one account, or of every account when account is empty.
func (s *Store) Lots(ctx context.Context, account string) ([]model.InvestmentLot, error) {
	var (
		lots []model.InvestmentLot
		err  error
	)
	if account == "" {
		err = s.db.SelectContext(ctx, &lots, _queryLots)
	} else {
		err = s.db.SelectContext(ctx, &lots, _queryAccountLots, account)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: can't query investment lots", err)
	}
	return lots, nil
}

func (s *Store) Instruments(ctx context.Context, codes []string) (map[string]model.Instrument, error) {
	var rows []instrumentRow
	if err := s.db.SelectContext(ctx, &rows, _queryInstruments, pq.Array(codes)); err != nil {
		return nil, fmt.Errorf("%w: can't query instruments", err)
	}

	out := make(map[string]model.Instrument, len(rows))
	for _, r := range rows {
		out[r.Code] = r.toModel()
	}
	return out, nil
}

func (s *Store) PriceHistory(ctx context.Context, code string, from time.Time) ([]model.PricePoint, error) {
	var points []model.PricePoint
	if err := s.db.SelectContext(ctx, &points, _queryPriceHistory, code, from); err != nil {
		return nil, fmt.Errorf("%w: can't query price history", err)
	}
	return points, nil
}
