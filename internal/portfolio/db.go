package portfolio

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/STTM-NSU/fund-tracker/internal/model"
	"github.com/jmoiron/sqlx"
)

const (
	_queryHolding = `SELECT code, account_name, total_units, average_cost, invested_amount
						FROM holdings WHERE code = $1 AND account_name = $2 FOR UPDATE`
	_queryLot = `SELECT id, code, account_name, kind, amount, units, price, purchase_date, holding_period
						FROM investments WHERE id = $1 FOR UPDATE`
	_queryHoldingLots = `SELECT id, code, account_name, kind, amount, units, price, purchase_date, holding_period
						FROM investments WHERE code = $1 AND account_name = $2 ORDER BY purchase_date, id`
	_queryHasLaterLots = `SELECT EXISTS (
							SELECT 1 FROM investments WHERE code = $1 AND account_name = $2 AND purchase_date > $3
						)`
)

const (
	_upsertHolding = `INSERT INTO holdings (
							code, account_name, total_units, average_cost, invested_amount
						) VALUES ($1,$2,$3,$4,$5)
						ON CONFLICT (code, account_name)
						DO UPDATE SET
							total_units = EXCLUDED.total_units,
							average_cost = EXCLUDED.average_cost,
							invested_amount = EXCLUDED.invested_amount;`
	_insertLot = `INSERT INTO investments (
							code, account_name, kind, amount, units, price, purchase_date, holding_period
						) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
						RETURNING id`
	_updateLot = `UPDATE investments SET
							code = $1, account_name = $2, kind = $3, amount = $4, units = $5,
							price = $6, purchase_date = $7, holding_period = $8
						WHERE id = $9`
	_deleteLot = "DELETE FROM investments WHERE id = $1"
)

func getHolding(ctx context.Context, tx *sqlx.Tx, code, account string) (model.AggregateHolding, error) {
	var h model.AggregateHolding
	if err := tx.GetContext(ctx, &h, _queryHolding, code, account); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.AggregateHolding{Code: code, Account: account}, nil
		}
		return h, fmt.Errorf("%w: can't query holding", err)
	}
	return h, nil
}

func saveHolding(ctx context.Context, tx *sqlx.Tx, h model.AggregateHolding) error {
	if _, err := tx.ExecContext(ctx, _upsertHolding, h.Code, h.Account, h.Units, h.AvgCost, h.Invested); err != nil {
		return fmt.Errorf("%w: can't save holding", err)
	}
	return nil
}

func getLot(ctx context.Context, tx *sqlx.Tx, id int64) (model.InvestmentLot, error) {
	var lot model.InvestmentLot
	if err := tx.GetContext(ctx, &lot, _queryLot, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return lot, fmt.Errorf("%w: %d", ErrLotNotFound, id)
		}
		return lot, fmt.Errorf("%w: can't query lot", err)
	}
	return lot, nil
}

func holdingLots(ctx context.Context, tx *sqlx.Tx, code, account string) ([]model.InvestmentLot, error) {
	var lots []model.InvestmentLot
	if err := tx.SelectContext(ctx, &lots, _queryHoldingLots, code, account); err != nil {
		return nil, fmt.Errorf("%w: can't query holding lots", err)
	}
	return lots, nil
}

// hasLaterLots reports whether the holding has lots dated after date.
func hasLaterLots(ctx context.Context, tx *sqlx.Tx, code, account string, date time.Time) (bool, error) {
	var later bool
	if err := tx.GetContext(ctx, &later, _queryHasLaterLots, code, account, date); err != nil {
		return false, fmt.Errorf("%w: can't query later lots", err)
	}
	return later, nil
}

func insertLot(ctx context.Context, tx *sqlx.Tx, lot model.InvestmentLot) (int64, error) {
	var id int64
	if err := tx.GetContext(ctx, &id, _insertLot,
		lot.Code, lot.Account, lot.Kind, lot.Amount, lot.Units, lot.Price, lot.Date, lot.HoldingPeriod,
	); err != nil {
		return 0, fmt.Errorf("%w: can't insert lot", err)
	}
	return id, nil
}

func updateLot(ctx context.Context, tx *sqlx.Tx, lot model.InvestmentLot) error {
	if _, err := tx.ExecContext(ctx, _updateLot,
		lot.Code, lot.Account, lot.Kind, lot.Amount, lot.Units, lot.Price, lot.Date, lot.HoldingPeriod, lot.ID,
	); err != nil {
		return fmt.Errorf("%w: can't update lot", err)
	}
	return nil
}

func deleteLot(ctx context.Context, tx *sqlx.Tx, id int64) error {
	if _, err := tx.ExecContext(ctx, _deleteLot, id); err != nil {
		return fmt.Errorf("%w: can't delete lot", err)
	}
	return nil
}
