package portfolio

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/STTM-NSU/fund-tracker/internal/logger"
	"github.com/STTM-NSU/fund-tracker/internal/model"
	"github.com/STTM-NSU/fund-tracker/internal/postgres"
	"github.com/STTM-NSU/fund-tracker/internal/tools"
	"github.com/jmoiron/sqlx"
)

var (
	ErrLotNotFound       = errors.New("investment lot not found")
	ErrInsufficientUnits = errors.New("insufficient units")
	ErrInvalidLot        = errors.New("invalid investment lot")
)

type InvestRequest struct {
	Code          string
	Account       string
	Kind          model.LotKind // SIP or LUMPSUM, LUMPSUM when empty
	Amount        float64       // money paid in, positive
	Price         float64
	Date          time.Time
	HoldingPeriod *float64
}

type RedeemRequest struct {
	Code    string
	Account string
	Units   float64
	Price   float64
	Date    time.Time
}

// CorrectRequest replaces the recorded values of a lot. Amount keeps the
// investor cash-flow sign: negative for purchases, positive for redemptions.
type CorrectRequest struct {
	Code          string
	Account       string
	Kind          model.LotKind
	Amount        float64
	Price         float64
	Date          time.Time
	HoldingPeriod *float64
}

// Ledger records investment lots and keeps the aggregate holdings in step.
type Ledger struct {
	db  *sqlx.DB
	eps float64

	logger logger.Logger
}

func NewLedger(db *sqlx.DB, eps float64, logger logger.Logger) *Ledger {
	return &Ledger{
		db:     db,
		eps:    eps,
		logger: logger,
	}
}

func (l *Ledger) Invest(ctx context.Context, req InvestRequest) (model.InvestmentLot, error) {
	if req.Code == "" || req.Amount <= 0 || req.Price <= 0 || req.Date.IsZero() {
		return model.InvestmentLot{}, fmt.Errorf("%w: code, positive amount, price and date are required", ErrInvalidLot)
	}
	kind := cmp.Or(req.Kind, model.Lumpsum)
	if kind == model.Redemption {
		return model.InvestmentLot{}, fmt.Errorf("%w: use redeem for redemptions", ErrInvalidLot)
	}

	lot := model.InvestmentLot{
		Code:          req.Code,
		Account:       cmp.Or(req.Account, model.DefaultAccount),
		Kind:          kind,
		Amount:        -req.Amount,
		Units:         req.Amount / req.Price,
		Price:         req.Price,
		Date:          tools.Day(req.Date),
		HoldingPeriod: req.HoldingPeriod,
	}

	err := postgres.WithTx(ctx, l.db, func(tx *sqlx.Tx) error {
		h, err := getHolding(ctx, tx, lot.Code, lot.Account)
		if err != nil {
			return err
		}
		backdated, err := hasLaterLots(ctx, tx, lot.Code, lot.Account, lot.Date)
		if err != nil {
			return err
		}
		if lot.ID, err = insertLot(ctx, tx, lot); err != nil {
			return err
		}
		if backdated {
			_, _, err = l.rebuild(ctx, tx, lot.Code, lot.Account)
			return err
		}
		return saveHolding(ctx, tx, applyLot(h, lot, l.eps))
	})
	if err != nil {
		return model.InvestmentLot{}, err
	}

	l.logger.Infof("invested %.2f in %s (%s) at %.4f", req.Amount, lot.Code, lot.Account, lot.Price)
	return lot, nil
}

func (l *Ledger) Redeem(ctx context.Context, req RedeemRequest) (model.InvestmentLot, error) {
	if req.Code == "" || req.Units <= 0 || req.Price <= 0 || req.Date.IsZero() {
		return model.InvestmentLot{}, fmt.Errorf("%w: code, positive units, price and date are required", ErrInvalidLot)
	}

	lot := model.InvestmentLot{
		Code:    req.Code,
		Account: cmp.Or(req.Account, model.DefaultAccount),
		Kind:    model.Redemption,
		Amount:  req.Units * req.Price,
		Units:   -req.Units,
		Price:   req.Price,
		Date:    tools.Day(req.Date),
	}

	err := postgres.WithTx(ctx, l.db, func(tx *sqlx.Tx) error {
		h, err := getHolding(ctx, tx, lot.Code, lot.Account)
		if err != nil {
			return err
		}
		backdated, err := hasLaterLots(ctx, tx, lot.Code, lot.Account, lot.Date)
		if err != nil {
			return err
		}
		if !backdated {
			if err := l.checkUnits(req.Units, h.Units); err != nil {
				return err
			}
			if lot.ID, err = insertLot(ctx, tx, lot); err != nil {
				return err
			}
			return saveHolding(ctx, tx, applyLot(h, lot, l.eps))
		}

		lots, err := holdingLots(ctx, tx, lot.Code, lot.Account)
		if err != nil {
			return err
		}
		pending := lot
		pending.ID = math.MaxInt64
		if err := l.checkUnits(req.Units, heldBefore(lots, pending, l.eps)); err != nil {
			return err
		}
		if lot.ID, err = insertLot(ctx, tx, lot); err != nil {
			return err
		}
		_, _, err = l.rebuild(ctx, tx, lot.Code, lot.Account)
		return err
	})
	if err != nil {
		return model.InvestmentLot{}, err
	}

	l.logger.Infof("redeemed %.4f units of %s (%s) at %.4f", req.Units, lot.Code, lot.Account, lot.Price)
	return lot, nil
}

func (l *Ledger) CorrectLot(ctx context.Context, id int64, req CorrectRequest) (model.InvestmentLot, error) {
	if req.Amount == 0 || req.Price <= 0 || req.Date.IsZero() {
		return model.InvestmentLot{}, fmt.Errorf("%w: non-zero amount, price and date are required", ErrInvalidLot)
	}

	var updated model.InvestmentLot
	err := postgres.WithTx(ctx, l.db, func(tx *sqlx.Tx) error {
		old, err := getLot(ctx, tx, id)
		if err != nil {
			return err
		}

		updated = model.InvestmentLot{
			ID:            id,
			Code:          cmp.Or(req.Code, old.Code),
			Account:       cmp.Or(req.Account, old.Account),
			Kind:          cmp.Or(req.Kind, old.Kind),
			Amount:        req.Amount,
			Units:         -req.Amount / req.Price,
			Price:         req.Price,
			Date:          tools.Day(req.Date),
			HoldingPeriod: req.HoldingPeriod,
		}
		if (updated.Kind == model.Redemption) != (updated.Units < 0) {
			return fmt.Errorf("%w: amount sign does not match kind %s", ErrInvalidLot, updated.Kind)
		}

		if err := updateLot(ctx, tx, updated); err != nil {
			return err
		}

		_, lots, err := l.rebuild(ctx, tx, updated.Code, updated.Account)
		if err != nil {
			return err
		}
		if updated.IsRedemption() {
			if err := l.checkUnits(-updated.Units, heldBefore(lots, updated, l.eps)); err != nil {
				return err
			}
		}
		if old.Code == updated.Code && old.Account == updated.Account {
			return nil
		}
		_, _, err = l.rebuild(ctx, tx, old.Code, old.Account)
		return err
	})
	if err != nil {
		return model.InvestmentLot{}, err
	}

	l.logger.Infof("corrected lot %d of %s (%s)", id, updated.Code, updated.Account)
	return updated, nil
}

func (l *Ledger) DeleteLot(ctx context.Context, id int64) error {
	err := postgres.WithTx(ctx, l.db, func(tx *sqlx.Tx) error {
		lot, err := getLot(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := deleteLot(ctx, tx, id); err != nil {
			return err
		}
		_, _, err = l.rebuild(ctx, tx, lot.Code, lot.Account)
		return err
	})
	if err != nil {
		return err
	}

	l.logger.Infof("deleted lot %d", id)
	return nil
}

// Recompute rebuilds a holding from its lots and stores it.
func (l *Ledger) Recompute(ctx context.Context, code, account string) (model.AggregateHolding, error) {
	account = cmp.Or(account, model.DefaultAccount)

	var h model.AggregateHolding
	err := postgres.WithTx(ctx, l.db, func(tx *sqlx.Tx) error {
		cached, err := getHolding(ctx, tx, code, account)
		if err != nil {
			return err
		}
		lots, err := holdingLots(ctx, tx, code, account)
		if err != nil {
			return err
		}

		h = fromLots(code, account, lots, l.eps)
		if drift := h.Units - cached.Units; drift > l.eps || drift < -l.eps {
			l.logger.Warnf("holding %s (%s) drifted by %.6f units", code, account, drift)
		}
		return saveHolding(ctx, tx, h)
	})

	return h, err
}

func (l *Ledger) checkUnits(requested, held float64) error {
	if requested > held+l.eps {
		return fmt.Errorf("%w: %.4f requested, %.4f held", ErrInsufficientUnits, requested, held)
	}
	return nil
}

// rebuild replays every lot of a holding and stores the result.
func (l *Ledger) rebuild(ctx context.Context, tx *sqlx.Tx, code, account string) (model.AggregateHolding, []model.InvestmentLot, error) {
	if _, err := getHolding(ctx, tx, code, account); err != nil {
		return model.AggregateHolding{}, nil, err
	}
	lots, err := holdingLots(ctx, tx, code, account)
	if err != nil {
		return model.AggregateHolding{}, nil, err
	}
	h := fromLots(code, account, lots, l.eps)
	return h, lots, saveHolding(ctx, tx, h)
}
