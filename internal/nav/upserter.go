package nav

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/STTM-NSU/fund-tracker/internal/logger"
	"github.com/STTM-NSU/fund-tracker/internal/model"
	"github.com/jmoiron/sqlx"
)

const (
	_savepoint         = "SAVEPOINT feed_record"
	_rollbackSavepoint = "ROLLBACK TO SAVEPOINT feed_record"
	_releaseSavepoint  = "RELEASE SAVEPOINT feed_record"
)

// Upserter applies parsed feed records to the instrument master and, for
// tracked codes, to the price history.
type Upserter struct {
	db        *sqlx.DB
	batchSize int
	now       func() time.Time

	logger logger.Logger
}

func NewUpserter(db *sqlx.DB, batchSize int, logger logger.Logger) *Upserter {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Upserter{
		db:        db,
		batchSize: batchSize,
		now:       time.Now,
		logger:    logger,
	}
}

// Apply returns the number of records stored. A failing record is rolled back
// on its own and skipped.
func (u *Upserter) Apply(ctx context.Context, records iter.Seq[model.FeedRecord], tracked map[string]struct{}) (int, error) {
	tx, err := u.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: can't begin transaction", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	var processed, pending int
	for rec := range records {
		if err := ctx.Err(); err != nil {
			break
		}

		if _, err := tx.ExecContext(ctx, _savepoint); err != nil {
			return processed, fmt.Errorf("%w: can't create savepoint", err)
		}
		if err := u.applyRecord(ctx, tx, rec, tracked); err != nil {
			u.logger.Errorf("%s: can't store record %s", err, rec.Code)
			if _, err := tx.ExecContext(ctx, _rollbackSavepoint); err != nil {
				return processed, fmt.Errorf("%w: can't rollback to savepoint", err)
			}
			continue
		}
		if _, err := tx.ExecContext(ctx, _releaseSavepoint); err != nil {
			return processed, fmt.Errorf("%w: can't release savepoint", err)
		}

		processed++
		pending++
		if pending < u.batchSize {
			continue
		}

		if err := tx.Commit(); err != nil {
			tx = nil
			return processed - pending, fmt.Errorf("%w: can't commit batch", err)
		}
		pending = 0
		u.logger.Debugf("committed %d records", processed)

		if tx, err = u.db.BeginTxx(ctx, nil); err != nil {
			tx = nil
			return processed, fmt.Errorf("%w: can't begin transaction", err)
		}
	}

	err = tx.Commit()
	tx = nil
	if err != nil {
		return processed - pending, fmt.Errorf("%w: can't commit batch", err)
	}

	return processed, ctx.Err()
}

func (u *Upserter) applyRecord(ctx context.Context, tx *sqlx.Tx, rec model.FeedRecord, tracked map[string]struct{}) error {
	if _, err := tx.ExecContext(ctx, _upsertInstrument,
		rec.Code,
		rec.Name,
		rec.AltIDs[0],
		rec.AltIDs[1],
		rec.Category,
		rec.Price,
		rec.AsOf,
		u.now().UTC(),
	); err != nil {
		return fmt.Errorf("%w: can't upsert instrument", err)
	}

	if _, ok := tracked[rec.Code]; !ok {
		return nil
	}
	if _, err := tx.ExecContext(ctx, _insertPricePoint, rec.Code, rec.AsOf, rec.Price); err != nil {
		return fmt.Errorf("%w: can't insert price point", err)
	}

	return nil
}
