package nav

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/STTM-NSU/fund-tracker/internal/logger"
	"github.com/STTM-NSU/fund-tracker/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(code string, price float64) model.FeedRecord {
	return model.FeedRecord{
		Code:     code,
		AltIDs:   [2]string{"INF" + code, ""},
		Name:     "Fund " + code,
		Price:    price,
		AsOf:     day("2024-03-04"),
		Category: "Equity Scheme",
	}
}

func expectInstrument(mock sqlmock.Sqlmock, rec model.FeedRecord) *sqlmock.ExpectedExec {
	return mock.ExpectExec(_upsertInstrument).WithArgs(
		rec.Code, rec.Name, rec.AltIDs[0], rec.AltIDs[1], rec.Category, rec.Price, rec.AsOf, sqlmock.AnyArg(),
	)
}

func TestUpserterApply(t *testing.T) {
	db, mock := newMockDB(t)
	u := NewUpserter(db, 2, logger.NewNop())
	u.now = func() time.Time { return day("2024-03-05") }

	recs := []model.FeedRecord{record("1", 10), record("2", 20), record("3", 30)}
	tracked := map[string]struct{}{"2": {}}

	mock.ExpectBegin()
	mock.ExpectExec(_savepoint).WillReturnResult(sqlmock.NewResult(0, 0))
	expectInstrument(mock, recs[0]).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(_releaseSavepoint).WillReturnResult(sqlmock.NewResult(0, 0))

	mock.ExpectExec(_savepoint).WillReturnResult(sqlmock.NewResult(0, 0))
	expectInstrument(mock, recs[1]).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(_insertPricePoint).WithArgs("2", recs[1].AsOf, 20.0).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(_releaseSavepoint).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectExec(_savepoint).WillReturnResult(sqlmock.NewResult(0, 0))
	expectInstrument(mock, recs[2]).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(_releaseSavepoint).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	n, err := u.Apply(context.Background(), slices.Values(recs), tracked)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpserterRollsBackFailingRecord(t *testing.T) {
	db, mock := newMockDB(t)
	u := NewUpserter(db, 100, logger.NewNop())

	recs := []model.FeedRecord{record("1", 10), record("2", 20)}
	tracked := map[string]struct{}{"1": {}, "2": {}}

	mock.ExpectBegin()
	mock.ExpectExec(_savepoint).WillReturnResult(sqlmock.NewResult(0, 0))
	expectInstrument(mock, recs[0]).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(_insertPricePoint).WithArgs("1", recs[0].AsOf, 10.0).WillReturnError(errors.New("value too long"))
	mock.ExpectExec(_rollbackSavepoint).WillReturnResult(sqlmock.NewResult(0, 0))

	mock.ExpectExec(_savepoint).WillReturnResult(sqlmock.NewResult(0, 0))
	expectInstrument(mock, recs[1]).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(_insertPricePoint).WithArgs("2", recs[1].AsOf, 20.0).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(_releaseSavepoint).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	n, err := u.Apply(context.Background(), slices.Values(recs), tracked)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpserterEmptyFeed(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	n, err := NewUpserter(db, 100, logger.NewNop()).Apply(context.Background(), slices.Values([]model.FeedRecord(nil)), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
