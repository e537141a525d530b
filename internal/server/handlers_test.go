package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/STTM-NSU/fund-tracker/internal/logger"
	"github.com/STTM-NSU/fund-tracker/internal/model"
	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePortfolio struct {
	summary  *model.PortfolioSummary
	realized []model.FinancialYearRealized
	err      error
	account  string
	kinds    []model.LotKind
}

func (f *fakePortfolio) Summary(_ context.Context, account string, kinds ...model.LotKind) (*model.PortfolioSummary, error) {
	f.account, f.kinds = account, kinds
	return f.summary, f.err
}

func (f *fakePortfolio) Realized(_ context.Context, account string, kinds ...model.LotKind) ([]model.FinancialYearRealized, error) {
	f.account, f.kinds = account, kinds
	return f.realized, f.err
}

type fakeSyncer struct {
	started chan struct{}
	release chan struct{}
	err     error
}

func (f *fakeSyncer) Run(ctx context.Context) (model.SyncReport, error) {
	if f.started != nil {
		close(f.started)
		<-f.release
	}
	return model.SyncReport{RunID: "run-1", Processed: 3}, f.err
}

func serve(t *testing.T, h *Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestHealth(t *testing.T) {
	h := NewHandler(&fakePortfolio{}, nil, time.Second, logger.NewNop())

	rec := serve(t, h, http.MethodGet, "/api/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestPortfolio(t *testing.T) {
	p := &fakePortfolio{summary: &model.PortfolioSummary{TotalInvested: 1000, TotalCurrentValue: 1100}}
	h := NewHandler(p, nil, time.Second, logger.NewNop())

	rec := serve(t, h, http.MethodGet, "/api/portfolio?account=Family")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Family", p.account)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got model.PortfolioSummary
	require.NoError(t, sonic.ConfigDefault.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 1100.0, got.TotalCurrentValue)
}

func TestPortfolioKindFilter(t *testing.T) {
	p := &fakePortfolio{summary: &model.PortfolioSummary{}}
	h := NewHandler(p, nil, time.Second, logger.NewNop())

	rec := serve(t, h, http.MethodGet, "/api/portfolio?type=sip")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []model.LotKind{model.SIP}, p.kinds)

	rec = serve(t, h, http.MethodGet, "/api/portfolio?type=all")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, p.kinds)

	rec = serve(t, h, http.MethodGet, "/api/realized?type=LUMPSUM")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []model.LotKind{model.Lumpsum}, p.kinds)
}

func TestPortfolioBadKind(t *testing.T) {
	p := &fakePortfolio{summary: &model.PortfolioSummary{}}
	h := NewHandler(p, nil, time.Second, logger.NewNop())

	rec := serve(t, h, http.MethodGet, "/api/portfolio?type=dividend")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown investment kind")
}

func TestPortfolioEmpty(t *testing.T) {
	h := NewHandler(&fakePortfolio{}, nil, time.Second, logger.NewNop())

	rec := serve(t, h, http.MethodGet, "/api/portfolio")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"no investments recorded"}`, rec.Body.String())
}

func TestRealizedError(t *testing.T) {
	h := NewHandler(&fakePortfolio{err: errors.New("db down")}, nil, time.Second, logger.NewNop())

	rec := serve(t, h, http.MethodGet, "/api/realized")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db down")
}

func TestRealizedEmptyList(t *testing.T) {
	h := NewHandler(&fakePortfolio{}, nil, time.Second, logger.NewNop())

	rec := serve(t, h, http.MethodGet, "/api/realized")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestMethodNotAllowed(t *testing.T) {
	h := NewHandler(&fakePortfolio{}, &fakeSyncer{}, time.Second, logger.NewNop())

	rec := serve(t, h, http.MethodGet, "/api/sync")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSync(t *testing.T) {
	h := NewHandler(&fakePortfolio{}, &fakeSyncer{}, time.Second, logger.NewNop())

	rec := serve(t, h, http.MethodPost, "/api/sync")
	require.Equal(t, http.StatusOK, rec.Code)

	var got model.SyncReport
	require.NoError(t, sonic.ConfigDefault.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, 3, got.Processed)
}

func TestSyncDisabled(t *testing.T) {
	h := NewHandler(&fakePortfolio{}, nil, time.Second, logger.NewNop())

	rec := serve(t, h, http.MethodPost, "/api/sync")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSyncFailure(t *testing.T) {
	h := NewHandler(&fakePortfolio{}, &fakeSyncer{err: errors.New("feed unavailable")}, time.Second, logger.NewNop())

	rec := serve(t, h, http.MethodPost, "/api/sync")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "feed unavailable")
}

func TestSyncAlreadyRunning(t *testing.T) {
	s := &fakeSyncer{started: make(chan struct{}), release: make(chan struct{})}
	h := NewHandler(&fakePortfolio{}, s, time.Second, logger.NewNop())
	routes := h.Routes()

	var wg sync.WaitGroup
	first := httptest.NewRecorder()
	wg.Add(1)
	go func() {
		defer wg.Done()
		routes.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/api/sync", nil))
	}()
	<-s.started

	second := httptest.NewRecorder()
	routes.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/api/sync", nil))
	assert.Equal(t, http.StatusConflict, second.Code)

	close(s.release)
	wg.Wait()
	assert.Equal(t, http.StatusOK, first.Code)
}

func TestHTTPServerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := NewHTTPServer(ctx, "0", http.NotFoundHandler())

	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
