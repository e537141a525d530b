package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/STTM-NSU/fund-tracker/internal/logger"
	"github.com/STTM-NSU/fund-tracker/internal/model"
	"github.com/STTM-NSU/fund-tracker/internal/valuation"
	"github.com/bytedance/sonic"
)

type Portfolio interface {
	Summary(ctx context.Context, account string, kinds ...model.LotKind) (*model.PortfolioSummary, error)
	Realized(ctx context.Context, account string, kinds ...model.LotKind) ([]model.FinancialYearRealized, error)
}

type SyncRunner interface {
	Run(ctx context.Context) (model.SyncReport, error)
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// Handler exposes portfolio reports and the price sync over HTTP.
type Handler struct {
	portfolio   Portfolio
	syncer      SyncRunner
	syncTimeout time.Duration
	syncMu      sync.Mutex

	logger logger.Logger
}

func NewHandler(portfolio Portfolio, syncer SyncRunner, syncTimeout time.Duration, logger logger.Logger) *Handler {
	return &Handler{
		portfolio:   portfolio,
		syncer:      syncer,
		syncTimeout: syncTimeout,
		logger:      logger,
	}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", h.handleHealth)
	mux.HandleFunc("GET /api/portfolio", h.handlePortfolio)
	mux.HandleFunc("GET /api/realized", h.handleRealized)
	mux.HandleFunc("POST /api/sync", h.handleSync)
	return mux
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	kinds, ok := kindFilter(w, r)
	if !ok {
		return
	}
	summary, err := h.portfolio.Summary(r.Context(), r.URL.Query().Get("account"), kinds...)
	if err != nil {
		h.logger.Errorf("%s: can't value portfolio", err)
		WriteError(w, http.StatusInternalServerError, "can't value portfolio")
		return
	}
	if summary == nil {
		WriteError(w, http.StatusNotFound, "no investments recorded")
		return
	}
	WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleRealized(w http.ResponseWriter, r *http.Request) {
	kinds, ok := kindFilter(w, r)
	if !ok {
		return
	}
	years, err := h.portfolio.Realized(r.Context(), r.URL.Query().Get("account"), kinds...)
	if err != nil {
		h.logger.Errorf("%s: can't compute realized gains", err)
		WriteError(w, http.StatusInternalServerError, "can't compute realized gains")
		return
	}
	if years == nil {
		years = []model.FinancialYearRealized{}
	}
	WriteJSON(w, http.StatusOK, years)
}

// kindFilter reads ?type=SIP|LUMPSUM|all and answers 400 on anything else.
func kindFilter(w http.ResponseWriter, r *http.Request) ([]model.LotKind, bool) {
	kinds, err := valuation.ParseKindFilter(r.URL.Query().Get("type"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return kinds, true
}

// handleSync runs one sync cycle; a second request while one is running
// gets 409.
func (h *Handler) handleSync(w http.ResponseWriter, r *http.Request) {
	if h.syncer == nil {
		WriteError(w, http.StatusServiceUnavailable, "sync is disabled")
		return
	}
	if !h.syncMu.TryLock() {
		WriteError(w, http.StatusConflict, "sync already running")
		return
	}
	defer h.syncMu.Unlock()

	ctx, cancel := context.WithTimeout(r.Context(), h.syncTimeout)
	defer cancel()

	res, err := h.syncer.Run(ctx)
	if err != nil {
		h.logger.Errorf("%s: sync failed", err)
		WriteError(w, http.StatusBadGateway, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(data)
}

func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message})
}
