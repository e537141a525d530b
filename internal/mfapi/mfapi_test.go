package mfapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/STTM-NSU/fund-tracker/internal/config"
	"github.com/STTM-NSU/fund-tracker/internal/logger"
	"github.com/STTM-NSU/fund-tracker/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const _historyBody = `{
  "meta": {
    "fund_house": "Aditya Birla Sun Life Mutual Fund",
    "scheme_type": "Open Ended Schemes",
    "scheme_category": "Equity Scheme - Large Cap Fund",
    "scheme_code": 119551,
    "scheme_name": "Aditya Birla Sun Life Frontline Equity Fund - Direct Growth"
  },
  "data": [
    {"date": "05-03-2024", "nav": "512.34560"},
    {"date": "04-03-2024", "nav": "510.00000"},
    {"date": "04-03-2024", "nav": "509.00000"},
    {"date": "2024-03-01", "nav": "500.0"},
    {"date": "01-03-2024", "nav": "N.A."}
  ],
  "status": "SUCCESS"
}`

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c := NewClient(config.HistoryConfig{
		Address:           srv.URL,
		HistoryTimeout:    time.Second,
		MetaTimeout:       time.Second,
		RequestsPerMinute: 6000,
	}, logger.NewNop())
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestHistory(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/mf/119551", r.URL.Path)
		writeJSON(w, http.StatusOK, _historyBody)
	})

	res, err := c.History(context.Background(), "119551")
	require.NoError(t, err)
	assert.Equal(t, "Equity Scheme - Large Cap Fund", res.Meta.SchemeCategory)
	assert.Equal(t, "Aditya Birla Sun Life Mutual Fund", res.Meta.FundHouse)
	assert.Len(t, res.Data, 5)

	points := ParseHistory("119551", res)
	require.Len(t, points, 2)
	assert.Equal(t, model.PricePoint{Code: "119551", Date: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), Price: 512.3456}, points[0])
	assert.Equal(t, 510.0, points[1].Price)
}

func TestLatest(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/mf/119551/latest", r.URL.Path)
		writeJSON(w, http.StatusOK, `{"meta":{"fund_house":"ABSL","scheme_category":"Equity Scheme - Large Cap Fund","scheme_name":"x"},"data":[{"date":"05-03-2024","nav":"512.3"}],"status":"SUCCESS"}`)
	})

	res, err := c.Latest(context.Background(), "119551")
	require.NoError(t, err)
	assert.Equal(t, "ABSL", res.Meta.FundHouse)
}

func TestNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/mf/1" {
			writeJSON(w, http.StatusNotFound, `{"status":"ERROR","message":"not found"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"meta":{},"data":[],"status":"SUCCESS"}`)
	})

	_, err := c.History(context.Background(), "1")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.History(context.Background(), "2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServerErrorAndMalformed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/mf/1" {
			writeJSON(w, http.StatusInternalServerError, `{"status":"ERROR","message":"boom"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"meta": {`)
	})

	_, err := c.History(context.Background(), "1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "boom")

	_, err = c.History(context.Background(), "2")
	assert.Error(t, err)
}

func TestParseHistoryNil(t *testing.T) {
	assert.Nil(t, ParseHistory("1", nil))
}
