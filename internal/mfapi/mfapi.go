package mfapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/STTM-NSU/fund-tracker/internal/config"
	"github.com/STTM-NSU/fund-tracker/internal/logger"
	"github.com/STTM-NSU/fund-tracker/internal/model"
	"github.com/STTM-NSU/fund-tracker/internal/tools"
	"github.com/bytedance/sonic"
	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

const (
	DateLayout = "02-01-2006"

	_schemeURL       = "/mf/{code}"
	_schemeLatestURL = "/mf/{code}/latest"
)

var ErrNotFound = errors.New("scheme not found")

type Client struct {
	c       *resty.Client
	cfg     config.HistoryConfig
	limiter ratelimit.Limiter

	logger logger.Logger
}

func NewClient(cfg config.HistoryConfig, logger logger.Logger) *Client {
	client := resty.New().
		SetLogger(logger).
		SetBaseURL(cfg.Address).
		SetRetryCount(0).
		AddContentTypeDecoder("json", func(r io.Reader, v any) error {
			return sonic.ConfigDefault.NewDecoder(r).Decode(v)
		})

	return &Client{
		c:       client,
		cfg:     cfg,
		limiter: ratelimit.New(cfg.RequestsPerMinute, ratelimit.Per(time.Minute)),
		logger:  logger,
	}
}

func (c *Client) Close() error {
	return c.c.Close()
}

// History returns the full price history of a scheme, newest first as served.
// curl -X GET "https://api.mfapi.in/mf/119551"
func (c *Client) History(ctx context.Context, code string) (*model.SchemeResponse, error) {
	return c.get(ctx, _schemeURL, code, c.cfg.HistoryTimeout)
}

// Latest returns scheme metadata with the most recent price only.
func (c *Client) Latest(ctx context.Context, code string) (*model.SchemeResponse, error) {
	return c.get(ctx, _schemeLatestURL, code, c.cfg.MetaTimeout)
}

func (c *Client) get(ctx context.Context, url, code string, timeout time.Duration) (*model.SchemeResponse, error) {
	if code == "" {
		return nil, fmt.Errorf("empty scheme code")
	}
	c.limiter.Take()

	req := c.c.R().
		SetPathParam("code", code).
		SetExpectResponseContentType("application/json").
		SetResult(&model.SchemeResponse{}).
		SetError(&model.SchemeErrorResponse{}).
		SetTimeout(timeout).
		SetContext(ctx)

	resp, err := req.Get(url)
	if err != nil {
		return nil, fmt.Errorf("%w: can't send request for scheme %s", err, code)
	}
	defer resp.Body.Close()

	c.logger.Debugf("got response %s status: %s, %s", resp.Request.URL, resp.Status(), resp.Duration())

	if resp.IsError() {
		if resp.StatusCode() == 404 {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, code)
		}
		msg := resp.Status()
		if e, ok := resp.Error().(*model.SchemeErrorResponse); ok && e.Message != "" {
			msg = e.Message
		}
		return nil, fmt.Errorf("%s: scheme %s request error", msg, code)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("scheme %s unexpected request error: %s", code, resp.Status())
	}

	res, ok := resp.Result().(*model.SchemeResponse)
	if !ok || res == nil {
		return nil, fmt.Errorf("scheme %s: empty response", code)
	}
	if res.Meta.SchemeName == "" && len(res.Data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, code)
	}

	return res, nil
}

// ParseHistory converts the payload into price points, dropping malformed
// entries and repeated dates.
func ParseHistory(code string, res *model.SchemeResponse) []model.PricePoint {
	if res == nil {
		return nil
	}

	seen := make(map[time.Time]struct{}, len(res.Data))
	points := make([]model.PricePoint, 0, len(res.Data))
	for _, e := range res.Data {
		date, err := time.Parse(DateLayout, e.Date)
		if err != nil {
			continue
		}
		price, err := tools.ParseDecimal(e.NAV)
		if err != nil {
			continue
		}
		if _, ok := seen[date]; ok {
			continue
		}
		seen[date] = struct{}{}
		points = append(points, model.PricePoint{Code: code, Date: date, Price: price})
	}

	return points
}
