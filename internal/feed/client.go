package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/STTM-NSU/fund-tracker/internal/config"
	"github.com/STTM-NSU/fund-tracker/internal/logger"
	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

var ErrUnavailable = errors.New("price feed unavailable")

type Client struct {
	c       *resty.Client
	cfg     config.FeedConfig
	limiter ratelimit.Limiter

	logger logger.Logger
}

func NewClient(cfg config.FeedConfig, logger logger.Logger) *Client {
	client := resty.New().
		SetLogger(logger).
		SetTimeout(cfg.Timeout).
		SetRetryCount(0)

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

// Fetch downloads the whole bulk price document.
func (c *Client) Fetch(ctx context.Context) (string, error) {
	c.limiter.Take()

	resp, err := c.c.R().
		SetContext(ctx).
		Get(c.cfg.URL)
	if err != nil {
		return "", fmt.Errorf("%w: %w: can't download price feed", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	c.logger.Debugf("got response %s status: %s, %s", c.cfg.URL, resp.Status(), resp.Duration())

	if !resp.IsSuccess() {
		return "", fmt.Errorf("%w: unexpected status %s", ErrUnavailable, resp.Status())
	}

	return resp.String(), nil
}
