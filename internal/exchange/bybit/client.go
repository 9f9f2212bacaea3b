// Package bybit implements the exchange contract for Bybit spot markets on
// the v5 unified trading account API, through the official SDK. Symbol
// translation, pagination, and retCode classification live here and never
// leak to callers.
package bybit

import (
	"context"
	"encoding/json"
	"net/http"

	bybit_api "github.com/bybit-exchange/bybit.go.api"
	"go.uber.org/zap"

	"github.com/ducminhle1904/exchange-gateway/internal/exchange"
	"github.com/ducminhle1904/exchange-gateway/internal/exchange/ratelimit"
	"github.com/ducminhle1904/exchange-gateway/internal/exchange/retry"
)

// Name is the registry name of this adapter.
const Name = "bybit"

// category is fixed to spot markets; the unified contract does not cover
// derivatives.
const category = "spot"

// Bybit allows roughly 600 requests per 5 seconds per UID. A 600 rpm
// client-side budget keeps a wide margin for concurrent callers.
const requestBudgetPerMinute = 600

func init() {
	exchange.Register(Name, func(cfg map[string]string) (exchange.Exchange, error) {
		settings, err := SettingsFromMap(cfg)
		if err != nil {
			return nil, err
		}
		return New(settings), nil
	})
}

// Client is the Bybit adapter. It is safe for concurrent use: the SDK client
// and the symbol cache are both internally synchronized.
type Client struct {
	settings Settings
	api      *bybit_api.Client
	limiter  *ratelimit.Limiter
	retryCfg retry.Config
	logger   *zap.Logger

	symbols *symbolCache
}

// Option customizes a Client.
type Option func(*Client)

// WithLogger attaches a structured logger. The default discards logs.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New builds the adapter from validated settings. No network call is made
// until the first contract method runs.
func New(settings Settings, opts ...Option) *Client {
	api := bybit_api.NewBybitHttpClient(
		settings.APIKey,
		settings.APISecret,
		bybit_api.WithBaseURL(settings.BaseURL),
	)
	if settings.Timeout > 0 {
		api.HTTPClient = &http.Client{Timeout: settings.Timeout}
	}
	c := &Client{
		settings: settings,
		api:      api,
		limiter:  ratelimit.NewLimiter(Name, requestBudgetPerMinute),
		retryCfg: retry.DefaultConfig(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.symbols = newSymbolCache(c)
	return c
}

// Name implements exchange.Exchange.
func (c *Client) Name() string {
	return Name
}

// Close implements exchange.Exchange. The SDK holds no resources that
// outlive its pooled transport.
func (c *Client) Close() error {
	return nil
}

// call issues one SDK request under the client-side rate limit and
// classifies every failure path onto the taxonomy.
func (c *Client) call(ctx context.Context, operation string, fn func(ctx context.Context) (*bybit_api.ServerResponse, error)) (*bybit_api.ServerResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, exchange.WrapError(exchange.KindUnavailable, Name, "rate limiter interrupted", err)
	}

	c.logger.Debug("dispatching request", zap.String("operation", operation))

	resp, err := fn(ctx)
	if err != nil {
		return nil, transportError(operation, err)
	}
	if apiErr := responseError(resp); apiErr != nil {
		return nil, apiErr
	}
	return resp, nil
}

// callRetried wraps an idempotent read in the bounded retry loop. Write
// calls never go through here.
func (c *Client) callRetried(ctx context.Context, operation string, fn func(ctx context.Context) (*bybit_api.ServerResponse, error)) (*bybit_api.ServerResponse, error) {
	var resp *bybit_api.ServerResponse
	err := retry.Do(ctx, c.retryCfg, func() error {
		var err error
		resp, err = c.call(ctx, operation, fn)
		return err
	})
	return resp, err
}

// decodeResult re-marshals the SDK's untyped result into the expected shape.
func decodeResult(operation string, resp *bybit_api.ServerResponse, out any) error {
	raw, err := json.Marshal(resp.Result)
	if err != nil {
		return parseError(operation, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return parseError(operation, err)
	}
	return nil
}
