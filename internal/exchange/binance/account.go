package binance

import (
	"context"
	"encoding/json"

	"github.com/ducminhle1904/exchange-gateway/pkg/types"
)

// GetBalances returns every asset with a non-zero available or locked
// amount, keyed by asset code.
func (c *Client) GetBalances(ctx context.Context) (map[string]types.Balance, error) {
	payload, err := c.getRetried(ctx, "/api/v3/account", nil, true)
	if err != nil {
		return nil, err
	}

	var res struct {
		Balances []struct {
			Asset  string `json:"asset"`
			Free   string `json:"free"`
			Locked string `json:"locked"`
		} `json:"balances"`
	}
	if err := json.Unmarshal(payload, &res); err != nil {
		return nil, parseError("account", err)
	}

	balances := make(map[string]types.Balance)
	for _, b := range res.Balances {
		available, err := parseDecimal("free", b.Free)
		if err != nil {
			return nil, err
		}
		locked, err := parseDecimal("locked", b.Locked)
		if err != nil {
			return nil, err
		}
		if available.IsZero() && locked.IsZero() {
			continue
		}
		balances[b.Asset] = types.Balance{
			Asset:     b.Asset,
			Available: available,
			Locked:    locked,
		}
	}
	return balances, nil
}
