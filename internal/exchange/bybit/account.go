package bybit

import (
	"context"

	bybit_api "github.com/bybit-exchange/bybit.go.api"

	"github.com/ducminhle1904/exchange-gateway/pkg/types"
)

// accountType is fixed to the unified trading account; classic accounts are
// not supported by the v5 wallet endpoint this adapter uses.
const accountType = "UNIFIED"

// GetBalances returns every coin with a non-zero wallet balance, keyed by
// asset code.
func (c *Client) GetBalances(ctx context.Context) (map[string]types.Balance, error) {
	params := map[string]interface{}{
		"accountType": accountType,
	}
	resp, err := c.callRetried(ctx, "walletBalance", func(ctx context.Context) (*bybit_api.ServerResponse, error) {
		return c.api.NewUtaBybitServiceWithParams(params).GetAccountWallet(ctx)
	})
	if err != nil {
		return nil, err
	}
	return parseWalletBalances(resp)
}

// parseWalletBalances flattens the unified wallet's coin list. Locked is the
// margin committed to open orders; available is what the wallet reports as
// tradable, falling back to balance minus locked when the venue omits it.
func parseWalletBalances(resp *bybit_api.ServerResponse) (map[string]types.Balance, error) {
	var res struct {
		List []struct {
			AccountType string `json:"accountType"`
			Coin        []struct {
				Coin             string `json:"coin"`
				WalletBalance    string `json:"walletBalance"`
				AvailableToTrade string `json:"availableToTrade"`
				Locked           string `json:"locked"`
				TotalOrderIM     string `json:"totalOrderIM"`
			} `json:"coin"`
		} `json:"list"`
	}
	if err := decodeResult("walletBalance", resp, &res); err != nil {
		return nil, err
	}

	balances := make(map[string]types.Balance)
	for _, account := range res.List {
		for _, coin := range account.Coin {
			wallet, err := parseDecimal("walletBalance", coin.WalletBalance)
			if err != nil {
				return nil, err
			}
			if wallet.IsZero() {
				continue
			}

			locked, err := parseDecimal("locked", coin.Locked)
			if err != nil {
				return nil, err
			}
			if locked.IsZero() {
				if locked, err = parseDecimal("totalOrderIM", coin.TotalOrderIM); err != nil {
					return nil, err
				}
			}

			available, err := parseDecimal("availableToTrade", coin.AvailableToTrade)
			if err != nil {
				return nil, err
			}
			if available.IsZero() && wallet.GreaterThan(locked) {
				available = wallet.Sub(locked)
			}

			balances[coin.Coin] = types.Balance{
				Asset:     coin.Coin,
				Available: available,
				Locked:    locked,
			}
		}
	}
	return balances, nil
}
