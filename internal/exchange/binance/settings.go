package binance

import (
	"time"

	"github.com/ducminhle1904/exchange-gateway/internal/exchange"
)

const (
	mainnetBaseURL = "https://api.binance.com"
	testnetBaseURL = "https://testnet.binance.vision"

	defaultRecvWindow = 5 * time.Second
)

// Settings configures the Binance adapter. Only the recv window is specific
// to Binance; everything else is the shared connection contract.
type Settings struct {
	exchange.Settings

	// RecvWindow is the validity window Binance applies to signed
	// requests. Requests older than this are rejected server-side.
	RecvWindow time.Duration
}

// SettingsFromMap validates a string-keyed settings map eagerly. Missing or
// malformed fields fail here with a configuration error; no network call is
// made.
//
// Recognized keys: api_key, api_secret (required); base_url, timeout,
// testnet, recv_window (optional).
func SettingsFromMap(cfg map[string]string) (Settings, error) {
	v := exchange.NewValues(Name, cfg)

	s := Settings{
		Settings:   exchange.BaseSettings(v),
		RecvWindow: v.Duration("recv_window", defaultRecvWindow),
	}
	if err := v.Err(); err != nil {
		return Settings{}, err
	}

	if s.BaseURL == "" {
		if s.Testnet {
			s.BaseURL = testnetBaseURL
		} else {
			s.BaseURL = mainnetBaseURL
		}
	}
	return s, nil
}
