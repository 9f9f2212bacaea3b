package bybit

import (
	bybit_api "github.com/bybit-exchange/bybit.go.api"

	"github.com/ducminhle1904/exchange-gateway/internal/exchange"
)

// demoBaseURL is Bybit's paper-trading environment. It shares mainnet market
// data but isolates account state.
const demoBaseURL = "https://api-demo.bybit.com"

// Settings configures the Bybit adapter. Demo and testnet are distinct
// environments and cannot be combined.
type Settings struct {
	exchange.Settings

	Demo bool
}

// SettingsFromMap validates a string-keyed settings map eagerly. Missing or
// malformed fields fail here with a configuration error; no network call is
// made.
//
// Recognized keys: api_key, api_secret (required); base_url, timeout,
// testnet, demo (optional).
func SettingsFromMap(cfg map[string]string) (Settings, error) {
	v := exchange.NewValues(Name, cfg)

	s := Settings{
		Settings: exchange.BaseSettings(v),
		Demo:     v.Bool("demo", false),
	}
	if err := v.Err(); err != nil {
		return Settings{}, err
	}

	if s.Testnet && s.Demo {
		return Settings{}, exchange.NewError(exchange.KindConfiguration, Name,
			"testnet and demo are mutually exclusive")
	}

	if s.BaseURL == "" {
		switch {
		case s.Demo:
			s.BaseURL = demoBaseURL
		case s.Testnet:
			s.BaseURL = bybit_api.TESTNET
		default:
			s.BaseURL = bybit_api.MAINNET
		}
	}
	return s, nil
}
