package exchange

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Settings holds the connection parameters shared by every adapter. Venue
// packages embed it in their own settings struct and add venue-specific
// fields. Settings is a value type and is never mutated after construction;
// rotating a credential means building a new adapter from new Settings.
type Settings struct {
	APIKey    string
	APISecret string

	// BaseURL overrides the venue's default endpoint. Optional.
	BaseURL string
	// Timeout bounds every HTTP request. Defaults to 30s when unset.
	Timeout time.Duration
	// Testnet selects the venue's test environment where one exists.
	Testnet bool
}

// DefaultTimeout is applied when a settings map carries no timeout.
const DefaultTimeout = 30 * time.Second

// String renders the settings with secrets redacted. Settings must never
// reach logs or error messages in cleartext.
func (s Settings) String() string {
	return fmt.Sprintf("Settings{APIKey:%s APISecret:%s BaseURL:%s Timeout:%s Testnet:%t}",
		redact(s.APIKey), redact(s.APISecret), s.BaseURL, s.Timeout, s.Testnet)
}

// GoString prevents %#v from leaking secrets.
func (s Settings) GoString() string {
	return s.String()
}

func redact(secret string) string {
	if secret == "" {
		return "<unset>"
	}
	return "<redacted>"
}

// Values wraps a string-keyed configuration map and accumulates validation
// failures while typed fields are pulled out of it. After all accessors ran,
// Err() reports every missing or malformed field at once as a single
// configuration error, before any network call is attempted.
type Values struct {
	exchangeName string
	raw          map[string]string
	problems     []string
}

// NewValues wraps cfg for the named exchange.
func NewValues(exchangeName string, cfg map[string]string) *Values {
	return &Values{exchangeName: exchangeName, raw: cfg}
}

// ValuesFromEnv builds a settings map from environment variables carrying the
// given prefix. "BINANCE_API_KEY" becomes "api_key" under prefix "BINANCE_".
func ValuesFromEnv(prefix string) map[string]string {
	cfg := make(map[string]string)
	for _, entry := range os.Environ() {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || !strings.HasPrefix(key, prefix) {
			continue
		}
		cfg[strings.ToLower(strings.TrimPrefix(key, prefix))] = value
	}
	return cfg
}

// Require returns the named field and records a problem when it is absent
// or empty.
func (v *Values) Require(key string) string {
	value := strings.TrimSpace(v.raw[key])
	if value == "" {
		v.problems = append(v.problems, fmt.Sprintf("required field %q is missing", key))
	}
	return value
}

// String returns the named field or fallback when absent.
func (v *Values) String(key, fallback string) string {
	value := strings.TrimSpace(v.raw[key])
	if value == "" {
		return fallback
	}
	return value
}

// Duration parses the named field as a Go duration string.
func (v *Values) Duration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(v.raw[key])
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		v.problems = append(v.problems, fmt.Sprintf("field %q: invalid duration %q", key, value))
		return fallback
	}
	if d <= 0 {
		v.problems = append(v.problems, fmt.Sprintf("field %q: duration must be positive", key))
		return fallback
	}
	return d
}

// Bool parses the named field as a boolean.
func (v *Values) Bool(key string, fallback bool) bool {
	value := strings.TrimSpace(v.raw[key])
	if value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		v.problems = append(v.problems, fmt.Sprintf("field %q: invalid boolean %q", key, value))
		return fallback
	}
	return b
}

// URL parses the named field as an absolute http(s) URL.
func (v *Values) URL(key, fallback string) string {
	value := strings.TrimSpace(v.raw[key])
	if value == "" {
		return fallback
	}
	u, err := url.Parse(value)
	if err != nil || u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		v.problems = append(v.problems, fmt.Sprintf("field %q: invalid URL %q", key, value))
		return fallback
	}
	return strings.TrimRight(value, "/")
}

// Err returns a single configuration error covering every recorded problem,
// or nil when all accessors succeeded.
func (v *Values) Err() error {
	if len(v.problems) == 0 {
		return nil
	}
	return NewError(KindConfiguration, v.exchangeName, strings.Join(v.problems, "; "))
}

// BaseSettings pulls the shared fields out of a settings map. Venue packages
// call it from their own FromMap constructors and then read any extra fields
// through the same Values before checking Err.
func BaseSettings(v *Values) Settings {
	return Settings{
		APIKey:    v.Require("api_key"),
		APISecret: v.Require("api_secret"),
		BaseURL:   v.URL("base_url", ""),
		Timeout:   v.Duration("timeout", DefaultTimeout),
		Testnet:   v.Bool("testnet", false),
	}
}
