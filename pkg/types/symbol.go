package types

import (
	"fmt"
	"strings"
)

// Symbol identifies a tradable instrument in exchange-agnostic form.
// The zero Symbol means "unspecified" and is accepted by list-style calls
// that allow filtering by symbol.
type Symbol struct {
	Base  string `json:"base"`
	Quote string `json:"quote"`
}

// NewSymbol builds a normalized Symbol from base and quote assets.
func NewSymbol(base, quote string) (Symbol, error) {
	s := Symbol{
		Base:  strings.ToUpper(strings.TrimSpace(base)),
		Quote: strings.ToUpper(strings.TrimSpace(quote)),
	}
	if err := s.Validate(); err != nil {
		return Symbol{}, err
	}
	return s, nil
}

// ParseSymbol parses a "BASE/QUOTE" string into a Symbol.
func ParseSymbol(s string) (Symbol, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return Symbol{}, fmt.Errorf("invalid symbol %q: expected BASE/QUOTE", s)
	}
	return NewSymbol(parts[0], parts[1])
}

// Validate checks the Symbol invariants.
func (s Symbol) Validate() error {
	if s.Base == "" || s.Quote == "" {
		return fmt.Errorf("symbol requires both base and quote assets")
	}
	if s.Base == s.Quote {
		return fmt.Errorf("symbol base and quote must differ, got %s", s.Base)
	}
	return nil
}

// IsZero reports whether the Symbol is unspecified.
func (s Symbol) IsZero() bool {
	return s.Base == "" && s.Quote == ""
}

func (s Symbol) String() string {
	return s.Base + "/" + s.Quote
}

// SymbolInfo pairs a normalized Symbol with the venue's native spelling and
// the trading rules the venue enforces for it.
type SymbolInfo struct {
	Symbol Symbol      `json:"symbol"`
	Native string      `json:"native"`
	Rules  SymbolRules `json:"rules"`
}
