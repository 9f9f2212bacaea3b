package types

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Ticker is a point-in-time market snapshot for one symbol.
type Ticker struct {
	Symbol Symbol          `json:"symbol"`
	Bid    decimal.Decimal `json:"bid"`
	Ask    decimal.Decimal `json:"ask"`
	Last   decimal.Decimal `json:"last"`
	Time   time.Time       `json:"time"`
}

// Validate checks that bid does not cross ask when both are present.
func (t Ticker) Validate() error {
	if err := t.Symbol.Validate(); err != nil {
		return err
	}
	if t.Bid.IsPositive() && t.Ask.IsPositive() && t.Bid.GreaterThan(t.Ask) {
		return fmt.Errorf("ticker %s: bid %s above ask %s", t.Symbol, t.Bid, t.Ask)
	}
	return nil
}

// CandleInterval is a candlestick interval in normalized form.
type CandleInterval time.Duration

const (
	Interval1m  = CandleInterval(time.Minute)
	Interval5m  = CandleInterval(5 * time.Minute)
	Interval15m = CandleInterval(15 * time.Minute)
	Interval30m = CandleInterval(30 * time.Minute)
	Interval1h  = CandleInterval(time.Hour)
	Interval4h  = CandleInterval(4 * time.Hour)
	Interval1d  = CandleInterval(24 * time.Hour)
)

// Duration returns the interval as a time.Duration.
func (i CandleInterval) Duration() time.Duration {
	return time.Duration(i)
}

// Candle is a single OHLCV candlestick.
type Candle struct {
	OpenTime  time.Time       `json:"open_time"`
	CloseTime time.Time       `json:"close_time"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    decimal.Decimal `json:"volume"`
}

// Change returns close - open.
func (c Candle) Change() decimal.Decimal {
	return c.Close.Sub(c.Open)
}

// Range returns high - low.
func (c Candle) Range() decimal.Decimal {
	return c.High.Sub(c.Low)
}
