package export

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ducminhle1904/exchange-gateway/pkg/types"
)

// TestWriteTradesXLSX checks the workbook is created with both sheets and
// the trade rows round-trip.
func TestWriteTradesXLSX(t *testing.T) {
	symbol, err := types.NewSymbol("BTC", "USDT")
	require.NoError(t, err)

	trades := []types.Trade{
		{
			ID:       "1",
			OrderID:  "BTCUSDT:10",
			Symbol:   symbol,
			Side:     types.SideBuy,
			Quantity: decimal.RequireFromString("0.01"),
			Price:    decimal.RequireFromString("100.5"),
			Fee:      decimal.RequireFromString("0.001"),
			FeeAsset: "USDT",
			Time:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		},
	}
	balances := map[string]types.Balance{
		"BTC": {
			Asset:     "BTC",
			Available: decimal.RequireFromString("0.5"),
			Locked:    decimal.RequireFromString("0.1"),
		},
	}

	path := filepath.Join(t.TempDir(), "reports", "trades.xlsx")
	require.NoError(t, NewExcelReporter().WriteTradesXLSX("binance", trades, balances, path))

	fx, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer fx.Close()

	assert.ElementsMatch(t, []string{"Trades", "Balances"}, fx.GetSheetList())

	symbolCell, err := fx.GetCellValue("Trades", "D2")
	require.NoError(t, err)
	assert.Equal(t, "BTC/USDT", symbolCell)

	totalCell, err := fx.GetCellValue("Balances", "D2")
	require.NoError(t, err)
	assert.Equal(t, "0.6", totalCell)
}

func TestWriteTradesXLSX_EmptyTrades(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.xlsx")
	require.NoError(t, NewExcelReporter().WriteTradesXLSX("bybit", nil, nil, path))

	fx, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer fx.Close()

	header, err := fx.GetCellValue("Trades", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Exchange", header)
}
