// Package export writes account data snapshots to Excel workbooks.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/ducminhle1904/exchange-gateway/pkg/types"
)

// ExcelReporter writes trade and balance reports.
type ExcelReporter struct{}

// NewExcelReporter creates a new Excel reporter.
func NewExcelReporter() *ExcelReporter {
	return &ExcelReporter{}
}

type excelStyles struct {
	header  int
	numeric int
	text    int
}

// WriteTradesXLSX writes the account's fills and balances for one venue to
// an Excel workbook at path, creating parent directories as needed.
func (r *ExcelReporter) WriteTradesXLSX(exchangeName string, trades []types.Trade, balances map[string]types.Balance, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	const tradesSheet = "Trades"
	const balancesSheet = "Balances"

	fx.SetSheetName(fx.GetSheetName(0), tradesSheet)
	if _, err := fx.NewSheet(balancesSheet); err != nil {
		return err
	}

	styles, err := r.createStyles(fx)
	if err != nil {
		return err
	}

	if err := r.writeTradesSheet(fx, tradesSheet, exchangeName, trades, styles); err != nil {
		return err
	}
	if err := r.writeBalancesSheet(fx, balancesSheet, balances, styles); err != nil {
		return err
	}

	return fx.SaveAs(path)
}

func (r *ExcelReporter) createStyles(fx *excelize.File) (excelStyles, error) {
	var styles excelStyles
	var err error

	styles.header, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:   true,
			Size:   11,
			Color:  "FFFFFF",
			Family: "Calibri",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"2F4F4F"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return styles, err
	}

	styles.numeric, err = fx.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "right"},
	})
	if err != nil {
		return styles, err
	}

	styles.text, err = fx.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "left"},
	})
	return styles, err
}

func (r *ExcelReporter) writeTradesSheet(fx *excelize.File, sheet, exchangeName string, trades []types.Trade, styles excelStyles) error {
	headers := []string{"Exchange", "Trade ID", "Order ID", "Symbol", "Side", "Quantity", "Price", "Fee", "Fee Asset", "Time"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := fx.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		if err := fx.SetCellStyle(sheet, cell, cell, styles.header); err != nil {
			return err
		}
	}

	for row, trade := range trades {
		values := []interface{}{
			exchangeName,
			trade.ID,
			trade.OrderID,
			trade.Symbol.String(),
			string(trade.Side),
			trade.Quantity.String(),
			trade.Price.String(),
			trade.Fee.String(),
			trade.FeeAsset,
			trade.Time.Format("2006-01-02 15:04:05"),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return err
			}
			if err := fx.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}

	if err := fx.SetColWidth(sheet, "A", "E", 14); err != nil {
		return err
	}
	return fx.SetColWidth(sheet, "F", "J", 20)
}

func (r *ExcelReporter) writeBalancesSheet(fx *excelize.File, sheet string, balances map[string]types.Balance, styles excelStyles) error {
	headers := []string{"Asset", "Available", "Locked", "Total"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := fx.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		if err := fx.SetCellStyle(sheet, cell, cell, styles.header); err != nil {
			return err
		}
	}

	assets := make([]string, 0, len(balances))
	for asset := range balances {
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	for row, asset := range assets {
		balance := balances[asset]
		values := []interface{}{
			balance.Asset,
			balance.Available.String(),
			balance.Locked.String(),
			balance.Total().String(),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return err
			}
			if err := fx.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}
	return fx.SetColWidth(sheet, "A", "D", 16)
}
