package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/wonny/aegis-screener/internal/contracts"
)

const (
	stocksSheet  = "Stocks"
	summarySheet = "Summary"
)

// column is one exported field of a ranked result
type column struct {
	header string
	width  float64
	value  func(r *contracts.FilterResult) interface{}
}

// 비율 필드는 % 단위로 변환 (0.15 → 15)
var columns = []column{
	{"Rank", 6, func(r *contracts.FilterResult) interface{} { return r.Rank }},
	{"Symbol", 10, func(r *contracts.FilterResult) interface{} { return r.Symbol }},
	{"Name", 32, func(r *contracts.FilterResult) interface{} { return r.Name }},
	{"Sector", 22, func(r *contracts.FilterResult) interface{} { return r.Sector }},
	{"Industry", 28, func(r *contracts.FilterResult) interface{} { return r.Industry }},
	{"Price", 10, func(r *contracts.FilterResult) interface{} { return r.Price }},
	{"Score", 8, func(r *contracts.FilterResult) interface{} { return r.CompositeScore }},
	{"RSI", 8, func(r *contracts.FilterResult) interface{} { return optional(r.RSI14, 1) }},
	{"Price/52w High %", 16, func(r *contracts.FilterResult) interface{} { return optional(r.PriceVs52wHigh, 100) }},
	{"Revenue Growth %", 16, func(r *contracts.FilterResult) interface{} { return optional(r.RevenueGrowth, 100) }},
	{"EPS Growth %", 14, func(r *contracts.FilterResult) interface{} { return optional(r.EPSGrowth, 100) }},
	{"Gross Margin %", 14, func(r *contracts.FilterResult) interface{} { return optional(r.GrossMargin, 100) }},
	{"Debt/Equity", 12, func(r *contracts.FilterResult) interface{} { return optional(r.DebtToEquity, 1) }},
	{"P/E", 8, func(r *contracts.FilterResult) interface{} { return optional(r.TrailingPE, 1) }},
	{"P/S", 8, func(r *contracts.FilterResult) interface{} { return optional(r.PriceToSales, 1) }},
	{"Market Cap", 18, func(r *contracts.FilterResult) interface{} { return optional(r.MarketCap, 1) }},
	{"Avg Volume", 14, func(r *contracts.FilterResult) interface{} { return optional(r.AvgVolume20, 1) }},
}

// Columns returns the header row of the stocks sheet
func Columns() []string {
	headers := make([]string, len(columns))
	for i, c := range columns {
		headers[i] = c.header
	}
	return headers
}

// WriteXLSX writes a run as a workbook with a ranked stocks sheet and a
// run summary sheet
// ⭐ SSOT: 스크리닝 결과 엑셀 내보내기는 여기서만
func WriteXLSX(w io.Writer, run *contracts.ScreeningRun) error {
	if run == nil {
		return fmt.Errorf("export: no screening run")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", stocksSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}

	if err := writeStocks(f, run.Stocks); err != nil {
		return err
	}
	if err := writeSummary(f, run); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeStocks(f *excelize.File, stocks []contracts.FilterResult) error {
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for i, c := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(stocksSheet, cell, c.header); err != nil {
			return err
		}
		name, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(stocksSheet, name, name, c.width); err != nil {
			return err
		}
	}

	last, _ := excelize.CoordinatesToCellName(len(columns), 1)
	if err := f.SetCellStyle(stocksSheet, "A1", last, bold); err != nil {
		return err
	}

	for row := range stocks {
		for col, c := range columns {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(stocksSheet, cell, c.value(&stocks[row])); err != nil {
				return fmt.Errorf("write %s: %w", cell, err)
			}
		}
	}

	return f.SetPanes(stocksSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func writeSummary(f *excelize.File, run *contracts.ScreeningRun) error {
	rows := [][]interface{}{
		{"Run ID", run.RunID},
		{"Timestamp", run.Timestamp.UTC().Format(time.RFC3339)},
		{"Universe", run.Universe.Label()},
		{"Total Screened", run.TotalScreened},
		{"Candidates", run.Candidates},
		{"Hydrated", run.Hydrated},
		{"Passed Filters", run.PassedFilters},
		{"Selected", len(run.Stocks)},
		{"Strategy Hash", run.StrategyHash},
		{"Duration (ms)", run.DurationMs},
	}

	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}
	return f.SetColWidth(summarySheet, "A", "B", 24)
}

// optional scales a present value and leaves absent cells empty
func optional(p *float64, scale float64) interface{} {
	if p == nil {
		return ""
	}
	return *p * scale
}
