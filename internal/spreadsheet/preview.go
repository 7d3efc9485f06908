// Package spreadsheet pre-fills a VAT return from an uploaded workbook by
// reading the boxes directly from given cell addresses on the first sheet.
package spreadsheet

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"vatfiler/pkg/logging"
)

// CellMap gives the cell address of each box that is read. Boxes 3 and 5
// are derived.
type CellMap struct {
	Box1 string
	Box2 string
	Box4 string
	Box6 string
	Box7 string
	Box8 string
	Box9 string
}

// Missing returns the names of boxes without an address.
func (m CellMap) Missing() []string {
	var missing []string
	for _, b := range []struct {
		name, addr string
	}{
		{"box1", m.Box1}, {"box2", m.Box2}, {"box4", m.Box4},
		{"box6", m.Box6}, {"box7", m.Box7}, {"box8", m.Box8}, {"box9", m.Box9},
	} {
		if strings.TrimSpace(b.addr) == "" {
			missing = append(missing, b.name)
		}
	}
	return missing
}

// Preview is a nine-box return computed from a workbook. Monetary boxes
// 1 to 5 carry pence; boxes 6 to 9 are whole pounds.
type Preview struct {
	VatDueSales                  float64 `json:"vatDueSales"`
	VatDueAcquisitions           float64 `json:"vatDueAcquisitions"`
	TotalVatDue                  float64 `json:"totalVatDue"`
	VatReclaimedCurrPeriod       float64 `json:"vatReclaimedCurrPeriod"`
	NetVatDue                    float64 `json:"netVatDue"`
	TotalValueSalesExVAT         int64   `json:"totalValueSalesExVAT"`
	TotalValuePurchasesExVAT     int64   `json:"totalValuePurchasesExVAT"`
	TotalValueGoodsSuppliedExVAT int64   `json:"totalValueGoodsSuppliedExVAT"`
	TotalAcquisitionsExVAT       int64   `json:"totalAcquisitionsExVAT"`
}

// Read opens an xlsx workbook from r and computes the preview. Cells that
// are missing, empty or not numeric count as zero.
func Read(r io.Reader, cells CellMap) (Preview, error) {
	f, err := excelize.OpenReader(r, excelize.Options{RawCellValue: true})
	if err != nil {
		return Preview{}, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("Spreadsheet", "Failed to close workbook: %v", err)
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Preview{}, fmt.Errorf("workbook has no sheets")
	}
	sheet := sheets[f.GetActiveSheetIndex()%len(sheets)]

	value := func(addr string) float64 {
		return cellNumber(f, sheet, addr)
	}

	box1 := value(cells.Box1)
	box2 := value(cells.Box2)
	box4 := value(cells.Box4)
	box3 := box1 + box2
	box5 := box3 - box4

	preview := Preview{
		VatDueSales:                  round2(box1),
		VatDueAcquisitions:           round2(box2),
		TotalVatDue:                  round2(box3),
		VatReclaimedCurrPeriod:       round2(box4),
		NetVatDue:                    round2(box5),
		TotalValueSalesExVAT:         int64(value(cells.Box6)),
		TotalValuePurchasesExVAT:     int64(value(cells.Box7)),
		TotalValueGoodsSuppliedExVAT: int64(value(cells.Box8)),
		TotalAcquisitionsExVAT:       int64(value(cells.Box9)),
	}

	logging.Debug("Spreadsheet", "Computed preview from sheet %q", sheet)
	return preview, nil
}

func cellNumber(f *excelize.File, sheet, addr string) float64 {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return 0
	}
	raw, err := f.GetCellValue(sheet, addr)
	if err != nil {
		logging.Debug("Spreadsheet", "Cannot read cell %q: %v", addr, err)
		return 0
	}
	return parseNumber(raw)
}

// parseNumber accepts plain numbers and numbers with thousands separators.
func parseNumber(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if v, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		return v
	}
	if v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		return v
	}
	return 0
}

func round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}
