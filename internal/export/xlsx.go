package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joineryai/quote-engine/internal/entity"
)

// Service produces XLSX bytes for client-facing quotes.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// QuoteXLSX returns an XLSX workbook (as bytes) for a client-facing quote:
// one row per priced line, followed by the subtotal, VAT and grand total.
func (s *Service) QuoteXLSX(quote entity.ClientFacingQuote) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Quote"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		_, err := f.NewSheet(sheet)
		if err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Description",
		"Qty",
		"Unit Price",
		"Line Total",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	write := func(col, row int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}

	row := 2
	for _, line := range quote.Lines {
		write(1, row, line.Description)
		write(2, row, line.Qty)
		write(3, row, line.UnitPriceMarkedUp)
		write(4, row, line.TotalMarkedUp)
		row++
	}

	row++
	write(3, row, "Subtotal")
	write(4, row, quote.Subtotal)
	row++
	write(3, row, fmt.Sprintf("VAT (%.0f%%)", quote.VATPercent))
	write(4, row, quote.VATAmount)
	row++
	write(3, row, "Total")
	write(4, row, quote.GrandTotal)

	_ = f.SetColWidth(sheet, "A", "A", 48) // description
	_ = f.SetColWidth(sheet, "B", "B", 8)  // qty
	_ = f.SetColWidth(sheet, "C", "D", 14) // amounts

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"currency", quote.Currency,
		"rows", len(quote.Lines),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
