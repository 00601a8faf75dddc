package textextract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/joineryai/quote-engine/internal/entity"
	"github.com/joineryai/quote-engine/internal/extract"
)

// nativePrimary extracts the PDF text layer row by row, which preserves the
// physical line structure the table walker depends on.
type nativePrimary struct{}

// NewNativePrimary returns the first-choice native text-layer strategy.
func NewNativePrimary() extract.Strategy {
	return nativePrimary{}
}

func (nativePrimary) Name() entity.TextSource {
	return entity.SourceNativePrimary
}

func (nativePrimary) Extract(_ context.Context, data []byte) (text string, err error) {
	// The upstream reader panics on some malformed xref tables.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var sb strings.Builder
	for pageNr := 1; pageNr <= r.NumPage(); pageNr++ {
		page := r.Page(pageNr)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		for _, row := range rows {
			var line strings.Builder
			for _, word := range row.Content {
				if line.Len() > 0 && !strings.HasSuffix(line.String(), " ") {
					line.WriteByte(' ')
				}
				line.WriteString(word.S)
			}
			if trimmed := strings.TrimRight(line.String(), " "); trimmed != "" {
				sb.WriteString(trimmed)
				sb.WriteByte('\n')
			}
		}
		sb.WriteByte('\n')
	}

	return strings.TrimSpace(sb.String()), nil
}
