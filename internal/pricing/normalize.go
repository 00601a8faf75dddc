package pricing

import (
	"strconv"
	"strings"

	"github.com/joineryai/quote-engine/internal/entity"
)

// NormalizeLineItems coerces loosely-typed line item maps into entity.LineItem
// values. Callers submit items from different sources with inconsistent key
// names, so costUnit/lineTotal are accepted as synonyms of unit_price/total.
// Malformed numeric fields become zero rather than failing the request.
func NormalizeLineItems(raw []map[string]any) []entity.LineItem {
	out := make([]entity.LineItem, 0, len(raw))
	for _, item := range raw {
		line := entity.LineItem{
			Description: stringField(item, "description", "desc", "item"),
			Qty:         numberField(item, "qty", "quantity"),
			UnitPrice:   numberField(item, "unit_price", "costUnit", "unitPrice"),
			Total:       numberField(item, "total", "lineTotal"),
		}
		if line.Qty == 0 {
			line.Qty = 1
		}
		if line.Total == 0 && line.UnitPrice > 0 {
			line.Total = line.UnitPrice * line.Qty
		}
		if line.UnitPrice == 0 && line.Total > 0 && line.Qty > 0 {
			line.UnitPrice = line.Total / line.Qty
		}
		out = append(out, line)
	}
	return out
}

func stringField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s, ok := v.(string); ok {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

func numberField(m map[string]any, keys ...string) float64 {
	for _, k := range keys {
		v, ok := m[k]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n
		case float32:
			return float64(n)
		case int:
			return float64(n)
		case int64:
			return float64(n)
		case string:
			cleaned := strings.TrimSpace(strings.NewReplacer(",", "", "£", "", "$", "", "€", "").Replace(n))
			if f, err := strconv.ParseFloat(cleaned, 64); err == nil {
				return f
			}
		}
	}
	return 0
}
