// Package parser turns extracted quote text into structured line items and
// totals. Everything here is heuristic: individual lines that fail numeric
// parsing are skipped, and a document with zero extractable lines is a valid
// zero-confidence result, not an error.
package parser

import (
	"regexp"
	"strings"

	"github.com/joineryai/quote-engine/constants"
	"github.com/joineryai/quote-engine/internal/entity"
)

var (
	// tableContextRe recognizes that the cursor has entered a
	// table/quotation region. The multi-line walker only fires inside one,
	// to avoid false positives from arbitrary numbers in prose.
	tableContextRe = regexp.MustCompile(`(?i)\b(?:quotation|estimate|order\s+confirmation)\b|\b(?:description|item)\b[^\n]{0,80}\b(?:qty|quantity|price|amount|total)\b`)

	headerRowRe = regexp.MustCompile(`(?i)^\W*(?:description|item|quantity|qty|unit\s+price|price|amount|sub\s*-?\s*total|total)\b[\s|]*(?:description|item|quantity|qty|unit|price|amount|total|\s|\|)*$`)

	dateOnlyRe = regexp.MustCompile(`^(?:\d{1,2}[./-]\d{1,2}[./-]\d{2,4}|\d{1,2}\s+(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{4})$`)

	// Specification tokens that ride along with a description on their own
	// physical lines: dimensions, areas, weights.
	dimensionTokenRe = regexp.MustCompile(`(?i)^\d+\s*(?:x|×)\s*\d+\s*mm\b.*$`)
	areaTokenRe      = regexp.MustCompile(`(?i)^\d+(?:\.\d+)?\s*m(?:²|2)\b.*$`)
	weightTokenRe    = regexp.MustCompile(`(?i)^\d+(?:\.\d+)?\s*kg\b.*$`)

	qtyLineRe = regexp.MustCompile(`^(\d{1,4})\s*(?:pcs?\.?)?$`)

	// numberRowRe is the collapsed one-line variant some suppliers emit:
	// "<unit> <qty> pc. <total>".
	numberRowRe = regexp.MustCompile(`^(\d{1,3}(?:,\d{3})*(?:\.\d{2})?)\s+(\d+(?:\.\d+)?)\s*(?:pcs?\.?)?\s+(\d{1,3}(?:,\d{3})*(?:\.\d{2})?)$`)

	fixedChargeRe = regexp.MustCompile(`(?i)\b(?:delivery|carriage|shipping)\b`)

	nonItemKeywordRe = regexp.MustCompile(`(?i)\b(?:total|sub\s*-?\s*total|vat|tax|delivery|shipping|discount|payment|reference)\b`)

	productKeywordRe = regexp.MustCompile(`(?i)([A-Za-z][A-Za-z\s]*?(?:door|window|frame|installation|hardware|handle|lock|glass)[A-Za-z\s]*?)\s+[£$€]\s?(\d[\d,]*(?:\.\d{2})?)`)
	leadingQtyItemRe = regexp.MustCompile(`(?i)(\d+\s*(?:x\s*)?[A-Za-z][A-Za-z\s]+?)\s+[£$€]\s?(\d[\d,]*(?:\.\d{2})?)`)

	leadingIntRe = regexp.MustCompile(`^(\d+)\s*(?:x\s*)?`)
)

// ParseSupplier extracts line items, totals and metadata from supplier quote
// text. The three passes each only attempt lines the previous pass did not
// consume.
func ParseSupplier(text string) entity.ParsedSupplierQuote {
	out := entity.ParsedSupplierQuote{
		Lines:          []entity.LineItem{},
		DetectedTotals: []float64{},
	}
	if strings.TrimSpace(text) == "" {
		return out
	}

	lines := strings.Split(text, "\n")
	consumed := make([]bool, len(lines))

	items := walkTable(lines, consumed)
	items = append(items, matchLinePatterns(lines, consumed)...)
	if len(items) == 0 {
		items = freeformItems(text)
	}
	out.Lines = items

	out.Currency = detectCurrency(text, lines)
	out.Supplier = detectSupplierName(lines)
	out.DetectedTotals = detectLabeledTotals(text)

	// Estimated total policy: line items win outright; detected totals are a
	// weaker signal whose confidence grows with corroborating candidates.
	switch {
	case len(out.Lines) > 0:
		sum := 0.0
		for _, li := range out.Lines {
			sum += li.Total
		}
		sum = roundTo(sum, 2)
		out.EstimatedTotal = &sum
		out.Confidence = constants.ConfidenceLineItems
	case len(out.DetectedTotals) == 1:
		max := out.DetectedTotals[0]
		out.EstimatedTotal = &max
		out.Confidence = constants.ConfidenceSingleTotal
	case len(out.DetectedTotals) > 1:
		max := out.DetectedTotals[0]
		for _, v := range out.DetectedTotals[1:] {
			if v > max {
				max = v
			}
		}
		out.EstimatedTotal = &max
		out.Confidence = constants.ConfidenceMultiTotal
	}

	return out
}

// walkerState is the accumulated context of the multi-line table walk. It is
// local to each parse call so concurrent parses never share state.
type walkerState struct {
	descLines []string
	descIdx   []int
	specs     []string
	specIdx   []int
}

func (w *walkerState) reset() {
	w.descLines = w.descLines[:0]
	w.descIdx = w.descIdx[:0]
	w.specs = w.specs[:0]
	w.specIdx = w.specIdx[:0]
}

func (w *walkerState) description() string {
	desc := strings.Join(w.descLines, " ")
	if len(w.specs) > 0 {
		desc = strings.TrimSpace(desc + " " + strings.Join(w.specs, " "))
	}
	return strings.TrimSpace(desc)
}

// walkTable is Pass A: a stateful walk over physical lines that reassembles
// logical items spread across several of them (description, spec tokens,
// unit amount, quantity and total each on their own line).
func walkTable(lines []string, consumed []bool) []entity.LineItem {
	var items []entity.LineItem
	var st walkerState
	inTable := false

	emit := func(desc string, qty, unit, total float64, idx ...int) {
		if desc == "" || qty <= 0 || total <= 0 {
			return
		}
		items = append(items, entity.LineItem{
			Description: squeezeSpaces(desc),
			Qty:         qty,
			UnitPrice:   roundTo(unit, 2),
			Total:       roundTo(total, 2),
		})
		for _, i := range append(idx, st.descIdx...) {
			consumed[i] = true
		}
		for _, i := range st.specIdx {
			consumed[i] = true
		}
		st.reset()
	}

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}

		if !inTable {
			if tableContextRe.MatchString(line) {
				inTable = true
			}
			continue
		}

		// Headers and date-only lines are skipped without resetting the
		// accumulated description state.
		if headerRowRe.MatchString(line) || dateOnlyRe.MatchString(line) {
			continue
		}

		if dimensionTokenRe.MatchString(line) || areaTokenRe.MatchString(line) || weightTokenRe.MatchString(line) {
			st.specs = append(st.specs, line)
			st.specIdx = append(st.specIdx, i)
			continue
		}

		// Collapsed "<unit> <qty> pc. <total>" row.
		if m := numberRowRe.FindStringSubmatch(line); m != nil && len(st.descLines) > 0 {
			unit, ok1 := parseAmount(m[1])
			qty, ok2 := parseAmount(m[2])
			total, ok3 := parseAmount(m[3])
			if ok1 && ok2 && ok3 {
				emit(st.description(), qty, unit, total, i)
				continue
			}
		}

		if qtyLineRe.MatchString(line) {
			// A bare integer is only meaningful relative to a nearby amount;
			// leave it for the backward/forward scans.
			continue
		}

		if unit, ok := amountOnLine(line); ok {
			if item, last, found := resolveAmount(lines, consumed, i, unit, &st); found {
				items = append(items, item)
				for _, idx := range st.descIdx {
					consumed[idx] = true
				}
				for _, idx := range st.specIdx {
					consumed[idx] = true
				}
				st.reset()
				i = last
				continue
			}
			// Single fixed-charge amount with no quantity/total pair, e.g. a
			// flat delivery fee under its own heading.
			if desc := st.description(); desc != "" && fixedChargeRe.MatchString(desc) {
				emit(desc, 1, unit, unit, i)
			}
			continue
		}

		// A totals/VAT section ends the current item context. Delivery style
		// charges are the exception: they head a fixed-charge item.
		if nonItemKeywordRe.MatchString(line) {
			st.reset()
			if fixedChargeRe.MatchString(line) {
				st.descLines = append(st.descLines, line)
				st.descIdx = append(st.descIdx, i)
			}
			continue
		}

		// Anything else becomes pending description, most recent lines kept.
		st.descLines = append(st.descLines, line)
		st.descIdx = append(st.descIdx, i)
		if len(st.descLines) > 3 {
			st.descLines = st.descLines[1:]
			st.descIdx = st.descIdx[1:]
		}
	}

	return items
}

// resolveAmount tries to complete a line item around the unit amount found at
// lines[i]: a standalone integer quantity within a bounded window before the
// amount (or immediately after it), and a second amount (the total) further
// forward, skipping blank lines.
func resolveAmount(lines []string, consumed []bool, i int, unit float64, st *walkerState) (entity.LineItem, int, bool) {
	const window = 4

	desc := st.description()
	if desc == "" {
		return entity.LineItem{}, i, false
	}

	// Backward scan for quantity.
	qty := 0.0
	qtyIdx := -1
	for j := i - 1; j >= 0 && j >= i-window; j-- {
		line := strings.TrimSpace(lines[j])
		if line == "" || consumed[j] {
			continue
		}
		if m := qtyLineRe.FindStringSubmatch(line); m != nil {
			if v, ok := parseAmount(m[1]); ok {
				qty, qtyIdx = v, j
			}
			break
		}
	}

	next := i
	if qtyIdx < 0 {
		// Forward layout: amount, quantity, total.
		for j := i + 1; j < len(lines) && j <= i+window; j++ {
			line := strings.TrimSpace(lines[j])
			if line == "" {
				continue
			}
			if m := qtyLineRe.FindStringSubmatch(line); m != nil {
				if v, ok := parseAmount(m[1]); ok {
					qty, qtyIdx = v, j
					next = j
				}
			}
			break
		}
		if qtyIdx < 0 {
			return entity.LineItem{}, i, false
		}
	}

	// Forward scan for the total, skipping blanks.
	for j := next + 1; j < len(lines) && j <= next+window; j++ {
		line := strings.TrimSpace(lines[j])
		if line == "" {
			continue
		}
		total, ok := amountOnLine(line)
		if !ok || qty <= 0 {
			break
		}
		consumed[qtyIdx] = true
		consumed[i] = true
		consumed[j] = true
		return entity.LineItem{
			Description: squeezeSpaces(desc),
			Qty:         qty,
			UnitPrice:   roundTo(unit, 2),
			Total:       roundTo(total, 2),
		}, j, true
	}

	return entity.LineItem{}, i, false
}

// linePattern binds a column-layout regex to its item builder. Ordered: the
// first pattern that matches a line wins.
type linePattern struct {
	name  string
	re    *regexp.Regexp
	build func(m []string) (entity.LineItem, bool)
}

var linePatterns = []linePattern{
	{
		name: "numbered_qty_unit_total",
		re:   regexp.MustCompile(`^\d+[.)]\s+(.+?)\s+(\d+(?:\.\d+)?)\s+[£$€]\s?(\d[\d,]*(?:\.\d{1,2})?)\s+[£$€]\s?(\d[\d,]*(?:\.\d{1,2})?)$`),
		build: func(m []string) (entity.LineItem, bool) {
			return buildQtyUnitTotal(m[1], m[2], m[3], m[4])
		},
	},
	{
		name: "desc_qty_unit_total",
		re:   regexp.MustCompile(`^(.+?)\s+(\d+(?:\.\d+)?)\s+[£$€]\s?(\d[\d,]*(?:\.\d{1,2})?)\s+[£$€]\s?(\d[\d,]*(?:\.\d{1,2})?)$`),
		build: func(m []string) (entity.LineItem, bool) {
			return buildQtyUnitTotal(m[1], m[2], m[3], m[4])
		},
	},
	{
		name: "desc_qty_unit",
		re:   regexp.MustCompile(`^(.+?)\s+(\d+(?:\.\d+)?)\s+[£$€]?\s?(\d[\d,]*\.\d{2})$`),
		build: func(m []string) (entity.LineItem, bool) {
			qty, ok1 := parseAmount(m[2])
			unit, ok2 := parseAmount(m[3])
			if !ok1 || !ok2 || qty <= 0 {
				return entity.LineItem{}, false
			}
			return entity.LineItem{
				Description: squeezeSpaces(m[1]),
				Qty:         qty,
				UnitPrice:   unit,
				Total:       roundTo(qty*unit, 2),
			}, true
		},
	},
	{
		name: "desc_price",
		re:   regexp.MustCompile(`^(.+?)\s+[£$€]\s?(\d[\d,]*(?:\.\d{1,2})?)$`),
		build: func(m []string) (entity.LineItem, bool) {
			if strings.Contains(m[1], "@") {
				return entity.LineItem{}, false
			}
			price, ok := parseAmount(m[2])
			if !ok {
				return entity.LineItem{}, false
			}
			return entity.LineItem{
				Description: squeezeSpaces(m[1]),
				Qty:         1,
				UnitPrice:   price,
				Total:       price,
			}, true
		},
	},
	{
		name: "qty_x_desc_at_price",
		re:   regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*x?\s*(.+?)\s*@\s*[£$€]?\s?(\d[\d,]*(?:\.\d{1,2})?)$`),
		build: func(m []string) (entity.LineItem, bool) {
			qty, ok1 := parseAmount(m[1])
			unit, ok2 := parseAmount(m[3])
			if !ok1 || !ok2 || qty <= 0 {
				return entity.LineItem{}, false
			}
			return entity.LineItem{
				Description: squeezeSpaces(m[2]),
				Qty:         qty,
				UnitPrice:   unit,
				Total:       roundTo(qty*unit, 2),
			}, true
		},
	},
}

func buildQtyUnitTotal(desc, qtyS, unitS, totalS string) (entity.LineItem, bool) {
	qty, ok1 := parseAmount(qtyS)
	unit, ok2 := parseAmount(unitS)
	total, ok3 := parseAmount(totalS)
	if !ok1 || !ok2 || !ok3 || qty <= 0 {
		return entity.LineItem{}, false
	}
	return entity.LineItem{
		Description: squeezeSpaces(desc),
		Qty:         qty,
		UnitPrice:   unit,
		Total:       total,
	}, true
}

// matchLinePatterns is Pass B: independent single-line column layouts.
func matchLinePatterns(lines []string, consumed []bool) []entity.LineItem {
	var items []entity.LineItem
	for i, raw := range lines {
		if consumed[i] {
			continue
		}
		line := strings.TrimSpace(raw)
		if len(line) < 10 {
			continue
		}
		if headerRowRe.MatchString(line) {
			continue
		}
		for _, p := range linePatterns {
			m := p.re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			item, ok := p.build(m)
			if !ok {
				continue
			}
			if nonItemKeywordRe.MatchString(item.Description) {
				break
			}
			items = append(items, item)
			consumed[i] = true
			break
		}
	}
	return items
}

// freeformItems is Pass C: a whole-text scan for product keyword phrases with
// a trailing currency amount. Only used when passes A and B found nothing.
func freeformItems(text string) []entity.LineItem {
	var items []entity.LineItem

	appendMatch := func(desc string, price float64) {
		qty := 1.0
		unit := price
		if m := leadingIntRe.FindStringSubmatch(desc); m != nil {
			if v, ok := parseAmount(m[1]); ok && v > 0 {
				qty = v
				unit = price / v
				desc = strings.TrimSpace(leadingIntRe.ReplaceAllString(desc, ""))
			}
		}
		if desc == "" || nonItemKeywordRe.MatchString(desc) {
			return
		}
		items = append(items, entity.LineItem{
			Description: squeezeSpaces(desc),
			Qty:         qty,
			UnitPrice:   roundTo(unit, 2),
			Total:       price,
		})
	}

	for _, m := range productKeywordRe.FindAllStringSubmatch(text, -1) {
		if price, ok := parseAmount(m[2]); ok {
			appendMatch(strings.TrimSpace(m[1]), price)
		}
	}
	if len(items) == 0 {
		for _, m := range leadingQtyItemRe.FindAllStringSubmatch(text, -1) {
			if price, ok := parseAmount(m[2]); ok {
				appendMatch(strings.TrimSpace(m[1]), price)
			}
		}
	}
	return items
}

var multiSpaceRe = regexp.MustCompile(`\s{2,}`)

func squeezeSpaces(s string) string {
	return multiSpaceRe.ReplaceAllString(strings.TrimSpace(s), " ")
}
