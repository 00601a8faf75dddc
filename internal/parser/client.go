package parser

import (
	"regexp"
	"strings"

	"github.com/joineryai/quote-engine/internal/entity"
)

var (
	referenceRe      = regexp.MustCompile(`(?i)\breference\b[\s:]*([A-Z0-9][A-Z0-9\-/]{2,})`)
	estimateNumberRe = regexp.MustCompile(`(?i)\bestimate\s+(?:number|no\.?)[\s:]*([A-Z0-9][A-Z0-9\-/]*)`)
	estimateDateRe   = regexp.MustCompile(`(?i)\bdate\s+of\s+estimate[\s:]*(\d{1,2}[./-]\d{1,2}[./-]\d{2,4})`)
	validityRe       = regexp.MustCompile(`(?i)\bvalid(?:ity)?\b[^\n]{0,30}?(\d+)\s*days?`)

	// A standalone capitalized line, two to six words, optionally ending in a
	// venue suffix. Candidate project locations.
	locationLineRe   = regexp.MustCompile(`^[A-Z][A-Za-z']*(?:\s+[A-Z][A-Za-z']*){1,5}$`)
	locationSuffixRe = regexp.MustCompile(`(?:Church|School|Hospital|Centre|Hall|Building)$`)
	companyMarkerRe  = regexp.MustCompile(`(?i)\b(?:ltd|limited|joinery|specialists?|estimate|quotation)\b`)

	specTableHeaderRe = regexp.MustCompile(`(?i)\bitem\b[^\n]{0,60}\bwidth\b[^\n]{0,40}\bheight\b`)
	specTableEndRe    = regexp.MustCompile(`(?i)^\W*(?:vat|sub\s*-?\s*total|total)\b`)
	specItemRe        = regexp.MustCompile(`(?i)\b(sliding\s+sash|casement|french\s+door|bi-?fold|bay\s+window|window|door)\b`)
	specDimsRe        = regexp.MustCompile(`(\d{2,4})\s*(?:x|×)\s*(\d{2,4})\s*(?:mm)?`)
	specQtyRe         = regexp.MustCompile(`(?i)(?:^|\s)(?:x\s*)?(\d{1,3})(?:\s*(?:no\.?|off|pcs?\.?))?(?:\s|$)`)

	subtotalBeforeVATRe = regexp.MustCompile(`(?i)[£$€]\s?(\d[\d,]*(?:\.\d{2})?)\s*\n?\s*VAT\b`)
	vatAmountRe         = regexp.MustCompile(`(?i)\bVAT\b[^\n£$€%]{0,40}(?:@?\s*\d+(?:\.\d+)?%[^\n£$€]{0,20})?[£$€]\s?(\d[\d,]*(?:\.\d{2})?)`)
	totalAmountRe       = regexp.MustCompile(`(?i)\btotal\b[^\n£$€]{0,40}[£$€]\s?(\d[\d,]*(?:\.\d{2})?)`)
)

// Confidence weights for the client extractor: how much structured signal
// each populated field contributes, normalized by the maximum (10).
const (
	weightQuotedPrice = 3
	weightLineItems   = 2
	weightProjectType = 2
	weightLocation    = 1
	weightArea        = 2
	weightMax         = 10
)

// ParseClient extracts project metadata, specification line items and the
// quoted price from a client-facing estimate. The result feeds model
// training elsewhere; a sparse document simply scores a low confidence.
func ParseClient(text string) entity.ParsedClientQuote {
	out := entity.ParsedClientQuote{
		QuestionnaireAnswers: map[string]any{},
		ProjectDetails:       map[string]any{},
		LineItems:            []map[string]any{},
	}
	if strings.TrimSpace(text) == "" {
		return out
	}
	lines := strings.Split(text, "\n")

	if m := referenceRe.FindStringSubmatch(text); m != nil {
		out.ProjectDetails["reference"] = m[1]
	}
	if m := estimateNumberRe.FindStringSubmatch(text); m != nil {
		out.ProjectDetails["estimate_number"] = m[1]
	}
	if m := estimateDateRe.FindStringSubmatch(text); m != nil {
		out.ProjectDetails["estimate_date"] = m[1]
	}
	if m := validityRe.FindStringSubmatch(text); m != nil {
		if v, ok := parseAmount(m[1]); ok {
			out.ProjectDetails["validity_days"] = int(v)
		}
	}
	if loc := detectProjectLocation(lines); loc != "" {
		out.ProjectDetails["project_location"] = loc
	}

	projectType := inferProjectType(text)
	if projectType != "" {
		out.QuestionnaireAnswers["project_type"] = projectType
	}
	grade, wood := inferMaterials(text)
	out.QuestionnaireAnswers["materials_grade"] = grade
	if wood != "" {
		out.QuestionnaireAnswers["wood_type"] = wood
	}

	items, areaM2 := walkSpecTable(lines)
	out.LineItems = items
	if areaM2 > 0 {
		out.QuestionnaireAnswers["area_m2"] = roundTo(areaM2, 2)
		out.ProjectDetails["total_area_m2"] = roundTo(areaM2, 2)
	}

	if m := subtotalBeforeVATRe.FindStringSubmatch(text); m != nil {
		if v, ok := parseAmount(m[1]); ok {
			out.ProjectDetails["subtotal"] = v
		}
	}
	if m := vatAmountRe.FindStringSubmatch(text); m != nil {
		if v, ok := parseAmount(m[1]); ok {
			out.ProjectDetails["vat"] = v
		}
	}
	// The final Total sits below Sub Total and VAT; take the last match.
	if ms := totalAmountRe.FindAllStringSubmatch(text, -1); len(ms) > 0 {
		if v, ok := parseAmount(ms[len(ms)-1][1]); ok {
			out.QuotedPrice = &v
		}
	}

	score := 0
	if out.QuotedPrice != nil {
		score += weightQuotedPrice
	}
	if len(out.LineItems) > 0 {
		score += weightLineItems
	}
	if projectType != "" {
		score += weightProjectType
	}
	if _, ok := out.ProjectDetails["project_location"]; ok {
		score += weightLocation
	}
	if areaM2 > 0 {
		score += weightArea
	}
	out.Confidence = roundTo(float64(score)/float64(weightMax), 2)

	return out
}

// detectProjectLocation picks the first standalone capitalized line that is
// not the issuing company's own name. Lines ending in a venue suffix
// (Church, School, ...) win outright.
func detectProjectLocation(lines []string) string {
	first := ""
	max := 40
	if len(lines) < max {
		max = len(lines)
	}
	for _, raw := range lines[:max] {
		line := strings.TrimSpace(raw)
		if line == "" || !locationLineRe.MatchString(line) || companyMarkerRe.MatchString(line) {
			continue
		}
		if locationSuffixRe.MatchString(line) {
			return line
		}
		if first == "" {
			first = line
		}
	}
	return first
}

func inferProjectType(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "window") || strings.Contains(lower, "sash") || strings.Contains(lower, "frame"):
		return "windows"
	case strings.Contains(lower, "door") || strings.Contains(lower, "entrance"):
		return "doors"
	case strings.Contains(lower, "joinery") || strings.Contains(lower, "timber") || strings.Contains(lower, "wood"):
		return "joinery"
	}
	return ""
}

// premiumTimbers marks materials that bump the grade to premium.
var premiumTimbers = []string{"oak", "accoya", "sapele", "iroko", "mahogany", "walnut", "teak"}

func inferMaterials(text string) (grade, wood string) {
	lower := strings.ToLower(text)
	for _, timber := range premiumTimbers {
		if strings.Contains(lower, timber) {
			return "premium", timber
		}
	}
	for _, timber := range []string{"softwood", "redwood", "pine", "hardwood"} {
		if strings.Contains(lower, timber) {
			return "standard", timber
		}
	}
	return "standard", ""
}

// walkSpecTable scans the specification table (bounded by its header row and
// terminated by a VAT/Total marker) for repeated item blocks, accumulating
// quantity, dimensions and total area in m².
func walkSpecTable(lines []string) ([]map[string]any, float64) {
	items := []map[string]any{}
	area := 0.0

	start := -1
	for i, line := range lines {
		if specTableHeaderRe.MatchString(line) {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return items, 0
	}

	for i := start; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		if specTableEndRe.MatchString(line) {
			break
		}
		m := specItemRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		qty := 1.0
		rest := specItemRe.ReplaceAllString(line, " ")
		rest = specDimsRe.ReplaceAllString(rest, " ")
		if qm := specQtyRe.FindStringSubmatch(rest); qm != nil {
			if v, ok := parseAmount(qm[1]); ok && v > 0 {
				qty = v
			}
		}

		item := map[string]any{
			"description": squeezeSpaces(m[1]),
			"qty":         qty,
		}
		// Dimensions may trail on the same line or the next one.
		dims := specDimsRe.FindStringSubmatch(line)
		if dims == nil && i+1 < len(lines) {
			dims = specDimsRe.FindStringSubmatch(lines[i+1])
		}
		if dims != nil {
			w, ok1 := parseAmount(dims[1])
			h, ok2 := parseAmount(dims[2])
			if ok1 && ok2 {
				item["width_mm"] = w
				item["height_mm"] = h
				area += w * h * qty / 1_000_000
			}
		}
		items = append(items, item)
	}

	return items, area
}
