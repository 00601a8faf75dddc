package textextract

import (
	"strings"
	"unicode"
)

// Quality gate thresholds. Tuned against sample documents from suppliers
// whose PDFs use CID fonts without a ToUnicode map; the native extractors
// decode those to byte salad that only OCR can recover from.
const (
	minCleanedLength   = 20
	minAlnumRatio      = 0.5
	maxExtendedChars   = 10
	extendedCheckSpan  = 200
	wordCheckTokens    = 30
	minRecognizablePct = 0.3
)

// IsGibberish reports whether extracted text looks like a wrong-encoding or
// unreadable extraction. Rejected text is retried through the next strategy
// in the chain.
func IsGibberish(text string) bool {
	cleaned := removeWhitespace(text)
	runes := []rune(cleaned)
	if len(runes) < minCleanedLength {
		return true
	}

	alnum := 0
	for _, r := range runes {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			alnum++
		}
	}
	if float64(alnum)/float64(len(runes)) < minAlnumRatio {
		return true
	}

	// Extended-range characters early in the text are the signature of a
	// mis-decoded font rather than legitimate accented content.
	span := runes
	if len(span) > extendedCheckSpan {
		span = span[:extendedCheckSpan]
	}
	extended := 0
	for _, r := range span {
		if r > 127 && r < 160 {
			extended++
		}
	}
	if extended > maxExtendedChars {
		return true
	}

	tokens := strings.Fields(text)
	if len(tokens) > wordCheckTokens {
		tokens = tokens[:wordCheckTokens]
	}
	if len(tokens) > 0 {
		recognizable := 0
		for _, tok := range tokens {
			if isRecognizableWord(tok) {
				recognizable++
			}
		}
		if float64(recognizable)/float64(len(tokens)) < minRecognizablePct {
			return true
		}
	}

	return false
}

// isRecognizableWord: longer than two characters and contains a letter.
func isRecognizableWord(tok string) bool {
	if len([]rune(tok)) <= 2 {
		return false
	}
	for _, r := range tok {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func removeWhitespace(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if !unicode.IsSpace(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
