package constants

// Confidence levels assigned by the supplier extractor depending on how the
// estimated total was derived. Tuned against a handful of sample documents;
// revisit once a broader corpus is available.
const (
	// ConfidenceLineItems: total computed from extracted line items.
	ConfidenceLineItems = 0.8
	// ConfidenceSingleTotal: a single labeled total was detected in the text.
	ConfidenceSingleTotal = 0.35
	// ConfidenceMultiTotal: several labeled total candidates were detected.
	ConfidenceMultiTotal = 0.55
)

// ClientSignalThreshold is the minimum client-extractor confidence that
// resolves an unknown classification in favour of a client quote.
const ClientSignalThreshold = 0.2
