package constants

import "strings"

// FileTypes holds the document formats the engine understands.
var FileTypes = []string{"PDF"}

// AllowedExtensions holds the default allowed file extensions for quote documents.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// PDFMagic is the expected leading bytes of a PDF document. Some servers
// strip the header when streaming, so it is a hint and not a hard gate.
const PDFMagic = "%PDF"

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
