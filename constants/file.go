package constants

import "strings"

// Format is the logical document format derived from a file extension.
type Format string

const (
	PDF   Format = "PDF"
	IMAGE Format = "IMAGE"
)

// AllowedExtensions holds the file extensions the pipeline accepts.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"webp": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat maps a (possibly dotted) extension to a Format.
// Returns "" for unsupported extensions.
func MapExtToFormat(ext string) Format {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "jpg", "jpeg", "png", "webp":
		return IMAGE
	default:
		return ""
	}
}
