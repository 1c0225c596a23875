package service

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/factshield/factshield/internal/errors"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	maxFilenameLen   = 255
	fallbackFilename = "attachment"
)

var (
	unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)
	safeExtension       = regexp.MustCompile(`^\.[A-Za-z0-9]{1,16}$`)
	dotRuns             = regexp.MustCompile(`\.{2,}`)
)

// SanitizeFilename turns a client-supplied name into a bare filesystem entry
// name: accents are folded to ASCII, path separators and whitespace become
// underscores, anything outside [A-Za-z0-9._-] is dropped, runs of dots
// collapse to one and leading or trailing dots and underscores are trimmed
// from the stem. The result always passes CheckFilename. A stem with
// nothing left becomes "attachment", keeping the extension when it is safe.
func SanitizeFilename(name string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn))), name)
	if err != nil {
		folded = name
	}

	folded = strings.NewReplacer("/", " ", "\\", " ").Replace(folded)
	folded = strings.Join(strings.Fields(folded), "_")
	folded = unsafeFilenameChars.ReplaceAllString(folded, "")
	folded = dotRuns.ReplaceAllString(folded, ".")

	ext := filepath.Ext(folded)
	stem := strings.TrimSuffix(folded, ext)
	if !safeExtension.MatchString(ext) {
		stem, ext = folded, ""
	}
	stem = strings.Trim(stem, "._")
	if stem == "" {
		stem = fallbackFilename
	}
	return truncateFilename(stem + ext)
}

func truncateFilename(name string) string {
	if len(name) <= maxFilenameLen {
		return name
	}
	ext := filepath.Ext(name)
	if len(ext) >= maxFilenameLen {
		return name[:maxFilenameLen]
	}
	return strings.TrimRight(name[:maxFilenameLen-len(ext)], "._") + ext
}

// CheckFilename rejects names taken from a request that could escape the
// file store root. It runs on every lookup, even though stored names are
// sanitized, because download routes accept arbitrary names.
func CheckFilename(name string) error {
	switch {
	case name == "":
		return errors.Validation("Filename is required")
	case strings.ContainsAny(name, "/\\\x00"):
		return errors.Validation("Invalid filename")
	case strings.Contains(name, ".."):
		return errors.Validation("Invalid filename")
	case strings.HasPrefix(name, "."):
		return errors.Validation("Invalid filename")
	case len(name) > maxFilenameLen:
		return errors.Validation("Invalid filename")
	}
	return nil
}
