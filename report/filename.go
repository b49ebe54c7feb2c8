package report

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kennygrant/sanitize"
)

var nonSlugChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FilenameStem derives a filesystem-safe ASCII stem from a page path:
// surrounding separators stripped, inner separators become
// underscores, accents transliterated, anything non-transliterable
// dropped, leftover punctuation collapsed to single underscores. An
// empty result maps to "home".
func FilenameStem(path string) string {
	stem := strings.Trim(path, "/")
	stem = strings.ReplaceAll(stem, "/", "_")
	stem = sanitize.Accents(stem)

	// Drop whatever transliteration could not map into ASCII.
	var b strings.Builder
	for _, r := range stem {
		if r < 128 {
			b.WriteRune(r)
		}
	}
	stem = nonSlugChars.ReplaceAllString(b.String(), "_")
	stem = strings.Trim(stem, "_")
	if stem == "" {
		return "home"
	}
	return stem
}

// ImageFile builds the deterministic image filename for one capture:
// <stem>_<viewport>_<kind>.png, where kind is base, compare, diff or
// highlight.
func ImageFile(stem, viewport, kind string) string {
	return fmt.Sprintf("%s_%s_%s.png", stem, viewport, kind)
}
