package fileutil

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxSlugLen = 48

// SafeName turns an arbitrary display name into a filename-safe token.
//
// Accents are folded to ASCII, anything that is not a letter or digit becomes a
// single underscore, and a short hash of the exact original name is appended so
// names differing only in case or punctuation never share a file.
func SafeName(name string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	prevUnderscore := false
	for _, r := range folded {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(unicode.ToLower(r))
			prevUnderscore = false
		default:
			if !prevUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				prevUnderscore = true
			}
		}
	}

	slug := strings.TrimSuffix(b.String(), "_")
	if len(slug) > maxSlugLen {
		slug = strings.TrimSuffix(slug[:maxSlugLen], "_")
	}
	if slug == "" {
		slug = "show"
	}

	sum := sha256.Sum256([]byte(name))
	return fmt.Sprintf("%s-%x", slug, sum[:4])
}
