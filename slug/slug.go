// Package slug turns titles and file names into URL path segments.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slugifier cleans strings for the use in URLs.
type Slugifier struct {
	replacement        rune
	repetitionRE       *regexp.Regexp
	transliterator     *strings.Replacer
	unicodeTransformer transform.Transformer
}

// DefaultTransliterations replace characters that would otherwise lose meaning when their diacritics are removed.
var DefaultTransliterations = map[string]string{
	"ä": "ae",
	"ö": "oe",
	"ü": "ue",
	"ß": "ss",
	"æ": "ae",
	"ø": "oe",
	"å": "aa",
}

// NewSlugifier returns a Slugifier that joins words with replacement.
// Transliterations are applied after lower-casing, DefaultTransliterations is used if none are given.
func NewSlugifier(replacement rune, transliterations ...map[string]string) *Slugifier {
	isPunctuation := runes.In(unicode.Punct).Contains
	isSymbol := runes.In(unicode.Symbol).Contains
	isSpace := runes.In(unicode.Space).Contains
	mapping := func(r rune) rune {
		if isPunctuation(r) || isSymbol(r) || isSpace(r) {
			return replacement
		}
		return r
	}

	table := DefaultTransliterations
	if len(transliterations) > 0 {
		table = transliterations[0]
	}
	oldnew := make([]string, 0, 2*len(table))
	for from, to := range table {
		oldnew = append(oldnew, from, to)
	}

	return &Slugifier{
		replacement:    replacement,
		repetitionRE:   regexp.MustCompile(regexp.QuoteMeta(string(replacement)) + `{2,}`),
		transliterator: strings.NewReplacer(oldnew...),
		// NFKD decomposes characters, e.g. ê becomes e followed by a combining circumflex, which is then removed.
		unicodeTransformer: transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mark)), runes.Map(mapping)),
	}
}

// Slugify returns a lower-cased, normalized version of s that is safe to use as path segment.
func (sl *Slugifier) Slugify(s string) string {
	s = sl.transliterator.Replace(strings.ToLower(strings.TrimSpace(s)))

	s, _, err := transform.String(sl.unicodeTransformer, s)
	if err != nil {
		// The transformer chain only maps and removes runes.
		panic(err)
	}

	s = sl.repetitionRE.ReplaceAllString(s, string(sl.replacement))
	return strings.Trim(s, string(sl.replacement))
}
