package internal

import (
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// cases.Caser is stateful and must not be shared between goroutines.
var caserPool = sync.Pool{
	New: func() any {
		caser := cases.Title(language.English)
		return &caser
	},
}

// TitleCase returns string s in title-case.  For now only english strings are supported.
func TitleCase(s string) string {
	caser := caserPool.Get().(*cases.Caser)
	defer caserPool.Put(caser)

	return caser.String(s)
}

// Humanize turns a slug like "my-first_post" into "My First Post".
func Humanize(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool {
		return r == '-' || r == '_'
	})

	return TitleCase(strings.Join(words, " "))
}
