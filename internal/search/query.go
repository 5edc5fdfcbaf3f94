// Package search turns user input into full-text queries for the crawl
// database.
package search

import (
	"errors"
	"strings"
	"unicode"

	"github.com/kljensen/snowball"
)

// ErrEmptyQuery is returned when the input contains no searchable term.
var ErrEmptyQuery = errors.New("query has no searchable terms")

// language is the snowball stemmer used for query terms.
const language = "english"

// QueryOption configures BuildQuery.
type QueryOption func(*queryBuilder)

type queryBuilder struct {
	stem bool
}

// WithStemming enables or disables stemming. It is enabled by default.
func WithStemming(enabled bool) QueryOption {
	return func(b *queryBuilder) {
		b.stem = enabled
	}
}

// BuildQuery converts raw user input into an FTS5 MATCH expression.
//
// Input is split on anything that is not a letter or digit and lowercased,
// which matches how the unicode61 tokenizer splits indexed text, so FTS5
// operators typed by the user are treated as plain words. Every term must
// match (AND). Each term is a prefix query on its stem, so "gophers" also
// finds "gopher" and "gophering". When the stem is not a prefix of the
// word itself ("libraries" stems to "librari") both are tried.
func BuildQuery(raw string, opts ...QueryOption) (string, error) {
	b := &queryBuilder{stem: true}
	for _, opt := range opts {
		opt(b)
	}

	words := strings.FieldsFunc(strings.ToLower(raw), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		return "", ErrEmptyQuery
	}

	terms := make([]string, 0, len(words))
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		term := b.term(w)
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		terms = append(terms, term)
	}

	return strings.Join(terms, " AND "), nil
}

func (b *queryBuilder) term(word string) string {
	if !b.stem {
		return prefix(word)
	}

	stemmed, err := snowball.Stem(word, language, true)
	if err != nil || stemmed == "" || stemmed == word {
		return prefix(word)
	}
	if strings.HasPrefix(word, stemmed) {
		return prefix(stemmed)
	}
	return "(" + prefix(word) + " OR " + prefix(stemmed) + ")"
}

// prefix quotes a token as an FTS5 string and makes it a prefix query.
func prefix(token string) string {
	return `"` + strings.ReplaceAll(token, `"`, `""`) + `"*`
}
