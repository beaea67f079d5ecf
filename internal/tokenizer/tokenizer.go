package tokenizer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	cerrors "github.com/Aman-CERP/catalogsearch/internal/errors"
)

// stopWords is the fixed stopword set from spec.md §4.1. Kept as a package
// level map so Tokenize never allocates it per call.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "for": {}, "from": {}, "has": {}, "he": {}, "in": {}, "is": {},
	"it": {}, "its": {}, "of": {}, "on": {}, "that": {}, "the": {}, "to": {},
	"was": {}, "will": {}, "with": {},
}

// Tokenize converts text into an ordered sequence of stemmed terms:
// casefold, strip ASCII punctuation, split on whitespace, drop stopwords
// and empties, then apply a Porter-style stem. Order and duplicates are
// preserved. The only failure mode is malformed UTF-8 input.
func Tokenize(text string) ([]string, error) {
	if !utf8.ValidString(text) {
		return nil, cerrors.New(cerrors.ErrCodeInvalidInput, "tokenize: input is not valid UTF-8", nil)
	}

	lowered := strings.ToLower(text)
	stripped := stripPunctuation(lowered)
	fields := strings.Fields(stripped)

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if f == "" {
			continue
		}
		if _, stop := stopWords[f]; stop {
			continue
		}
		tokens = append(tokens, Stem(f))
	}

	return tokens, nil
}

// stripPunctuation deletes runes in the ASCII punctuation class outright
// (it does not replace them with whitespace), so punctuation joining two
// halves of a term without surrounding whitespace fuses into one token
// instead of splitting at the split-on-whitespace step that follows.
// Non-ASCII runes (including letters with diacritics) pass through
// unchanged; only the ASCII punctuation set is stripped.
func stripPunctuation(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isASCIIPunct(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// asciiPunctuation mirrors Python's string.punctuation:
// !"#$%&'()*+,-./:;<=>?@[\]^_`{|}~
const asciiPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

func isASCIIPunct(r rune) bool {
	if r > unicode.MaxASCII {
		return false
	}
	return strings.ContainsRune(asciiPunctuation, r)
}
