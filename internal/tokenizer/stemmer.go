package tokenizer

import "strings"

// Stem reduces word to its Porter stem (Porter, 1980). It implements the
// five suffix-stripping steps of the original algorithm operating on
// lowercase ASCII input; words outside that alphabet are returned as-is.
// Indexing and querying both route through Tokenize, so a document term
// and a query term that share a surface form always collapse to the same
// stem even though the stem itself is not a real word.
func Stem(word string) string {
	if len(word) < 3 {
		return word
	}
	for _, r := range word {
		if r > 'z' || (r < 'a' && r != '\'') {
			return word
		}
	}

	w := word
	w = step1a(w)
	w = step1b(w)
	w = step1c(w)
	w = step2(w)
	w = step3(w)
	w = step4(w)
	w = step5a(w)
	w = step5b(w)
	return w
}

func isVowel(w string, i int) bool {
	switch w[i] {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	case 'y':
		return i == 0 || !isVowel(w, i-1)
	}
	return false
}

// measure counts the number of consonant-vowel-consonant sequences (the
// Porter algorithm's "m") in w.
func measure(w string) int {
	n := 0
	i := 0
	// skip leading consonants
	for i < len(w) && !isVowel(w, i) {
		i++
	}
	for i < len(w) {
		for i < len(w) && isVowel(w, i) {
			i++
		}
		if i >= len(w) {
			break
		}
		for i < len(w) && !isVowel(w, i) {
			i++
		}
		n++
	}
	return n
}

func containsVowel(w string) bool {
	for i := range w {
		if isVowel(w, i) {
			return true
		}
	}
	return false
}

// endsDoubleCons reports whether w ends in a double consonant (e.g. "tt").
func endsDoubleCons(w string) bool {
	if len(w) < 2 {
		return false
	}
	a, b := w[len(w)-1], w[len(w)-2]
	if a != b {
		return false
	}
	return !isVowel(w, len(w)-1)
}

// endsCVC reports whether w ends consonant-vowel-consonant where the final
// consonant is not w, x, or y (the Porter algorithm's "*o" condition).
func endsCVC(w string) bool {
	n := len(w)
	if n < 3 {
		return false
	}
	if isVowel(w, n-3) || !isVowel(w, n-2) || isVowel(w, n-1) {
		return false
	}
	switch w[n-1] {
	case 'w', 'x', 'y':
		return false
	}
	return true
}

func hasSuffix(w, suf string) bool { return strings.HasSuffix(w, suf) }

func stemOf(w, suf string) string { return w[:len(w)-len(suf)] }

// replaceSuffix replaces suf at the end of w with repl if m(stem) meets
// cond (a minimum measure threshold, or -1 to skip the measure check).
func replaceSuffix(w, suf, repl string, minMeasure int) (string, bool) {
	if !hasSuffix(w, suf) {
		return w, false
	}
	stem := stemOf(w, suf)
	if minMeasure >= 0 && measure(stem) < minMeasure {
		return w, false
	}
	return stem + repl, true
}

func step1a(w string) string {
	switch {
	case hasSuffix(w, "sses"):
		return stemOf(w, "sses") + "ss"
	case hasSuffix(w, "ies"):
		return stemOf(w, "ies") + "i"
	case hasSuffix(w, "ss"):
		return w
	case hasSuffix(w, "s"):
		return stemOf(w, "s")
	}
	return w
}

func step1b(w string) string {
	var stem string
	var matched string
	switch {
	case hasSuffix(w, "eed"):
		stem = stemOf(w, "eed")
		if measure(stem) > 0 {
			return stem + "ee"
		}
		return w
	case hasSuffix(w, "ed"):
		stem, matched = stemOf(w, "ed"), "ed"
	case hasSuffix(w, "ing"):
		stem, matched = stemOf(w, "ing"), "ing"
	default:
		return w
	}
	if matched == "" || !containsVowel(stem) {
		return w
	}
	switch {
	case hasSuffix(stem, "at"), hasSuffix(stem, "bl"), hasSuffix(stem, "iz"):
		return stem + "e"
	case endsDoubleCons(stem) && !strings.HasSuffix(stem, "l") && !strings.HasSuffix(stem, "s") && !strings.HasSuffix(stem, "z"):
		return stem[:len(stem)-1]
	case measure(stem) == 1 && endsCVC(stem):
		return stem + "e"
	}
	return stem
}

func step1c(w string) string {
	if hasSuffix(w, "y") {
		stem := stemOf(w, "y")
		if containsVowel(stem) {
			return stem + "i"
		}
	}
	return w
}

var step2Suffixes = []struct{ suf, repl string }{
	{"ational", "ate"}, {"tional", "tion"}, {"enci", "ence"}, {"anci", "ance"},
	{"izer", "ize"}, {"abli", "able"}, {"alli", "al"}, {"entli", "ent"},
	{"eli", "e"}, {"ousli", "ous"}, {"ization", "ize"}, {"ation", "ate"},
	{"ator", "ate"}, {"alism", "al"}, {"iveness", "ive"}, {"fulness", "ful"},
	{"ousness", "ous"}, {"aliti", "al"}, {"iviti", "ive"}, {"biliti", "ble"},
}

func step2(w string) string {
	for _, s := range step2Suffixes {
		if r, ok := replaceSuffix(w, s.suf, s.repl, 1); ok {
			return r
		}
	}
	return w
}

var step3Suffixes = []struct{ suf, repl string }{
	{"icate", "ic"}, {"ative", ""}, {"alize", "al"}, {"iciti", "ic"},
	{"ical", "ic"}, {"ful", ""}, {"ness", ""},
}

func step3(w string) string {
	for _, s := range step3Suffixes {
		if r, ok := replaceSuffix(w, s.suf, s.repl, 1); ok {
			return r
		}
	}
	return w
}

var step4Suffixes = []string{
	"al", "ance", "ence", "er", "ic", "able", "ible", "ant", "ement",
	"ment", "ent", "ou", "ism", "ate", "iti", "ous", "ive", "ize",
}

func step4(w string) string {
	for _, suf := range step4Suffixes {
		if suf == "ion" {
			continue
		}
		if !hasSuffix(w, suf) {
			continue
		}
		stem := stemOf(w, suf)
		if measure(stem) > 1 {
			return stem
		}
		return w
	}
	if hasSuffix(w, "sion") || hasSuffix(w, "tion") {
		stem := stemOf(w, "ion")
		if measure(stem) > 1 {
			return stem
		}
	}
	return w
}

func step5a(w string) string {
	if !hasSuffix(w, "e") {
		return w
	}
	stem := stemOf(w, "e")
	m := measure(stem)
	if m > 1 {
		return stem
	}
	if m == 1 && !endsCVC(stem) {
		return stem
	}
	return w
}

func step5b(w string) string {
	if measure(w) > 1 && endsDoubleCons(w) && hasSuffix(w, "l") {
		return w[:len(w)-1]
	}
	return w
}
