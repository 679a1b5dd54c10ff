package analyzer

import (
	"strings"
	"unicode"
)

// WordTokenizer is the built-in tokenizer used when no model supplies one.
// A token is a run of word runes or a single other rune, carrying any
// whitespace that precedes it; trailing whitespace is a token of its own.
// Concatenating the tokens reproduces any valid UTF-8 input exactly.
type WordTokenizer struct{}

// NewWordTokenizer creates a new WordTokenizer.
func NewWordTokenizer() *WordTokenizer {
	return &WordTokenizer{}
}

// Tokenize splits text into lossless tokens.
func (t *WordTokenizer) Tokenize(text string) []string {
	var tokens []string
	var current strings.Builder
	inWord := false

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			if inWord || hasNonSpace(current.String()) {
				flush()
			}
			inWord = false
			current.WriteRune(r)
		case isWordRune(r):
			if !inWord && hasNonSpace(current.String()) {
				flush()
			}
			inWord = true
			current.WriteRune(r)
		default:
			if inWord || hasNonSpace(current.String()) {
				flush()
			}
			inWord = false
			current.WriteRune(r)
			flush()
		}
	}
	flush()

	return tokens
}

// Detokenize joins tokens back into text.
func (t *WordTokenizer) Detokenize(tokens []string) (string, error) {
	return strings.Join(tokens, ""), nil
}

// Terms returns the lowercase index terms of text: runs of at least two
// letter, digit or underscore runes.
func Terms(text string) []string {
	words := splitWords(text)
	terms := make([]string, 0, len(words))

	for _, word := range words {
		if len([]rune(word)) < 2 {
			continue
		}
		terms = append(terms, strings.ToLower(word))
	}

	return terms
}

// FilterStopwords drops common English stopwords from terms in place.
func FilterStopwords(terms []string) []string {
	out := terms[:0]
	for _, term := range terms {
		if _, isStop := stopwords[term]; isStop {
			continue
		}
		out = append(out, term)
	}
	return out
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func hasNonSpace(s string) bool {
	return strings.TrimSpace(s) != ""
}

// splitWords splits text into words using unicode word boundaries.
func splitWords(text string) []string {
	var words []string
	var current strings.Builder

	for _, r := range text {
		if isWordRune(r) {
			current.WriteRune(r)
		} else {
			if current.Len() > 0 {
				words = append(words, current.String())
				current.Reset()
			}
		}
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}

	return words
}

var stopwords = func() map[string]struct{} {
	stops := []string{
		"an", "and", "are", "as", "at", "be", "by", "for",
		"from", "has", "he", "in", "is", "it", "its", "of", "on",
		"that", "the", "to", "was", "were", "will", "with", "this",
		"have", "had", "but", "not", "you", "your", "we", "our",
		"they", "their", "she", "her", "his", "if", "or", "so",
		"no", "can", "do", "does", "did", "been", "being", "would",
		"could", "should", "may", "might", "must", "shall", "which",
		"who", "whom", "what", "when", "where", "why", "how", "all",
	}
	m := make(map[string]struct{}, len(stops))
	for _, s := range stops {
		m[s] = struct{}{}
	}
	return m
}()
