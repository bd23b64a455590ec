// Package lexicon provides categorised term classification for the
// text-matching components of the retrieval pipeline. Terms are grouped
// by grammatical function so callers can filter stop words with rules
// that depend on the surrounding context: interrogatives and copulas are
// noise inside a question but prepositions inside a statement are often
// part of a meaningful phrase.
package lexicon

import (
	"strings"
	"unicode"
)

// Category classifies a term's grammatical function.
type Category string

// Recognised term categories.
const (
	// CategoryArticle covers determiners such as "the" and "an".
	CategoryArticle Category = "article"

	// CategoryQuestionWord covers interrogatives such as "what" and "how".
	CategoryQuestionWord Category = "question_word"

	// CategoryCopula covers forms of "to be" and common auxiliaries.
	CategoryCopula Category = "copula"

	// CategoryPreposition covers terms such as "in", "about" and "with".
	CategoryPreposition Category = "preposition"

	// CategoryPronoun covers personal and possessive pronouns.
	CategoryPronoun Category = "pronoun"

	// CategoryConjunction covers connectives such as "and" and "because".
	CategoryConjunction Category = "conjunction"

	// CategoryFiller covers low-content hedges such as "please" and "just".
	CategoryFiller Category = "filler"

	// CategoryContent marks a term carrying actual meaning.
	CategoryContent Category = "content"
)

// FilterMode selects the stop-word rules applied during filtering.
type FilterMode int

// Available filter modes.
const (
	// ModeQuestion removes interrogatives and copulas in addition to the
	// baseline stop words. Used when the input reads as a question.
	ModeQuestion FilterMode = iota

	// ModeStatement preserves prepositions, which are frequently part of
	// meaningful phrases in declarative input ("meeting with Sarah").
	ModeStatement
)

var categories = map[string]Category{
	"a": CategoryArticle, "an": CategoryArticle, "the": CategoryArticle,
	"this": CategoryArticle, "that": CategoryArticle, "these": CategoryArticle,
	"those": CategoryArticle, "some": CategoryArticle, "any": CategoryArticle,

	"what": CategoryQuestionWord, "when": CategoryQuestionWord,
	"where": CategoryQuestionWord, "who": CategoryQuestionWord,
	"whom": CategoryQuestionWord, "whose": CategoryQuestionWord,
	"which": CategoryQuestionWord, "why": CategoryQuestionWord,
	"how": CategoryQuestionWord,

	"is": CategoryCopula, "are": CategoryCopula, "was": CategoryCopula,
	"were": CategoryCopula, "am": CategoryCopula, "be": CategoryCopula,
	"been": CategoryCopula, "being": CategoryCopula, "do": CategoryCopula,
	"does": CategoryCopula, "did": CategoryCopula, "have": CategoryCopula,
	"has": CategoryCopula, "had": CategoryCopula, "will": CategoryCopula,
	"would": CategoryCopula, "can": CategoryCopula, "could": CategoryCopula,
	"should": CategoryCopula, "shall": CategoryCopula, "may": CategoryCopula,
	"might": CategoryCopula,

	"in": CategoryPreposition, "on": CategoryPreposition, "at": CategoryPreposition,
	"by": CategoryPreposition, "for": CategoryPreposition, "with": CategoryPreposition,
	"about": CategoryPreposition, "from": CategoryPreposition, "to": CategoryPreposition,
	"of": CategoryPreposition, "into": CategoryPreposition, "over": CategoryPreposition,
	"under": CategoryPreposition, "between": CategoryPreposition,
	"during": CategoryPreposition, "before": CategoryPreposition,
	"after": CategoryPreposition,

	"i": CategoryPronoun, "me": CategoryPronoun, "my": CategoryPronoun,
	"mine": CategoryPronoun, "you": CategoryPronoun, "your": CategoryPronoun,
	"yours": CategoryPronoun, "he": CategoryPronoun, "him": CategoryPronoun,
	"his": CategoryPronoun, "she": CategoryPronoun, "her": CategoryPronoun,
	"hers": CategoryPronoun, "it": CategoryPronoun, "its": CategoryPronoun,
	"we": CategoryPronoun, "us": CategoryPronoun, "our": CategoryPronoun,
	"they": CategoryPronoun, "them": CategoryPronoun, "their": CategoryPronoun,

	"and": CategoryConjunction, "or": CategoryConjunction, "but": CategoryConjunction,
	"nor": CategoryConjunction, "so": CategoryConjunction, "yet": CategoryConjunction,
	"because": CategoryConjunction, "if": CategoryConjunction,
	"then": CategoryConjunction, "than": CategoryConjunction,

	"please": CategoryFiller, "just": CategoryFiller, "really": CategoryFiller,
	"very": CategoryFiller, "quite": CategoryFiller, "actually": CategoryFiller,
	"basically": CategoryFiller, "like": CategoryFiller, "well": CategoryFiller,
	"okay": CategoryFiller, "ok": CategoryFiller, "hey": CategoryFiller,
	"hi": CategoryFiller, "hello": CategoryFiller, "thanks": CategoryFiller,
	"thank": CategoryFiller,
}

// CategoryOf returns the grammatical category of a term.
// Unknown terms are classified as content.
func CategoryOf(term string) Category {
	if cat, ok := categories[strings.ToLower(term)]; ok {
		return cat
	}
	return CategoryContent
}

// IsStopWord reports whether a term should be dropped under the given mode.
func IsStopWord(term string, mode FilterMode) bool {
	switch CategoryOf(term) {
	case CategoryContent:
		return false
	case CategoryPreposition:
		// Statements keep prepositions; questions drop them.
		return mode == ModeQuestion
	case CategoryQuestionWord, CategoryCopula:
		if mode == ModeQuestion {
			return true
		}
		// In statements copulas are still noise but question words may be
		// referential ("the meeting where we decided").
		return CategoryOf(term) == CategoryCopula
	default:
		return true
	}
}

// Normalize lowercases a term, strips surrounding punctuation and applies
// light suffix stemming. Stemming only fires when the remaining stem keeps
// at least three runes, so short words pass through untouched.
func Normalize(term string) string {
	term = strings.ToLower(strings.TrimFunc(term, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	}))
	term = strings.TrimSuffix(term, "'s")
	term = strings.ReplaceAll(term, "'", "")
	if term == "" {
		return ""
	}

	// Function words are never stemmed ("this" must not become "thi").
	if _, ok := categories[term]; ok {
		return term
	}

	for _, suffix := range []string{"ing", "es", "ed", "s"} {
		stem := strings.TrimSuffix(term, suffix)
		if stem != term && len([]rune(stem)) >= 3 {
			return stem
		}
	}
	return term
}

// Filter normalises terms and removes stop words under the given mode.
// Order is preserved and duplicates are removed.
func Filter(terms []string, mode FilterMode) []string {
	seen := make(map[string]bool, len(terms))
	var out []string
	for _, term := range terms {
		norm := Normalize(term)
		if norm == "" || IsStopWord(norm, mode) || seen[norm] {
			continue
		}
		seen[norm] = true
		out = append(out, norm)
	}
	return out
}

// Tokenize splits text into lowercase word tokens.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\''
	})
}
