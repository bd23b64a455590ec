package services

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/rememba-cli/internal/core/domain"
	"github.com/custodia-labs/rememba-cli/internal/lexicon"
	"github.com/custodia-labs/rememba-cli/internal/logger"
)

// QueryAnalyzer classifies queries into intents and extracts keywords.
// It is a pure function over its input: no state, no external calls,
// and it never fails - the worst case is a conversational intent with
// an empty keyword set.
type QueryAnalyzer struct{}

// NewQueryAnalyzer creates a query analyzer.
func NewQueryAnalyzer() *QueryAnalyzer {
	return &QueryAnalyzer{}
}

// intentRule matches one explicit intent pattern. Rules are evaluated
// in order; the first match wins over any statistical heuristic.
type intentRule struct {
	intent  domain.QueryIntent
	pattern *regexp.Regexp
}

// All intent patterns live here - classification is centralised so no
// other component matches on raw query text.
var intentRules = []intentRule{
	{domain.IntentMemorySave, regexp.MustCompile(`(?i)^(please\s+)?(remember|note|keep in mind|don't forget)\b`)},
	{domain.IntentMemorySave, regexp.MustCompile(`(?i)\bremember (this|that)\b`)},
	{domain.IntentCorrection, regexp.MustCompile(`(?i)^(no|nope|wrong|incorrect)\b[,.!\s]`)},
	{domain.IntentCorrection, regexp.MustCompile(`(?i)\bthat('s| is| was)? (wrong|not right|incorrect)\b`)},
	{domain.IntentCorrection, regexp.MustCompile(`(?i)^actually[,\s]`)},
	{domain.IntentCorrection, regexp.MustCompile(`(?i)\bi (said|meant|told you)\b`)},
	{domain.IntentMemoryList, regexp.MustCompile(`(?i)\bwhat (do|did) you (remember|know) about m[ey]\b`)},
	{domain.IntentMemoryList, regexp.MustCompile(`(?i)\bwhat do you remember\b`)},
	{domain.IntentMemoryList, regexp.MustCompile(`(?i)\b(list|show) (my|your) (memories|notes)\b`)},
	{domain.IntentWebSearch, regexp.MustCompile(`(?i)\b(search|look up|google|find)( on| in)?( the)? (web|internet|online)\b`)},
	{domain.IntentWebSearch, regexp.MustCompile(`(?i)\bsearch the web\b`)},
	{domain.IntentWebSearch, regexp.MustCompile(`(?i)\b(latest|current|recent|today'?s?|this week'?s?|breaking) (news|headlines|events|results|price|prices|weather)\b`)},
	{domain.IntentWebSearch, regexp.MustCompile(`(?i)\bwhat('s| is) happening\b`)},
}

// recencyPattern detects explicit recency language that forces the
// tightest freshness window.
var recencyPattern = regexp.MustCompile(`(?i)\b(today|right now|currently|latest|breaking|just (happened|announced))\b`)

// comparativePattern detects queries weighing alternatives.
var comparativePattern = regexp.MustCompile(`(?i)\b(vs\.?|versus|compare[d]?|difference between|better than|pros and cons|trade-?offs?)\b`)

// reasoningPattern detects multi-step reasoning requests.
var reasoningPattern = regexp.MustCompile(`(?i)\b(explain (why|how)|walk me through|step[- ]by[- ]step|analy[sz]e|implications?|what would happen if)\b`)

var (
	explicitWebPattern = regexp.MustCompile(`(?i)\bsearch the web\b`)
	weekWindowPattern  = regexp.MustCompile(`(?i)\bthis (week|month)\b`)
)

// Analyze classifies a query and extracts its content keywords.
func (a *QueryAnalyzer) Analyze(text string) domain.QueryClassification {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return domain.QueryClassification{
			Intent:     domain.IntentConversational,
			Complexity: domain.ComplexitySimple,
		}
	}

	tokens := lexicon.Tokenize(trimmed)
	mode := filterMode(trimmed)
	keywords := lexicon.Filter(tokens, mode)
	comparative := comparativePattern.MatchString(trimmed)

	classification := domain.QueryClassification{
		Intent:      a.classifyIntent(trimmed, tokens, keywords),
		Complexity:  a.gradeComplexity(trimmed, keywords, comparative),
		Keywords:    keywords,
		Comparative: comparative,
		Freshness:   a.freshness(trimmed),
	}

	logger.Debug("Query classified: intent=%s complexity=%s keywords=%d",
		classification.Intent, classification.Complexity, len(keywords))

	return classification
}

// classifyIntent applies the ordered rule list first and falls back to
// length and keyword-density heuristics.
func (a *QueryAnalyzer) classifyIntent(text string, tokens, keywords []string) domain.QueryIntent {
	for _, rule := range intentRules {
		if rule.pattern.MatchString(text) {
			return rule.intent
		}
	}

	if reasoningPattern.MatchString(text) || comparativePattern.MatchString(text) {
		return domain.IntentComplexReasoning
	}

	// Long queries rich in content terms are reasoning requests even
	// without an explicit marker.
	if len(tokens) > 20 && len(keywords) > 10 {
		return domain.IntentComplexReasoning
	}

	// Question-shaped input with content terms is a factual lookup.
	if len(keywords) > 0 && (strings.HasSuffix(text, "?") || leadsWithQuestionWord(tokens)) {
		return domain.IntentFactual
	}

	// Low keyword density means small talk.
	if len(tokens) > 0 && float64(len(keywords))/float64(len(tokens)) < 0.25 {
		return domain.IntentConversational
	}

	if len(keywords) == 0 {
		return domain.IntentConversational
	}

	return domain.IntentFactual
}

// gradeComplexity assigns the complexity tier.
func (a *QueryAnalyzer) gradeComplexity(text string, keywords []string, comparative bool) domain.Complexity {
	clauses := strings.Count(text, ",") + strings.Count(text, ";") + 1

	switch {
	case comparative, len(keywords) > 14, clauses > 3:
		return domain.ComplexityComplex
	case len(keywords) > 6, clauses > 1:
		return domain.ComplexityModerate
	default:
		return domain.ComplexitySimple
	}
}

// freshness derives the web recency window. Explicit recency language
// or an explicit web-search phrasing forces the tightest window; the
// zero value defers to the configured default.
func (a *QueryAnalyzer) freshness(text string) domain.FreshnessWindow {
	if recencyPattern.MatchString(text) {
		return domain.FreshnessDay
	}
	if explicitWebPattern.MatchString(text) {
		return domain.FreshnessDay
	}
	if weekWindowPattern.MatchString(text) {
		return domain.FreshnessWeek
	}
	return ""
}

// filterMode picks question-context or statement-context stop-word rules.
func filterMode(text string) lexicon.FilterMode {
	if strings.HasSuffix(strings.TrimSpace(text), "?") {
		return lexicon.ModeQuestion
	}
	if leadsWithQuestionWord(lexicon.Tokenize(text)) {
		return lexicon.ModeQuestion
	}
	return lexicon.ModeStatement
}

func leadsWithQuestionWord(tokens []string) bool {
	if len(tokens) == 0 {
		return false
	}
	first := strings.TrimSuffix(tokens[0], "'s")
	return lexicon.CategoryOf(first) == lexicon.CategoryQuestionWord
}
