package services

// EstimateTokens returns a conservative token count for text. English
// prose averages roughly four characters per token; dividing by three
// deliberately overestimates so the assembler's hard budget can never
// be exceeded by estimation error.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	runes := len([]rune(text))
	return runes/3 + 1
}
