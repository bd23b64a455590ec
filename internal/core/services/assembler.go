package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/rememba-cli/internal/core/domain"
	"github.com/custodia-labs/rememba-cli/internal/core/ports/driven"
	"github.com/custodia-labs/rememba-cli/internal/logger"
)

// ContextAssembler packs retrieval results, raw conversation turns and
// rolling summaries into a token-budgeted, priority-ordered context
// payload. The budget is a hard ceiling: token counting is deliberately
// conservative so the assembled total can never exceed it.
type ContextAssembler struct {
	history   driven.HistoryStore
	summaries driven.SummaryStore
	settings  domain.Settings
}

// NewContextAssembler creates a context assembler.
func NewContextAssembler(history driven.HistoryStore, summaries driven.SummaryStore, settings domain.Settings) *ContextAssembler {
	return &ContextAssembler{
		history:   history,
		summaries: summaries,
		settings:  settings,
	}
}

// Assemble builds the final context for a query. Allocation order:
// raw recent turns (never trimmed below the configured minimum), then
// correction candidates (always included), then candidates by enhanced
// score, then summaries by recency.
func (a *ContextAssembler) Assemble(ctx context.Context, query domain.Query, result domain.HybridResult, budget int) *domain.AssembledContext {
	logger.Section("Context Assembly")
	if budget <= 0 {
		budget = a.settings.TokenBudget
	}

	assembled := &domain.AssembledContext{Result: result}
	remaining := budget

	// Raw recent turns first. The newest MinRecentTurns are kept even
	// when they alone approach the budget; beyond the minimum, turns
	// are added oldest-newest only while they fit.
	turns := a.recentTurns(ctx, query.ThreadID)
	turnBlocks := a.packTurns(turns, &remaining)

	// Correction candidates are never dropped, regardless of score.
	var blocks []domain.ContextBlock
	for _, c := range result.Candidates {
		if !c.Correction {
			continue
		}
		block := candidateBlock(c)
		if block.Tokens > remaining {
			// Guard: truncate rather than exceed the budget.
			block = truncateBlock(block, remaining)
			logger.Warn("Correction candidate truncated to fit budget")
		}
		if block.Tokens > 0 {
			blocks = append(blocks, block)
			remaining -= block.Tokens
		}
	}

	// Highest enhanced score next, in result order (already sorted).
	for _, c := range result.Candidates {
		if c.Correction {
			continue
		}
		block := candidateBlock(c)
		if block.Tokens > remaining {
			continue
		}
		blocks = append(blocks, block)
		remaining -= block.Tokens
	}

	// Summaries by recency fill what remains.
	for _, summary := range a.summariesFor(ctx, query.ThreadID) {
		block := domain.ContextBlock{
			Kind:   domain.BlockSummary,
			Text:   summary.SummaryText,
			Tokens: EstimateTokens(summary.SummaryText),
		}
		if block.Tokens > remaining {
			continue
		}
		blocks = append(blocks, block)
		remaining -= block.Tokens
	}

	assembled.Blocks = append(blocks, turnBlocks...)
	assembled.TotalTokens = budget - remaining

	logger.Info("Assembled %d blocks, %d/%d tokens",
		len(assembled.Blocks), assembled.TotalTokens, budget)
	return assembled
}

// recentTurns loads the thread's newest turns; a failing history store
// degrades to no turns rather than failing assembly.
func (a *ContextAssembler) recentTurns(ctx context.Context, threadID string) []domain.ConversationTurn {
	if a.history == nil || threadID == "" {
		return nil
	}
	turns, err := a.history.RecentTurns(ctx, threadID, a.settings.RecentTurns)
	if err != nil {
		logger.Warn("History unavailable for thread %s: %v", threadID, err)
		return nil
	}
	return turns
}

// packTurns reserves the minimum recent turns unconditionally and adds
// older turns only while the budget allows.
func (a *ContextAssembler) packTurns(turns []domain.ConversationTurn, remaining *int) []domain.ContextBlock {
	if len(turns) == 0 {
		return nil
	}

	minKeep := a.settings.MinRecentTurns
	if minKeep > len(turns) {
		minKeep = len(turns)
	}

	// Walk newest to oldest deciding inclusion, then restore order.
	var reversed []domain.ContextBlock
	for i := len(turns) - 1; i >= 0; i-- {
		turn := turns[i]
		text := turn.Role + ": " + turn.Content
		tokens := EstimateTokens(text)
		kept := len(reversed)

		if kept < minKeep {
			// Protected turns are truncated as a last resort, never
			// dropped.
			if tokens > *remaining {
				block := truncateBlock(domain.ContextBlock{
					Kind: domain.BlockConversation, Text: text, Tokens: tokens,
				}, *remaining)
				if block.Tokens == 0 {
					continue
				}
				reversed = append(reversed, block)
				*remaining -= block.Tokens
				continue
			}
		} else if tokens > *remaining {
			break
		}

		reversed = append(reversed, domain.ContextBlock{
			Kind:   domain.BlockConversation,
			Text:   text,
			Tokens: tokens,
		})
		*remaining -= tokens
	}

	blocks := make([]domain.ContextBlock, len(reversed))
	for i, b := range reversed {
		blocks[len(reversed)-1-i] = b
	}
	return blocks
}

// summariesFor returns the summaries to consider for the thread. The
// thread's own summary comes first; when it is missing or stale a
// deterministic fallback is synthesised on the spot and cached back, so
// no conversation is silently skipped for lack of a summary.
func (a *ContextAssembler) summariesFor(ctx context.Context, threadID string) []domain.ConversationSummary {
	if a.summaries == nil {
		return nil
	}

	var out []domain.ConversationSummary

	if threadID != "" {
		summary, err := a.summaries.GetSummary(ctx, threadID)
		switch {
		case err == nil && !summary.Stale(time.Now()):
			out = append(out, *summary)
		default:
			if fallback := a.fallbackSummary(ctx, threadID); fallback != nil {
				out = append(out, *fallback)
				if err := a.summaries.UpsertSummary(ctx, fallback); err != nil {
					logger.Warn("Failed to cache fallback summary: %v", err)
				}
			}
		}
	}

	recent, err := a.summaries.RecentSummaries(ctx, a.settings.MaxSummaries)
	if err != nil {
		logger.Warn("Recent summaries unavailable: %v", err)
		return out
	}
	for _, s := range recent {
		if s.ThreadID == threadID {
			continue
		}
		if len(out) >= a.settings.MaxSummaries {
			break
		}
		out = append(out, s)
	}
	return out
}

// fallbackSummary synthesises a structural summary from raw history:
// first message, exchange count, latest message. It is deterministic
// and cheap - a stopgap until the audit job writes a real one.
func (a *ContextAssembler) fallbackSummary(ctx context.Context, threadID string) *domain.ConversationSummary {
	if a.history == nil {
		return nil
	}
	turns, err := a.history.RecentTurns(ctx, threadID, a.settings.RecentTurns)
	if err != nil || len(turns) == 0 {
		return nil
	}

	first := turns[0]
	last := turns[len(turns)-1]
	text := fmt.Sprintf("Conversation opened with: %s. %d recent exchanges. Latest: %s.",
		snippet(first.Content, 120), len(turns), snippet(last.Content, 120))

	now := time.Now()
	return &domain.ConversationSummary{
		ThreadID:        threadID,
		SummaryText:     text,
		ImportanceScore: 0,
		GeneratedAt:     now,
		// Due immediately: the audit job should replace this.
		NextDueAt: now,
	}
}

// truncateBlock cuts a block's text to fit the remaining budget.
func truncateBlock(block domain.ContextBlock, budget int) domain.ContextBlock {
	if budget <= 0 {
		return domain.ContextBlock{Kind: block.Kind}
	}
	runes := []rune(block.Text)
	// Inverse of the conservative estimate: at most 3*(budget-1) runes.
	maxRunes := 3 * (budget - 1)
	if maxRunes <= 0 {
		return domain.ContextBlock{Kind: block.Kind}
	}
	if len(runes) > maxRunes {
		runes = runes[:maxRunes]
	}
	text := string(runes)
	return domain.ContextBlock{
		Kind:   block.Kind,
		Text:   text,
		Tokens: EstimateTokens(text),
	}
}

// candidateBlock tags a candidate with its provenance.
func candidateBlock(c domain.ScoredCandidate) domain.ContextBlock {
	kind := domain.BlockMemory
	if c.Source == domain.SourceWeb {
		kind = domain.BlockWeb
	}
	return domain.ContextBlock{
		Kind:   kind,
		Text:   c.Text,
		Tokens: EstimateTokens(c.Text),
	}
}

// snippet shortens text for the fallback summary.
func snippet(text string, maxRunes int) string {
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	return string(runes[:maxRunes]) + "..."
}
