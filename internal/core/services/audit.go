package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/rememba-cli/internal/core/domain"
	"github.com/custodia-labs/rememba-cli/internal/core/ports/driven"
	"github.com/custodia-labs/rememba-cli/internal/core/ports/driving"
	"github.com/custodia-labs/rememba-cli/internal/logger"
)

// auditLookback bounds how far back AuditAll scans for active threads.
const auditLookback = 7 * 24 * time.Hour

var _ driving.AuditService = (*AuditService)(nil)

// AuditService refreshes rolling conversation summaries in the
// background. A thread is audited when its activity crosses the
// configured message/token/elapsed thresholds, subject to a debounce so
// bursty conversations are not summarised mid-flight. Refresh cadence
// scales with importance: important threads get short intervals and
// longer summaries.
type AuditService struct {
	history    driven.HistoryStore
	summaries  driven.SummaryStore
	summariser driven.Summariser
	settings   domain.AuditSettings

	mu        sync.Mutex
	inFlight  map[string]bool
	lastTouch map[string]time.Time
}

// NewAuditService creates an audit service. The summariser may be nil,
// in which case audits fall back to structural summaries.
func NewAuditService(history driven.HistoryStore, summaries driven.SummaryStore, summariser driven.Summariser, settings domain.AuditSettings) *AuditService {
	return &AuditService{
		history:    history,
		summaries:  summaries,
		summariser: summariser,
		settings:   settings,
		inFlight:   make(map[string]bool),
		lastTouch:  make(map[string]time.Time),
	}
}

// Touch records activity on a thread for debounce tracking. Call it on
// every recorded turn.
func (s *AuditService) Touch(threadID string) {
	s.mu.Lock()
	s.lastTouch[threadID] = time.Now()
	s.mu.Unlock()
}

// AuditAll scans active threads and refreshes every summary that is due.
// Returns the number of summaries refreshed.
func (s *AuditService) AuditAll(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-auditLookback)
	threads, err := s.history.ActiveThreads(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("listing active threads: %w", err)
	}

	refreshed := 0
	for _, threadID := range threads {
		due, err := s.due(ctx, threadID)
		if err != nil {
			logger.Warn("Audit check failed for thread %s: %v", threadID, err)
			continue
		}
		if !due {
			continue
		}
		if _, err := s.AuditThread(ctx, threadID); err != nil {
			logger.Warn("Audit failed for thread %s: %v", threadID, err)
			continue
		}
		refreshed++
	}
	return refreshed, nil
}

// AuditThread refreshes the summary for a single thread unconditionally.
// Concurrent audits of the same thread are rejected with
// ErrAuditInProgress.
func (s *AuditService) AuditThread(ctx context.Context, threadID string) (*domain.ConversationSummary, error) {
	s.mu.Lock()
	if s.inFlight[threadID] {
		s.mu.Unlock()
		return nil, fmt.Errorf("thread %s: %w", threadID, domain.ErrAuditInProgress)
	}
	s.inFlight[threadID] = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.inFlight, threadID)
		s.mu.Unlock()
	}()

	stats, err := s.history.ThreadStats(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("loading thread stats: %w", err)
	}

	importance := s.importance(stats)
	maxTokens := s.summaryLength(importance)

	text, err := s.summarise(ctx, threadID, maxTokens)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	summary := &domain.ConversationSummary{
		ThreadID:        threadID,
		SummaryText:     text,
		ImportanceScore: importance,
		GeneratedAt:     now,
		NextDueAt:       now.Add(s.refreshInterval(importance)),
	}
	if err := s.summaries.UpsertSummary(ctx, summary); err != nil {
		return nil, fmt.Errorf("saving summary: %w", err)
	}

	logger.Info("Audited thread %s: importance %.2f, next due %s",
		threadID, importance, summary.NextDueAt.Format(time.RFC3339))
	return summary, nil
}

// due decides whether a thread's summary should be refreshed now.
func (s *AuditService) due(ctx context.Context, threadID string) (bool, error) {
	now := time.Now()

	// Debounce: an actively-typing thread is left alone.
	s.mu.Lock()
	touched := s.lastTouch[threadID]
	s.mu.Unlock()
	if !touched.IsZero() && now.Sub(touched) < s.settings.Debounce {
		return false, nil
	}

	summary, err := s.summaries.GetSummary(ctx, threadID)
	if err == nil && !summary.Stale(now) {
		return false, nil
	}

	stats, err := s.history.ThreadStats(ctx, threadID)
	if err != nil {
		return false, err
	}
	if stats.MessageCount == 0 {
		return false, nil
	}

	if stats.MessageCount >= s.settings.MessageThreshold {
		return true, nil
	}
	if stats.TokenCount >= s.settings.TokenThreshold {
		return true, nil
	}
	if !stats.LastActivityAt.IsZero() && now.Sub(stats.LastActivityAt) >= s.settings.ElapsedThreshold {
		return true, nil
	}
	return false, nil
}

// importance estimates how much a thread matters, in [0,1]. Memory
// density dominates: a thread the user saved facts from is worth
// keeping fresh. High-tier memories, length and recent activity add
// smaller contributions.
func (s *AuditService) importance(stats *domain.ThreadStats) float64 {
	score := 0.0

	if stats.MessageCount > 0 {
		density := float64(stats.MemoryCount) / float64(stats.MessageCount)
		if density > 1 {
			density = 1
		}
		score += 0.4 * density
	}

	if stats.HighTierMemoryCount > 0 {
		score += 0.2
	}

	length := float64(stats.MessageCount) / 50.0
	if length > 1 {
		length = 1
	}
	score += 0.2 * length

	if !stats.LastActivityAt.IsZero() {
		age := time.Since(stats.LastActivityAt)
		switch {
		case age <= 24*time.Hour:
			score += 0.2
		case age <= 7*24*time.Hour:
			score += 0.1
		}
	}

	if score > 1 {
		score = 1
	}
	return score
}

// refreshInterval maps importance to the next refresh delay: the
// maximum interval at zero importance down to the minimum at full
// importance, linearly.
func (s *AuditService) refreshInterval(importance float64) time.Duration {
	span := s.settings.MaxRefreshInterval - s.settings.MinRefreshInterval
	return s.settings.MaxRefreshInterval - time.Duration(importance*float64(span))
}

// summaryLength allows longer summaries for important threads: the base
// length at zero importance, up to double at full importance.
func (s *AuditService) summaryLength(importance float64) int {
	return s.settings.BaseSummaryLength + int(importance*float64(s.settings.BaseSummaryLength))
}

// summarise produces the summary text, via the model when available and
// structurally otherwise.
func (s *AuditService) summarise(ctx context.Context, threadID string, maxTokens int) (string, error) {
	turns, err := s.history.RecentTurns(ctx, threadID, 0)
	if err != nil {
		return "", fmt.Errorf("loading turns: %w", err)
	}
	if len(turns) == 0 {
		return "", fmt.Errorf("thread %s has no turns: %w", threadID, domain.ErrNotFound)
	}

	if s.summariser != nil {
		transcript := renderTranscript(turns)
		text, err := s.summariser.Summarise(ctx, transcript, maxTokens)
		if err == nil && text != "" {
			return text, nil
		}
		if err != nil {
			logger.Warn("Summariser failed for thread %s, using structural summary: %v", threadID, err)
		}
	}

	first := turns[0]
	last := turns[len(turns)-1]
	return fmt.Sprintf("Conversation opened with: %s. %d exchanges recorded. Latest: %s.",
		snippet(first.Content, 120), len(turns), snippet(last.Content, 120)), nil
}

// renderTranscript flattens turns for the summariser prompt.
func renderTranscript(turns []domain.ConversationTurn) string {
	out := ""
	for i, turn := range turns {
		if i > 0 {
			out += "\n"
		}
		out += turn.Role + ": " + turn.Content
	}
	return out
}
