package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/rememba-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/rememba-cli/internal/core/domain"
	"github.com/custodia-labs/rememba-cli/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to
// all metadata store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.rememba/data/metadata.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".rememba", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "metadata.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// MemoryStore returns a MemoryStore interface backed by this store.
func (s *Store) MemoryStore() driven.MemoryStore {
	return &memoryStore{store: s}
}

// HistoryStore returns a HistoryStore interface backed by this store.
func (s *Store) HistoryStore() driven.HistoryStore {
	return &historyStore{store: s}
}

// SummaryStore returns a SummaryStore interface backed by this store.
func (s *Store) SummaryStore() driven.SummaryStore {
	return &summaryStore{store: s}
}

// SchedulerStore returns a SchedulerStore interface backed by this store.
func (s *Store) SchedulerStore() driven.SchedulerStore {
	return &schedulerStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Memory Store ====================

// memoryStore implements driven.MemoryStore.
type memoryStore struct {
	store *Store
}

var _ driven.MemoryStore = (*memoryStore)(nil)

// SaveMemory stores a new memory.
func (s *memoryStore) SaveMemory(ctx context.Context, mem *domain.Memory) error {
	if mem == nil || mem.ID == "" {
		return domain.ErrInvalidInput
	}

	if mem.CreatedAt.IsZero() {
		mem.CreatedAt = time.Now().UTC()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO memories (id, user_id, thread_id, content, tier, priority, created_at, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, mem.ID, mem.UserID, mem.ThreadID, mem.Content, mem.Tier.String(), mem.Priority,
		mem.CreatedAt.Format(time.RFC3339), formatNullableTime(mem.DeletedAt))

	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("saving memory: %w", err)
	}
	return nil
}

// GetMemory retrieves a memory by ID, including tombstoned rows.
func (s *memoryStore) GetMemory(ctx context.Context, id string) (*domain.Memory, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, user_id, thread_id, content, tier, priority, created_at, deleted_at
		FROM memories WHERE id = ?
	`, id)

	mem, err := scanMemory(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return mem, nil
}

// SearchMemories returns live memories matching any keyword, capped at limit.
func (s *memoryStore) SearchMemories(ctx context.Context, userID, threadID string, keywords []string, limit int) ([]domain.Memory, error) {
	query := `
		SELECT id, user_id, thread_id, content, tier, priority, created_at, deleted_at
		FROM memories
		WHERE user_id = ? AND deleted_at IS NULL
	`
	args := []interface{}{userID}

	if threadID != "" {
		query += " AND thread_id = ?"
		args = append(args, threadID)
	}

	if len(keywords) > 0 {
		var clauses []string
		for _, kw := range keywords {
			if kw == "" {
				continue
			}
			clauses = append(clauses, "instr(lower(content), ?) > 0")
			args = append(args, strings.ToLower(kw))
		}
		if len(clauses) > 0 {
			query += " AND (" + strings.Join(clauses, " OR ") + ")"
		}
	}

	query += " ORDER BY created_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	return s.queryMemories(ctx, query, args...)
}

// ListMemories returns all live memories for a user, newest first.
func (s *memoryStore) ListMemories(ctx context.Context, userID string, limit int) ([]domain.Memory, error) {
	query := `
		SELECT id, user_id, thread_id, content, tier, priority, created_at, deleted_at
		FROM memories
		WHERE user_id = ? AND deleted_at IS NULL
		ORDER BY created_at DESC
	`
	args := []interface{}{userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	return s.queryMemories(ctx, query, args...)
}

// DeleteMemory tombstones a memory. Idempotent: already-deleted rows
// keep their original tombstone time.
func (s *memoryStore) DeleteMemory(ctx context.Context, id string, at time.Time) error {
	_, err := s.store.db.ExecContext(ctx, `
		UPDATE memories SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL
	`, at.UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("deleting memory: %w", err)
	}
	return nil
}

func (s *memoryStore) queryMemories(ctx context.Context, query string, args ...interface{}) ([]domain.Memory, error) {
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying memories: %w", err)
	}
	defer rows.Close()

	var memories []domain.Memory //nolint:prealloc // size unknown from query
	for rows.Next() {
		mem, err := scanMemory(rows.Scan)
		if err != nil {
			return nil, err
		}
		memories = append(memories, *mem)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating memories: %w", err)
	}

	return memories, nil
}

// scanMemory scans a memory from a row or rows scan function.
func scanMemory(scan func(...interface{}) error) (*domain.Memory, error) {
	var mem domain.Memory
	var tier, createdAt string
	var deletedAt sql.NullString

	if err := scan(&mem.ID, &mem.UserID, &mem.ThreadID, &mem.Content,
		&tier, &mem.Priority, &createdAt, &deletedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("scanning memory: %w", err)
	}

	mem.Tier = domain.Tier(tier)
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		mem.CreatedAt = t
	}
	mem.DeletedAt = parseNullableTime(deletedAt)

	return &mem, nil
}

// ==================== History Store ====================

// historyStore implements driven.HistoryStore.
type historyStore struct {
	store *Store
}

var _ driven.HistoryStore = (*historyStore)(nil)

// AppendTurn records a turn at the end of a thread.
func (s *historyStore) AppendTurn(ctx context.Context, turn *domain.ConversationTurn) error {
	if turn == nil || turn.ThreadID == "" {
		return domain.ErrInvalidInput
	}

	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO conversation_turns (thread_id, role, content, created_at)
		VALUES (?, ?, ?, ?)
	`, turn.ThreadID, turn.Role, turn.Content, turn.CreatedAt.Format(time.RFC3339))

	if err != nil {
		return fmt.Errorf("appending turn: %w", err)
	}
	return nil
}

// RecentTurns returns the newest n turns in chronological order.
// n <= 0 returns all turns.
func (s *historyStore) RecentTurns(ctx context.Context, threadID string, n int) ([]domain.ConversationTurn, error) {
	query := `
		SELECT thread_id, role, content, created_at
		FROM conversation_turns
		WHERE thread_id = ?
		ORDER BY id DESC
	`
	args := []interface{}{threadID}
	if n > 0 {
		query += " LIMIT ?"
		args = append(args, n)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}
	defer rows.Close()

	var turns []domain.ConversationTurn //nolint:prealloc // size unknown from query
	for rows.Next() {
		var turn domain.ConversationTurn
		var createdAt string
		if err := rows.Scan(&turn.ThreadID, &turn.Role, &turn.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			turn.CreatedAt = t
		}
		turns = append(turns, turn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating turns: %w", err)
	}

	// Newest-first from the query; callers want chronological.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}

	return turns, nil
}

// ThreadStats returns the audit counters for a thread.
func (s *historyStore) ThreadStats(ctx context.Context, threadID string) (*domain.ThreadStats, error) {
	stats := &domain.ThreadStats{ThreadID: threadID}

	var lastActivity sql.NullString
	var contentLength sql.NullInt64
	row := s.store.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(LENGTH(content)), 0), MAX(created_at)
		FROM conversation_turns WHERE thread_id = ?
	`, threadID)
	if err := row.Scan(&stats.MessageCount, &contentLength, &lastActivity); err != nil {
		return nil, fmt.Errorf("scanning thread stats: %w", err)
	}
	// Conservative token estimate, matching the assembler's arithmetic.
	if contentLength.Valid && contentLength.Int64 > 0 {
		stats.TokenCount = int(contentLength.Int64)/3 + stats.MessageCount
	}
	stats.LastActivityAt = parseNullableTime(lastActivity)

	row = s.store.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN tier IN ('tier1', 'tier2') THEN 1 ELSE 0 END), 0)
		FROM memories WHERE thread_id = ? AND deleted_at IS NULL
	`, threadID)
	if err := row.Scan(&stats.MemoryCount, &stats.HighTierMemoryCount); err != nil {
		return nil, fmt.Errorf("scanning memory counts: %w", err)
	}

	return stats, nil
}

// ActiveThreads returns threads with activity since the cutoff.
func (s *historyStore) ActiveThreads(ctx context.Context, since time.Time) ([]string, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT DISTINCT thread_id FROM conversation_turns
		WHERE created_at > ?
	`, since.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("querying active threads: %w", err)
	}
	defer rows.Close()

	var threads []string //nolint:prealloc // size unknown from query
	for rows.Next() {
		var threadID string
		if err := rows.Scan(&threadID); err != nil {
			return nil, fmt.Errorf("scanning thread ID: %w", err)
		}
		threads = append(threads, threadID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating active threads: %w", err)
	}

	return threads, nil
}

// ==================== Summary Store ====================

// summaryStore implements driven.SummaryStore.
type summaryStore struct {
	store *Store
}

var _ driven.SummaryStore = (*summaryStore)(nil)

// UpsertSummary inserts or replaces the summary for a thread.
func (s *summaryStore) UpsertSummary(ctx context.Context, summary *domain.ConversationSummary) error {
	if summary == nil || summary.ThreadID == "" {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO conversation_summaries (thread_id, summary_text, importance_score, generated_at, next_due_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(thread_id) DO UPDATE SET
			summary_text = excluded.summary_text,
			importance_score = excluded.importance_score,
			generated_at = excluded.generated_at,
			next_due_at = excluded.next_due_at
	`, summary.ThreadID, summary.SummaryText, summary.ImportanceScore,
		summary.GeneratedAt.UTC().Format(time.RFC3339),
		summary.NextDueAt.UTC().Format(time.RFC3339))

	if err != nil {
		return fmt.Errorf("upserting summary: %w", err)
	}
	return nil
}

// GetSummary retrieves the summary for a thread.
func (s *summaryStore) GetSummary(ctx context.Context, threadID string) (*domain.ConversationSummary, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT thread_id, summary_text, importance_score, generated_at, next_due_at
		FROM conversation_summaries WHERE thread_id = ?
	`, threadID)

	summary, err := scanSummary(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return summary, nil
}

// RecentSummaries returns up to n summaries, newest first.
func (s *summaryStore) RecentSummaries(ctx context.Context, n int) ([]domain.ConversationSummary, error) {
	query := `
		SELECT thread_id, summary_text, importance_score, generated_at, next_due_at
		FROM conversation_summaries
		ORDER BY generated_at DESC
	`
	args := []interface{}{}
	if n > 0 {
		query += " LIMIT ?"
		args = append(args, n)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying summaries: %w", err)
	}
	defer rows.Close()

	var summaries []domain.ConversationSummary //nolint:prealloc // size unknown from query
	for rows.Next() {
		summary, err := scanSummary(rows.Scan)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *summary)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating summaries: %w", err)
	}

	return summaries, nil
}

// scanSummary scans a summary from a row or rows scan function.
func scanSummary(scan func(...interface{}) error) (*domain.ConversationSummary, error) {
	var summary domain.ConversationSummary
	var generatedAt, nextDueAt string

	if err := scan(&summary.ThreadID, &summary.SummaryText, &summary.ImportanceScore,
		&generatedAt, &nextDueAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("scanning summary: %w", err)
	}

	if t, err := time.Parse(time.RFC3339, generatedAt); err == nil {
		summary.GeneratedAt = t
	}
	if t, err := time.Parse(time.RFC3339, nextDueAt); err == nil {
		summary.NextDueAt = t
	}

	return &summary, nil
}
