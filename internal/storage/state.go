package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// JournalEntry records a run-once operation that has been applied.
type JournalEntry struct {
	Key       string
	Details   string
	AppliedAt time.Time
}

// GetJournalEntry returns the entry for key, or nil, nil if the operation
// has not been recorded.
func (s *SQLiteStore) GetJournalEntry(ctx context.Context, key string) (*JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entry JournalEntry
	var details sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT key, details, applied_at FROM run_journal WHERE key = ?",
		key,
	).Scan(&entry.Key, &details, &entry.AppliedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get journal entry: %w", err)
	}
	entry.Details = details.String
	return &entry, nil
}

// RecordJournal marks key as applied. Recording an existing key replaces it.
func (s *SQLiteStore) RecordJournal(ctx context.Context, key, details string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO run_journal (key, details, applied_at) VALUES (?, ?, ?)",
		key, details, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record journal entry: %w", err)
	}
	return nil
}

// GetSuggestion returns a cached category suggestion. Returns "", nil on a
// cache miss.
func (s *SQLiteStore) GetSuggestion(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var categoryID string
	err := s.db.QueryRowContext(ctx,
		"SELECT category_id FROM suggestion_cache WHERE key = ?",
		key,
	).Scan(&categoryID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get suggestion: %w", err)
	}
	return categoryID, nil
}

func (s *SQLiteStore) SetSuggestion(ctx context.Context, key, categoryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO suggestion_cache (key, category_id) VALUES (?, ?)",
		key, categoryID,
	)
	if err != nil {
		return fmt.Errorf("failed to set suggestion: %w", err)
	}
	return nil
}
