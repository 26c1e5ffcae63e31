package store

import (
	"github.com/wortschatz/wortschatz/internal/types"
)

// Store defines the interface contract for phrase storage operations.
// It is the sole owner of phrase records; callers address phrases by id.
type Store interface {
	// AddPhrase inserts a new phrase unless a sufficiently similar one
	// already exists, in which case the existing record is reported and
	// the store is left unmodified.
	AddPhrase(german string) (types.AddResult, error)

	// UpdateReview applies a recall-quality rating to a phrase's schedule.
	// An unknown id is a silent no-op; callers may hold stale references.
	UpdateReview(id string, quality int) error

	// GetAllPhrases returns snapshots of every phrase in insertion order.
	GetAllPhrases() []types.Phrase

	// GetDuePhrases returns phrases due for review. If nothing is due but
	// the store is non-empty, it falls back to all phrases ordered by
	// ascending next-review time so a session can always proceed.
	// A limit <= 0 means no limit.
	GetDuePhrases(limit int) []types.Phrase

	// GetVocabulary returns phrases ordered by the given key and direction.
	// The effective limit is capped at MaxVocabularyLimit.
	GetVocabulary(limit int, sortBy types.SortKey, ascending bool) []types.Phrase

	// RemovePhrases deletes the listed ids, reporting which were removed
	// and which were not present. Unknown ids are not an error.
	RemovePhrases(ids []string) (types.RemoveResult, error)

	// Count returns the number of stored phrases.
	Count() int

	Close() error
}
