package store

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/wortschatz/wortschatz/internal/similarity"
	"github.com/wortschatz/wortschatz/internal/sm2"
	"github.com/wortschatz/wortschatz/internal/types"
)

// MaxVocabularyLimit caps vocabulary listings regardless of the requested limit.
const MaxVocabularyLimit = 2000

// FileStore keeps all phrases in memory and rewrites a gzip-compressed
// JSON-lines file after every mutation. An empty path selects an in-memory
// store whose writes are skipped, which is what tests use.
//
// A single mutex serializes all access; the HTTP layer above this store
// admits concurrent callers.
type FileStore struct {
	mu        sync.Mutex
	path      string
	phrases   map[string]*types.Phrase
	order     []string // insertion order of ids
	nextID    int
	threshold float64
	now       func() time.Time
}

// record is the on-disk shape of a phrase. The id travels under "_id" and
// next_review as a nullable ISO-8601 string.
type record struct {
	ID           string  `json:"_id"`
	German       string  `json:"german"`
	EaseFactor   float64 `json:"ease_factor"`
	IntervalDays int     `json:"interval_days"`
	Repetition   int     `json:"repetition"`
	NextReview   *string `json:"next_review"`
}

// Option configures a FileStore.
type Option func(*FileStore)

// WithThreshold overrides the duplicate-detection similarity threshold.
func WithThreshold(t float64) Option {
	return func(s *FileStore) { s.threshold = t }
}

// WithClock overrides the time source. Tests use this to pin "now".
func WithClock(now func() time.Time) Option {
	return func(s *FileStore) { s.now = now }
}

// NewFileStore loads the phrase collection from path, creating an empty
// store if the file does not exist yet. An empty path yields an ephemeral
// in-memory store.
func NewFileStore(path string, opts ...Option) (*FileStore, error) {
	s := &FileStore{
		path:      path,
		phrases:   make(map[string]*types.Phrase),
		nextID:    1,
		threshold: similarity.DefaultThreshold,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) load() error {
	if s.path == "" {
		return nil
	}

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open phrase file: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorruptFile, s.path, err)
	}
	defer gz.Close()

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var rec record
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return fmt.Errorf("%w: %s line %d: %v", ErrCorruptFile, s.path, line, err)
		}
		p, err := rec.toPhrase()
		if err != nil {
			return fmt.Errorf("%w: %s line %d: %v", ErrCorruptFile, s.path, line, err)
		}
		s.phrases[p.ID] = p
		s.order = append(s.order, p.ID)
		if n, err := strconv.Atoi(p.ID); err == nil && n >= s.nextID {
			s.nextID = n + 1
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorruptFile, s.path, err)
	}
	return nil
}

// save rewrites the whole backing file. It writes to a temporary file in the
// same directory and renames it into place so readers never observe a
// partially written file. Callers must hold the mutex.
func (s *FileStore) save() error {
	if s.path == "" {
		return nil
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create phrase directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".phrases-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp phrase file: %w", err)
	}
	defer os.Remove(tmp.Name())

	gz := gzip.NewWriter(tmp)
	enc := json.NewEncoder(gz)
	for _, id := range s.order {
		if err := enc.Encode(toRecord(s.phrases[id])); err != nil {
			tmp.Close()
			return fmt.Errorf("encode phrase %s: %w", id, err)
		}
	}
	if err := gz.Close(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush phrase file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp phrase file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace phrase file: %w", err)
	}
	return nil
}

// AddPhrase inserts a new phrase or reports the existing near-duplicate.
// Duplicate detection scans stored phrases in insertion order and takes the
// first one at or above the similarity threshold.
func (s *FileStore) AddPhrase(german string) (types.AddResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidate := similarity.Normalize(german)
	for _, id := range s.order {
		existing := s.phrases[id]
		if similarity.Jaccard(candidate, similarity.Normalize(existing.German)) >= s.threshold {
			text := existing.German
			return types.AddResult{ID: existing.ID, IsNew: false, Existing: &text}, nil
		}
	}

	id := strconv.Itoa(s.nextID)
	now := s.now()
	sched := sm2.NewSchedule()
	p := &types.Phrase{
		ID:           id,
		German:       german,
		EaseFactor:   sched.EaseFactor,
		IntervalDays: sched.IntervalDays,
		Repetition:   sched.Repetition,
		NextReview:   &now,
	}
	s.phrases[id] = p
	s.order = append(s.order, id)
	s.nextID++

	if err := s.save(); err != nil {
		return types.AddResult{}, err
	}
	return types.AddResult{ID: id, IsNew: true}, nil
}

// UpdateReview recomputes the schedule for a phrase after a review.
// Unknown ids are ignored so that stale references from the caller never
// fail a review session.
func (s *FileStore) UpdateReview(id string, quality int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.phrases[id]
	if !ok {
		return nil
	}

	sched, next := sm2.Next(sm2.Schedule{
		EaseFactor:   p.EaseFactor,
		IntervalDays: p.IntervalDays,
		Repetition:   p.Repetition,
	}, quality, s.now())

	p.EaseFactor = sched.EaseFactor
	p.IntervalDays = sched.IntervalDays
	p.Repetition = sched.Repetition
	p.NextReview = &next

	return s.save()
}

// GetAllPhrases returns snapshots of every phrase in insertion order.
func (s *FileStore) GetAllPhrases() []types.Phrase {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.Phrase, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.phrases[id])
	}
	return out
}

// GetDuePhrases returns phrases whose next review is at or before now. When
// nothing is due but phrases exist, every phrase is returned ordered by
// ascending next-review time (unscheduled first) so the caller can still
// run a session. A limit <= 0 means no limit.
func (s *FileStore) GetDuePhrases(limit int) []types.Phrase {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var due []types.Phrase
	for _, id := range s.order {
		if p := s.phrases[id]; p.Due(now) {
			due = append(due, *p)
		}
	}

	if len(due) == 0 && len(s.order) > 0 {
		for _, id := range s.order {
			due = append(due, *s.phrases[id])
		}
		sort.SliceStable(due, func(i, j int) bool {
			return reviewKey(due[i]).Before(reviewKey(due[j]))
		})
	}

	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due
}

// reviewKey orders phrases by next review, sorting unscheduled ones first.
func reviewKey(p types.Phrase) time.Time {
	if p.NextReview == nil {
		return time.Time{}
	}
	return *p.NextReview
}

// GetVocabulary returns phrases ordered by the requested key. The limit is
// capped at MaxVocabularyLimit regardless of what was asked for.
func (s *FileStore) GetVocabulary(limit int, sortBy types.SortKey, ascending bool) []types.Phrase {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.Phrase, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.phrases[id])
	}

	var less func(a, b types.Phrase) bool
	switch sortBy {
	case types.SortAlphabetical:
		less = func(a, b types.Phrase) bool {
			return strings.ToLower(a.German) < strings.ToLower(b.German)
		}
	case types.SortMastery:
		// Ease times interval approximates how well a phrase is retained.
		less = func(a, b types.Phrase) bool {
			return a.EaseFactor*float64(a.IntervalDays) < b.EaseFactor*float64(b.IntervalDays)
		}
	default: // types.SortID
		less = func(a, b types.Phrase) bool {
			return numericID(a.ID) < numericID(b.ID)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if ascending {
			return less(out[i], out[j])
		}
		return less(out[j], out[i])
	})

	if limit <= 0 || limit > MaxVocabularyLimit {
		limit = MaxVocabularyLimit
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func numericID(id string) int {
	n, _ := strconv.Atoi(id)
	return n
}

// RemovePhrases deletes the listed ids and persists once if anything was
// removed. Ids that are not present come back in NotFound rather than
// failing the call.
func (s *FileStore) RemovePhrases(ids []string) (types.RemoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result types.RemoveResult
	removed := make(map[string]bool)
	for _, id := range ids {
		if _, ok := s.phrases[id]; ok && !removed[id] {
			delete(s.phrases, id)
			removed[id] = true
			result.Removed = append(result.Removed, id)
		} else {
			result.NotFound = append(result.NotFound, id)
		}
	}

	if len(result.Removed) > 0 {
		kept := s.order[:0]
		for _, id := range s.order {
			if !removed[id] {
				kept = append(kept, id)
			}
		}
		s.order = kept

		if err := s.save(); err != nil {
			return types.RemoveResult{}, err
		}
	}
	return result, nil
}

// Count returns the number of stored phrases.
func (s *FileStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// Close is a no-op; every mutation already persisted synchronously.
func (s *FileStore) Close() error {
	return nil
}

func toRecord(p *types.Phrase) record {
	var next *string
	if p.NextReview != nil {
		v := p.NextReview.Format(time.RFC3339Nano)
		next = &v
	}
	return record{
		ID:           p.ID,
		German:       p.German,
		EaseFactor:   p.EaseFactor,
		IntervalDays: p.IntervalDays,
		Repetition:   p.Repetition,
		NextReview:   next,
	}
}

// toPhrase converts a stored record, tolerating older files: a missing
// repetition defaults to zero and a missing ease factor to the SM-2 default.
// Timestamps are accepted with or without a zone offset; legacy files were
// written as bare local ISO-8601.
func (rec record) toPhrase() (*types.Phrase, error) {
	p := &types.Phrase{
		ID:           rec.ID,
		German:       rec.German,
		EaseFactor:   rec.EaseFactor,
		IntervalDays: rec.IntervalDays,
		Repetition:   rec.Repetition,
	}
	if p.ID == "" {
		return nil, fmt.Errorf("record missing _id")
	}
	if p.EaseFactor == 0 {
		p.EaseFactor = sm2.DefaultEaseFactor
	}
	if rec.NextReview != nil {
		t, err := parseTimestamp(*rec.NextReview)
		if err != nil {
			return nil, fmt.Errorf("next_review: %w", err)
		}
		p.NextReview = &t
	}
	return p, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
