package types

import (
	"encoding/json"
	"time"
)

// Quality is the user's recall rating for a reviewed phrase.
// The conversational frontend translates its rating labels to this scale
// before calling the API.
type Quality int

const (
	QualityAgain Quality = 1
	QualityHard  Quality = 2
	QualityGood  Quality = 3
	QualityEasy  Quality = 4
)

// Phrase is a single learnable item with its spaced-repetition schedule.
// German holds the text exactly as supplied; normalization is applied only
// when comparing phrases, never to the stored value.
type Phrase struct {
	ID           string     `json:"id"`
	German       string     `json:"german"`
	EaseFactor   float64    `json:"ease_factor"`
	IntervalDays int        `json:"interval_days"`
	Repetition   int        `json:"repetition"`
	NextReview   *time.Time `json:"next_review"`
}

// AddResult reports the outcome of adding a phrase. When the text matched an
// existing entry, IsNew is false and Existing carries the stored original text.
type AddResult struct {
	ID       string  `json:"id"`
	IsNew    bool    `json:"is_new"`
	Existing *string `json:"existing"`
}

// RemoveResult partitions a removal request into ids that were deleted and
// ids that were not present.
type RemoveResult struct {
	Removed  []string `json:"removed"`
	NotFound []string `json:"not_found"`
}

// SortKey selects the ordering for vocabulary listings.
type SortKey string

const (
	SortAlphabetical SortKey = "alphabetical"
	SortMastery      SortKey = "mastery"
	SortID           SortKey = "id"
)

// AddPhraseRequest is the body of POST /api/v1/phrases.
type AddPhraseRequest struct {
	German string `json:"german"`
}

// ReviewRequest is the body of POST /api/v1/reviews.
type ReviewRequest struct {
	PhraseID string `json:"phrase_id"`
	Quality  int    `json:"quality"`
}

// RemoveRequest is the body of DELETE /api/v1/phrases.
type RemoveRequest struct {
	IDs []string `json:"ids"`
}

// PhraseList wraps a phrase listing response.
type PhraseList struct {
	Phrases []Phrase `json:"phrases"`
	Total   int      `json:"total"`
}

// HealthResponse is the health check payload.
type HealthResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	PhraseCount int    `json:"phrase_count"`
	DueCount    int    `json:"due_count"`
}

// MarshalJSON ensures nil slices in RemoveResult marshal as [] not null.
func (r RemoveResult) MarshalJSON() ([]byte, error) {
	if r.Removed == nil {
		r.Removed = []string{}
	}
	if r.NotFound == nil {
		r.NotFound = []string{}
	}
	type Alias RemoveResult
	return json.Marshal(Alias(r))
}

// MarshalJSON ensures a nil phrase slice marshals as [] not null.
func (l PhraseList) MarshalJSON() ([]byte, error) {
	if l.Phrases == nil {
		l.Phrases = []Phrase{}
	}
	type Alias PhraseList
	return json.Marshal(Alias(l))
}

// Due reports whether the phrase is scheduled at or before now.
func (p Phrase) Due(now time.Time) bool {
	return p.NextReview != nil && !p.NextReview.After(now)
}
