package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/wortschatz/wortschatz/internal/types"
)

// MaxPhraseLength bounds the accepted phrase text in runes. Vocabulary items
// are short; anything longer is almost certainly a pasted paragraph.
const MaxPhraseLength = 500

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Collector accumulates validation errors without failing on first.
type Collector struct {
	errors []ValidationError
}

// Add appends a validation error to the collector if non-nil.
func (c *Collector) Add(err *ValidationError) {
	if err != nil {
		c.errors = append(c.errors, *err)
	}
}

// HasErrors returns true if the collector has accumulated any errors.
func (c *Collector) HasErrors() bool {
	return len(c.errors) > 0
}

// Errors returns all accumulated validation errors.
func (c *Collector) Errors() []ValidationError {
	return c.errors
}

// ValidatePhraseText checks the text of a phrase to be added: non-blank,
// valid UTF-8, no null bytes, bounded length. The store itself stays
// permissive; rejection happens here at the boundary.
func ValidatePhraseText(field, value string) []ValidationError {
	var c Collector
	if strings.TrimSpace(value) == "" {
		c.Add(&ValidationError{Field: field, Message: "must not be empty"})
	}
	if !utf8.ValidString(value) {
		c.Add(&ValidationError{Field: field, Message: "must be valid UTF-8"})
	}
	if strings.Contains(value, "\x00") {
		c.Add(&ValidationError{Field: field, Message: "must not contain null bytes"})
	}
	if utf8.RuneCountInString(value) > MaxPhraseLength {
		c.Add(&ValidationError{
			Field:   field,
			Message: fmt.Sprintf("exceeds maximum length of %d characters", MaxPhraseLength),
		})
	}
	return c.Errors()
}

// ValidateQuality checks a recall rating against the 1-4 scale the review
// surface exposes.
func ValidateQuality(field string, value int) *ValidationError {
	if value < int(types.QualityAgain) || value > int(types.QualityEasy) {
		return &ValidationError{
			Field:   field,
			Message: "must be between 1 (Again) and 4 (Easy)",
		}
	}
	return nil
}

// ValidateSortKey checks a vocabulary sort key against the known set.
func ValidateSortKey(field, value string) *ValidationError {
	switch types.SortKey(value) {
	case types.SortAlphabetical, types.SortMastery, types.SortID:
		return nil
	}
	return &ValidationError{
		Field:   field,
		Message: `must be one of "alphabetical", "mastery", "id"`,
	}
}

// ValidatePhraseID checks that an id is present. Existence is not checked
// here; the store treats unknown ids as no-ops by design.
func ValidatePhraseID(field, value string) *ValidationError {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Message: "must not be empty"}
	}
	return nil
}
