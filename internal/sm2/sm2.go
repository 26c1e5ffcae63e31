// Package sm2 implements the spaced-repetition update rule used for phrase
// scheduling. It is a variant of SM-2: interval progression follows the
// repetition streak (1 day, 6 days, then previous interval times the ease
// factor), and a failed review resets the streak without touching the ease
// factor.
package sm2

import (
	"math"
	"time"
)

// SuccessThreshold separates successful recalls (quality >= 3) from failures.
const SuccessThreshold = 3

// MinEaseFactor is the floor applied after every ease-factor update.
const MinEaseFactor = 1.3

// DefaultEaseFactor is the ease factor assigned to unreviewed phrases.
const DefaultEaseFactor = 2.5

// Schedule holds the mutable scheduling state of a phrase.
type Schedule struct {
	EaseFactor   float64
	IntervalDays int
	Repetition   int
}

// NewSchedule returns the initial state for a freshly added phrase.
func NewSchedule() Schedule {
	return Schedule{EaseFactor: DefaultEaseFactor}
}

// Next computes the schedule after a review with the given quality rating.
// It returns the new state and the next review instant, the new interval in
// days from now. The function is pure; the caller assigns the result.
//
// The ease-factor formula evaluates quality against the classic 5-point SM-2
// scale even though callers rate on 1-4. Quality is not validated here; range
// checking belongs to the caller.
func Next(s Schedule, quality int, now time.Time) (Schedule, time.Time) {
	next := s

	if quality >= SuccessThreshold {
		q := float64(quality)
		next.EaseFactor = math.Max(MinEaseFactor, s.EaseFactor+(0.1-(5-q)*(0.08+(5-q)*0.02)))
		next.Repetition = s.Repetition + 1

		switch next.Repetition {
		case 1:
			next.IntervalDays = 1
		case 2:
			next.IntervalDays = 6
		default:
			// Previous interval scaled by the freshly updated ease factor.
			next.IntervalDays = int(float64(s.IntervalDays) * next.EaseFactor)
		}
	} else {
		next.Repetition = 0
		next.IntervalDays = 1
		// Ease factor intentionally untouched on failure.
	}

	return next, now.AddDate(0, 0, next.IntervalDays)
}
