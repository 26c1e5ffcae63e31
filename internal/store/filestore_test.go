package store

import (
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/wortschatz/wortschatz/internal/types"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() func() time.Time {
	return func() time.Time { return testNow }
}

func newMemStore(t *testing.T, opts ...Option) *FileStore {
	t.Helper()
	opts = append([]Option{WithClock(fixedClock())}, opts...)
	s, err := NewFileStore("", opts...)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestAddPhraseAssignsSequentialIDs(t *testing.T) {
	s := newMemStore(t)

	first, err := s.AddPhrase("der Hund")
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.AddPhrase("die Katze")
	if err != nil {
		t.Fatal(err)
	}

	if first.ID != "1" || !first.IsNew || first.Existing != nil {
		t.Errorf("unexpected first result: %+v", first)
	}
	if second.ID != "2" || !second.IsNew {
		t.Errorf("unexpected second result: %+v", second)
	}
}

func TestAddPhraseSetsInitialSchedule(t *testing.T) {
	s := newMemStore(t)
	if _, err := s.AddPhrase("Hallo"); err != nil {
		t.Fatal(err)
	}

	p := s.GetAllPhrases()[0]
	if p.EaseFactor != 2.5 {
		t.Errorf("expected ease factor 2.5, got %v", p.EaseFactor)
	}
	if p.IntervalDays != 0 || p.Repetition != 0 {
		t.Errorf("expected zero interval and repetition, got %d and %d", p.IntervalDays, p.Repetition)
	}
	if p.NextReview == nil || !p.NextReview.Equal(testNow) {
		t.Errorf("expected next review at %v, got %v", testNow, p.NextReview)
	}
}

func TestAddPhraseIsIdempotent(t *testing.T) {
	s := newMemStore(t)

	first, err := s.AddPhrase("der Hund")
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		res, err := s.AddPhrase("der Hund")
		if err != nil {
			t.Fatal(err)
		}
		if res.IsNew {
			t.Errorf("attempt %d: expected duplicate, got new record", i)
		}
		if res.ID != first.ID {
			t.Errorf("attempt %d: expected id %s, got %s", i, first.ID, res.ID)
		}
	}
	if s.Count() != 1 {
		t.Errorf("expected 1 phrase, got %d", s.Count())
	}
}

func TestAddPhraseCollapsesVariants(t *testing.T) {
	s := newMemStore(t)
	if _, err := s.AddPhrase("der Hund"); err != nil {
		t.Fatal(err)
	}

	variants := []string{"Der Hund", "der  Hund", "  der Hund  ", "Hund", "die Hund"}
	for _, v := range variants {
		res, err := s.AddPhrase(v)
		if err != nil {
			t.Fatal(err)
		}
		if res.IsNew {
			t.Errorf("variant %q: expected duplicate", v)
		}
		if res.ID != "1" {
			t.Errorf("variant %q: expected id 1, got %s", v, res.ID)
		}
		if res.Existing == nil || *res.Existing != "der Hund" {
			t.Errorf("variant %q: expected original text %q, got %v", v, "der Hund", res.Existing)
		}
	}
}

func TestAddPhraseKeepsDistinctPhrasesApart(t *testing.T) {
	s := newMemStore(t)

	hund, _ := s.AddPhrase("der Hund")
	katze, _ := s.AddPhrase("die Katze")

	if !hund.IsNew || !katze.IsNew {
		t.Error("expected both phrases to be new")
	}
	if hund.ID == katze.ID {
		t.Errorf("expected distinct ids, both got %s", hund.ID)
	}
}

func TestUpdateReviewAdvancesSchedule(t *testing.T) {
	s := newMemStore(t)
	res, _ := s.AddPhrase("Hallo")

	wantIntervals := []int{1, 6}
	for i, want := range wantIntervals {
		if err := s.UpdateReview(res.ID, 3); err != nil {
			t.Fatal(err)
		}
		p := s.GetAllPhrases()[0]
		if p.IntervalDays != want {
			t.Errorf("review %d: expected interval %d, got %d", i+1, want, p.IntervalDays)
		}
		if p.Repetition != i+1 {
			t.Errorf("review %d: expected repetition %d, got %d", i+1, i+1, p.Repetition)
		}
	}

	if err := s.UpdateReview(res.ID, 3); err != nil {
		t.Fatal(err)
	}
	p := s.GetAllPhrases()[0]
	if want := int(6 * p.EaseFactor); p.IntervalDays != want {
		t.Errorf("third review: expected interval %d, got %d", want, p.IntervalDays)
	}
	if p.NextReview == nil || !p.NextReview.Equal(testNow.AddDate(0, 0, p.IntervalDays)) {
		t.Errorf("unexpected next review %v", p.NextReview)
	}
}

func TestUpdateReviewFailureResetsStreakOnly(t *testing.T) {
	s := newMemStore(t)
	res, _ := s.AddPhrase("Hallo")

	for i := 0; i < 3; i++ {
		if err := s.UpdateReview(res.ID, 3); err != nil {
			t.Fatal(err)
		}
	}
	before := s.GetAllPhrases()[0].EaseFactor

	if err := s.UpdateReview(res.ID, 2); err != nil {
		t.Fatal(err)
	}
	p := s.GetAllPhrases()[0]
	if p.Repetition != 0 {
		t.Errorf("expected repetition 0, got %d", p.Repetition)
	}
	if p.IntervalDays != 1 {
		t.Errorf("expected interval 1, got %d", p.IntervalDays)
	}
	if p.EaseFactor != before {
		t.Errorf("expected ease factor unchanged at %v, got %v", before, p.EaseFactor)
	}
}

func TestUpdateReviewUnknownIDIsNoOp(t *testing.T) {
	s := newMemStore(t)
	if _, err := s.AddPhrase("Hallo"); err != nil {
		t.Fatal(err)
	}

	if err := s.UpdateReview("42", 3); err != nil {
		t.Errorf("expected nil error for unknown id, got %v", err)
	}
	if p := s.GetAllPhrases()[0]; p.Repetition != 0 {
		t.Errorf("expected stored phrase untouched, got repetition %d", p.Repetition)
	}
}

func TestGetDuePhrasesFiltersByTime(t *testing.T) {
	now := testNow
	clock := func() time.Time { return now }
	s, err := NewFileStore("", WithClock(clock))
	if err != nil {
		t.Fatal(err)
	}

	due, _ := s.AddPhrase("alt")
	fresh, _ := s.AddPhrase("neu")

	// Push the second phrase into the future.
	if err := s.UpdateReview(fresh.ID, 4); err != nil {
		t.Fatal(err)
	}

	phrases := s.GetDuePhrases(0)
	if len(phrases) != 1 {
		t.Fatalf("expected 1 due phrase, got %d", len(phrases))
	}
	if phrases[0].ID != due.ID {
		t.Errorf("expected phrase %s due, got %s", due.ID, phrases[0].ID)
	}
}

func TestGetDuePhrasesFallsBackToEarliestScheduled(t *testing.T) {
	now := testNow
	clock := func() time.Time { return now }
	s, err := NewFileStore("", WithClock(clock))
	if err != nil {
		t.Fatal(err)
	}

	a, _ := s.AddPhrase("eins")
	b, _ := s.AddPhrase("zwei")
	c, _ := s.AddPhrase("drei")

	// Schedule all three into the future with different intervals:
	// a gets 6 days (two reviews), b gets 1 day, c gets 1 day later in time.
	_ = s.UpdateReview(a.ID, 3)
	_ = s.UpdateReview(a.ID, 3)
	_ = s.UpdateReview(b.ID, 3)
	now = now.Add(time.Hour)
	_ = s.UpdateReview(c.ID, 3)
	now = testNow.Add(2 * time.Hour)

	phrases := s.GetDuePhrases(0)
	if len(phrases) != 3 {
		t.Fatalf("expected fallback to return all 3 phrases, got %d", len(phrases))
	}
	wantOrder := []string{b.ID, c.ID, a.ID}
	for i, want := range wantOrder {
		if phrases[i].ID != want {
			t.Errorf("position %d: expected id %s, got %s", i, want, phrases[i].ID)
		}
	}
}

func TestGetDuePhrasesEmptyStore(t *testing.T) {
	s := newMemStore(t)
	if phrases := s.GetDuePhrases(0); len(phrases) != 0 {
		t.Errorf("expected no phrases, got %d", len(phrases))
	}
}

func TestGetDuePhrasesAppliesLimit(t *testing.T) {
	s := newMemStore(t)
	for _, w := range []string{"eins", "zwei", "drei", "vier"} {
		if _, err := s.AddPhrase(w); err != nil {
			t.Fatal(err)
		}
	}
	if phrases := s.GetDuePhrases(2); len(phrases) != 2 {
		t.Errorf("expected 2 phrases, got %d", len(phrases))
	}
}

func TestGetVocabularySorting(t *testing.T) {
	s := newMemStore(t)
	_, _ = s.AddPhrase("Zug")
	_, _ = s.AddPhrase("Apfel")
	_, _ = s.AddPhrase("Milch")

	// Give Milch the strongest retention.
	_ = s.UpdateReview("3", 4)
	_ = s.UpdateReview("3", 4)

	t.Run("alphabetical ascending", func(t *testing.T) {
		got := s.GetVocabulary(0, types.SortAlphabetical, true)
		want := []string{"Apfel", "Milch", "Zug"}
		for i, w := range want {
			if got[i].German != w {
				t.Errorf("position %d: expected %s, got %s", i, w, got[i].German)
			}
		}
	})

	t.Run("mastery descending", func(t *testing.T) {
		got := s.GetVocabulary(0, types.SortMastery, false)
		if got[0].German != "Milch" {
			t.Errorf("expected Milch first, got %s", got[0].German)
		}
	})

	t.Run("id descending", func(t *testing.T) {
		got := s.GetVocabulary(0, types.SortID, false)
		want := []string{"3", "2", "1"}
		for i, w := range want {
			if got[i].ID != w {
				t.Errorf("position %d: expected id %s, got %s", i, w, got[i].ID)
			}
		}
	})

	t.Run("limit applied", func(t *testing.T) {
		if got := s.GetVocabulary(2, types.SortID, true); len(got) != 2 {
			t.Errorf("expected 2 phrases, got %d", len(got))
		}
	})
}

func TestRemovePhrasesPartitionsResult(t *testing.T) {
	s := newMemStore(t)
	_, _ = s.AddPhrase("Hallo")
	_, _ = s.AddPhrase("Tschüss")

	result, err := s.RemovePhrases([]string{"1", "9"})
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Removed) != 1 || result.Removed[0] != "1" {
		t.Errorf("unexpected removed set: %v", result.Removed)
	}
	if len(result.NotFound) != 1 || result.NotFound[0] != "9" {
		t.Errorf("unexpected not-found set: %v", result.NotFound)
	}

	remaining := s.GetAllPhrases()
	if len(remaining) != 1 || remaining[0].ID != "2" {
		t.Errorf("expected only phrase 2 to remain, got %+v", remaining)
	}
}

func TestRemovePhrasesDoesNotRecycleIDs(t *testing.T) {
	s := newMemStore(t)
	_, _ = s.AddPhrase("eins")
	_, _ = s.AddPhrase("zwei")

	if _, err := s.RemovePhrases([]string{"2"}); err != nil {
		t.Fatal(err)
	}
	res, err := s.AddPhrase("drei")
	if err != nil {
		t.Fatal(err)
	}
	if res.ID != "3" {
		t.Errorf("expected fresh id 3, got %s", res.ID)
	}
}

func TestEndToEndScenario(t *testing.T) {
	s := newMemStore(t)

	first, err := s.AddPhrase("Guten Morgen")
	if err != nil {
		t.Fatal(err)
	}
	if first.ID != "1" || !first.IsNew || first.Existing != nil {
		t.Fatalf("unexpected first add: %+v", first)
	}

	second, err := s.AddPhrase("guten morgen")
	if err != nil {
		t.Fatal(err)
	}
	if second.ID != "1" || second.IsNew {
		t.Fatalf("unexpected duplicate add: %+v", second)
	}
	if second.Existing == nil || *second.Existing != "Guten Morgen" {
		t.Fatalf("expected original text back, got %v", second.Existing)
	}

	if err := s.UpdateReview("1", 4); err != nil {
		t.Fatal(err)
	}

	all := s.GetAllPhrases()
	if len(all) != 1 {
		t.Fatalf("expected 1 phrase, got %d", len(all))
	}
	p := all[0]
	if p.IntervalDays != 1 || p.Repetition != 1 {
		t.Errorf("expected interval 1 repetition 1, got %d and %d", p.IntervalDays, p.Repetition)
	}
	// Quality 4 lands on the zero-adjustment point of the ease formula.
	if p.EaseFactor < 2.49 || p.EaseFactor > 2.51 {
		t.Errorf("expected ease factor near 2.5, got %v", p.EaseFactor)
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "phrases.jsonl.gz")

	s, err := NewFileStore(path, WithClock(fixedClock()))
	if err != nil {
		t.Fatal(err)
	}
	_, _ = s.AddPhrase("der Hund")
	_, _ = s.AddPhrase("die Katze")
	if err := s.UpdateReview("1", 3); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	reloaded, err := NewFileStore(path, WithClock(fixedClock()))
	if err != nil {
		t.Fatal(err)
	}
	all := reloaded.GetAllPhrases()
	if len(all) != 2 {
		t.Fatalf("expected 2 phrases after reload, got %d", len(all))
	}
	if all[0].German != "der Hund" || all[0].IntervalDays != 1 || all[0].Repetition != 1 {
		t.Errorf("unexpected first phrase after reload: %+v", all[0])
	}
	if all[0].NextReview == nil || !all[0].NextReview.Equal(testNow.AddDate(0, 0, 1)) {
		t.Errorf("unexpected next review after reload: %v", all[0].NextReview)
	}

	// New ids continue after the loaded ones.
	res, err := reloaded.AddPhrase("das Auto")
	if err != nil {
		t.Fatal(err)
	}
	if res.ID != "3" {
		t.Errorf("expected id 3 after reload, got %s", res.ID)
	}
}

func TestLoadToleratesLegacyRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "phrases.jsonl.gz")

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	gz := gzip.NewWriter(f)
	// Legacy shape: no repetition field, naive local timestamp, zero ease
	// omitted entirely.
	lines := []string{
		`{"_id":"1","german":"Hallo","ease_factor":2.5,"interval_days":6,"next_review":"2025-05-01T10:30:00"}` + "\n",
		`{"_id":"2","german":"Welt","interval_days":0,"next_review":null}` + "\n",
	}
	for _, line := range lines {
		if _, err := gz.Write([]byte(line)); err != nil {
			t.Fatal(err)
		}
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	s, err := NewFileStore(path, WithClock(fixedClock()))
	if err != nil {
		t.Fatal(err)
	}
	all := s.GetAllPhrases()
	if len(all) != 2 {
		t.Fatalf("expected 2 phrases, got %d", len(all))
	}
	if all[0].Repetition != 0 {
		t.Errorf("expected missing repetition to default to 0, got %d", all[0].Repetition)
	}
	if all[0].NextReview == nil {
		t.Error("expected naive timestamp to parse")
	}
	if all[1].EaseFactor != 2.5 {
		t.Errorf("expected missing ease factor to default to 2.5, got %v", all[1].EaseFactor)
	}
}

func TestLoadFailsOnCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "phrases.jsonl.gz")
	if err := os.WriteFile(path, []byte("not gzip at all"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewFileStore(path); !errors.Is(err, ErrCorruptFile) {
		t.Errorf("expected ErrCorruptFile, got %v", err)
	}
}

func TestLoadFailsOnCorruptLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "phrases.jsonl.gz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	gz := gzip.NewWriter(f)
	if _, err := gz.Write([]byte("{broken\n")); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	if _, err := NewFileStore(path); !errors.Is(err, ErrCorruptFile) {
		t.Errorf("expected ErrCorruptFile, got %v", err)
	}
}

func TestInMemoryStoreWritesNothing(t *testing.T) {
	s := newMemStore(t)
	_, _ = s.AddPhrase("Hallo")

	entries, err := os.ReadDir(".")
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".tmp" {
			t.Errorf("unexpected temp file %s", e.Name())
		}
	}
	if s.Count() != 1 {
		t.Errorf("expected in-memory phrase to be readable, got count %d", s.Count())
	}
}
