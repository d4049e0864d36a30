package cleaning

import (
	"testing"

	"stockmood/internal/domain/models"
)

func TestScorePerfectInput(t *testing.T) {
	report := Score(models.CleaningAudit{RowsBefore: 100, RowsAfter: 100})
	if report.Score != 100 {
		t.Fatalf("expected score 100, got %v", report.Score)
	}
	if report.Rating != RatingExcellent {
		t.Fatalf("expected Excellent, got %s", report.Rating)
	}
}

func TestScoreEmptyInput(t *testing.T) {
	report := Score(models.CleaningAudit{})
	if report.Score != 0 || report.Rating != RatingPoor {
		t.Fatalf("expected 0/Poor, got %v/%s", report.Score, report.Rating)
	}
}

func TestScoreAllInvalidInput(t *testing.T) {
	report := Score(models.CleaningAudit{RowsBefore: 10, RowsAfter: 0, InvalidDates: 10})
	if report.Score != 0 || report.Rating != RatingPoor {
		t.Fatalf("expected 0/Poor, got %v/%s", report.Score, report.Rating)
	}
}

func TestScoreMonotonicInRepairs(t *testing.T) {
	prev := 101.0
	for missing := 0; missing <= 50; missing += 10 {
		audit := models.CleaningAudit{
			RowsBefore:   100,
			RowsAfter:    95,
			MissingFound: missing,
		}
		s := Score(audit).Score
		if s > prev {
			t.Fatalf("score increased with more repairs: %v -> %v", prev, s)
		}
		if s < 0 || s > 100 {
			t.Fatalf("score out of range: %v", s)
		}
		prev = s
	}
}

func TestScoreMonotonicInRemovals(t *testing.T) {
	prev := 101.0
	for removed := 0; removed <= 60; removed += 20 {
		audit := models.CleaningAudit{
			RowsBefore:      100,
			RowsAfter:       100 - removed,
			OutliersRemoved: removed / 2,
		}
		s := Score(audit).Score
		if s > prev {
			t.Fatalf("score increased with more removals: %v -> %v", prev, s)
		}
		prev = s
	}
}

func TestRatingBands(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{95, RatingExcellent},
		{90, RatingExcellent},
		{89.9, RatingGood},
		{75, RatingGood},
		{74.9, RatingFair},
		{60, RatingFair},
		{59.9, RatingPoor},
		{0, RatingPoor},
	}
	for _, tc := range cases {
		if got := rating(tc.score); got != tc.want {
			t.Fatalf("rating(%v) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestScorePenaltyWeights(t *testing.T) {
	// 10 duplicates out of 100 rows: 100 - 0.1*20 - 0.1*25 (removed) = 95.5
	audit := models.CleaningAudit{RowsBefore: 100, RowsAfter: 90, DuplicatesRemoved: 10}
	got := Score(audit).Score
	if got < 95.49 || got > 95.51 {
		t.Fatalf("expected ~95.5, got %v", got)
	}
}
