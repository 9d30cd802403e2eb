package normalize

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/qepting91/reddit-archiver/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func TestPost_FullItem(t *testing.T) {
	raw := domain.RawPost{
		Title:       ptr("Hello"),
		Selftext:    ptr("Body text"),
		Ups:         ptr(42),
		NumComments: ptr(7),
		CreatedUTC:  ptr(1700000000.0),
	}

	rec, err := Post(raw)
	if err != nil {
		t.Fatalf("Post returned error: %v", err)
	}
	if rec.Title != "Hello" || rec.Content != "Body text" {
		t.Errorf("unexpected text fields: %+v", rec)
	}
	if rec.Upvotes != 42 || rec.Comments != 7 {
		t.Errorf("unexpected counts: %+v", rec)
	}
	if rec.Date() != "2023-11-14" || rec.Time() != "22:13:20" {
		t.Errorf("unexpected timestamp: %s %s", rec.Date(), rec.Time())
	}
}

func TestPost_Defaults(t *testing.T) {
	rec, err := Post(domain.RawPost{CreatedUTC: ptr(0.0)})
	if err != nil {
		t.Fatalf("Post returned error: %v", err)
	}
	if rec.Title != DefaultTitle {
		t.Errorf("expected default title, got %q", rec.Title)
	}
	if rec.Content != DefaultContent {
		t.Errorf("expected default content, got %q", rec.Content)
	}
	if rec.Upvotes != 0 || rec.Comments != 0 {
		t.Errorf("expected zero counts, got %d/%d", rec.Upvotes, rec.Comments)
	}
}

func TestPost_EmptySelftextIsKept(t *testing.T) {
	var raw domain.RawPost
	if err := json.Unmarshal([]byte(`{"title":"link post","selftext":"","ups":1,"created_utc":1700000000}`), &raw); err != nil {
		t.Fatal(err)
	}
	rec, err := Post(raw)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Content != "" {
		t.Errorf("present empty selftext should stay empty, got %q", rec.Content)
	}
}

func TestPost_NegativeCountsClamp(t *testing.T) {
	rec, err := Post(domain.RawPost{Ups: ptr(-3), NumComments: ptr(-1), CreatedUTC: ptr(1.0)})
	if err != nil {
		t.Fatal(err)
	}
	if rec.Upvotes != 0 || rec.Comments != 0 {
		t.Errorf("expected clamped counts, got %d/%d", rec.Upvotes, rec.Comments)
	}
}

func TestPost_MalformedTimestamp(t *testing.T) {
	tests := []struct {
		name    string
		created *float64
	}{
		{"missing", nil},
		{"nan", ptr(math.NaN())},
		{"inf", ptr(math.Inf(1))},
		{"negative", ptr(-5.0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Post(domain.RawPost{Title: ptr("x"), CreatedUTC: tt.created})
			var me *domain.MalformedItemError
			if !errors.As(err, &me) {
				t.Fatalf("expected MalformedItemError, got %v", err)
			}
			if me.Field != "created_utc" {
				t.Errorf("unexpected field %q", me.Field)
			}
		})
	}
}

func TestPost_Idempotent(t *testing.T) {
	raw := domain.RawPost{Title: ptr("same"), Ups: ptr(3), CreatedUTC: ptr(1650000000.5)}
	a, errA := Post(raw)
	b, errB := Post(raw)
	if errA != nil || errB != nil {
		t.Fatalf("unexpected errors: %v %v", errA, errB)
	}
	if a != b {
		t.Errorf("normalizing twice differs: %+v vs %+v", a, b)
	}
}

func TestPage_StopsAtMalformed(t *testing.T) {
	items := []domain.RawPost{
		{Title: ptr("ok"), CreatedUTC: ptr(1.0)},
		{Title: ptr("broken")},
	}
	recs, err := Page(items)
	if err == nil {
		t.Fatal("expected error for malformed item")
	}
	if recs != nil {
		t.Errorf("expected no records on failure, got %d", len(recs))
	}

	recs, err = Page(items[:1])
	if err != nil || len(recs) != 1 {
		t.Fatalf("expected one record, got %d (%v)", len(recs), err)
	}
}
