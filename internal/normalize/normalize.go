// Package normalize maps raw listing items onto PostRecord values.
package normalize

import (
	"math"
	"time"

	"github.com/qepting91/reddit-archiver/internal/domain"
)

const (
	DefaultTitle   = "No Title"
	DefaultContent = "No Content"
)

// Post converts one listing item. It has no side effects; the same input
// always produces the same record.
func Post(raw domain.RawPost) (domain.PostRecord, error) {
	posted, err := createdAt(raw.CreatedUTC)
	if err != nil {
		return domain.PostRecord{}, err
	}

	rec := domain.PostRecord{
		Title:    DefaultTitle,
		Content:  DefaultContent,
		Upvotes:  count(raw.Ups),
		Comments: count(raw.NumComments),
		Posted:   posted,
	}
	if raw.Title != nil {
		rec.Title = *raw.Title
	}
	if raw.Selftext != nil {
		rec.Content = *raw.Selftext
	}
	return rec, nil
}

// Page converts every item of a page, stopping at the first malformed one.
func Page(items []domain.RawPost) ([]domain.PostRecord, error) {
	out := make([]domain.PostRecord, 0, len(items))
	for _, raw := range items {
		rec, err := Post(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func createdAt(v *float64) (time.Time, error) {
	if v == nil {
		return time.Time{}, &domain.MalformedItemError{Field: "created_utc", Message: "missing"}
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) || *v < 0 {
		return time.Time{}, &domain.MalformedItemError{Field: "created_utc", Message: "not a valid unix timestamp"}
	}
	sec, frac := math.Modf(*v)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC(), nil
}

// count clamps absent or negative values to zero.
func count(v *int) int {
	if v == nil || *v < 0 {
		return 0
	}
	return *v
}
