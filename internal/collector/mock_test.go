package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/qepting91/reddit-archiver/internal/domain"
)

func TestMockClient_Paginates(t *testing.T) {
	mc := NewMockClient(250, 0)
	var (
		after domain.Cursor
		total int
		pages int
	)
	for {
		page, err := mc.FetchPage(context.Background(), "golang", after, nil)
		if err != nil {
			t.Fatalf("FetchPage returned error: %v", err)
		}
		pages++
		total += len(page.Items)
		if page.After == "" {
			break
		}
		after = page.After
	}
	if pages != 3 || total != 250 {
		t.Errorf("expected 3 pages / 250 items, got %d / %d", pages, total)
	}
}

func TestMockClient_Deterministic(t *testing.T) {
	mc := NewMockClient(10, 0)
	a, _ := mc.FetchPage(context.Background(), "golang", "", nil)
	b, _ := mc.FetchPage(context.Background(), "golang", "", nil)
	for i := range a.Items {
		if *a.Items[i].Ups != *b.Items[i].Ups || *a.Items[i].CreatedUTC != *b.Items[i].CreatedUTC {
			t.Fatalf("item %d differs between calls", i)
		}
	}
	if *a.Items[0].CreatedUTC <= *a.Items[1].CreatedUTC {
		t.Error("expected newest-first ordering")
	}
}

func TestMockClient_BadCursor(t *testing.T) {
	_, err := NewMockClient(10, 0).FetchPage(context.Background(), "golang", "garbage", nil)
	if !domain.IsRetryable(err) {
		t.Fatalf("expected retryable error, got %v", err)
	}
}

func TestMockClient_LatencyHonorsContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := NewMockClient(10, time.Minute).FetchPage(ctx, "golang", "", nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestNewFetcher(t *testing.T) {
	f, err := NewFetcher(Options{})
	if err != nil {
		t.Fatalf("default source: %v", err)
	}
	if _, ok := f.(*PublicClient); !ok {
		t.Errorf("expected PublicClient, got %T", f)
	}

	f, err = NewFetcher(Options{Source: SourceMock})
	if err != nil {
		t.Fatal(err)
	}
	if mc, ok := f.(*MockClient); !ok || mc.Total != 250 {
		t.Errorf("expected default mock, got %#v", f)
	}

	var ce *domain.ConfigError
	if _, err := NewFetcher(Options{Source: SourceAPI}); !errors.As(err, &ce) {
		t.Errorf("expected ConfigError for api without credentials, got %v", err)
	}
	if _, err := NewFetcher(Options{Source: "scrape"}); !errors.As(err, &ce) {
		t.Errorf("expected ConfigError for unknown source, got %v", err)
	}
}

func TestFatalStatuses(t *testing.T) {
	if RetryAll(404) {
		t.Error("RetryAll should never be fatal")
	}
	c := FatalStatuses(403, 404)
	if !c(404) || !c(403) || c(503) {
		t.Error("unexpected classification")
	}
	if FatalStatuses()(404) {
		t.Error("empty classifier should retry everything")
	}
}
