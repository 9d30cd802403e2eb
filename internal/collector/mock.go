package collector

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/qepting91/reddit-archiver/internal/domain"
)

// MockClient implements domain.PageFetcher but returns fake data
type MockClient struct {
	Total   int
	Latency time.Duration
	// Newest is the creation time of the first post; later posts are an hour older each.
	Newest time.Time
}

func NewMockClient(total int, latency time.Duration) *MockClient {
	return &MockClient{
		Total:   total,
		Latency: latency,
		Newest:  time.Now().UTC().Truncate(time.Hour),
	}
}

func (mc *MockClient) FetchPage(ctx context.Context, sub string, after domain.Cursor, _ *domain.ProxyEndpoint) (*domain.Page, error) {
	// Simulate network latency
	if mc.Latency > 0 {
		timer := time.NewTimer(mc.Latency)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	offset := 0
	if after != "" {
		n, err := strconv.Atoi(strings.TrimPrefix(string(after), "mock_"))
		if err != nil || n < 0 {
			return nil, &domain.RetryableError{Op: "fetch page", StatusCode: 400, Err: fmt.Errorf("unknown cursor %q", after)}
		}
		offset = n
	}

	h := fnv.New64a()
	h.Write([]byte(sub))
	rng := rand.New(rand.NewPCG(h.Sum64(), uint64(offset)))

	end := min(offset+MaxPageSize, mc.Total)
	page := &domain.Page{}
	for i := offset; i < end; i++ {
		title := fmt.Sprintf("[%s] Simulated post #%d", sub, i)
		body := fmt.Sprintf("Generated body for post %d of r/%s", i, sub)
		ups := rng.IntN(500)
		comments := rng.IntN(50)
		created := float64(mc.Newest.Add(-time.Duration(i) * time.Hour).Unix())
		page.Items = append(page.Items, domain.RawPost{
			Title:       &title,
			Selftext:    &body,
			Ups:         &ups,
			NumComments: &comments,
			CreatedUTC:  &created,
		})
	}
	if end < mc.Total {
		page.After = domain.Cursor(fmt.Sprintf("mock_%d", end))
	}
	return page, nil
}
