// Package scrape drives the paginated fetch loop: it walks the listing cursor,
// feeds records through the fetch policy and recovers from transient failures
// by backing off and, in proxy mode, rotating to a freshly verified proxy.
package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/qepting91/reddit-archiver/internal/domain"
	"github.com/qepting91/reddit-archiver/internal/normalize"
	"github.com/qepting91/reddit-archiver/internal/policy"
)

const (
	DefaultBackoff          = 2 * time.Second
	DefaultMaxAttempts      = 1000
	DefaultMaxRetryDuration = time.Hour
)

// State is the position of the fetch loop.
type State int

const (
	Idle State = iota
	FetchingPage
	Accumulating
	Retrying
	Done
	Aborted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case FetchingPage:
		return "fetching_page"
	case Accumulating:
		return "accumulating"
	case Retrying:
		return "retrying"
	case Done:
		return "done"
	case Aborted:
		return "aborted"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MalformedPolicy decides what happens to a page containing an item that
// cannot be normalized.
type MalformedPolicy string

const (
	// MalformedRetry discards the page and fetches it again.
	MalformedRetry MalformedPolicy = "retry"
	// MalformedSkip drops the item and keeps the rest of the page.
	MalformedSkip MalformedPolicy = "skip"
)

// ProxySelector hands out a verified proxy.
type ProxySelector interface {
	VerifyAndSelect(ctx context.Context) (domain.ProxyEndpoint, error)
}

// Options tunes retry behavior. Zero values take the defaults.
type Options struct {
	Backoff time.Duration
	// MaxAttempts bounds the requests spent on a single page.
	MaxAttempts int
	// MaxRetryDuration bounds the time spent retrying a single page.
	MaxRetryDuration time.Duration
	OnMalformed      MalformedPolicy
	Logger           *slog.Logger
}

// Result is what a run produced. Records are returned even when the run aborts.
type Result struct {
	Records  []domain.PostRecord
	State    State
	Pages    int
	Requests int
}

type Driver struct {
	cfg     domain.FetchConfiguration
	fetcher domain.PageFetcher
	proxies ProxySelector
	policy  policy.Policy
	opts    Options
	logger  *slog.Logger

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// NewDriver checks the configuration eagerly so configuration problems never
// reach the retry loop.
func NewDriver(cfg domain.FetchConfiguration, fetcher domain.PageFetcher, proxies ProxySelector, opts Options) (*Driver, error) {
	if cfg.Subreddit == "" {
		return nil, &domain.ConfigError{Field: "subreddit", Message: "subreddit name cannot be empty"}
	}
	if err := policy.Validate(cfg.Policy); err != nil {
		return nil, err
	}
	if cfg.UseProxy && proxies == nil {
		return nil, &domain.ConfigError{Field: "proxy-file", Message: "proxy mode requires a proxy pool"}
	}

	if opts.Backoff < 0 {
		opts.Backoff = 0
	} else if opts.Backoff == 0 {
		opts.Backoff = DefaultBackoff
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.MaxRetryDuration <= 0 {
		opts.MaxRetryDuration = DefaultMaxRetryDuration
	}
	switch opts.OnMalformed {
	case "":
		opts.OnMalformed = MalformedRetry
	case MalformedRetry, MalformedSkip:
	default:
		return nil, &domain.ConfigError{Field: "on-malformed", Message: fmt.Sprintf("unknown policy %q (use 'retry' or 'skip')", opts.OnMalformed)}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Driver{
		cfg:     cfg,
		fetcher: fetcher,
		proxies: proxies,
		policy:  policy.New(cfg.Policy),
		opts:    opts,
		logger:  logger.With("subreddit", cfg.Subreddit),
		sleep:   sleepContext,
		now:     time.Now,
	}, nil
}

// Run fetches pages until the listing ends, the policy stops the run, or an
// unrecoverable error occurs. Cancelling ctx aborts between pages.
func (d *Driver) Run(ctx context.Context) (Result, error) {
	res := Result{State: Idle}

	var current *domain.ProxyEndpoint
	if d.cfg.UseProxy {
		p, err := d.proxies.VerifyAndSelect(ctx)
		if err != nil {
			res.State = Aborted
			return res, fmt.Errorf("select proxy: %w", err)
		}
		current = &p
	}

	var (
		cursor       domain.Cursor
		attempts     int
		failingSince time.Time
	)
	for {
		if err := ctx.Err(); err != nil {
			res.State = Aborted
			return res, err
		}

		res.State = FetchingPage
		res.Requests++
		attempts++
		records, next, err := d.fetch(ctx, cursor, current)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				res.State = Aborted
				return res, ctxErr
			}
			if !domain.IsRetryable(err) {
				res.State = Aborted
				return res, err
			}

			res.State = Retrying
			if failingSince.IsZero() {
				failingSince = d.now()
			}
			if attempts >= d.opts.MaxAttempts || d.now().Sub(failingSince) >= d.opts.MaxRetryDuration {
				res.State = Aborted
				return res, fmt.Errorf("%w: %d attempts at cursor %q: %w", domain.ErrRetriesExhausted, attempts, cursor, err)
			}

			d.logger.Warn("Request failed, retrying", "err", err, "attempt", attempts, "cursor", cursor, "backoff", d.opts.Backoff)
			if err := d.sleep(ctx, d.opts.Backoff); err != nil {
				res.State = Aborted
				return res, err
			}
			if d.cfg.UseProxy {
				p, err := d.proxies.VerifyAndSelect(ctx)
				if err != nil {
					res.State = Aborted
					return res, fmt.Errorf("rotate proxy: %w", err)
				}
				current = &p
			}
			continue
		}

		res.Pages++
		attempts = 0
		failingSince = time.Time{}

		res.State = Accumulating
		if d.accumulate(&res, records) {
			res.State = Done
			d.logger.Info("Fetch policy satisfied", "records", len(res.Records), "pages", res.Pages)
			return res, nil
		}

		if next == "" || next == cursor {
			res.State = Done
			d.logger.Info("Listing exhausted", "records", len(res.Records), "pages", res.Pages)
			return res, nil
		}
		cursor = next
		d.logger.Debug("Page fetched", "records", len(res.Records), "next", next)
	}
}

// fetch requests and normalizes one page.
func (d *Driver) fetch(ctx context.Context, cursor domain.Cursor, p *domain.ProxyEndpoint) ([]domain.PostRecord, domain.Cursor, error) {
	page, err := d.fetcher.FetchPage(ctx, d.cfg.Subreddit, cursor, p)
	if err != nil {
		return nil, "", err
	}

	if d.opts.OnMalformed == MalformedRetry {
		records, err := normalize.Page(page.Items)
		if err != nil {
			return nil, "", &domain.RetryableError{Op: "normalize page", Err: err}
		}
		return records, page.After, nil
	}

	records := make([]domain.PostRecord, 0, len(page.Items))
	for i, raw := range page.Items {
		rec, err := normalize.Post(raw)
		if err != nil {
			d.logger.Warn("Skipping malformed item", "index", i, "cursor", cursor, "err", err)
			continue
		}
		records = append(records, rec)
	}
	return records, page.After, nil
}

// accumulate appends records the policy keeps and reports whether it asked to stop.
func (d *Driver) accumulate(res *Result, records []domain.PostRecord) bool {
	for _, rec := range records {
		switch d.policy.Decide(rec, len(res.Records)) {
		case policy.Append:
			res.Records = append(res.Records, rec)
		case policy.AppendAndStop:
			res.Records = append(res.Records, rec)
			return true
		case policy.Stop:
			return true
		}
	}
	return false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
