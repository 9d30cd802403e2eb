package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/qepting91/reddit-archiver/internal/domain"
	"github.com/qepting91/reddit-archiver/internal/proxy"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://www.reddit.com"
	// MaxPageSize is the largest limit the listing endpoint honors.
	MaxPageSize    = 100
	requestTimeout = 10 * time.Second
)

// StatusClassifier reports whether a non-200 status should abort the run
// instead of being retried.
type StatusClassifier func(status int) bool

// RetryAll treats every non-200 status as transient.
func RetryAll(int) bool { return false }

// FatalStatuses returns a classifier that aborts on the given codes.
func FatalStatuses(codes ...int) StatusClassifier {
	if len(codes) == 0 {
		return RetryAll
	}
	set := make(map[int]bool, len(codes))
	for _, c := range codes {
		set[c] = true
	}
	return func(status int) bool { return set[status] }
}

type PublicClient struct {
	baseURL  string
	identity Identity
	limiter  *rate.Limiter
	timeout  time.Duration
	fatal    StatusClassifier

	mu      sync.Mutex
	clients map[string]*http.Client
}

type listingResponse struct {
	Data *struct {
		Children []struct {
			Data domain.RawPost `json:"data"`
		} `json:"children"`
		After *string `json:"after"`
	} `json:"data"`
}

// PublicOptions configures a PublicClient. Zero values fall back to defaults;
// a zero RequestInterval disables pacing.
type PublicOptions struct {
	BaseURL         string
	UserAgent       string
	RequestInterval time.Duration
	Timeout         time.Duration
	Classifier      StatusClassifier
}

func NewPublicClient(opts PublicOptions) (*PublicClient, error) {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, &domain.ConfigError{Field: "base-url", Message: err.Error()}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = requestTimeout
	}
	classify := opts.Classifier
	if classify == nil {
		classify = RetryAll
	}

	return &PublicClient{
		baseURL:  base,
		identity: Identity{Base: opts.UserAgent},
		limiter:  newLimiter(opts.RequestInterval),
		timeout:  timeout,
		fatal:    classify,
		clients:  make(map[string]*http.Client),
	}, nil
}

// FetchPage requests one page of /r/<sub>/new.json. Every failure except
// context cancellation and fatal statuses comes back as *domain.RetryableError.
func (pc *PublicClient) FetchPage(ctx context.Context, sub string, after domain.Cursor, p *domain.ProxyEndpoint) (*domain.Page, error) {
	if err := pc.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	client, err := pc.httpClient(p)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(MaxPageSize))
	if after != "" {
		params.Set("after", string(after))
	}
	reqURL := fmt.Sprintf("%s/r/%s/new.json?%s", pc.baseURL, url.PathEscape(sub), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &domain.FatalError{Op: "build request", Err: err}
	}
	req.Header.Set("User-Agent", pc.identity.UserAgent())
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &domain.RetryableError{Op: "fetch page", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		if pc.fatal(resp.StatusCode) {
			return nil, &domain.FatalError{Op: "fetch page", StatusCode: resp.StatusCode}
		}
		return nil, &domain.RetryableError{Op: "fetch page", StatusCode: resp.StatusCode}
	}

	var listing listingResponse
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &domain.RetryableError{Op: "decode page", Err: err}
	}
	if listing.Data == nil {
		return nil, &domain.RetryableError{Op: "decode page", Err: errors.New("response has no data object")}
	}

	page := &domain.Page{Items: make([]domain.RawPost, 0, len(listing.Data.Children))}
	for _, child := range listing.Data.Children {
		page.Items = append(page.Items, child.Data)
	}
	if listing.Data.After != nil {
		page.After = domain.Cursor(*listing.Data.After)
	}
	return page, nil
}

// httpClient returns the cached client for the proxy, building it on first use.
func (pc *PublicClient) httpClient(p *domain.ProxyEndpoint) (*http.Client, error) {
	key := ""
	if p != nil {
		key = p.Address
	}

	pc.mu.Lock()
	defer pc.mu.Unlock()
	if c, ok := pc.clients[key]; ok {
		return c, nil
	}
	c, err := proxy.NewHTTPClient(p, pc.timeout)
	if err != nil {
		return nil, err
	}
	pc.clients[key] = c
	return c, nil
}

func newLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}
