package collector

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/loganintech/go-reddit/v2/reddit"
	"github.com/qepting91/reddit-archiver/internal/domain"
	"github.com/qepting91/reddit-archiver/internal/proxy"
	"golang.org/x/time/rate"
)

// APIClient reads the same listing through Reddit's authenticated OAuth API.
type APIClient struct {
	creds   reddit.Credentials
	opts    []reddit.Opt
	limiter *rate.Limiter
	fatal   StatusClassifier

	mu      sync.Mutex
	clients map[string]*reddit.Client
}

// APIOptions configures an APIClient. Empty BaseURL and TokenURL keep the
// go-reddit defaults.
type APIOptions struct {
	ClientID        string
	ClientSecret    string
	Username        string
	Password        string
	UserAgent       string
	RequestInterval time.Duration
	Classifier      StatusClassifier

	BaseURL  string
	TokenURL string
}

func NewAPIClient(o APIOptions) (*APIClient, error) {
	creds := reddit.Credentials{ID: o.ClientID, Secret: o.ClientSecret, Username: o.Username, Password: o.Password}

	opts := []reddit.Opt{reddit.WithUserAgent(o.UserAgent)}
	if o.BaseURL != "" {
		opts = append(opts, reddit.WithBaseURL(o.BaseURL))
	}
	if o.TokenURL != "" {
		opts = append(opts, reddit.WithTokenURL(o.TokenURL))
	}

	client, err := reddit.NewClient(creds, opts...)
	if err != nil {
		return nil, err
	}
	classify := o.Classifier
	if classify == nil {
		classify = RetryAll
	}

	return &APIClient{
		creds:   creds,
		opts:    opts,
		limiter: newLimiter(o.RequestInterval),
		fatal:   classify,
		clients: map[string]*reddit.Client{"": client},
	}, nil
}

func (ac *APIClient) FetchPage(ctx context.Context, sub string, after domain.Cursor, p *domain.ProxyEndpoint) (*domain.Page, error) {
	if err := ac.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	client, err := ac.client(p)
	if err != nil {
		return nil, err
	}

	posts, resp, err := client.Subreddit.NewPosts(ctx, sub, &reddit.ListOptions{Limit: MaxPageSize, After: string(after)})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var apiErr *reddit.ErrorResponse
		if errors.As(err, &apiErr) && apiErr.Response != nil {
			status := apiErr.Response.StatusCode
			if ac.fatal(status) {
				return nil, &domain.FatalError{Op: "authenticated api", StatusCode: status, Err: err}
			}
			return nil, &domain.RetryableError{Op: "authenticated api", StatusCode: status, Err: err}
		}
		return nil, &domain.RetryableError{Op: "authenticated api", Err: err}
	}

	page := &domain.Page{Items: make([]domain.RawPost, 0, len(posts))}
	for _, post := range posts {
		if post == nil {
			continue
		}
		page.Items = append(page.Items, rawFromAPI(post))
	}
	if resp != nil {
		page.After = domain.Cursor(resp.After)
	}
	return page, nil
}

func rawFromAPI(p *reddit.Post) domain.RawPost {
	title, body := p.Title, p.Body
	score, comments := p.Score, p.NumberOfComments
	raw := domain.RawPost{
		Title:       &title,
		Selftext:    &body,
		Ups:         &score,
		NumComments: &comments,
	}
	if p.Created != nil {
		created := float64(p.Created.Time.Unix())
		raw.CreatedUTC = &created
	}
	return raw
}

// client returns the API client bound to the proxy, building it on first use.
func (ac *APIClient) client(p *domain.ProxyEndpoint) (*reddit.Client, error) {
	key := ""
	if p != nil {
		key = p.Address
	}

	ac.mu.Lock()
	defer ac.mu.Unlock()
	if c, ok := ac.clients[key]; ok {
		return c, nil
	}

	httpClient, err := proxy.NewHTTPClient(p, requestTimeout)
	if err != nil {
		return nil, err
	}
	opts := append([]reddit.Opt{reddit.WithHTTPClient(httpClient)}, ac.opts...)
	c, err := reddit.NewClient(ac.creds, opts...)
	if err != nil {
		return nil, &domain.FatalError{Op: "authenticated api", Err: err}
	}
	ac.clients[key] = c
	return c, nil
}
