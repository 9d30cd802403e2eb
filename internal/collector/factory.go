package collector

import (
	"fmt"
	"time"

	"github.com/qepting91/reddit-archiver/internal/domain"
)

const (
	SourcePublic = "public"
	SourceAPI    = "api"
	SourceMock   = "mock"
)

// Options carries everything the factory needs to build a fetcher.
type Options struct {
	Source          string
	BaseURL         string
	UserAgent       string
	RequestInterval time.Duration
	FatalStatuses   []int

	ClientID     string
	ClientSecret string
	Username     string
	Password     string

	MockTotal int
}

// NewFetcher selects the correct implementation based on the source
func NewFetcher(opts Options) (domain.PageFetcher, error) {
	classify := FatalStatuses(opts.FatalStatuses...)

	switch opts.Source {
	case SourcePublic, "":
		return NewPublicClient(PublicOptions{
			BaseURL:         opts.BaseURL,
			UserAgent:       opts.UserAgent,
			RequestInterval: opts.RequestInterval,
			Classifier:      classify,
		})
	case SourceAPI:
		if opts.ClientID == "" || opts.ClientSecret == "" {
			return nil, &domain.ConfigError{Field: "source", Message: "api source requires REDDIT_CLIENT_ID and REDDIT_CLIENT_SECRET"}
		}
		return NewAPIClient(APIOptions{
			ClientID:        opts.ClientID,
			ClientSecret:    opts.ClientSecret,
			Username:        opts.Username,
			Password:        opts.Password,
			UserAgent:       opts.UserAgent,
			RequestInterval: opts.RequestInterval,
			Classifier:      classify,
		})
	case SourceMock:
		total := opts.MockTotal
		if total <= 0 {
			total = 250
		}
		return NewMockClient(total, 0), nil
	default:
		return nil, &domain.ConfigError{
			Field:   "source",
			Message: fmt.Sprintf("unknown source %q (use 'public', 'api', or 'mock')", opts.Source),
		}
	}
}
