package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/qepting91/reddit-archiver/internal/collector"
	"github.com/qepting91/reddit-archiver/internal/domain"
	"github.com/qepting91/reddit-archiver/internal/ingest"
	"github.com/qepting91/reddit-archiver/internal/policy"
	"github.com/qepting91/reddit-archiver/internal/scrape"
	"github.com/qepting91/reddit-archiver/internal/storage"
	"gopkg.in/yaml.v3"
)

// Regex for valid subreddit names
var subNameRegex = regexp.MustCompile(`^[A-Za-z0-9_]{3,21}$`)

var dateLayouts = []string{"2006/01/02", "2006-01-02"}

// Parse reads flags and environment from args (without the program name) and
// merges the YAML profile when one is given. It returns nil settings when
// help was requested.
func Parse(args []string) (*Settings, error) {
	var s Settings

	parser := flags.NewParser(&s, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if s.Profile != "" {
		p, err := LoadProfile(s.Profile)
		if err != nil {
			return nil, err
		}
		s.applyProfile(p)
	}
	return &s, nil
}

// LoadProfile reads a YAML run profile.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse YAML profile %s: %w", path, err)
	}
	return &p, nil
}

// applyProfile fills settings left empty by flags and environment.
func (s *Settings) applyProfile(p *Profile) {
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&s.Subreddit, p.Subreddit)
	fill(&s.Fetch, p.Fetch)
	fill(&s.Start, p.Start)
	fill(&s.End, p.End)
	fill(&s.ProxyFile, p.ProxyFile)
	fill(&s.Output, p.Output)
	fill(&s.Schedule, p.Schedule)
	if s.Count == 0 {
		s.Count = p.Count
	}
}

// Build validates the settings and loads the proxy list.
func (s *Settings) Build() (*Config, error) {
	sub := strings.TrimPrefix(strings.TrimSpace(s.Subreddit), "r/")
	if sub == "" {
		return nil, &domain.ConfigError{Field: "subreddit", Message: "subreddit name cannot be empty"}
	}
	if !subNameRegex.MatchString(sub) {
		return nil, &domain.ConfigError{Field: "subreddit", Message: fmt.Sprintf("%q is not a valid subreddit name", sub)}
	}

	spec, err := s.policySpec()
	if err != nil {
		return nil, err
	}

	fetch := domain.FetchConfiguration{Subreddit: sub, Policy: spec}
	if s.ProxyFile != "" {
		proxies, err := ingest.LoadProxies(s.ProxyFile)
		if err != nil {
			return nil, &domain.ConfigError{Field: "proxy-file", Message: err.Error()}
		}
		if len(proxies) == 0 {
			return nil, &domain.ConfigError{Field: "proxy-file", Message: "proxy file is empty"}
		}
		for _, p := range proxies {
			if _, err := url.Parse(p.URL()); err != nil {
				return nil, &domain.ConfigError{Field: "proxy-file", Message: fmt.Sprintf("invalid proxy %q", p.Address)}
			}
		}
		fetch.UseProxy = true
		fetch.Proxies = proxies
	}

	if s.MaxAttempts <= 0 {
		return nil, &domain.ConfigError{Field: "max-attempts", Message: "must be a positive integer"}
	}
	if s.MaxRetryDuration <= 0 {
		return nil, &domain.ConfigError{Field: "max-retry-duration", Message: "must be positive"}
	}
	if s.Backoff < 0 || s.RequestInterval < 0 {
		return nil, &domain.ConfigError{Field: "backoff", Message: "durations must not be negative"}
	}
	if s.Source == collector.SourceAPI && (s.ClientID == "" || s.ClientSecret == "") {
		return nil, &domain.ConfigError{Field: "source", Message: "api source requires REDDIT_CLIENT_ID and REDDIT_CLIENT_SECRET"}
	}

	output := strings.TrimSpace(s.Output)
	if output == "" {
		output = storage.DefaultOutputFile
	}

	return &Config{
		Fetch: fetch,
		Collector: collector.Options{
			Source:          s.Source,
			BaseURL:         s.BaseURL,
			UserAgent:       s.UserAgent,
			RequestInterval: s.RequestInterval,
			FatalStatuses:   s.FatalStatus,
			ClientID:        s.ClientID,
			ClientSecret:    s.ClientSecret,
			Username:        s.Username,
			Password:        s.Password,
		},
		Scrape: scrape.Options{
			Backoff:          s.Backoff,
			MaxAttempts:      s.MaxAttempts,
			MaxRetryDuration: s.MaxRetryDuration,
			OnMalformed:      scrape.MalformedPolicy(s.OnMalformed),
		},
		ProxyFile:     s.ProxyFile,
		ProbeURL:      s.ProbeURL,
		Output:        output,
		Schedule:      strings.TrimSpace(s.Schedule),
		DashboardPort: s.DashboardPort,
		Yes:           s.Yes,
		Debug:         s.Debug,
	}, nil
}

func (s *Settings) policySpec() (domain.PolicySpec, error) {
	fetchType := s.Fetch
	if strings.TrimSpace(fetchType) == "" {
		fetchType = string(domain.PolicyAll)
	}
	kind, err := policy.Parse(fetchType)
	if err != nil {
		return domain.PolicySpec{}, err
	}

	spec := domain.PolicySpec{Kind: kind}
	switch kind {
	case domain.PolicyFirstN, domain.PolicyRandomN:
		spec.Count = s.Count
	case domain.PolicyDateRange:
		if spec.Start, err = ParseDate("start", s.Start); err != nil {
			return spec, err
		}
		if spec.End, err = ParseDate("end", s.End); err != nil {
			return spec, err
		}
	}
	return spec, policy.Validate(spec)
}

// ParseDate accepts yyyy/mm/dd or yyyy-mm-dd and returns midnight UTC.
func ParseDate(field, v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &domain.ConfigError{Field: field, Message: fmt.Sprintf("invalid date %q (use yyyy/mm/dd)", v)}
}
