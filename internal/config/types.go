package config

import (
	"time"

	"github.com/qepting91/reddit-archiver/internal/collector"
	"github.com/qepting91/reddit-archiver/internal/domain"
	"github.com/qepting91/reddit-archiver/internal/scrape"
)

// Settings is the merged, unvalidated view of flags, environment and profile.
// The interactive prompt fills in whatever is still missing before Build.
type Settings struct {
	Subreddit string `short:"s" long:"subreddit" env:"SUBREDDIT" description:"Subreddit to archive, without the r/ prefix"`
	Fetch     string `short:"f" long:"fetch" env:"FETCH_TYPE" description:"Fetch type: all, first_n, random_n or date_range"`
	Count     int    `short:"n" long:"count" env:"FETCH_COUNT" description:"Number of posts for first_n and random_n"`
	Start     string `long:"start" env:"START_DATE" description:"First day of a date_range (yyyy/mm/dd)"`
	End       string `long:"end" env:"END_DATE" description:"Last day of a date_range (yyyy/mm/dd)"`
	ProxyFile string `long:"proxy-file" env:"PROXY_FILE" description:"Newline-delimited proxy list; enables proxy mode"`
	Output    string `short:"o" long:"output" env:"OUTPUT_FILE" description:"Archive file (default reddit_posts.txt)"`
	Schedule  string `long:"schedule" env:"SCHEDULE" description:"Cron spec for repeated runs, e.g. '@every 6h'"`
	Profile   string `long:"profile" env:"PROFILE" description:"YAML run profile supplying defaults for the options above"`

	// Listing access
	Source          string        `long:"source" env:"COLLECTOR_MODE" default:"public" choice:"public" choice:"api" choice:"mock" description:"Listing source"`
	BaseURL         string        `long:"base-url" env:"REDDIT_BASE_URL" default:"https://www.reddit.com" description:"Listing endpoint base URL"`
	UserAgent       string        `long:"user-agent" env:"REDDIT_USER_AGENT" description:"Base User-Agent; a random MAC token is appended per request"`
	RequestInterval time.Duration `long:"request-interval" env:"REQUEST_INTERVAL" default:"2s" description:"Minimum spacing between listing requests (0 disables)"`
	ProbeURL        string        `long:"probe-url" env:"PROXY_PROBE_URL" default:"https://www.reddit.com/r/test/new.json" description:"Target used to verify proxies"`
	ClientID        string        `long:"client-id" env:"REDDIT_CLIENT_ID" description:"OAuth client id (api source)"`
	ClientSecret    string        `long:"client-secret" env:"REDDIT_CLIENT_SECRET" description:"OAuth client secret (api source)"`
	Username        string        `long:"username" env:"REDDIT_USERNAME" description:"Reddit username (api source)"`
	Password        string        `long:"password" env:"REDDIT_PASSWORD" description:"Reddit password (api source)"`

	// Retry behavior
	Backoff          time.Duration `long:"backoff" env:"RETRY_BACKOFF" default:"2s" description:"Wait between retries"`
	MaxAttempts      int           `long:"max-attempts" env:"MAX_ATTEMPTS" default:"1000" description:"Requests allowed per page before giving up"`
	MaxRetryDuration time.Duration `long:"max-retry-duration" env:"MAX_RETRY_DURATION" default:"1h" description:"Time allowed per page before giving up"`
	FatalStatus      []int         `long:"fatal-status" env:"FATAL_STATUS" env-delim:"," description:"HTTP statuses that abort instead of retrying (repeatable)"`
	OnMalformed      string        `long:"on-malformed" env:"ON_MALFORMED" default:"retry" choice:"retry" choice:"skip" description:"Page with an unparseable timestamp: refetch it or skip the item"`

	// Application
	DashboardPort string `long:"dashboard-port" env:"PORT" description:"Serve the archive dashboard on this port"`
	Yes           bool   `short:"y" long:"yes" description:"Do not ask for confirmation"`
	Interactive   bool   `short:"i" long:"interactive" description:"Prompt for missing settings"`
	Debug         bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

// Profile is the YAML run profile.
type Profile struct {
	Subreddit string `yaml:"subreddit"`
	Fetch     string `yaml:"fetch"`
	Count     int    `yaml:"count"`
	Start     string `yaml:"start"`
	End       string `yaml:"end"`
	ProxyFile string `yaml:"proxy_file"`
	Output    string `yaml:"output"`
	Schedule  string `yaml:"schedule"`
}

// Config is the validated configuration for one process.
type Config struct {
	Fetch     domain.FetchConfiguration
	Collector collector.Options
	Scrape    scrape.Options

	ProxyFile     string
	ProbeURL      string
	Output        string
	Schedule      string
	DashboardPort string
	Yes           bool
	Debug         bool
}
