package domain

import (
	"context"
	"strings"
	"time"
)

// Cursor is the listing's "after" token. The empty cursor means the first
// page when sent and the end of the listing when received.
type Cursor string

// PostRecord is the clean data structure for storage
type PostRecord struct {
	Title    string    `json:"title"`
	Content  string    `json:"content"`
	Upvotes  int       `json:"upvotes"`
	Comments int       `json:"comments"`
	Posted   time.Time `json:"posted"`
}

// Date returns the posting day as yyyy-mm-dd (UTC).
func (p PostRecord) Date() string {
	return p.Posted.UTC().Format("2006-01-02")
}

// Time returns the posting time of day as hh:mm:ss (UTC).
func (p PostRecord) Time() string {
	return p.Posted.UTC().Format("15:04:05")
}

// RawPost mirrors the data object of one listing child. Pointers tell an
// absent key apart from a zero value.
type RawPost struct {
	Title       *string  `json:"title"`
	Selftext    *string  `json:"selftext"`
	Ups         *int     `json:"ups"`
	NumComments *int     `json:"num_comments"`
	CreatedUTC  *float64 `json:"created_utc"`
}

// Page is one decoded listing response.
type Page struct {
	Items []RawPost
	After Cursor
}

// ProxyEndpoint is a single candidate proxy as listed in the proxy file.
type ProxyEndpoint struct {
	Address string
}

// URL returns the address with an http scheme when none was given.
func (p ProxyEndpoint) URL() string {
	if strings.Contains(p.Address, "://") {
		return p.Address
	}
	return "http://" + p.Address
}

func (p ProxyEndpoint) String() string {
	return p.Address
}

// PolicyKind names one of the selectable fetch strategies.
type PolicyKind string

const (
	PolicyAll       PolicyKind = "all"
	PolicyFirstN    PolicyKind = "first_n"
	PolicyRandomN   PolicyKind = "random_n"
	PolicyDateRange PolicyKind = "date_range"
)

// PolicySpec carries the selected strategy and its parameters.
type PolicySpec struct {
	Kind  PolicyKind
	Count int
	Start time.Time
	End   time.Time
}

// FetchConfiguration is the validated snapshot handed to the fetch loop.
type FetchConfiguration struct {
	Subreddit string
	Policy    PolicySpec
	UseProxy  bool
	Proxies   []ProxyEndpoint
}

// PageFetcher defines the interface for retrieving one listing page
type PageFetcher interface {
	FetchPage(ctx context.Context, subreddit string, after Cursor, proxy *ProxyEndpoint) (*Page, error)
}
