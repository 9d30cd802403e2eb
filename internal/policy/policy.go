// Package policy implements the fetch strategies that decide which records
// are kept and when pagination stops.
package policy

import (
	"fmt"
	"strings"
	"time"

	"github.com/qepting91/reddit-archiver/internal/domain"
)

// Decision is the outcome of evaluating one normalized record.
type Decision int

const (
	// Append keeps the record and continues.
	Append Decision = iota
	// Skip drops the record and continues.
	Skip
	// AppendAndStop keeps the record and ends the run.
	AppendAndStop
	// Stop drops the record and ends the run.
	Stop
)

func (d Decision) String() string {
	switch d {
	case Append:
		return "append"
	case Skip:
		return "skip"
	case AppendAndStop:
		return "append_and_stop"
	case Stop:
		return "stop"
	}
	return fmt.Sprintf("decision(%d)", int(d))
}

// Policy decides, per record, whether it is kept and whether to keep paginating.
// accumulated is the number of records kept before rec.
type Policy interface {
	Decide(rec domain.PostRecord, accumulated int) Decision
}

// Parse maps a user-facing fetch type onto a PolicyKind.
func Parse(kind string) (domain.PolicyKind, error) {
	k := domain.PolicyKind(strings.ToLower(strings.TrimSpace(kind)))
	switch k {
	case domain.PolicyAll, domain.PolicyFirstN, domain.PolicyRandomN, domain.PolicyDateRange:
		return k, nil
	}
	return "", &domain.ConfigError{
		Field:   "fetch",
		Message: fmt.Sprintf("invalid fetch type %q (choose from all, random_n, first_n, date_range)", kind),
	}
}

// Validate checks the parameters each policy kind requires.
func Validate(spec domain.PolicySpec) error {
	switch spec.Kind {
	case domain.PolicyAll:
		return nil
	case domain.PolicyFirstN, domain.PolicyRandomN:
		if spec.Count <= 0 {
			return &domain.ConfigError{Field: "count", Message: "number of posts must be a positive integer"}
		}
		return nil
	case domain.PolicyDateRange:
		if spec.Start.IsZero() || spec.End.IsZero() {
			return &domain.ConfigError{Field: "start", Message: "date range requires start and end dates"}
		}
		if !day(spec.Start).Before(day(spec.End)) {
			return &domain.ConfigError{Field: "start", Message: "start date must be before end date"}
		}
		return nil
	}
	_, err := Parse(string(spec.Kind))
	return err
}

// New builds the Policy for spec. The spec is expected to be validated.
func New(spec domain.PolicySpec) Policy {
	switch spec.Kind {
	case domain.PolicyFirstN:
		return firstN{n: spec.Count}
	case domain.PolicyRandomN:
		// Capped like first_n: the listing is not sampled.
		return firstN{n: spec.Count}
	case domain.PolicyDateRange:
		return dateRange{start: day(spec.Start), end: day(spec.End)}
	}
	return all{}
}

type all struct{}

func (all) Decide(domain.PostRecord, int) Decision { return Append }

type firstN struct {
	n int
}

func (p firstN) Decide(_ domain.PostRecord, accumulated int) Decision {
	switch {
	case accumulated >= p.n:
		return Stop
	case accumulated+1 >= p.n:
		return AppendAndStop
	}
	return Append
}

// dateRange relies on the listing being newest first: the first record
// older than start means the rest of the listing is out of range too.
type dateRange struct {
	start, end time.Time
}

func (p dateRange) Decide(rec domain.PostRecord, _ int) Decision {
	d := day(rec.Posted)
	switch {
	case d.After(p.end):
		return Skip
	case d.Before(p.start):
		return Stop
	}
	return Append
}

// day truncates t to its UTC calendar date.
func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
