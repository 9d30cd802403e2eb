// Package prompt asks for run settings on a terminal when they were not given
// as flags, environment or profile.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/qepting91/reddit-archiver/internal/config"
	"github.com/qepting91/reddit-archiver/internal/domain"
	"github.com/qepting91/reddit-archiver/internal/ingest"
	"github.com/qepting91/reddit-archiver/internal/policy"
	"github.com/qepting91/reddit-archiver/internal/storage"
)

// ErrCancelled is returned when the user declines to proceed.
var ErrCancelled = errors.New("scraping cancelled")

type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Fill asks for every setting that is still empty. An invalid answer is
// reported and the question repeated. Input ending early is an error.
func (p *Prompter) Fill(s *config.Settings) error {
	if strings.TrimSpace(s.Subreddit) == "" {
		v, err := p.askUntil("Enter subreddit name: ", func(v string) error {
			if v == "" {
				return errors.New("subreddit name cannot be empty")
			}
			return nil
		})
		if err != nil {
			return err
		}
		s.Subreddit = v
	}

	if strings.TrimSpace(s.Fetch) == "" {
		v, err := p.askUntil("Fetch type (all/random_n/first_n/date_range): ", func(v string) error {
			_, err := policy.Parse(v)
			return err
		})
		if err != nil {
			return err
		}
		s.Fetch = strings.ToLower(v)
	}

	kind, err := policy.Parse(s.Fetch)
	if err != nil {
		return err
	}
	switch kind {
	case domain.PolicyFirstN, domain.PolicyRandomN:
		if err := p.fillCount(s); err != nil {
			return err
		}
	case domain.PolicyDateRange:
		if err := p.fillDates(s); err != nil {
			return err
		}
	}

	if s.ProxyFile == "" {
		if err := p.fillProxy(s); err != nil {
			return err
		}
	}

	if s.Output == "" {
		v, err := p.ask(fmt.Sprintf("Enter the output file name (default '%s'): ", storage.DefaultOutputFile))
		if err != nil {
			return err
		}
		if v == "" {
			v = storage.DefaultOutputFile
		}
		s.Output = v
	}
	return nil
}

func (p *Prompter) fillCount(s *config.Settings) error {
	if s.Count > 0 {
		return nil
	}
	_, err := p.askUntil("Enter number of posts to fetch: ", func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return errors.New("number of posts must be a positive integer")
		}
		s.Count = n
		return nil
	})
	return err
}

func (p *Prompter) fillDates(s *config.Settings) error {
	for {
		if s.Start == "" {
			v, err := p.askUntil("Enter start date (yyyy/mm/dd): ", dateCheck("start"))
			if err != nil {
				return err
			}
			s.Start = v
		}
		if s.End == "" {
			v, err := p.askUntil("Enter end date (yyyy/mm/dd): ", dateCheck("end"))
			if err != nil {
				return err
			}
			s.End = v
		}

		start, err := config.ParseDate("start", s.Start)
		if err != nil {
			return err
		}
		end, err := config.ParseDate("end", s.End)
		if err != nil {
			return err
		}
		if start.Before(end) {
			return nil
		}
		fmt.Fprintln(p.out, "Error: start date must be before end date. Please try again.")
		s.Start, s.End = "", ""
	}
}

func dateCheck(field string) func(string) error {
	return func(v string) error {
		_, err := config.ParseDate(field, v)
		return err
	}
}

func (p *Prompter) fillProxy(s *config.Settings) error {
	answer, err := p.askUntil("Do you want to use a proxy? (yes/no): ", func(v string) error {
		switch strings.ToLower(v) {
		case "yes", "no":
			return nil
		}
		return errors.New("please answer 'yes' or 'no' for using proxy")
	})
	if err != nil {
		return err
	}
	if strings.ToLower(answer) == "no" {
		return nil
	}

	v, err := p.askUntil("Enter the proxy file name: ", func(v string) error {
		proxies, err := ingest.LoadProxies(v)
		if err != nil || len(proxies) == 0 {
			return errors.New("proxy file is empty or not found")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.ProxyFile = v
	return nil
}

// Confirm prints the estimate for an unbounded run and asks to proceed.
// Anything other than "yes" returns ErrCancelled.
func (p *Prompter) Confirm(estimate string) error {
	fmt.Fprintf(p.out, "Estimated time for fetching all posts: %s\n", estimate)
	v, err := p.ask("Do you want to proceed? (yes/no): ")
	if err != nil {
		return err
	}
	if strings.ToLower(v) != "yes" {
		return ErrCancelled
	}
	return nil
}

// askUntil repeats the question until check accepts the answer.
func (p *Prompter) askUntil(question string, check func(string) error) (string, error) {
	for {
		v, err := p.ask(question)
		if err != nil {
			return "", err
		}
		if err := check(v); err != nil {
			fmt.Fprintf(p.out, "Error: %v. Please try again.\n", err)
			continue
		}
		return v, nil
	}
}

func (p *Prompter) ask(question string) (string, error) {
	fmt.Fprint(p.out, question)
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		if err == io.EOF {
			return "", fmt.Errorf("prompt %q: %w", strings.TrimSpace(question), io.ErrUnexpectedEOF)
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}
