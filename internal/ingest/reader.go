package ingest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/qepting91/reddit-archiver/internal/domain"
)

// LoadProxies reads a newline-delimited proxy list, one address per line.
func LoadProxies(path string) ([]domain.ProxyEndpoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	proxies, err := ParseProxies(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return proxies, nil
}

// ParseProxies skips blank lines and lines starting with '#'.
func ParseProxies(r io.Reader) ([]domain.ProxyEndpoint, error) {
	// Wrap in BOM stripper
	scanner := bufio.NewScanner(stripBOM(r))

	var proxies []domain.ProxyEndpoint
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		proxies = append(proxies, domain.ProxyEndpoint{Address: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return proxies, nil
}

func stripBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	rdr, _, err := br.ReadRune()
	if err != nil {
		return br
	}
	if rdr != '\uFEFF' {
		br.UnreadRune()
	}
	return br
}
