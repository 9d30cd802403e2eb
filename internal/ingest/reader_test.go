package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseProxies(t *testing.T) {
	in := "\uFEFF10.0.0.1:8080\n\n  http://10.0.0.2:3128  \r\n# disabled\nsocks5://10.0.0.3:1080"
	proxies, err := ParseProxies(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseProxies returned error: %v", err)
	}

	want := []string{"10.0.0.1:8080", "http://10.0.0.2:3128", "socks5://10.0.0.3:1080"}
	if len(proxies) != len(want) {
		t.Fatalf("expected %d proxies, got %d: %v", len(want), len(proxies), proxies)
	}
	for i, p := range proxies {
		if p.Address != want[i] {
			t.Errorf("proxy %d = %q, want %q", i, p.Address, want[i])
		}
	}
}

func TestLoadProxies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proxies.txt")
	if err := os.WriteFile(path, []byte("1.1.1.1:80\n2.2.2.2:80\n"), 0644); err != nil {
		t.Fatal(err)
	}

	proxies, err := LoadProxies(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(proxies) != 2 {
		t.Errorf("expected 2 proxies, got %d", len(proxies))
	}
}

func TestLoadProxies_EmptyAndMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}
	proxies, err := LoadProxies(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(proxies) != 0 {
		t.Errorf("expected no proxies, got %d", len(proxies))
	}

	if _, err := LoadProxies(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}
