package collector

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// DefaultUserAgent is the browser identity sent when none is configured.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Identity builds a fresh User-Agent value for every request by appending
// a random MAC-style token to the base agent.
type Identity struct {
	Base string
}

func (id Identity) UserAgent() string {
	base := id.Base
	if base == "" {
		base = DefaultUserAgent
	}
	return fmt.Sprintf("%s (MAC=%s)", base, randomMAC())
}

func randomMAC() string {
	parts := make([]string, 6)
	for i := range parts {
		parts[i] = fmt.Sprintf("%02x", rand.IntN(256))
	}
	return strings.Join(parts, ":")
}
