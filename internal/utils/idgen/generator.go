package idgen

import (
	"crypto/rand"
	"fmt"
	mathrand "math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// GenerateSecureID generates a cryptographically secure ID with the given prefix and length.
// Uses only alphanumeric characters (0-9, a-z).
func GenerateSecureID(prefix string, length int) (string, error) {
	bytes := make([]byte, length*2)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	const charset = "0123456789abcdefghijklmnopqrstuvwxyz"
	encoded := make([]byte, length)
	for i := 0; i < length; i++ {
		encoded[i] = charset[bytes[i]%36]
	}

	return fmt.Sprintf("%s_%s", prefix, string(encoded)), nil
}

var (
	entropyMu   sync.Mutex
	entropyOnce sync.Once
	entropy     *ulid.MonotonicEntropy
)

func monotonicEntropy() *ulid.MonotonicEntropy {
	entropyOnce.Do(func() {
		source := mathrand.NewSource(time.Now().UnixNano())
		entropy = ulid.Monotonic(mathrand.New(source), 0)
	})
	return entropy
}

// NewSortableID returns a lower-case ULID with the given prefix. IDs created
// later sort after earlier ones, which keeps order lines in insertion order.
func NewSortableID(prefix string) string {
	entropyMu.Lock()
	id := ulid.MustNew(ulid.Timestamp(time.Now()), monotonicEntropy())
	entropyMu.Unlock()
	return prefix + "_" + strings.ToLower(id.String())
}

// ParseSortableID strips the prefix and parses the ULID part.
func ParseSortableID(prefix, value string) (ulid.ULID, error) {
	value = strings.TrimPrefix(strings.TrimSpace(value), prefix+"_")
	return ulid.Parse(strings.ToUpper(value))
}
