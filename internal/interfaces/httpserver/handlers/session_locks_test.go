package handlers

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionLocksSerializePerSession(t *testing.T) {
	locks := newSessionLocks()
	var a, b int
	counts := map[string]*int{"sess_a": &a, "sess_b": &b}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		for _, id := range []string{"sess_a", "sess_b"} {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				unlock := locks.lock(id)
				defer unlock()
				*counts[id]++
			}(id)
		}
	}
	wg.Wait()

	assert.Equal(t, 50, a)
	assert.Equal(t, 50, b)
	assert.Zero(t, locks.size(), "idle entries are released")
}
