package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUniversalOptions(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		addrs    []string
		db       int
		password string
		wantErr  bool
	}{
		{name: "single url", raw: "redis://:secret@localhost:6379/2", addrs: []string{"localhost:6379"}, db: 2, password: "secret"},
		{name: "bare address", raw: "cache:6379", addrs: []string{"cache:6379"}},
		{name: "cluster list", raw: "redis://a:6379, redis://b:6379", addrs: []string{"a:6379", "b:6379"}},
		{name: "empty", raw: " , ", wantErr: true},
		{name: "bad scheme", raw: "http://localhost:6379", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := buildUniversalOptions(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.addrs, opts.Addrs)
			assert.Equal(t, tt.db, opts.DB)
			assert.Equal(t, tt.password, opts.Password)
		})
	}
}

func TestKey(t *testing.T) {
	assert.Equal(t, "drivethru:v1:session:sess_1", Key("session", "sess_1"))
	assert.Equal(t, "drivethru:v1:lock:order:ord_1", Key("lock", "order", "ord_1"))
}
