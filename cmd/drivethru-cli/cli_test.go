package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/drivethru-server/internal/config"
)

func TestReplaySkipsBlankAndCommentLines(t *testing.T) {
	input := strings.NewReader("# scripted order\na cosmic burger\n\n  make it a large  \n")
	var out bytes.Buffer
	var sent []string

	err := replay(input, &out, func(text string) error {
		sent = append(sent, text)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a cosmic burger", "make it a large"}, sent)
	assert.Contains(t, out.String(), "customer: make it a large")
}

func TestReplayStopsOnError(t *testing.T) {
	boom := errors.New("server down")
	calls := 0
	err := replay(strings.NewReader("one\ntwo\n"), &bytes.Buffer{}, func(string) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://drivethru:hunter2@db:5432/drivethru", "postgres://****@db:5432/drivethru"},
		{"sk-abcdef123456", "****3456"},
		{"abc", "****"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, maskSecret(tt.in), tt.in)
	}
}

func TestConfigValuesMasksSecrets(t *testing.T) {
	cfg := &config.Config{
		LLMBaseURL:  "http://llm:8080",
		LLMAPIKey:   "sk-abcdef123456",
		DatabaseURL: "postgres://u:p@db/drivethru",
		HTTPPort:    8190,
	}

	values := configValues(cfg, false)
	assert.Equal(t, "http://llm:8080", values["LLM_API_URL"])
	assert.Equal(t, "****3456", values["LLM_API_KEY"])
	assert.Equal(t, "postgres://****@db/drivethru", values["DRIVETHRU_DATABASE_URL"])
	assert.Equal(t, "8190", values["DRIVETHRU_API_PORT"])
	assert.Equal(t, "", values["REDIS_URL"])

	assert.Equal(t, "sk-abcdef123456", configValues(cfg, true)["LLM_API_KEY"])
}
