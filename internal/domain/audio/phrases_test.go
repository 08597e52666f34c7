package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	assert.Equal(t, "Welcome to Cosmic Diner, may I take your order?", Text(Greeting, map[string]string{"restaurant": "Cosmic Diner"}))
	assert.Equal(t, "Welcome to our restaurant, may I take your order?", Text(Greeting, nil))
	assert.Contains(t, Text(OrderConfirmed, map[string]string{"total": "$12.50"}), "that'll be $12.50")
	assert.Empty(t, Text(LLMGenerated, nil))
}

func TestValid(t *testing.T) {
	assert.True(t, SystemErrorRetry.Valid())
	assert.True(t, LLMGenerated.Valid())
	assert.False(t, PhraseType("shout").Valid())
	assert.NotEmpty(t, All())
}
