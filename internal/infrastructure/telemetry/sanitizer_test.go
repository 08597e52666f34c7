package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePIILevel(t *testing.T) {
	assert.Equal(t, PIILevelNone, ParsePIILevel("none"))
	assert.Equal(t, PIILevelFull, ParsePIILevel(" FULL "))
	assert.Equal(t, PIILevelHashed, ParsePIILevel("hashed"))
	assert.Equal(t, PIILevelHashed, ParsePIILevel("bogus"))
}

func TestRedactByLevel(t *testing.T) {
	input := "two cosmic burgers and my number is 555-123-4567"

	assert.Equal(t, "[REDACTED]", NewSanitizer(PIILevelNone, "lane").Redact(input))
	assert.Equal(t, input, NewSanitizer(PIILevelFull, "lane").Redact(input))

	hashed := NewSanitizer(PIILevelHashed, "lane").Redact(input)
	assert.Contains(t, hashed, "two cosmic burgers")
	assert.Contains(t, hashed, "[PHONE:")
	assert.NotContains(t, hashed, "555-123-4567")
}

func TestRedactHashedPatterns(t *testing.T) {
	s := NewSanitizer(PIILevelHashed, "salt")

	tests := []struct {
		name    string
		input   string
		marker  string
		leaked  string
		keepsIn string
	}{
		{name: "email", input: "send the receipt to jo@example.com please", marker: "[EMAIL:", leaked: "jo@example.com", keepsIn: "please"},
		{name: "card", input: "charge 4111 1111 1111 1111", marker: "[CC:REDACTED]", leaked: "4111", keepsIn: "charge"},
		{name: "spoken digits", input: "my phone is five five five one two three four five six seven thanks", marker: "[DIGITS:", leaked: "five five five", keepsIn: "thanks"},
		{name: "menu text untouched", input: "large nebula fries with no salt", marker: "nebula fries", keepsIn: "no salt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Redact(tt.input)
			assert.Contains(t, got, tt.marker)
			assert.Contains(t, got, tt.keepsIn)
			if tt.leaked != "" {
				assert.NotContains(t, got, tt.leaked)
			}
		})
	}
}

func TestHashIsStablePerSalt(t *testing.T) {
	a := NewSanitizer(PIILevelHashed, "a")
	b := NewSanitizer(PIILevelHashed, "b")
	assert.Equal(t, a.SanitizeID("lane-1"), a.SanitizeID("lane-1"))
	assert.NotEqual(t, a.SanitizeID("lane-1"), b.SanitizeID("lane-1"))
	assert.Len(t, a.SanitizeID("lane-1"), 8)
	assert.Equal(t, "", a.SanitizeID(""))
}
