// Package telemetry renders customer transcripts safe for logs and traces.
package telemetry

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

// PIILevel defines how much of a transcript reaches the logs.
type PIILevel string

const (
	// PIILevelNone redacts all customer speech
	PIILevelNone PIILevel = "none"
	// PIILevelHashed keeps the order text but hashes contact details
	PIILevelHashed PIILevel = "hashed"
	// PIILevelFull performs no sanitization
	PIILevelFull PIILevel = "full"
)

// ParsePIILevel maps a config value to a level. Unknown values fall back to
// hashed.
func ParsePIILevel(s string) PIILevel {
	switch PIILevel(strings.ToLower(strings.TrimSpace(s))) {
	case PIILevelNone:
		return PIILevelNone
	case PIILevelFull:
		return PIILevelFull
	default:
		return PIILevelHashed
	}
}

// Sanitizer handles PII detection in customer speech. Drive-thru customers
// mostly say menu words, but they do read out phone numbers for loyalty
// lookups, emails for receipts and card numbers at the wrong moment.
type Sanitizer struct {
	level PIILevel
	salt  string

	emailPattern      *regexp.Regexp
	phonePattern      *regexp.Regexp
	creditCardPattern *regexp.Regexp
	spokenDigits      *regexp.Regexp
}

// NewSanitizer creates a sanitizer. salt scopes hashes to one deployment.
func NewSanitizer(level PIILevel, salt string) *Sanitizer {
	return &Sanitizer{
		level:             level,
		salt:              salt,
		emailPattern:      regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`),
		phonePattern:      regexp.MustCompile(`\b\d{3}[-.\s]?\d{3}[-.\s]?\d{4}\b`),
		creditCardPattern: regexp.MustCompile(`\b\d{4}[- ]?\d{4}[- ]?\d{4}[- ]?\d{4}\b`),
		// speech-to-text often spells numbers out: "five five five one two ..."
		spokenDigits: regexp.MustCompile(`(?i)\b(?:(?:zero|oh|one|two|three|four|five|six|seven|eight|nine)\b[\s,-]*){7,}`),
	}
}

// Level returns the configured level.
func (s *Sanitizer) Level() PIILevel {
	return s.level
}

// Redact sanitizes a transcript based on the configured PII level.
func (s *Sanitizer) Redact(text string) string {
	switch s.level {
	case PIILevelNone:
		return "[REDACTED]"
	case PIILevelFull:
		return text
	default:
		return s.hashPII(text)
	}
}

// hashPII detects and hashes PII in the input string. Cards go first so
// their digit groups are not mistaken for phone numbers.
func (s *Sanitizer) hashPII(input string) string {
	result := s.creditCardPattern.ReplaceAllString(input, "[CC:REDACTED]")

	result = s.emailPattern.ReplaceAllStringFunc(result, func(match string) string {
		return fmt.Sprintf("[EMAIL:%s]", s.hash(match))
	})
	result = s.phonePattern.ReplaceAllStringFunc(result, func(match string) string {
		return fmt.Sprintf("[PHONE:%s]", s.hash(match))
	})
	result = s.spokenDigits.ReplaceAllStringFunc(result, func(match string) string {
		return fmt.Sprintf("[DIGITS:%s] ", s.hash(strings.TrimSpace(match)))
	})
	return strings.TrimSpace(result)
}

// hash creates a salted SHA-256 hash, shortened for readability.
func (s *Sanitizer) hash(data string) string {
	h := sha256.New()
	h.Write([]byte(data + s.salt))
	return hex.EncodeToString(h.Sum(nil))[:8]
}

// SanitizeID hashes identifiers such as lane ids when PII is restricted.
func (s *Sanitizer) SanitizeID(id string) string {
	if id == "" {
		return ""
	}
	switch s.level {
	case PIILevelFull:
		return id
	case PIILevelNone:
		return "[REDACTED]"
	default:
		return s.hash(id)
	}
}
