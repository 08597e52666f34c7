// Package noise strips background chatter from a transcribed utterance
// while keeping everything that could belong to the order.
package noise

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/janhq/drivethru-server/internal/domain/llm"
	"github.com/janhq/drivethru-server/internal/domain/menu"
	"github.com/janhq/drivethru-server/internal/utils/textutil"
)

// correctionWords must survive filtering; they change what came before.
var correctionWords = []string{"actually", "wait", "instead", "make", "no", "extra", "without"}

// Filter removes background noise. When unsure it keeps the text.
type Filter struct {
	llm llm.Capability
	log zerolog.Logger
}

// NewFilter creates a noise filter.
func NewFilter(capability llm.Capability, log zerolog.Logger) *Filter {
	return &Filter{
		llm: capability,
		log: log.With().Str("component", "noise-filter").Logger(),
	}
}

// Filter returns the cleaned utterance. Any failure, an empty answer, or an
// answer that dropped order vocabulary yields raw unchanged.
func (f *Filter) Filter(ctx context.Context, raw string, hints map[string]bool) string {
	if strings.TrimSpace(raw) == "" {
		return raw
	}

	out, err := f.llm.Generate(ctx, llm.Prompt{
		Stage:     llm.StageNoiseFilter,
		System:    systemPrompt,
		User:      fmt.Sprintf("Transcript: %q", raw),
		MaxTokens: 300,
	})
	if err != nil {
		f.log.Warn().Err(err).Msg("noise filter unavailable, keeping raw input")
		return raw
	}
	cleaned := strings.Trim(strings.TrimSpace(out), `"`)
	if cleaned == "" {
		return raw
	}
	if lost := Lost(raw, cleaned, hints); len(lost) > 0 {
		f.log.Warn().Strs("lost", lost).Msg("noise filter dropped order content, keeping raw input")
		return raw
	}
	return cleaned
}

// Lost lists order vocabulary present in raw but missing from cleaned.
func Lost(raw, cleaned string, hints map[string]bool) []string {
	kept := make(map[string]bool)
	for _, t := range textutil.Tokens(cleaned) {
		kept[textutil.Singular(t)] = true
	}
	protected := make(map[string]bool, len(correctionWords))
	for _, w := range correctionWords {
		protected[w] = true
	}
	for _, w := range menu.SizeWords() {
		protected[w] = true
	}

	var lost []string
	seen := make(map[string]bool)
	for _, t := range textutil.Tokens(raw) {
		s := textutil.Singular(t)
		if seen[s] || kept[s] {
			continue
		}
		if hints[s] || protected[t] {
			lost = append(lost, t)
			seen[s] = true
		}
	}
	return lost
}

const systemPrompt = `You clean drive-thru transcripts. Remove only obvious background noise:
phone calls, passengers talking to each other, self-talk about unrelated things, "can you hear me".
Keep every food item, quantity, size, modifier, correction ("actually", "wait", "make that")
and natural hesitation ("um", "uh"). When in doubt keep the words.
If there is no noise, return the transcript unchanged.
Reply with the cleaned transcript only, no quotes and no explanation.`
