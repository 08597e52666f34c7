package contextres

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/janhq/drivethru-server/internal/domain/command"
	"github.com/janhq/drivethru-server/internal/domain/conversation"
	"github.com/janhq/drivethru-server/internal/domain/order"
	"github.com/janhq/drivethru-server/internal/utils/textutil"
)

const (
	recencyWeight    = 0.5
	positionWeight   = 0.1
	lastCommandBoost = 0.3
	repairBoost      = 0.5
	quantityBoost    = 0.15
	pickMargin       = 0.25
	antecedentConf   = 0.9
)

var actionVerbs = []string{
	"take", "remove", "drop", "cancel", "delete", "make", "change", "switch",
	"swap", "get rid of", "put", "add", "hold",
}

type candidate struct {
	line  *order.LineItem
	score float64
}

// resolveAntecedent binds a pronoun in an order-editing utterance to one
// order line without consulting the model. It returns false when the
// binding is not clear-cut.
func resolveAntecedent(text string, cues Cues, req Request) (Result, bool) {
	if !cues.Demonstrative || cues.Pronoun == "same" || cues.Collective || cues.WholeRepair {
		return Result{}, false
	}
	if req.Order == nil || req.Order.IsEmpty() {
		return Result{}, false
	}
	padded := " " + strings.Join(textutil.Tokens(text), " ") + " "
	if !containsAny(padded, actionVerbs) {
		return Result{}, false
	}

	candidates := rankCandidates(cues, req)
	if len(candidates) == 0 {
		return Result{}, false
	}
	if len(candidates) > 1 && candidates[0].score-candidates[1].score < pickMargin {
		return Result{}, false
	}

	line := candidates[0].line
	name := line.Name
	if cues.Plural && !strings.HasSuffix(strings.ToLower(name), "s") {
		name = textutil.Pluralize(name, 2)
	}
	pronoun := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(cues.Pronoun) + `\b`)
	replaced := false
	resolved := pronoun.ReplaceAllStringFunc(text, func(m string) string {
		if replaced {
			return m
		}
		replaced = true
		return "the " + name
	})

	return Result{
		Status:       StatusSuccess,
		ResolvedText: resolved,
		Confidence:   antecedentConf,
		Rationale:    fmt.Sprintf("%q refers to %s", cues.Pronoun, line.Name),
		Source:       SourceAntecedent,
	}, true
}

// rankCandidates scores order lines that agree in number with the pronoun.
// Recency comes from the command log, falling back to order position.
func rankCandidates(cues Cues, req Request) []candidate {
	var commands []command.Command
	if req.Commands != nil {
		commands = req.Commands.All()
	}
	var lastCmd command.Command
	hasLast := false
	if req.Commands != nil {
		lastCmd, hasLast = req.Commands.LastSuccessful()
	}
	prevTurn := previousTurn(req.Conversation)

	var out []candidate
	n := len(req.Order.Items)
	for idx, line := range req.Order.Items {
		if cues.Plural != (line.Quantity > 1) {
			continue
		}
		score := positionWeight * float64(idx+1) / float64(n)
		for i := len(commands) - 1; i >= 0; i-- {
			if refersTo(commands[i], line) {
				score += recencyWeight * float64(i+1) / float64(len(commands))
				break
			}
		}
		if hasLast && refersTo(lastCmd, line) {
			if cues.Repair {
				score += repairBoost
			} else {
				score += lastCommandBoost
			}
		}
		if mentionsQuantity(prevTurn, line) {
			score += quantityBoost
		}
		out = append(out, candidate{line: line, score: score})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].score > out[j].score })
	return out
}

func refersTo(c command.Command, line *order.LineItem) bool {
	if c.ItemID != "" {
		return c.ItemID == line.ID
	}
	return c.ItemName != "" && strings.EqualFold(c.ItemName, line.Name)
}

func previousTurn(h *conversation.History) string {
	if h == nil {
		return ""
	}
	recent := h.Recent(1)
	if len(recent) == 0 {
		return ""
	}
	return strings.ToLower(recent[0].Content)
}

// mentionsQuantity reports whether turn names the line together with its
// quantity, e.g. "two Asteroid Cookies".
func mentionsQuantity(turn string, line *order.LineItem) bool {
	name := textutil.Tokens(line.Name)
	if turn == "" || len(name) == 0 || !strings.Contains(turn, name[0]) {
		return false
	}
	for _, t := range textutil.Tokens(turn) {
		if q, ok := textutil.Number(t, false); ok && q == line.Quantity {
			return true
		}
	}
	return false
}
