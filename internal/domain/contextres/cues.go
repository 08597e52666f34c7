package contextres

import (
	"strings"

	"github.com/janhq/drivethru-server/internal/domain/intent"
	"github.com/janhq/drivethru-server/internal/utils/textutil"
)

var eligibleIntents = map[intent.Intent]bool{
	intent.AddItem:    true,
	intent.ModifyItem: true,
	intent.RemoveItem: true,
	intent.Question:   true,
}

var (
	singularPronouns = map[string]bool{"it": true, "that": true, "this": true}
	pluralPronouns   = map[string]bool{"those": true, "these": true, "them": true}

	// wholeCommandRepairs take back the last command rather than an item.
	wholeCommandRepairs = []string{"scratch that", "undo that", "cancel that", "never mind", "nevermind"}
	repairMarkers       = append([]string{"actually", "make that", "i meant", "instead"}, wholeCommandRepairs...)
	ellipsisMarkers     = []string{"another", "one more", "the usual", "same again", "again"}
	collectiveWords     = map[string]bool{"both": true, "all": true, "everything": true}
)

// Cues are the deterministic signals that an utterance leans on context.
type Cues struct {
	Demonstrative bool
	Pronoun       string // the demonstrative that triggered, if any
	Plural        bool
	Repair        bool
	WholeRepair   bool
	Ellipsis      bool
	Quantity      bool
	BareQuantity  bool
	NounHint      bool
	Collective    bool
}

// NeedsResolution reports whether any cue flags the utterance.
func (c Cues) NeedsResolution() bool {
	return c.Demonstrative || c.Repair || c.Ellipsis || c.BareQuantity
}

// Explicit reports whether the utterance names something and carries no
// marker pointing elsewhere.
func (c Cues) Explicit() bool {
	return c.NounHint && !c.Demonstrative && !c.Repair && !c.Ellipsis
}

// DetectCues scans text for demonstratives, repair and ellipsis markers and
// bare quantities. hints is the noun vocabulary of the restaurant.
func DetectCues(text string, hints map[string]bool) Cues {
	tokens := textutil.Tokens(text)
	padded := " " + strings.Join(tokens, " ") + " "
	var c Cues

	for i, t := range tokens {
		if hints[textutil.Singular(t)] {
			c.NounHint = true
		}
		if collectiveWords[t] {
			c.Collective = true
		}
		if _, ok := textutil.Number(t, false); ok {
			c.Quantity = true
		}

		if !c.Demonstrative && (singularPronouns[t] || pluralPronouns[t] || t == "same") {
			next := ""
			if i+1 < len(tokens) {
				next = textutil.Singular(tokens[i+1])
			}
			if !hints[next] {
				c.Demonstrative = true
				c.Pronoun = t
				c.Plural = pluralPronouns[t]
			}
		}
	}

	c.Repair = containsAny(padded, repairMarkers)
	c.WholeRepair = containsAny(padded, wholeCommandRepairs)
	c.Ellipsis = containsAny(padded, ellipsisMarkers)
	c.BareQuantity = c.Quantity && !c.NounHint
	return c
}

// CheckEligibility is the fast gate in front of Resolve: only add, modify,
// remove and question intents qualify, and only when a cue fires. It is
// deliberately recall-biased; Resolve makes the final call.
func CheckEligibility(text string, in intent.Intent, hints map[string]bool) bool {
	if !eligibleIntents[in] {
		return false
	}
	return DetectCues(text, hints).NeedsResolution()
}

func containsAny(padded string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(padded, " "+p+" ") {
			return true
		}
	}
	return false
}
