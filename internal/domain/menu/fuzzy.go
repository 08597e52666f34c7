package menu

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/janhq/drivethru-server/internal/utils/textutil"
)

// MaxScore is the score of an exact, case-insensitive name match.
const MaxScore = 100.0

const (
	tokenWeight       = 95.0
	containmentCredit = 0.9
	similarityFloor   = 0.8
	minContainmentLen = 3
)

var fillerWords = map[string]bool{
	"the": true, "a": true, "an": true, "of": true, "some": true, "order": true, "please": true,
}

// Score rates how well query matches name on a 0-100 scale. It takes the
// better of a whole-string edit ratio and a per-token match score.
func Score(query, name string) float64 {
	q := strings.Join(textutil.Tokens(query), " ")
	n := strings.Join(textutil.Tokens(name), " ")
	if q == "" || n == "" {
		return 0
	}
	if q == n {
		return MaxScore
	}
	score := ratio(q, n)
	if ts := tokenScore(q, n); ts > score {
		score = ts
	}
	return score
}

func ratio(a, b string) float64 {
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return MaxScore * (1 - float64(dist)/float64(longest))
}

func tokenScore(query, name string) float64 {
	var qTokens []string
	for _, t := range strings.Fields(query) {
		if !fillerWords[t] {
			qTokens = append(qTokens, textutil.Singular(t))
		}
	}
	if len(qTokens) == 0 {
		return 0
	}
	nTokens := strings.Fields(name)
	for i, t := range nTokens {
		nTokens[i] = textutil.Singular(t)
	}

	total := 0.0
	for _, qt := range qTokens {
		best := 0.0
		for _, nt := range nTokens {
			if c := tokenCredit(qt, nt); c > best {
				best = c
			}
		}
		total += best
	}
	return tokenWeight * total / float64(len(qTokens))
}

func tokenCredit(q, n string) float64 {
	if q == n {
		return 1
	}
	if len(q) >= minContainmentLen && len(n) >= minContainmentLen &&
		(strings.Contains(n, q) || strings.Contains(q, n)) {
		return containmentCredit
	}
	if sim := ratio(q, n) / MaxScore; sim >= similarityFloor {
		return sim
	}
	return 0
}
