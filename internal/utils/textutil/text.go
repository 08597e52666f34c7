// Package textutil holds small helpers for composing spoken responses.
package textutil

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// JoinList joins items naturally: "a", "a or b", "a, b or c".
func JoinList(items []string, conjunction string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " " + conjunction + " " + items[1]
	}
	return strings.Join(items[:len(items)-1], ", ") + " " + conjunction + " " + items[len(items)-1]
}

// Pluralize returns name in plural form when quantity is not 1.
func Pluralize(name string, quantity int) string {
	if quantity == 1 || name == "" {
		return name
	}
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, "s"), strings.HasSuffix(lower, "x"),
		strings.HasSuffix(lower, "ch"), strings.HasSuffix(lower, "sh"):
		if strings.HasSuffix(lower, "fries") || strings.HasSuffix(lower, "nuggets") {
			return name
		}
		return name + "es"
	case strings.HasSuffix(lower, "y") && len(lower) > 1 && !isVowel(rune(lower[len(lower)-2])):
		return name[:len(name)-1] + "ies"
	}
	return name + "s"
}

// QuantityName renders "2 Cosmic Burgers" or "Cosmic Burger" for one.
func QuantityName(name string, quantity int) string {
	if quantity <= 1 {
		return name
	}
	return fmt.Sprintf("%d %s", quantity, Pluralize(name, quantity))
}

// Money formats an amount as dollars with two decimals.
func Money(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}

// Tokens lower-cases s and splits it into words, dropping punctuation.
func Tokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

// Singular strips a simple plural suffix. It is used symmetrically on both
// sides of a comparison, so it only needs to be consistent.
func Singular(word string) string {
	switch {
	case len(word) > 4 && strings.HasSuffix(word, "ies"):
		return word[:len(word)-3] + "y"
	case len(word) > 3 && strings.HasSuffix(word, "s") && !strings.HasSuffix(word, "ss"):
		return word[:len(word)-1]
	}
	return word
}

func isVowel(r rune) bool {
	return strings.ContainsRune("aeiou", r)
}

var numberWords = map[string]int{
	"a": 1, "an": 1, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
	"couple": 2, "dozen": 12,
}

// Number returns the quantity a single token spells: a number word or up
// to three digits. Articles count as one only when allowArticle is set.
func Number(token string, allowArticle bool) (int, bool) {
	if (token == "a" || token == "an") && !allowArticle {
		return 0, false
	}
	if n, ok := numberWords[token]; ok {
		return n, true
	}
	if token == "" || len(token) > 3 {
		return 0, false
	}
	n := 0
	for _, r := range token {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}
