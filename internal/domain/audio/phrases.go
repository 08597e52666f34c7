// Package audio names the phrases the lane speaker can play. Results carry a
// phrase selector, never audio bytes; the voice layer maps selectors to
// recorded or synthesised clips.
package audio

import "strings"

// PhraseType selects a canned or generated phrase.
type PhraseType string

const (
	Greeting         PhraseType = "greeting"
	ComeAgain        PhraseType = "come_again"
	ThankYou         PhraseType = "thank_you"
	OrderSummary     PhraseType = "order_summary"
	ContinueOrdering PhraseType = "continue_ordering"
	NoOrderYet       PhraseType = "no_order_yet"
	TakeYourTime     PhraseType = "take_your_time"
	HowCanIHelp      PhraseType = "how_can_i_help"
	DidntUnderstand  PhraseType = "didnt_understand"
	DriveToWindow    PhraseType = "drive_to_window"

	ItemAddedSuccess    PhraseType = "item_added_success"
	ItemRemovedSuccess  PhraseType = "item_removed_success"
	ItemUnavailable     PhraseType = "item_unavailable"
	OrderClearedSuccess PhraseType = "order_cleared_success"
	SystemErrorRetry    PhraseType = "system_error_retry"

	ItemModifiedSuccess       PhraseType = "item_modified_success"
	ModificationClarification PhraseType = "modification_clarification"
	ModificationError         PhraseType = "modification_error"

	QuestionAnswered PhraseType = "question_answered"
	QuestionNotFound PhraseType = "question_not_found"
	RestaurantInfo   PhraseType = "restaurant_info"

	OrderAlreadyEmpty    PhraseType = "order_already_empty"
	OrderConfirmed       PhraseType = "order_confirmed"
	ItemAddClarification PhraseType = "item_add_clarification"
	ItemAddError         PhraseType = "item_add_error"

	ItemRemoveClarification PhraseType = "item_remove_clarification"
	ItemRemoveError         PhraseType = "item_remove_error"
	ItemNotFound            PhraseType = "item_not_found"

	// Dynamic phrases carry their own text in the result message.
	CustomResponse        PhraseType = "custom_response"
	ClarificationQuestion PhraseType = "clarification_question"
	ErrorMessage          PhraseType = "error_message"
	LLMGenerated          PhraseType = "llm_generated"
)

var cannedText = map[PhraseType]string{
	Greeting:         "Welcome to {restaurant}, may I take your order?",
	ComeAgain:        "I'm sorry, I didn't catch that. Could you please repeat your order?",
	ThankYou:         "Thank you! Please pull forward to the window.",
	OrderSummary:     "Let me confirm your order",
	ContinueOrdering: "No problem! What else would you like to order?",
	NoOrderYet:       "You don't have an order yet. What would you like to order?",
	TakeYourTime:     "Take your time! Let me know when you're ready to order.",
	HowCanIHelp:      "What can I help you with today?",
	DidntUnderstand:  "I'm sorry, I didn't understand. Could you please try again?",
	DriveToWindow:    "Drive up to the next window please!",

	ItemAddedSuccess:    "Added that to your order. Would you like anything else?",
	ItemRemovedSuccess:  "Removed that from your order. Would you like anything else?",
	ItemUnavailable:     "Sorry, we don't have that on our menu. Would you like to try something else?",
	OrderClearedSuccess: "Your order has been cleared.",
	SystemErrorRetry:    "I'm sorry, I'm having some technical difficulties. Please try again.",

	ItemModifiedSuccess:       "Updated your order. Would you like anything else?",
	ModificationClarification: "I need more information about your modification.",
	ModificationError:         "I couldn't make that change. Please try again.",

	QuestionAnswered: "Here's what I found for you.",
	QuestionNotFound: "I'm not sure about that. Let me help you with something else.",
	RestaurantInfo:   "Here's our restaurant information.",

	OrderAlreadyEmpty:    "Your order is already empty. What would you like to order?",
	OrderConfirmed:       "Perfect! If everything looks correct on your screen, that'll be {total}. Pull around to the next window!",
	ItemAddClarification: "I need more information about what you'd like to add.",
	ItemAddError:         "Sorry, I couldn't add that to your order. Please try again.",

	ItemRemoveClarification: "I need more information about what you'd like to remove.",
	ItemRemoveError:         "Sorry, I couldn't remove that from your order. Please try again.",
	ItemNotFound:            "I don't see that item in your order. Could you check what you'd like to remove?",

	ClarificationQuestion: "I need more information to help you.",
	ErrorMessage:          "I'm sorry, there was an error processing your request.",
}

// Valid reports whether p is a known selector.
func (p PhraseType) Valid() bool {
	if p.Dynamic() {
		return true
	}
	_, ok := cannedText[p]
	return ok
}

// Dynamic reports whether the phrase is spoken from the result message
// rather than from a canned recording.
func (p PhraseType) Dynamic() bool {
	switch p {
	case CustomResponse, LLMGenerated:
		return true
	}
	return false
}

// Text renders the canned text for p. Placeholders such as {restaurant}
// and {total} are substituted from vars; missing vars fall back to neutral
// wording. Dynamic phrases return "".
func Text(p PhraseType, vars map[string]string) string {
	text, ok := cannedText[p]
	if !ok {
		return ""
	}
	if strings.Contains(text, "{restaurant}") {
		name := vars["restaurant"]
		if name == "" {
			name = "our restaurant"
		}
		text = strings.ReplaceAll(text, "{restaurant}", name)
	}
	if strings.Contains(text, "{total}") {
		total := vars["total"]
		if total == "" {
			total = "your total"
		}
		text = strings.ReplaceAll(text, "{total}", total)
	}
	return text
}

// All returns every canned selector, for pre-rendering clips.
func All() []PhraseType {
	out := make([]PhraseType, 0, len(cannedText))
	for p := range cannedText {
		out = append(out, p)
	}
	return out
}
