// Package laneres contains HTTP response DTOs for lane and session endpoints.
package laneres

import (
	"time"

	"github.com/janhq/drivethru-server/internal/domain/audio"
	"github.com/janhq/drivethru-server/internal/domain/order"
	"github.com/janhq/drivethru-server/internal/domain/pipeline"
	"github.com/janhq/drivethru-server/internal/domain/session"
	"github.com/janhq/drivethru-server/internal/domain/workflow"
)

// SessionResponse represents a session in API responses.
type SessionResponse struct {
	ID           string    `json:"id"`
	Object       string    `json:"object"`
	LaneID       string    `json:"lane_id"`
	RestaurantID int64     `json:"restaurant_id"`
	Language     string    `json:"language"`
	OrderID      string    `json:"order_id"`
	State        string    `json:"state"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
	Turns        int       `json:"turns"`
}

// GreetingResponse is the phrase the lane speaker plays on arrival.
type GreetingResponse struct {
	PhraseType audio.PhraseType `json:"audio_phrase_type"`
	Text       string           `json:"text"`
}

// StartSessionResponse is returned when a car arrives at a lane.
type StartSessionResponse struct {
	Session  *SessionResponse `json:"session"`
	Greeting GreetingResponse `json:"greeting"`
	Replaced string           `json:"replaced_session_id,omitempty"`
}

// IntentResponse describes how an utterance was classified.
type IntentResponse struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

// ContextResponse describes the context resolution step.
type ContextResponse struct {
	Status               string  `json:"status"`
	ResolvedText         string  `json:"resolved_text,omitempty"`
	ClarificationMessage string  `json:"clarification_message,omitempty"`
	Confidence           float64 `json:"confidence"`
}

// TurnResponse is the result of one utterance.
type TurnResponse struct {
	Object      string           `json:"object"`
	SessionID   string           `json:"session_id"`
	Utterance   string           `json:"utterance"`
	Cleaned     string           `json:"cleaned"`
	Instruction string           `json:"instruction"`
	Intent      IntentResponse   `json:"intent"`
	Context     *ContextResponse `json:"context,omitempty"`
	Result      workflow.Result  `json:"result"`
	Order       *OrderResponse   `json:"order,omitempty"`
	ElapsedMS   int64            `json:"elapsed_ms"`
}

// OrderResponse represents an order in API responses.
type OrderResponse struct {
	ID           string         `json:"id"`
	Object       string         `json:"object"`
	SessionID    string         `json:"session_id"`
	RestaurantID int64          `json:"restaurant_id"`
	Status       string         `json:"status"`
	Items        []LineResponse `json:"items"`
	ItemCount    int            `json:"item_count"`
	Subtotal     string         `json:"subtotal"`
	Tax          string         `json:"tax"`
	Total        string         `json:"total"`
	Summary      string         `json:"summary"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// LineResponse is one order line.
type LineResponse struct {
	ID                  string   `json:"id"`
	MenuItemID          int64    `json:"menu_item_id"`
	Name                string   `json:"name"`
	Quantity            int      `json:"quantity"`
	Size                string   `json:"size"`
	UnitPrice           string   `json:"unit_price"`
	Modifiers           []string `json:"modifiers,omitempty"`
	SpecialInstructions string   `json:"special_instructions,omitempty"`
	TotalPrice          string   `json:"total_price"`
}

// NewSessionResponse creates a SessionResponse from a domain Session.
func NewSessionResponse(sess *session.Session) *SessionResponse {
	resp := &SessionResponse{
		ID:           sess.ID,
		Object:       "drivethru.session",
		LaneID:       sess.LaneID,
		RestaurantID: sess.RestaurantID,
		Language:     sess.Language,
		OrderID:      sess.OrderID,
		State:        string(sess.State),
		CreatedAt:    sess.CreatedAt,
		LastActivity: sess.LastActivity,
	}
	if sess.Conversation != nil {
		resp.Turns = sess.Conversation.Len()
	}
	return resp
}

// NewStartSessionResponse creates the response for a new lane session.
func NewStartSessionResponse(started *session.Started) *StartSessionResponse {
	return &StartSessionResponse{
		Session: NewSessionResponse(started.Session),
		Greeting: GreetingResponse{
			PhraseType: started.Greeting,
			Text:       started.GreetingText,
		},
		Replaced: started.Replaced,
	}
}

// NewOrderResponse creates an OrderResponse from a domain Order.
func NewOrderResponse(o *order.Order) *OrderResponse {
	items := make([]LineResponse, 0, len(o.Items))
	for _, l := range o.Items {
		items = append(items, LineResponse{
			ID:                  l.ID,
			MenuItemID:          l.MenuItemID,
			Name:                l.Name,
			Quantity:            l.Quantity,
			Size:                string(l.Size),
			UnitPrice:           l.UnitPrice.StringFixed(2),
			Modifiers:           l.ModifierStrings(),
			SpecialInstructions: l.SpecialInstructions,
			TotalPrice:          l.TotalPrice.StringFixed(2),
		})
	}
	return &OrderResponse{
		ID:           o.ID,
		Object:       "drivethru.order",
		SessionID:    o.SessionID,
		RestaurantID: o.RestaurantID,
		Status:       string(o.Status),
		Items:        items,
		ItemCount:    o.ItemCount(),
		Subtotal:     o.Subtotal.StringFixed(2),
		Tax:          o.Tax.StringFixed(2),
		Total:        o.Total.StringFixed(2),
		Summary:      o.Summary(),
		UpdatedAt:    o.UpdatedAt,
	}
}

// NewTurnResponse creates a TurnResponse from a pipeline Turn.
func NewTurnResponse(turn *pipeline.Turn) *TurnResponse {
	resp := &TurnResponse{
		Object:      "drivethru.turn",
		SessionID:   turn.SessionID,
		Utterance:   turn.Utterance,
		Cleaned:     turn.Cleaned,
		Instruction: turn.Instruction,
		Intent: IntentResponse{
			Intent:     string(turn.Intent.Intent),
			Confidence: turn.Intent.Confidence,
		},
		Result:    turn.Result,
		ElapsedMS: turn.Elapsed.Milliseconds(),
	}
	if turn.Context != nil {
		resp.Context = &ContextResponse{
			Status:               string(turn.Context.Status),
			ResolvedText:         turn.Context.ResolvedText,
			ClarificationMessage: turn.Context.ClarificationMessage,
			Confidence:           turn.Context.Confidence,
		}
	}
	if turn.Order != nil {
		resp.Order = NewOrderResponse(turn.Order)
	}
	return resp
}
