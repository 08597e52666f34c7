package handlers

import (
	"github.com/google/wire"
	"github.com/rs/zerolog"

	"github.com/janhq/drivethru-server/internal/domain/order"
	"github.com/janhq/drivethru-server/internal/domain/pipeline"
	"github.com/janhq/drivethru-server/internal/domain/session"
)

// Provider holds all HTTP handlers.
type Provider struct {
	Lane *LaneHandler
}

// NewProvider creates a new handler provider.
func NewProvider(lane *LaneHandler) *Provider {
	return &Provider{Lane: lane}
}

// ProvideLaneHandler wires the lane handler to the utterance pipeline.
func ProvideLaneHandler(sessions session.Service, orders order.Store, p *pipeline.Pipeline, log zerolog.Logger) *LaneHandler {
	return NewLaneHandler(sessions, orders, p, log)
}

// HandlerProvider provides all handlers for wire.
var HandlerProvider = wire.NewSet(
	ProvideLaneHandler,
	NewProvider,
)
