package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/janhq/drivethru-server/internal/domain/order"
	"github.com/janhq/drivethru-server/internal/domain/pipeline"
	"github.com/janhq/drivethru-server/internal/domain/session"
	"github.com/janhq/drivethru-server/internal/infrastructure/metrics"
	"github.com/janhq/drivethru-server/internal/interfaces/httpserver/requests"
	lanereq "github.com/janhq/drivethru-server/internal/interfaces/httpserver/requests/lane"
	"github.com/janhq/drivethru-server/internal/interfaces/httpserver/responses"
	laneres "github.com/janhq/drivethru-server/internal/interfaces/httpserver/responses/lane"
	"github.com/janhq/drivethru-server/internal/utils/platformerrors"
)

// TurnProcessor runs one utterance through the ordering pipeline.
type TurnProcessor interface {
	Process(ctx context.Context, sessionID, utterance string) (*pipeline.Turn, error)
}

// LaneHandler exposes lane session endpoints.
type LaneHandler struct {
	sessions session.Service
	orders   order.Store
	turns    TurnProcessor
	locks    *sessionLocks
	log      zerolog.Logger
}

// NewLaneHandler creates a lane handler.
func NewLaneHandler(sessions session.Service, orders order.Store, turns TurnProcessor, log zerolog.Logger) *LaneHandler {
	return &LaneHandler{
		sessions: sessions,
		orders:   orders,
		turns:    turns,
		locks:    newSessionLocks(),
		log:      log.With().Str("component", "lane-handler").Logger(),
	}
}

// StartSession godoc
// @Summary      Start a lane session
// @Description  Called when a car arrives. Ends any session still open on the lane and returns the greeting.
// @Tags         lanes
// @Accept       json
// @Produce      json
// @Param        lane     path      string                         true  "Lane ID"
// @Param        request  body      lanereq.StartSessionRequest    true  "Session request"
// @Success      201      {object}  laneres.StartSessionResponse
// @Failure      400      {object}  responses.ErrorResponse
// @Router       /v1/lanes/{lane}/sessions [post]
func (h *LaneHandler) StartSession(c *gin.Context) {
	var req lanereq.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		platformerrors.WriteValidationError(c, requests.Describe(err))
		return
	}

	started, err := h.sessions.CreateSession(c.Request.Context(), req.ToDomain(c.Param("lane")))
	if err != nil {
		responses.HandleError(c, h.log, err, "failed to start session")
		return
	}

	metrics.RecordSessionCreated()
	if started.Replaced != "" {
		metrics.RecordSessionEnded("replaced")
	}

	c.JSON(http.StatusCreated, laneres.NewStartSessionResponse(started))
}

// CurrentSession godoc
// @Summary      Get the lane's current session
// @Tags         lanes
// @Produce      json
// @Param        lane  path      string  true  "Lane ID"
// @Success      200   {object}  laneres.SessionResponse
// @Failure      404   {object}  responses.ErrorResponse
// @Router       /v1/lanes/{lane}/session [get]
func (h *LaneHandler) CurrentSession(c *gin.Context) {
	sess, err := h.sessions.CurrentForLane(c.Request.Context(), c.Param("lane"))
	if err != nil {
		responses.HandleError(c, h.log, err, "no session at this lane")
		return
	}
	c.JSON(http.StatusOK, laneres.NewSessionResponse(sess))
}

// GetSession godoc
// @Summary      Get a session
// @Tags         sessions
// @Produce      json
// @Param        id  path      string  true  "Session ID"
// @Success      200 {object}  laneres.SessionResponse
// @Failure      404 {object}  responses.ErrorResponse
// @Router       /v1/sessions/{id} [get]
func (h *LaneHandler) GetSession(c *gin.Context) {
	sess, err := h.sessions.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		responses.HandleError(c, h.log, err, "session not found")
		return
	}
	c.JSON(http.StatusOK, laneres.NewSessionResponse(sess))
}

// GetOrder godoc
// @Summary      Get a session's order
// @Tags         sessions
// @Produce      json
// @Param        id  path      string  true  "Session ID"
// @Success      200 {object}  laneres.OrderResponse
// @Failure      404 {object}  responses.ErrorResponse
// @Router       /v1/sessions/{id}/order [get]
func (h *LaneHandler) GetOrder(c *gin.Context) {
	ctx := c.Request.Context()
	sess, err := h.sessions.GetSession(ctx, c.Param("id"))
	if err != nil {
		responses.HandleError(c, h.log, err, "session not found")
		return
	}
	o, err := h.orders.Get(ctx, sess.OrderID)
	if err != nil {
		responses.HandleError(c, h.log, err, "order not found")
		return
	}
	c.JSON(http.StatusOK, laneres.NewOrderResponse(o))
}

// SubmitUtterance godoc
// @Summary      Submit a customer utterance
// @Description  Runs one transcribed utterance through the pipeline. Utterances for the same session are processed one at a time.
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Session ID"
// @Param        request  body      lanereq.UtteranceRequest    true  "Utterance"
// @Success      200      {object}  laneres.TurnResponse
// @Failure      400      {object}  responses.ErrorResponse
// @Failure      404      {object}  responses.ErrorResponse
// @Router       /v1/sessions/{id}/utterances [post]
func (h *LaneHandler) SubmitUtterance(c *gin.Context) {
	var req lanereq.UtteranceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		platformerrors.WriteValidationError(c, requests.Describe(err))
		return
	}

	id := c.Param("id")
	unlock := h.locks.lock(id)
	defer unlock()

	turn, err := h.turns.Process(c.Request.Context(), id, req.Text)
	if err != nil {
		responses.HandleError(c, h.log, err, "session not found")
		return
	}
	c.JSON(http.StatusOK, laneres.NewTurnResponse(turn))
}

// EndSession godoc
// @Summary      End a session
// @Description  Called when the car leaves. An unconfirmed order is discarded.
// @Tags         sessions
// @Param        id  path  string  true  "Session ID"
// @Success      204
// @Failure      404 {object}  responses.ErrorResponse
// @Router       /v1/sessions/{id} [delete]
func (h *LaneHandler) EndSession(c *gin.Context) {
	id := c.Param("id")
	unlock := h.locks.lock(id)
	defer unlock()

	if err := h.sessions.ClearSession(c.Request.Context(), id); err != nil {
		responses.HandleError(c, h.log, err, "session not found")
		return
	}
	metrics.RecordSessionEnded("cleared")
	c.Status(http.StatusNoContent)
}
