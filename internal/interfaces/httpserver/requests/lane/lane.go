// Package lane contains HTTP request DTOs for lane and session endpoints.
package lane

import (
	"strings"

	"github.com/janhq/drivethru-server/internal/domain/session"
)

// StartSessionRequest is the body of POST /v1/lanes/:lane/sessions, sent
// when a car arrives at the speaker post.
type StartSessionRequest struct {
	RestaurantID int64  `json:"restaurant_id" binding:"required,gt=0"`
	Language     string `json:"language,omitempty" binding:"omitempty,len=2"`
}

// ToDomain converts the request to a session.CreateRequest for lane.
func (r *StartSessionRequest) ToDomain(laneID string) session.CreateRequest {
	return session.CreateRequest{
		LaneID:       laneID,
		RestaurantID: r.RestaurantID,
		Language:     strings.ToLower(r.Language),
	}
}

// UtteranceRequest carries one transcribed customer utterance.
type UtteranceRequest struct {
	Text string `json:"text" binding:"required,max=1000"`
}
