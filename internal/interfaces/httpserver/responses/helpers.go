package responses

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/janhq/drivethru-server/internal/domain/menu"
	"github.com/janhq/drivethru-server/internal/domain/order"
	"github.com/janhq/drivethru-server/internal/domain/session"
	"github.com/janhq/drivethru-server/internal/utils/platformerrors"
)

// HandleError maps domain errors to HTTP status codes and falls back to the
// platform error writer.
func HandleError(c *gin.Context, log zerolog.Logger, err error, message string) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, menu.ErrRestaurantNotFound):
		platformerrors.WriteNotFound(c, message)
	case errors.Is(err, session.ErrLaneRequired):
		platformerrors.WriteValidationError(c, err.Error())
	case errors.Is(err, session.ErrSessionAlreadyExists),
		errors.Is(err, order.ErrOrderFinalized):
		platformerrors.WriteConflict(c, message)
	default:
		platformerrors.WriteError(c, err, log.With().Str("path", c.Request.URL.Path).Logger())
	}
}
