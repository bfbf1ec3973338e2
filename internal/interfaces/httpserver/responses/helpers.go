package responses

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"jan-server/services/whatsapp-api/internal/domain/session"
	"jan-server/services/whatsapp-api/internal/utils/platformerrors"
)

// HandleError maps domain errors to platform errors and writes the response.
func HandleError(c *gin.Context, err error, message string) {
	logger := log.With().Str("path", c.Request.URL.Path).Logger()
	platformerrors.WriteError(c, ToPlatformError(c.Request.Context(), err, message), logger)
}

// ToPlatformError classifies err by its domain sentinel or type.
func ToPlatformError(ctx context.Context, err error, message string) error {
	if err == nil {
		return nil
	}
	if platformErr := platformerrors.GetPlatformError(err); platformErr != nil {
		return platformErr
	}

	var (
		cfgErr       *session.ConfigurationError
		transportErr *session.TransportError
	)
	switch {
	case errors.Is(err, session.ErrInvalidIdentifier):
		return platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeValidation, err.Error(), err, "")
	case errors.Is(err, session.ErrSessionNotFound):
		return platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeNotFound, err.Error(), err, "")
	case errors.Is(err, session.ErrNotReady):
		return platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeUnavailable, err.Error(), err, "")
	case errors.As(err, &cfgErr):
		return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeConfiguration, cfgErr.Error(), err, "", map[string]any{
			"missing": cfgErr.Missing,
		})
	case errors.As(err, &transportErr) && errors.Is(err, session.ErrNoTransport):
		return platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeUnavailable, "session is not connected; reinitialize it or retry shortly", err, "")
	case errors.As(err, &transportErr):
		return platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeExternal, message, err, "")
	case errors.Is(err, context.DeadlineExceeded):
		return platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeTimeout, message, err, "")
	default:
		return platformerrors.AsError(ctx, platformerrors.LayerHandler, err, message)
	}
}

// HandleNewError writes a new typed error response.
func HandleNewError(c *gin.Context, errorType platformerrors.ErrorType, message string) {
	HandleError(c, platformerrors.NewError(c.Request.Context(), platformerrors.LayerRoute, errorType, message, nil, ""), message)
}
