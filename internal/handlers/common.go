// internal/handlers/common.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/prompteconomy/backend/internal/services"
	"github.com/prompteconomy/backend/internal/utils"
)

// respondServiceError maps a service error kind to an HTTP status. Retryable
// chain errors map to 503 so polling clients know to back off and try again;
// fatal chain errors are a definitive 400.
func respondServiceError(c *gin.Context, err error) {
	var svcErr *services.Error
	if !errors.As(err, &svcErr) {
		logrus.WithError(err).Error("Unclassified service error")
		utils.InternalErrorResponse(c, "")
		return
	}

	switch svcErr.Kind {
	case services.KindValidation:
		utils.BadRequestResponse(c, svcErr.Message, nil)
	case services.KindAuth:
		utils.UnauthorizedResponse(c, svcErr.Message)
	case services.KindForbidden:
		utils.ForbiddenResponse(c, svcErr.Message)
	case services.KindConflict:
		utils.ConflictResponse(c, svcErr.Message)
	case services.KindNotFound:
		utils.ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", svcErr.Message, nil)
	case services.KindChainRetryable:
		utils.ServiceUnavailableResponse(c, svcErr.Message)
	case services.KindChainFatal:
		utils.ErrorResponse(c, http.StatusBadRequest, "TRANSACTION_FAILED", svcErr.Message, nil)
	default:
		logrus.WithError(err).Error("Internal service error")
		utils.InternalErrorResponse(c, "")
	}
}

// callerID extracts the authenticated user's id set by AuthRequired.
func callerID(c *gin.Context) (uuid.UUID, bool) {
	raw, ok := utils.GetUserIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return uuid.Nil, false
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		utils.UnauthorizedResponse(c, "")
		return uuid.Nil, false
	}
	return id, true
}

// pathUUID parses a :param path segment as a UUID.
func pathUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		utils.BadRequestResponse(c, "invalid "+param, nil)
		return uuid.Nil, false
	}
	return id, true
}
