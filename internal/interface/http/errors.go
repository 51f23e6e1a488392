package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/foodgram/internal/application"
	"github.com/oksasatya/foodgram/pkg/helpers"
	"github.com/oksasatya/foodgram/pkg/response"
	"github.com/oksasatya/foodgram/pkg/validation"
)

type failure struct {
	target  error
	status  int
	code    string
	message string
}

// failures is checked in order; wrapped sentinels come before the ones they wrap.
var failures = []failure{
	{application.ErrAlreadyAdded, http.StatusConflict, "already_added", "recipe is already added"},
	{application.ErrAlreadyFollowing, http.StatusConflict, "already_subscribed", "already subscribed to this author"},
	{application.ErrConflict, http.StatusConflict, "conflict", "conflict"},
	{application.ErrNotPresent, http.StatusNotFound, "not_present", "recipe is not in the list"},
	{application.ErrNotFollowing, http.StatusNotFound, "not_subscribed", "not subscribed to this author"},
	{application.ErrNotFound, http.StatusNotFound, "not_found", "not found"},
	{application.ErrSelfFollow, http.StatusBadRequest, "self_subscription", "cannot subscribe to yourself"},
	{application.ErrUnauthenticated, http.StatusUnauthorized, "not_authenticated", "authentication required"},
	{application.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials", "invalid credentials"},
	{application.ErrForbidden, http.StatusForbidden, "permission_denied", "you do not have permission to perform this action"},
	{application.ErrImageStorageUnavailable, http.StatusServiceUnavailable, "image_storage_unavailable", "image storage unavailable"},
}

// fail writes the envelope for err. Unknown errors are logged and answered with 500.
func fail(c *gin.Context, logger *logrus.Logger, err error) {
	var ve *application.ValidationError
	if errors.As(err, &ve) {
		response.Error[any](c, http.StatusBadRequest, "validation failed", response.ErrorBody{Code: "invalid", Details: ve.Details})
		return
	}
	for _, f := range failures {
		if errors.Is(err, f.target) {
			if f.status >= http.StatusInternalServerError && logger != nil {
				helpers.RequestEntry(logger, c).WithError(err).Warn(f.message)
			}
			response.Error[any](c, f.status, f.message, response.ErrorBody{Code: f.code})
			return
		}
	}
	if logger != nil {
		helpers.RequestEntry(logger, c).WithError(err).Error("request failed")
	}
	response.Error[any](c, http.StatusInternalServerError, "internal server error", response.ErrorBody{Code: "internal_error"})
}

// badRequest answers a binding or validator error.
func badRequest(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		response.Error[any](c, http.StatusRequestEntityTooLarge, "payload too large", response.ErrorBody{Code: "too_large"})
		return
	}
	response.Error[any](c, http.StatusBadRequest, "invalid payload", response.ErrorBody{Code: "invalid", Details: validation.ToDetails(err)})
}

func invalidParam(c *gin.Context, field, msg string) {
	response.Error[any](c, http.StatusBadRequest, "invalid query parameter", response.ErrorBody{Code: "invalid", Details: map[string]string{field: msg}})
}
