package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"unicorn-dashboard/internal/derivation"
	"unicorn-dashboard/internal/storage"
)

var (
	errMissingValue  = errors.New("value is required")
	errMissingStatus = errors.New("status is required")
	errBadPaging     = errors.New("offset and limit must be integers")
)

// statusFor maps the error taxonomy to an HTTP status code.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, storage.ErrDuplicateIdentifier):
		return http.StatusConflict
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, derivation.ErrUnknownKind):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrInvalidTransition), errors.Is(err, storage.ErrDanglingReference):
		return http.StatusUnprocessableEntity
	case errors.Is(err, storage.ErrMalformedFilterValue), errors.Is(err, storage.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, status int, err error) {
	if err == nil {
		status = http.StatusInternalServerError
		err = errors.New("unknown error")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// fail writes err with the status its kind maps to.
func fail(c *gin.Context, err error) {
	writeError(c, statusFor(err), err)
}
