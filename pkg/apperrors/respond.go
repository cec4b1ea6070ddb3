package apperrors

import (
	"errors"

	"github.com/gin-gonic/gin"
)

// Respond writes err to the response in the standard envelope. Non-APIError
// values are mapped to the UNKNOWN_ERROR envelope; internal detail is only
// included when debug is enabled.
func Respond(c *gin.Context, err error, debug bool) {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		apiErr = Unknown(err, debug)
	}
	c.AbortWithStatusJSON(apiErr.StatusCode, apiErr)
}
