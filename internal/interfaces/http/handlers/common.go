package handlers

import (
	"net/http"
	"regexp"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/trademark-search/pkg/errors"
)

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var yyyymmdd = regexp.MustCompile(`^\d{8}$`)

func writeJSON(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

func writeError(c *gin.Context, statusCode int, code errors.ErrorCode, message string) {
	c.AbortWithStatusJSON(statusCode, ErrorResponse{Code: string(code), Message: message})
}

// writeAppError maps err to its HTTP status.  Server-side failures are
// reported with the code's default message so internals never leak.
func writeAppError(c *gin.Context, err error) {
	_ = c.Error(err)
	code := errors.GetCode(err)
	if code == errors.CodeUnknown {
		writeError(c, http.StatusInternalServerError, errors.CodeInternal, errors.DefaultMessageForCode(errors.CodeInternal))
		return
	}
	status := errors.HTTPStatusForCode(code)
	message := errors.DefaultMessageForCode(code)
	var ae *errors.AppError
	if status < http.StatusInternalServerError && errors.As(err, &ae) && ae.Message != "" {
		message = ae.Message
	}
	writeError(c, status, code, message)
}

func invalidQuery(c *gin.Context, message string) {
	writeError(c, http.StatusBadRequest, errors.CodeInvalidQuery, message)
}

// intQuery reads an optional integer parameter.  ok is false when the value
// is present but not an integer.
func intQuery(c *gin.Context, name string, def int) (int, bool) {
	raw, present := c.GetQuery(name)
	if !present || raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
