// Package response writes API bodies the way the web client reads them:
// successes are the bare payload, failures are {"error": "<message>",
// "code": "<CODE>"}.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorBody is the JSON body of every failed request.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Ack is the body of actions that return nothing else.
type Ack struct {
	Success bool `json:"success"`
}

const (
	CodeBadRequest   = "BAD_REQUEST"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeTooLarge     = "PAYLOAD_TOO_LARGE"
	CodeInternal     = "INTERNAL_ERROR"
)

var statusCodes = map[int]string{
	http.StatusBadRequest:            CodeBadRequest,
	http.StatusUnauthorized:          CodeUnauthorized,
	http.StatusForbidden:             CodeForbidden,
	http.StatusNotFound:              CodeNotFound,
	http.StatusConflict:              CodeConflict,
	http.StatusRequestEntityTooLarge: CodeTooLarge,
	http.StatusInternalServerError:   CodeInternal,
}

// Success answers 200 with data as the body.
func Success(c *gin.Context, data any) { c.JSON(http.StatusOK, data) }

// Created answers 201 with data as the body.
func Created(c *gin.Context, data any) { c.JSON(http.StatusCreated, data) }

// OK answers 200 with {"success": true}.
func OK(c *gin.Context) { c.JSON(http.StatusOK, Ack{Success: true}) }

// Fail writes an error body, deriving the code from status.
func Fail(c *gin.Context, status int, message string) {
	code, ok := statusCodes[status]
	if !ok {
		code = http.StatusText(status)
	}
	Error(c, status, code, message)
}

// Error writes an error body with an explicit code.
func Error(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorBody{Error: message, Code: code})
}

func BadRequest(c *gin.Context, message string)    { Fail(c, http.StatusBadRequest, message) }
func Unauthorized(c *gin.Context, message string)  { Fail(c, http.StatusUnauthorized, message) }
func Forbidden(c *gin.Context, message string)     { Fail(c, http.StatusForbidden, message) }
func NotFound(c *gin.Context, message string)      { Fail(c, http.StatusNotFound, message) }
func Conflict(c *gin.Context, message string)      { Fail(c, http.StatusConflict, message) }
func TooLarge(c *gin.Context, message string)      { Fail(c, http.StatusRequestEntityTooLarge, message) }
func InternalError(c *gin.Context, message string) { Fail(c, http.StatusInternalServerError, message) }
