package response

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// The auth wire protocol uses a flat JSON shape: every response carries a
// top-level "success" boolean and, on failure, a typed "code" plus a
// human-readable "message". Success payload fields (access, refresh, role,
// profile, user_id, ...) sit at the top level next to "success" so clients
// never unwrap an envelope.

// Success sends a successful JSON response. Fields in data are merged at
// the top level of the body.
func Success(c *gin.Context, statusCode int, data gin.H) {
	c.JSON(statusCode, buildBody(c, true, data))
}

// SuccessWithMessage sends a successful response carrying a message, e.g.
// the "OTP sent" sentinel after primary-credential login.
func SuccessWithMessage(c *gin.Context, statusCode int, message string, data gin.H) {
	body := buildBody(c, true, data)
	body["message"] = message
	c.JSON(statusCode, body)
}

// Fail sends an error response with a typed error code.
func Fail(c *gin.Context, statusCode int, code ErrCode) {
	c.JSON(statusCode, failBody(c, code, nil))
}

// FailWithFields sends an error response with field-level validation details.
func FailWithFields(c *gin.Context, statusCode int, code ErrCode, fields map[string]string) {
	c.JSON(statusCode, failBody(c, code, fields))
}

// AbortFail aborts the middleware chain and sends an error response.
func AbortFail(c *gin.Context, statusCode int, code ErrCode) {
	c.AbortWithStatusJSON(statusCode, failBody(c, code, nil))
}

func buildBody(c *gin.Context, success bool, data gin.H) gin.H {
	body := gin.H{
		"success":    success,
		"request_id": requestID(c),
	}
	for k, v := range data {
		body[k] = v
	}
	return body
}

func failBody(c *gin.Context, code ErrCode, fields map[string]string) gin.H {
	body := gin.H{
		"success":    false,
		"code":       code,
		"message":    GetMessage(code),
		"request_id": requestID(c),
	}
	if len(fields) > 0 {
		body["fields"] = fields
	}
	return body
}

func requestID(c *gin.Context) string {
	val, _ := c.Get(ContextKeyRequestID)
	id, ok := val.(string)
	if !ok || id == "" {
		id = uuid.New().String() // Fallback if middleware not applied
	}
	return id
}
