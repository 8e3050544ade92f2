package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/apperrors"
)

// SuccessResponse is the standard success envelope.
type SuccessResponse struct {
	Status  string `json:"status"`
	Results int    `json:"results,omitempty"`
	Data    any    `json:"data"`
}

// RespondWithData writes the standard success envelope.
func RespondWithData(c *gin.Context, code int, data any) {
	c.JSON(code, SuccessResponse{Status: "success", Data: data})
}

// RespondWithList writes the success envelope with a result count, used by
// paginated listings.
func RespondWithList(c *gin.Context, code int, results int, data any) {
	c.JSON(code, SuccessResponse{Status: "success", Results: results, Data: data})
}

// RespondWithError writes the standard failure envelope.
func RespondWithError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"status":  "fail",
		"message": message,
	})
}

// RespondWithAppError maps a service error onto the shared status table and
// writes the failure envelope with the error's own message.
func RespondWithAppError(c *gin.Context, err error) {
	RespondWithError(c, apperrors.HTTPStatus(err), err.Error())
}
