package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// CustomError carries the HTTP status to return alongside the message.
type CustomError struct {
	StatusCode int
	Message    string
}

func NewCError(statusCode int, message string) CustomError {
	return CustomError{StatusCode: statusCode, Message: message}
}

func (err CustomError) Error() string {
	return err.Message
}

var (
	ErrNoSymbol = NewCError(http.StatusBadRequest,
		"please provide symbol")
	ErrBadPrice = NewCError(http.StatusBadRequest,
		"invalid 'price' query parameter: must be a number")
	ErrBadLimit = NewCError(http.StatusBadRequest,
		"invalid 'limit' query parameter: must be a positive integer")
	ErrNoSummary = NewCError(http.StatusNotFound,
		"no summary found")
)

// Error turns errors attached to the gin context into JSON responses.
func Error() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors[0]

		var ce CustomError
		if errors.As(err, &ce) {
			c.AbortWithStatusJSON(ce.StatusCode, gin.H{"error": ce.Message})
			return
		}

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
