package controller

import (
	"ctchen222/Todo-Tracker/internal/api/response"
	"errors"
	"io"

	"github.com/gin-gonic/gin"
)

// bindJSON decodes the request body into req. An empty body decodes to the zero
// value so validation can report the missing fields.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		response.InvalidBody(c)
		return false
	}
	return true
}
