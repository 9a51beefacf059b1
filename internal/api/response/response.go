package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Data writes {"data": v}.
func Data(c *gin.Context, status int, v any) {
	c.JSON(status, gin.H{"data": v})
}

// Message writes {"message": msg}.
func Message(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"message": msg})
}

// NoContent writes an empty 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// InvalidBody answers a request whose JSON could not be decoded.
func InvalidBody(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, ErrorBody{Message: "The given data was invalid."})
}
