package handler

import "github.com/gin-gonic/gin"

// authHeader returns the Authorization header as sent by the client. The
// gateway forwards it to the scheduler backend without inspecting it.
func authHeader(c *gin.Context) string {
	return c.GetHeader("Authorization")
}
