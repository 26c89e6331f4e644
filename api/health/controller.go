// Package healthapi serves the liveness check.
package healthapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Controller answers health checks.
type Controller struct{}

// NewController creates a health Controller.
func NewController() *Controller {
	return &Controller{}
}

// Register registers the health route.
func (c *Controller) Register(route *gin.RouterGroup) {
	route.GET("/health", c.health)
}

func (c *Controller) health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}
