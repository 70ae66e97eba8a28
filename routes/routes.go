package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nawoda2/Temporal-Order-Lifecycle/controllers"
)

func RegisterOrderRoutes(r *gin.Engine, oc *controllers.OrderController) {
	orderRoutes := r.Group("/orders")
	orderRoutes.POST("/:id/start", oc.StartOrder)
	orderRoutes.POST("/:id/signals/cancel", oc.CancelOrder)
	orderRoutes.POST("/:id/signals/update-address", oc.UpdateAddress)
	orderRoutes.POST("/:id/signals/approve", oc.ApproveOrder)
	orderRoutes.GET("/:id/status", oc.GetStatus)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
}
