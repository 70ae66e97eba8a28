package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nawoda2/Temporal-Order-Lifecycle/models"
	"github.com/nawoda2/Temporal-Order-Lifecycle/services"
)

type OrderController struct {
	orderService services.OrderService
}

func NewOrderController(orderService services.OrderService) *OrderController {
	return &OrderController{orderService: orderService}
}

// AddressUpdateRequest wraps the corrected address.
type AddressUpdateRequest struct {
	Address models.Address `json:"address" binding:"required"`
}

// StartOrder starts the order workflow for the id in the path.
func (oc *OrderController) StartOrder(ctx *gin.Context) {
	orderID := ctx.Param("id")

	var req services.StartOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	resp, serviceErr := oc.orderService.StartOrder(ctx.Request.Context(), orderID, &req)
	if serviceErr != nil {
		ctx.JSON(serviceErr.StatusCode, gin.H{"error": serviceErr.Message})
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// CancelOrder delivers the cancel signal.
func (oc *OrderController) CancelOrder(ctx *gin.Context) {
	orderID := ctx.Param("id")

	if serviceErr := oc.orderService.Cancel(ctx.Request.Context(), orderID); serviceErr != nil {
		ctx.JSON(serviceErr.StatusCode, gin.H{"error": serviceErr.Message})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "signal_sent", "signal": "cancel-order"})
}

// UpdateAddress delivers the address-correction signal.
func (oc *OrderController) UpdateAddress(ctx *gin.Context) {
	orderID := ctx.Param("id")

	var req AddressUpdateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	if serviceErr := oc.orderService.UpdateAddress(ctx.Request.Context(), orderID, req.Address); serviceErr != nil {
		ctx.JSON(serviceErr.StatusCode, gin.H{"error": serviceErr.Message})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "signal_sent", "signal": "update-address", "address": req.Address})
}

// ApproveOrder delivers the manual-review approval signal.
func (oc *OrderController) ApproveOrder(ctx *gin.Context) {
	orderID := ctx.Param("id")

	if serviceErr := oc.orderService.Approve(ctx.Request.Context(), orderID); serviceErr != nil {
		ctx.JSON(serviceErr.StatusCode, gin.H{"error": serviceErr.Message})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "signal_sent", "signal": "approve-order"})
}

// GetStatus returns the workflow's runtime status plus the engine's view of
// the execution.
func (oc *OrderController) GetStatus(ctx *gin.Context) {
	orderID := ctx.Param("id")

	resp, serviceErr := oc.orderService.Status(ctx.Request.Context(), orderID)
	if serviceErr != nil {
		ctx.JSON(serviceErr.StatusCode, gin.H{"error": serviceErr.Message})
		return
	}
	ctx.JSON(http.StatusOK, resp)
}
