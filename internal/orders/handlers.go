package orders

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/matheusmosca/storefront/internal/httpx"
)

// UpdateStatusRequest is the body of PUT /orders/:id/status
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type Handler struct {
	useCase *UseCase
	tracer  trace.Tracer
	log     *zap.Logger
}

func NewHandler(useCase *UseCase, tracer trace.Tracer, log *zap.Logger) *Handler {
	return &Handler{useCase: useCase, tracer: tracer, log: log}
}

// ListOrders answers GET /orders
func (h *Handler) ListOrders(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "list_orders")
	defer span.End()

	summaries, err := h.useCase.ListOrders(ctx)
	if err != nil {
		span.RecordError(err)
		httpx.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, summaryResponses(summaries))
}

// ListUserOrders answers GET /users/:userId/orders
func (h *Handler) ListUserOrders(c *gin.Context) {
	userID, err := httpx.ParamID(c, "userId")
	if err != nil {
		httpx.RespondError(c, h.log, err)
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "list_user_orders")
	defer span.End()
	span.SetAttributes(attribute.Int64("user_id", userID))

	summaries, err := h.useCase.ListUserOrders(ctx, userID)
	if err != nil {
		span.RecordError(err)
		httpx.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, summaryResponses(summaries))
}

// GetOrderDetail answers GET /orders/:id
func (h *Handler) GetOrderDetail(c *gin.Context) {
	orderID, err := httpx.ParamID(c, "id")
	if err != nil {
		httpx.RespondError(c, h.log, err)
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "get_order_detail")
	defer span.End()
	span.SetAttributes(attribute.Int64("order_id", orderID))

	items, err := h.useCase.GetOrderDetail(ctx, orderID)
	if err != nil {
		span.RecordError(err)
		httpx.RespondError(c, h.log, err)
		return
	}

	resp := make([]DetailItemResponse, 0, len(items))
	for _, it := range items {
		resp = append(resp, it.Response())
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateStatus answers PUT /orders/:id/status
func (h *Handler) UpdateStatus(c *gin.Context) {
	orderID, err := httpx.ParamID(c, "id")
	if err != nil {
		httpx.RespondError(c, h.log, err)
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BindError(c, err)
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "update_order_status")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("order_id", orderID),
		attribute.String("status", req.Status),
	)

	if err := h.useCase.UpdateStatus(ctx, orderID, Status(req.Status)); err != nil {
		span.RecordError(err)
		httpx.RespondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Order %d status updated to %s", orderID, req.Status)})
}

func summaryResponses(summaries []Summary) []SummaryResponse {
	resp := make([]SummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		resp = append(resp, s.Response())
	}
	return resp
}
