package checkout

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/matheusmosca/storefront/internal/httpx"
)

// Request is the body of POST /cart/checkout
type Request struct {
	UserID            httpx.ID  `json:"userId"`
	ShippingAddressID *httpx.ID `json:"shippingAddressId"`
}

type Handler struct {
	orchestrator *Orchestrator
	tracer       trace.Tracer
	log          *zap.Logger
}

func NewHandler(orchestrator *Orchestrator, tracer trace.Tracer, log *zap.Logger) *Handler {
	return &Handler{orchestrator: orchestrator, tracer: tracer, log: log}
}

// Checkout answers POST /cart/checkout
func (h *Handler) Checkout(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BindError(c, err)
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "cart_checkout")
	defer span.End()

	var addressID *int64
	if req.ShippingAddressID != nil && *req.ShippingAddressID > 0 {
		id := req.ShippingAddressID.Int64()
		addressID = &id
	}

	result, err := h.orchestrator.Checkout(ctx, req.UserID.Int64(), addressID)
	if err != nil {
		httpx.RespondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order placed successfully!",
		"orderId": result.OrderID,
		"total":   result.TotalString(),
	})
}
