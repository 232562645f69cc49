package inventory

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/matheusmosca/storefront/internal/httpx"
)

// Handler exposes the ledger's read side over HTTP.
type Handler struct {
	ledger *Ledger
	tracer trace.Tracer
	log    *zap.Logger
}

func NewHandler(ledger *Ledger, tracer trace.Tracer, log *zap.Logger) *Handler {
	return &Handler{ledger: ledger, tracer: tracer, log: log}
}

// Movements answers GET /inventory/:productId/movements?limit=N
func (h *Handler) Movements(c *gin.Context) {
	productID, err := httpx.ParamID(c, "productId")
	if err != nil {
		httpx.RespondError(c, h.log, err)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	ctx, span := h.tracer.Start(c.Request.Context(), "list_inventory_movements")
	defer span.End()
	span.SetAttributes(attribute.Int64("product_id", productID))

	movements, err := h.ledger.Movements(ctx, productID, limit)
	if err != nil {
		span.RecordError(err)
		httpx.RespondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, movements)
}
