package cart

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/matheusmosca/storefront/internal/httpx"
)

// AddItemRequest is the body of POST /cart/add
type AddItemRequest struct {
	UserID    httpx.ID       `json:"userId"`
	ProductID httpx.ID       `json:"productId"`
	Quantity  httpx.Quantity `json:"quantity"`
}

// RemoveItemRequest is the body of DELETE /cart/remove
type RemoveItemRequest struct {
	UserID    httpx.ID `json:"userId"`
	ProductID httpx.ID `json:"productId"`
}

// Handler holds the cart HTTP handlers
type Handler struct {
	useCase *UseCase
	tracer  trace.Tracer
	log     *zap.Logger
}

func NewHandler(useCase *UseCase, tracer trace.Tracer, log *zap.Logger) *Handler {
	return &Handler{
		useCase: useCase,
		tracer:  tracer,
		log:     log,
	}
}

// GetCart answers GET /cart/:userId
func (h *Handler) GetCart(c *gin.Context) {
	userID, err := httpx.ParamID(c, "userId")
	if err != nil {
		httpx.RespondError(c, h.log, err)
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "get_cart")
	defer span.End()
	span.SetAttributes(attribute.Int64("user_id", userID))

	lines, err := h.useCase.List(ctx, userID)
	if err != nil {
		span.RecordError(err)
		httpx.RespondError(c, h.log, err)
		return
	}

	resp := make([]LineResponse, 0, len(lines))
	for _, l := range lines {
		resp = append(resp, l.Response())
	}
	c.JSON(http.StatusOK, resp)
}

// AddItem answers POST /cart/add with 201 for a new line and 200 when the
// quantity was merged into an existing one.
func (h *Handler) AddItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BindError(c, err)
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "add_to_cart")
	defer span.End()

	created, err := h.useCase.AddItem(ctx, req.UserID.Int64(), req.ProductID.Int64(), req.Quantity.Int())
	if err != nil {
		span.RecordError(err)
		httpx.RespondError(c, h.log, err)
		return
	}

	if created {
		c.JSON(http.StatusCreated, gin.H{"message": "Item added to cart. Stock successfully reduced."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart item quantity updated. Stock successfully reduced."})
}

// RemoveItem answers DELETE /cart/remove
func (h *Handler) RemoveItem(c *gin.Context) {
	var req RemoveItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BindError(c, err)
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "remove_from_cart")
	defer span.End()

	if err := h.useCase.RemoveItem(ctx, req.UserID.Int64(), req.ProductID.Int64()); err != nil {
		span.RecordError(err)
		httpx.RespondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Item removed from cart!"})
}
