package catalog

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/matheusmosca/storefront/internal/httpx"
)

// ProductResponse is the wire shape of a product. Prices are rendered with
// exactly two decimals.
type ProductResponse struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	Price         string    `json:"price"`
	ImageURL      string    `json:"image_url"`
	StockQuantity int       `json:"stock_quantity"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toResponse(p Product) ProductResponse {
	return ProductResponse{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Category:      p.Category,
		Price:         p.Price.StringFixed(2),
		ImageURL:      p.ImageURL,
		StockQuantity: p.StockQuantity,
		UpdatedAt:     p.UpdatedAt,
	}
}

type Handler struct {
	service *Service
	tracer  trace.Tracer
	log     *zap.Logger
}

func NewHandler(service *Service, tracer trace.Tracer, log *zap.Logger) *Handler {
	return &Handler{service: service, tracer: tracer, log: log}
}

// ListProducts answers GET /products?category=&q=&limit=&offset=
func (h *Handler) ListProducts(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "list_products")
	defer span.End()

	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	f := Filter{
		Category: c.Query("category"),
		Search:   c.Query("q"),
		Limit:    limit,
		Offset:   offset,
	}

	products, err := h.service.ListProducts(ctx, f)
	if err != nil {
		span.RecordError(err)
		httpx.RespondError(c, h.log, err)
		return
	}

	resp := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, toResponse(p))
	}
	c.JSON(http.StatusOK, resp)
}

// GetProduct answers GET /products/:id
func (h *Handler) GetProduct(c *gin.Context) {
	id, err := httpx.ParamID(c, "id")
	if err != nil {
		httpx.RespondError(c, h.log, err)
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "get_product")
	defer span.End()

	p, err := h.service.GetProduct(ctx, id)
	if err != nil {
		span.RecordError(err)
		httpx.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(*p))
}
