package addresses

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/matheusmosca/storefront/internal/httpx"
)

// CreateRequest is the body of POST /addresses, in the frontend's field names.
type CreateRequest struct {
	UserID        httpx.ID `json:"userId"`
	AddressLine1  string   `json:"addressLine1"`
	AddressLine2  string   `json:"addressLine2"`
	City          string   `json:"city"`
	StateProvince string   `json:"stateProvince"`
	ZipCode       string   `json:"zipCode"`
	Country       string   `json:"country"`
	IsDefault     bool     `json:"isDefault"`
}

type SetDefaultRequest struct {
	UserID httpx.ID `json:"userId"`
}

type Handler struct {
	useCase *UseCase
	tracer  trace.Tracer
	log     *zap.Logger
}

func NewHandler(useCase *UseCase, tracer trace.Tracer, log *zap.Logger) *Handler {
	return &Handler{useCase: useCase, tracer: tracer, log: log}
}

// List answers GET /addresses/:userId
func (h *Handler) List(c *gin.Context) {
	userID, err := httpx.ParamID(c, "userId")
	if err != nil {
		httpx.RespondError(c, h.log, err)
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "list_addresses")
	defer span.End()

	addresses, err := h.useCase.List(ctx, userID)
	if err != nil {
		span.RecordError(err)
		httpx.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, addresses)
}

// Create answers POST /addresses
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BindError(c, err)
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "create_address")
	defer span.End()

	id, err := h.useCase.Create(ctx, &Address{
		UserID:        req.UserID.Int64(),
		AddressLine1:  req.AddressLine1,
		AddressLine2:  req.AddressLine2,
		City:          req.City,
		StateProvince: req.StateProvince,
		ZipPostalCode: req.ZipCode,
		Country:       req.Country,
		IsDefault:     req.IsDefault,
	})
	if err != nil {
		span.RecordError(err)
		httpx.RespondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Address added successfully!", "id": id})
}

// SetDefault answers PUT /addresses/:id/default
func (h *Handler) SetDefault(c *gin.Context) {
	addressID, err := httpx.ParamID(c, "id")
	if err != nil {
		httpx.RespondError(c, h.log, err)
		return
	}

	var req SetDefaultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BindError(c, err)
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "set_default_address")
	defer span.End()

	if err := h.useCase.SetDefault(ctx, addressID, req.UserID.Int64()); err != nil {
		span.RecordError(err)
		httpx.RespondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Address set as default successfully."})
}
