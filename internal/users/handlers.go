package users

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/matheusmosca/storefront/internal/httpx"
)

type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Handler struct {
	service *Service
	tracer  trace.Tracer
	log     *zap.Logger
}

func NewHandler(service *Service, tracer trace.Tracer, log *zap.Logger) *Handler {
	return &Handler{service: service, tracer: tracer, log: log}
}

// Signup answers POST /auth/signup
func (h *Handler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BindError(c, err)
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "signup")
	defer span.End()

	id, err := h.service.Signup(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		span.RecordError(err)
		httpx.RespondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "User created successfully! Proceed to sign-in.",
		"userId":  id,
	})
}

// Login answers POST /auth/login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BindError(c, err)
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "login")
	defer span.End()

	u, err := h.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		httpx.RespondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Logged in successfully!",
		"userId":   u.ID,
		"userRole": u.Role,
	})
}

// GetUser answers GET /auth/user/:userId
func (h *Handler) GetUser(c *gin.Context) {
	userID, err := httpx.ParamID(c, "userId")
	if err != nil {
		httpx.RespondError(c, h.log, err)
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "get_user")
	defer span.End()

	u, err := h.service.Get(ctx, userID)
	if err != nil {
		httpx.RespondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": gin.H{
		"username": u.Username,
		"email":    u.Email,
		"role":     u.Role,
	}})
}
