package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/matheusmosca/storefront/internal/addresses"
	"github.com/matheusmosca/storefront/internal/cart"
	"github.com/matheusmosca/storefront/internal/catalog"
	"github.com/matheusmosca/storefront/internal/checkout"
	"github.com/matheusmosca/storefront/internal/inventory"
	"github.com/matheusmosca/storefront/internal/logger"
	"github.com/matheusmosca/storefront/internal/orders"
	"github.com/matheusmosca/storefront/internal/users"
)

// Handlers groups the HTTP handlers of every domain package.
type Handlers struct {
	Catalog   *catalog.Handler
	Cart      *cart.Handler
	Checkout  *checkout.Handler
	Orders    *orders.Handler
	Inventory *inventory.Handler
	Addresses *addresses.Handler
	Users     *users.Handler
}

// Options controls the middleware stack.
type Options struct {
	ServiceName    string
	AllowedOrigins []string
	RequireAdmin   bool
	// AdminLookup resolves the caller for the admin guard. Required when
	// RequireAdmin is set.
	AdminLookup *users.Service
	AuthLimiter *users.RateLimiter
}

// New builds the storefront router.
func New(h Handlers, opts Options, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(opts.ServiceName))
	r.Use(logger.RequestLogger(log))
	r.Use(cors.New(corsConfig(opts.AllowedOrigins)))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": opts.ServiceName})
	})

	var admin gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if opts.RequireAdmin {
		admin = users.RequireAdmin(opts.AdminLookup, log)
	}

	auth := r.Group("/auth")
	if opts.AuthLimiter != nil {
		auth.Use(opts.AuthLimiter.Middleware())
	}
	auth.POST("/signup", h.Users.Signup)
	auth.POST("/login", h.Users.Login)
	auth.GET("/user/:userId", h.Users.GetUser)

	r.GET("/products", h.Catalog.ListProducts)
	r.GET("/products/:id", h.Catalog.GetProduct)

	cartGroup := r.Group("/cart")
	cartGroup.GET("/:userId", h.Cart.GetCart)
	cartGroup.POST("/add", h.Cart.AddItem)
	cartGroup.DELETE("/remove", h.Cart.RemoveItem)
	cartGroup.POST("/checkout", h.Checkout.Checkout)

	orderGroup := r.Group("/orders", admin)
	orderGroup.GET("", h.Orders.ListOrders)
	orderGroup.GET("/:id", h.Orders.GetOrderDetail)
	orderGroup.PUT("/:id/status", h.Orders.UpdateStatus)

	r.GET("/users/:userId/orders", h.Orders.ListUserOrders)

	addressGroup := r.Group("/addresses")
	addressGroup.GET("/:userId", h.Addresses.List)
	addressGroup.POST("", h.Addresses.Create)
	addressGroup.PUT("/:id/default", h.Addresses.SetDefault)

	r.GET("/inventory/:productId/movements", admin, h.Inventory.Movements)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", users.UserIDHeader, "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		MaxAge:           12 * time.Hour,
		AllowCredentials: false,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
