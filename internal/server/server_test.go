package server_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/matheusmosca/storefront/internal/addresses"
	"github.com/matheusmosca/storefront/internal/cart"
	"github.com/matheusmosca/storefront/internal/catalog"
	"github.com/matheusmosca/storefront/internal/checkout"
	"github.com/matheusmosca/storefront/internal/config"
	"github.com/matheusmosca/storefront/internal/events"
	"github.com/matheusmosca/storefront/internal/inventory"
	"github.com/matheusmosca/storefront/internal/orders"
	"github.com/matheusmosca/storefront/internal/server"
	"github.com/matheusmosca/storefront/internal/storetest"
	"github.com/matheusmosca/storefront/internal/users"
)

func newRouter(t *testing.T, store *storetest.Store, requireAdmin bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	tracer := noop.NewTracerProvider().Tracer("test")
	log := zap.NewNop()

	catalogService := catalog.NewService(store.Catalog(), nil, nil, tracer, log)
	ledger := inventory.NewLedger(store.Inventory(), nil, tracer, log)
	cartUseCase := cart.NewUseCase(store.Cart(), ledger, store, nil, catalogService, config.CouplingTransactional, tracer, log)
	orchestrator, err := checkout.NewOrchestrator(store.Cart(), store.Orders(), store.Addresses(), store,
		events.NopPublisher{}, metricnoop.NewMeterProvider().Meter("test"), tracer, log)
	require.NoError(t, err)
	userService := users.NewService(store.Users(), nil, tracer, log)

	return server.New(server.Handlers{
		Catalog:   catalog.NewHandler(catalogService, tracer, log),
		Cart:      cart.NewHandler(cartUseCase, tracer, log),
		Checkout:  checkout.NewHandler(orchestrator, tracer, log),
		Orders:    orders.NewHandler(orders.NewUseCase(store.Orders(), nil, events.NopPublisher{}, tracer, log), tracer, log),
		Inventory: inventory.NewHandler(ledger, tracer, log),
		Addresses: addresses.NewHandler(addresses.NewUseCase(store.Addresses(), store, nil, tracer, log), tracer, log),
		Users:     users.NewHandler(userService, tracer, log),
	}, server.Options{
		ServiceName:    "storefront-test",
		AllowedOrigins: []string{"*"},
		RequireAdmin:   requireAdmin,
		AdminLookup:    userService,
		AuthLimiter:    users.NewRateLimiter(600, 50),
	}, log)
}

func do(r http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r := newRouter(t, storetest.New(), false)

	w := do(r, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","service":"storefront-test"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestShoppingFlow(t *testing.T) {
	store := storetest.New()
	userID := store.AddUser("ana", users.RoleUser)
	productID := store.AddProduct("Fern", "10.00", 5)
	r := newRouter(t, store, false)

	// ids arrive as strings from the frontend's localStorage
	w := do(r, http.MethodPost, "/cart/add",
		fmt.Sprintf(`{"userId":"%d","productId":%d,"quantity":2}`, userID, productID), nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(r, http.MethodGet, fmt.Sprintf("/cart/%d", userID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"imege_url":"/img/fern.jpg"`)

	w = do(r, http.MethodPost, "/cart/checkout", fmt.Sprintf(`{"userId":%d}`, userID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var placed struct {
		OrderID int64  `json:"orderId"`
		Total   string `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &placed))
	assert.Equal(t, "20.00", placed.Total)

	w = do(r, http.MethodGet, "/orders", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_name":"ana"`)

	w = do(r, http.MethodGet, "/orders/"+strconv.FormatInt(placed.OrderID, 10), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"price_at_purchase":"10.00"`)

	w = do(r, http.MethodGet, fmt.Sprintf("/users/%d/orders", userID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, fmt.Sprintf("/inventory/%d/movements", productID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, store.Stock(productID))
	assert.Equal(t, 0, store.CartSize(userID))

	w = do(r, http.MethodPost, "/cart/checkout", fmt.Sprintf(`{"userId":%d}`, userID), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"EmptyCart"`)
}

func TestAdminGuard(t *testing.T) {
	store := storetest.New()
	adminID := store.AddUser("root", users.RoleAdmin)
	userID := store.AddUser("ana", users.RoleUser)
	r := newRouter(t, store, true)

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"orders without caller", "/orders", "", http.StatusUnauthorized},
		{"orders as user", "/orders", strconv.FormatInt(userID, 10), http.StatusForbidden},
		{"orders as admin", "/orders", strconv.FormatInt(adminID, 10), http.StatusOK},
		{"movements as user", "/inventory/1/movements", strconv.FormatInt(userID, 10), http.StatusForbidden},
		{"own history is open", fmt.Sprintf("/users/%d/orders", userID), "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.header != "" {
				headers[users.UserIDHeader] = tt.header
			}
			w := do(r, http.MethodGet, tt.path, "", headers)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	r := newRouter(t, storetest.New(), false)

	w := do(r, http.MethodOptions, "/cart/add", "", map[string]string{
		"Origin":                        "http://localhost:5173",
		"Access-Control-Request-Method": http.MethodPost,
	})

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
