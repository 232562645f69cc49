package inventory_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/matheusmosca/storefront/internal/inventory"
	"github.com/matheusmosca/storefront/internal/storetest"
)

func TestMovementsHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := storetest.New()
	productID := store.AddProduct("Fern", "10.00", 10)
	ledger := newLedger(store)
	require.NoError(t, ledger.Reserve(context.Background(), nil, productID, 1, 7))

	r := gin.New()
	h := inventory.NewHandler(ledger, noop.NewTracerProvider().Tracer("test"), zap.NewNop())
	r.GET("/inventory/:productId/movements", h.Movements)

	t.Run("lists movements", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/inventory/"+strconv.FormatInt(productID, 10)+"/movements", nil)
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var body []map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Len(t, body, 1)
		assert.Equal(t, "reserved", body[0]["movement_type"])
	})

	t.Run("rejects a bad id", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/inventory/abc/movements", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
