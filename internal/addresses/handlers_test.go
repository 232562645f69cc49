package addresses_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/matheusmosca/storefront/internal/addresses"
	"github.com/matheusmosca/storefront/internal/apperr"
	"github.com/matheusmosca/storefront/internal/storetest"
	"github.com/matheusmosca/storefront/internal/users"
)

func TestAddressHandlers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := storetest.New()
	userID := store.AddUser("ana", users.RoleUser)
	h := addresses.NewHandler(newUseCase(store), noop.NewTracerProvider().Tracer("test"), zap.NewNop())

	r := gin.New()
	r.GET("/addresses/:userId", h.List)
	r.POST("/addresses", h.Create)
	r.PUT("/addresses/:id/default", h.SetDefault)

	serve := func(method, path, body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		return w
	}

	w := serve(http.MethodPost, "/addresses", fmt.Sprintf(
		`{"userId": "%d", "addressLine1": "1 Elm St", "city": "Lisbon", "zipCode": "1000", "isDefault": true}`, userID))
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Message string `json:"message"`
		ID      int64  `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "Address added successfully!", created.Message)

	w = serve(http.MethodPost, "/addresses", fmt.Sprintf(`{"userId": %d, "city": "Lisbon"}`, userID))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(http.MethodPut, fmt.Sprintf("/addresses/%d/default", created.ID), fmt.Sprintf(`{"userId": %d}`, userID))
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(http.MethodPut, "/addresses/4242/default", fmt.Sprintf(`{"userId": %d}`, userID))
	assert.Equal(t, http.StatusNotFound, w.Code)

	// a concurrent default write loses on the one-default index
	store.FailOn("addresses.SetDefault", apperr.New(apperr.KindConflict, "Another default address was set at the same time. Please try again.", nil))
	w = serve(http.MethodPut, fmt.Sprintf("/addresses/%d/default", created.ID), fmt.Sprintf(`{"userId": %d}`, userID))
	assert.Equal(t, http.StatusConflict, w.Code)
	store.ClearFaults()

	w = serve(http.MethodGet, fmt.Sprintf("/addresses/%d", userID), "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "1 Elm St", list[0]["address_line_1"])
	assert.Equal(t, true, list[0]["is_default"])
}
