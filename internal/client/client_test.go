package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matheusmosca/storefront/internal/apperr"
	"github.com/matheusmosca/storefront/internal/cart"
	"github.com/matheusmosca/storefront/internal/httpx"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.POST("/cart/add", func(c *gin.Context) {
		var req cart.AddItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BindError(c, err)
			return
		}
		switch req.ProductID {
		case 1:
			c.JSON(http.StatusCreated, gin.H{"message": "Item added to cart. Stock successfully reduced."})
		case 2:
			c.JSON(http.StatusOK, gin.H{"message": "Cart item quantity updated. Stock successfully reduced."})
		default:
			c.JSON(http.StatusBadRequest, httpx.ErrorBody{Error: "InsufficientStock", Message: "Insufficient stock. Only 1 available."})
		}
	})
	r.DELETE("/cart/remove", func(c *gin.Context) {
		c.JSON(http.StatusNotFound, httpx.ErrorBody{Error: "NotFound", Message: "Item not found in cart."})
	})
	r.GET("/cart/:userId", func(c *gin.Context) {
		c.JSON(http.StatusOK, []cart.LineResponse{{ID: 1, Name: "Fern", Price: "10.00", ImageURL: "/img/fern.jpg", Quantity: 2}})
	})
	r.POST("/cart/checkout", func(c *gin.Context) {
		var body map[string]any
		assert.NoError(t, c.ShouldBindJSON(&body))
		assert.Equal(t, float64(3), body["shippingAddressId"])
		c.JSON(http.StatusOK, gin.H{"message": "Order placed successfully!", "orderId": 9, "total": "25.00"})
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL, 5*time.Second)
	ctx := context.Background()

	require.NoError(t, c.Health(ctx))

	res, err := c.AddToCart(ctx, 7, 1, 2)
	require.NoError(t, err)
	assert.True(t, res.Created)

	res, err = c.AddToCart(ctx, 7, 2, 2)
	require.NoError(t, err)
	assert.False(t, res.Created)

	lines, err := c.GetCart(ctx, 7)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "/img/fern.jpg", lines[0].ImageURL)

	addr := int64(3)
	placed, err := c.Checkout(ctx, 7, &addr)
	require.NoError(t, err)
	assert.Equal(t, int64(9), placed.OrderID)
	assert.Equal(t, "25.00", placed.Total)
}

func TestClientDecodesErrorKinds(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL, 5*time.Second)
	ctx := context.Background()

	_, err := c.AddToCart(ctx, 7, 99, 5)
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)
	assert.EqualError(t, err, "Insufficient stock. Only 1 available.")

	_, err = c.RemoveFromCart(ctx, 7, 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestClientUnreachable(t *testing.T) {
	c := New("http://127.0.0.1:1", 200*time.Millisecond)

	err := c.Health(context.Background())

	assert.ErrorContains(t, err, "request failed")
}
