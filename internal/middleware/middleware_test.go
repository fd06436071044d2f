package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIDGeneratesID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	got := w.Header().Get("X-Request-ID")
	require.NotEmpty(t, got)
	_, err := uuid.Parse(got)
	assert.NoError(t, err)
}

func TestRequestIDHonorsInboundHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "gateway-assigned-id")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "gateway-assigned-id", w.Header().Get("X-Request-ID"))
}

func TestAccountIDContextRoundTrip(t *testing.T) {
	ctx := ContextWithAccountID(context.Background(), 42)

	id, ok := AccountIDFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(42), id)

	_, ok = AccountIDFromContext(context.Background())
	assert.False(t, ok)
}
