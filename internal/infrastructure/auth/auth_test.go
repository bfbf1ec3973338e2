package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-server/services/whatsapp-api/internal/config"
)

func newRouter(v *Validator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(v.Middleware())
	r.GET("/v1/sessions", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("user_id")})
	})
	return r
}

func serve(r *gin.Engine, header, value string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/v1/sessions", nil)
	if header != "" {
		req.Header.Set(header, value)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMiddlewareDisabled(t *testing.T) {
	v, err := NewValidator(context.Background(), &config.Config{}, zerolog.Nop())
	require.NoError(t, err)
	assert.True(t, v.Ready())

	w := serve(newRouter(v), "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMiddlewareRejectsMissingToken(t *testing.T) {
	v := &Validator{cfg: &config.Config{AuthEnabled: true}, log: zerolog.Nop()}
	assert.False(t, v.Ready())

	w := serve(newRouter(v), "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "missing bearer token")

	w = serve(newRouter(v), "Authorization", "Bearer sk_live_123")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid token")
}

func TestMiddlewareTrustsGatewayHeaders(t *testing.T) {
	v := &Validator{cfg: &config.Config{AuthEnabled: true}, log: zerolog.Nop()}

	w := serve(newRouter(v), "X-User-ID", "user-42")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "user-42")
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", bearerToken("Bearer abc"))
	assert.Equal(t, "abc", bearerToken("bearer  abc "))
	assert.Empty(t, bearerToken("Basic abc"))
	assert.Empty(t, bearerToken(""))
}
