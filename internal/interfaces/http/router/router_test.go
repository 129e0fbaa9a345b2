package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)
	r.Use(func(c *gin.Context) {
		c.Header("X-Api", "yes")
		c.Next()
	})

	g := NewDomainGroup("test", "/test")
	g.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.Register(g).Setup()

	w := serve(engine, http.MethodGet, "/api/v1/test/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
	assert.Equal(t, "yes", w.Header().Get("X-Api"))
}

func TestDomainGroup_Methods(t *testing.T) {
	engine := gin.New()
	g := NewDomainGroup("items", "/items")
	ok := func(c *gin.Context) { c.String(http.StatusOK, c.Request.Method) }
	g.GET("", ok).POST("", ok).PUT("/:id", ok).PATCH("/:id", ok).DELETE("/:id", ok)
	g.RegisterRoutes(engine.Group("/api/v1"))

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/items"},
		{http.MethodPost, "/api/v1/items"},
		{http.MethodPut, "/api/v1/items/1"},
		{http.MethodPatch, "/api/v1/items/1"},
		{http.MethodDelete, "/api/v1/items/1"},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			w := serve(engine, tt.method, tt.path)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.method, w.Body.String())
		})
	}
}

func TestDomainGroup_SkipsNilHandlers(t *testing.T) {
	engine := gin.New()
	var optional gin.HandlerFunc

	g := NewDomainGroup("test", "/test").Use(optional)
	g.GET("/items", optional, func(c *gin.Context) { c.String(http.StatusOK, "items") })
	g.RegisterRoutes(engine.Group("/api/v1"))

	assert.Empty(t, g.middleware)
	w := serve(engine, http.MethodGet, "/api/v1/test/items")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDomainGroup_Subgroups(t *testing.T) {
	engine := gin.New()
	var calls []string

	g := NewDomainGroup("admin", "/admin").Use(func(c *gin.Context) {
		calls = append(calls, "admin")
		c.Next()
	})
	sub := g.Group("store", "/stores/:id")
	sub.GET("/menu", func(c *gin.Context) { c.String(http.StatusOK, c.Param("id")) })
	g.RegisterRoutes(engine.Group("/api/v1"))

	w := serve(engine, http.MethodGet, "/api/v1/admin/stores/7/menu")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "7", w.Body.String())
	assert.Equal(t, []string{"admin"}, calls)
	assert.Equal(t, "store", sub.Name())
	assert.Equal(t, "/stores/:id", sub.Prefix())
}

func TestStorefrontRoutes(t *testing.T) {
	engine := gin.New()
	var guarded []string
	guard := func(name string) gin.HandlerFunc {
		return func(c *gin.Context) {
			guarded = append(guarded, name)
			c.AbortWithStatus(http.StatusUnauthorized)
		}
	}

	NewRouter(engine).
		Register(Storefront(Handlers{}, Guards{Admin: guard("admin"), AdminStream: guard("stream")})...).
		Setup()

	routes := make(map[string]bool)
	for _, ri := range engine.Routes() {
		routes[ri.Method+" "+ri.Path] = true
	}
	for _, want := range []string{
		"GET /api/v1/stores/:id/menu",
		"POST /api/v1/carts",
		"PUT /api/v1/carts/:token/coupon",
		"POST /api/v1/quote",
		"POST /api/v1/checkout",
		"GET /api/v1/orders/:id",
		"POST /api/v1/webhooks/asaas",
		"POST /api/v1/auth/login",
		"GET /api/v1/admin/stores/:id/orders/stream",
		"PUT /api/v1/admin/stores/:id/products",
		"POST /api/v1/admin/stores/:id/orders/:orderId/sync-payment",
		"GET /api/v1/admin/stores/:id/orders/:orderId/ticket",
	} {
		assert.True(t, routes[want], "missing route %s", want)
	}

	w := serve(engine, http.MethodGet, "/api/v1/admin/stores/1/orders")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	w = serve(engine, http.MethodGet, "/api/v1/admin/stores/1/orders/stream")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, []string{"admin", "stream"}, guarded)
}
