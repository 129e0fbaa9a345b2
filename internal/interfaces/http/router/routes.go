package router

import (
	"github.com/gin-gonic/gin"
	"github.com/japabox/storefront/internal/interfaces/http/handler"
)

// Handlers are the HTTP handlers of the storefront and back office
type Handlers struct {
	Store    *handler.StoreHandler
	Catalog  *handler.CatalogHandler
	Coupon   *handler.CouponHandler
	Cart     *handler.CartHandler
	Checkout *handler.CheckoutHandler
	Order    *handler.OrderHandler
	Webhook  *handler.WebhookHandler
	Tracking *handler.TrackingHandler
	Media    *handler.MediaHandler
	Auth     *handler.AuthHandler
	Stream   *handler.StreamHandler
	System   *handler.SystemHandler
}

// Guards are the middleware placed in front of route groups. Any of them
// may be nil.
type Guards struct {
	// Admin authenticates back-office requests
	Admin gin.HandlerFunc
	// AdminStream authenticates the order-desk stream, which may carry its
	// token in the query string
	AdminStream gin.HandlerFunc
	// PublicWrite throttles anonymous writes
	PublicWrite gin.HandlerFunc
	// Login throttles credential checks
	Login gin.HandlerFunc
}

// Storefront returns the route groups of the API
func Storefront(h Handlers, g Guards) []RouteRegistrar {
	stores := NewDomainGroup("stores", "/stores")
	stores.GET("", h.Store.ListStores)
	stores.GET("/:id", h.Store.GetStore)
	stores.GET("/:id/menu", h.Catalog.GetMenu)
	stores.GET("/:id/orders", h.Order.ListStoreOrdersByPhone)
	stores.GET("/:id/stream", h.Stream.StoreStream)
	stores.POST("/:id/events", g.PublicWrite, h.Tracking.TrackEvent)

	carts := NewDomainGroup("carts", "/carts").Use(g.PublicWrite)
	carts.POST("", h.Cart.CreateCart)
	carts.GET("/:token", h.Cart.GetCart)
	carts.DELETE("/:token", h.Cart.ClearCart)
	carts.POST("/:token/lines", h.Cart.AddLine)
	carts.PATCH("/:token/lines/:lineId", h.Cart.UpdateQuantity)
	carts.DELETE("/:token/lines/:lineId", h.Cart.RemoveLine)
	carts.PUT("/:token/coupon", h.Cart.ApplyCoupon)
	carts.DELETE("/:token/coupon", h.Cart.RemoveCoupon)
	carts.GET("/:token/quote", h.Cart.QuoteCart)

	checkout := NewDomainGroup("checkout", "")
	checkout.POST("/quote", g.PublicWrite, h.Cart.Quote)
	checkout.POST("/checkout", g.PublicWrite, h.Checkout.PlaceOrder)

	orders := NewDomainGroup("orders", "/orders")
	orders.GET("", h.Order.ListByPhone)
	orders.GET("/:id", h.Order.GetOrder)
	orders.GET("/:id/stream", h.Stream.OrderStream)

	webhooks := NewDomainGroup("webhooks", "/webhooks")
	webhooks.POST("/asaas", h.Webhook.AsaasWebhook)

	auth := NewDomainGroup("auth", "/auth").Use(g.Login)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.RefreshToken)

	system := NewDomainGroup("system", "/system")
	system.GET("/ping", h.System.Ping)
	system.GET("/info", h.System.GetSystemInfo)

	// The order-desk stream authenticates on its own, ahead of the admin group.
	adminStream := NewDomainGroup("admin-stream", "/admin/stores/:id/orders/stream").Use(g.AdminStream)
	adminStream.GET("", h.Stream.AdminOrdersStream)

	admin := NewDomainGroup("admin", "/admin").Use(g.Admin)
	admin.POST("/auth/logout", h.Auth.Logout)
	admin.GET("/auth/me", h.Auth.Me)
	admin.GET("/stores", h.Store.ListStores)
	admin.POST("/stores", h.Store.CreateStore)

	store := admin.Group("store", "/stores/:id")
	store.GET("", h.Store.GetStore)
	store.PUT("", h.Store.UpdateStore)
	store.PATCH("/open", h.Store.SetOpen)
	store.PUT("/daily-suggestion", h.Store.SetDailySuggestion)
	store.GET("/dashboard", h.Order.Dashboard)
	store.POST("/media", h.Media.UploadImage)

	store.GET("/categories", h.Catalog.ListCategories)
	store.POST("/categories", h.Catalog.CreateCategory)
	store.PATCH("/categories/:categoryId", h.Catalog.UpdateCategory)
	store.DELETE("/categories/:categoryId", h.Catalog.DeleteCategory)

	store.GET("/products", h.Catalog.ListProducts)
	store.PUT("/products", h.Catalog.SaveProduct)
	store.POST("/products/enhance-description", h.Catalog.EnhanceDescription)
	store.GET("/products/:productId", h.Catalog.GetProduct)
	store.DELETE("/products/:productId", h.Catalog.DeleteProduct)
	store.POST("/products/:productId/duplicate", h.Catalog.DuplicateProduct)

	store.GET("/coupons", h.Coupon.ListCoupons)
	store.POST("/coupons", h.Coupon.CreateCoupon)
	store.PUT("/coupons/:couponId", h.Coupon.UpdateCoupon)
	store.DELETE("/coupons/:couponId", h.Coupon.DeleteCoupon)

	store.GET("/orders", h.Order.AdminListOrders)
	store.PATCH("/orders/:orderId/status", h.Order.UpdateStatus)
	store.POST("/orders/:orderId/cancel", h.Order.CancelOrder)
	store.POST("/orders/:orderId/sync-payment", h.Order.SyncPayment)
	store.GET("/orders/:orderId/ticket", h.Order.KitchenTicket)

	return []RouteRegistrar{stores, carts, checkout, orders, webhooks, auth, system, adminStream, admin}
}
