package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flicky/go-storefront-api/internal/middleware"
)

type Handlers struct {
	Auth     *AuthHandler
	User     *UserHandler
	Product  *ProductHandler
	Cart     *CartHandler
	Wishlist *WishlistHandler
	Order    *OrderHandler
	Payment  *PaymentHandler
	Upload   *UploadHandler
	Health   *HealthHandler
}

type RouteOptions struct {
	// Authenticate guards every non-public route.
	Authenticate gin.HandlerFunc
	// AuthRateLimit runs ahead of register and login. Optional.
	AuthRateLimit gin.HandlerFunc
	UploadDir     string
}

func RegisterRoutes(router *gin.Engine, h Handlers, opts RouteOptions) {
	router.GET("/healthz", h.Health.Healthz)
	router.GET("/readyz", h.Health.Readyz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if opts.UploadDir != "" {
		router.Static("/uploads", opts.UploadDir)
	}

	authed := opts.Authenticate
	admin := middleware.AdminOnly()

	v1 := router.Group("/api/v1")
	{
		authGroup := v1.Group("/auth")
		credentials := authGroup.Group("")
		if opts.AuthRateLimit != nil {
			credentials.Use(opts.AuthRateLimit)
		}
		credentials.POST("/register", h.Auth.Register)
		credentials.POST("/login", h.Auth.Login)
		authGroup.POST("/logout", h.Auth.Logout)
		authGroup.GET("/profile", authed, h.Auth.Profile)

		users := v1.Group("/users", authed, admin)
		users.GET("", h.User.List)
		users.GET("/:id", h.User.Get)
		users.PUT("/:id", h.User.Update)
		users.DELETE("/:id", h.User.Delete)

		products := v1.Group("/products")
		products.GET("", h.Product.List)
		products.GET("/:id", h.Product.GetByID)
		products.POST("", authed, admin, h.Product.Create)
		products.PUT("/:id", authed, admin, h.Product.Update)
		products.DELETE("/:id", authed, admin, h.Product.Delete)
		products.POST("/:id/reviews", authed, h.Product.AddReview)
		products.DELETE("/:id/reviews/:reviewId", authed, admin, h.Product.DeleteReview)

		cart := v1.Group("/cart", authed)
		cart.GET("", h.Cart.GetCart)
		cart.POST("", h.Cart.AddItem)
		cart.PUT("/:productId", h.Cart.UpdateItem)
		cart.DELETE("/:productId", h.Cart.RemoveItem)
		cart.DELETE("", h.Cart.Clear)

		wishlist := v1.Group("/wishlist", authed)
		wishlist.GET("", h.Wishlist.Get)
		wishlist.POST("", h.Wishlist.AddItem)
		wishlist.DELETE("/:productId", h.Wishlist.RemoveItem)
		wishlist.DELETE("", h.Wishlist.Clear)

		// Signed by the processor, not by a bearer token.
		v1.POST("/orders/webhook", h.Order.Webhook)

		orders := v1.Group("/orders", authed)
		orders.POST("", h.Order.CreateOrder)
		orders.GET("", admin, h.Order.ListAll)
		orders.GET("/myorders", h.Order.MyOrders)
		orders.GET("/:id", h.Order.GetOrder)
		orders.PUT("/:id/status", admin, h.Order.UpdateStatus)
		orders.PUT("/:id/pay", h.Order.Pay)

		v1.POST("/payment/create-payment-intent", authed, h.Payment.CreatePaymentIntent)

		v1.POST("/upload", authed, admin, h.Upload.Upload)
	}
}
