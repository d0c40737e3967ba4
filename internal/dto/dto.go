package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flicky/go-storefront-api/internal/model"
)

// --- Auth ---

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

// --- Users (admin) ---

type UpdateUserRequest struct {
	IsAdmin *bool `json:"is_admin" binding:"required"`
}

// --- Product ---

type CreateProductRequest struct {
	Name         string          `json:"name" binding:"required"`
	Description  string          `json:"description" binding:"required"`
	Price        decimal.Decimal `json:"price"`
	Category     string          `json:"category" binding:"required"`
	Brand        string          `json:"brand" binding:"required"`
	CountInStock int             `json:"count_in_stock" binding:"min=0"`
	Image        string          `json:"image"`
}

type UpdateProductRequest struct {
	Name         *string          `json:"name"`
	Description  *string          `json:"description"`
	Price        *decimal.Decimal `json:"price"`
	Category     *string          `json:"category"`
	Brand        *string          `json:"brand"`
	CountInStock *int             `json:"count_in_stock" binding:"omitempty,min=0"`
	Image        *string          `json:"image"`
}

type ProductResponse struct {
	ID           uuid.UUID        `json:"id"`
	UserID       uuid.UUID        `json:"user_id"`
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	Price        decimal.Decimal  `json:"price"`
	Category     string           `json:"category"`
	Brand        string           `json:"brand"`
	CountInStock int              `json:"count_in_stock"`
	Image        string           `json:"image"`
	Rating       float64          `json:"rating"`
	NumReviews   int              `json:"num_reviews"`
	Reviews      []ReviewResponse `json:"reviews"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

type ProductListResponse struct {
	Products []ProductResponse `json:"products"`
	Total    int               `json:"total"`
}

type CreateReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

type ReviewResponse struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

type ReviewsResponse struct {
	Message    string           `json:"message"`
	Rating     float64          `json:"rating"`
	NumReviews int              `json:"num_reviews"`
	Reviews    []ReviewResponse `json:"reviews"`
}

// --- Cart / Wishlist ---

type AddCartItemRequest struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Quantity  int             `json:"quantity" binding:"required,min=1"`
	Price     decimal.Decimal `json:"price"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

type AddWishlistItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
}

type LineItemResponse struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type CartResponse struct {
	UserID uuid.UUID          `json:"user_id"`
	Items  []LineItemResponse `json:"items"`
	Total  decimal.Decimal    `json:"total"`
}

type WishlistResponse struct {
	UserID uuid.UUID          `json:"user_id"`
	Items  []LineItemResponse `json:"items"`
}

// --- Order ---

type OrderItemRequest struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type ShippingAddress struct {
	FullName   string `json:"full_name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type CreateOrderRequest struct {
	OrderItems      []OrderItemRequest `json:"order_items"`
	ShippingAddress ShippingAddress    `json:"shipping_address"`
	PaymentMethod   string             `json:"payment_method"`
	TotalPrice      decimal.Decimal    `json:"total_price"`
}

type UpdateOrderStatusRequest struct {
	PaymentStatus *model.PaymentStatus `json:"payment_status"`
	OrderStatus   *model.OrderStatus   `json:"order_status"`
}

type PayOrderRequest struct {
	ID           string `json:"id" binding:"required"`
	Status       string `json:"status"`
	UpdateTime   string `json:"update_time"`
	EmailAddress string `json:"email_address"`
}

type PaymentResultResponse struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	UpdateTime   string `json:"update_time"`
	EmailAddress string `json:"email_address,omitempty"`
}

type OrderResponse struct {
	ID              uuid.UUID              `json:"id"`
	UserID          uuid.UUID              `json:"user_id"`
	OrderItems      []LineItemResponse     `json:"order_items"`
	ShippingAddress ShippingAddress        `json:"shipping_address"`
	PaymentMethod   string                 `json:"payment_method"`
	PaymentStatus   model.PaymentStatus    `json:"payment_status"`
	OrderStatus     model.OrderStatus      `json:"order_status"`
	TotalPrice      decimal.Decimal        `json:"total_price"`
	PaymentResult   *PaymentResultResponse `json:"payment_result,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
	Total  int             `json:"total"`
}

// --- Payment ---

type CreatePaymentIntentRequest struct {
	OrderID uuid.UUID       `json:"order_id" binding:"required"`
	Amount  decimal.Decimal `json:"amount"`
}

type PaymentIntentResponse struct {
	ClientSecret string `json:"client_secret"`
}

// --- Upload ---

type UploadResponse struct {
	Image string `json:"image"`
}
