package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

const DefaultProductImage = "/uploads/default.jpg"

type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	Password     string
	Role         string
	TokenVersion int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

type Product struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Name         string
	Description  string
	Price        decimal.Decimal
	Category     string
	Brand        string
	CountInStock int
	Image        string
	Reviews      []Review
	Rating       float64
	NumReviews   int
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Review struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// RecomputeRating refreshes Rating and NumReviews from Reviews.
func (p *Product) RecomputeRating() {
	p.NumReviews = len(p.Reviews)
	if p.NumReviews == 0 {
		p.Rating = 0
		return
	}
	sum := 0
	for _, r := range p.Reviews {
		sum += r.Rating
	}
	p.Rating = float64(sum) / float64(p.NumReviews)
}

// ReviewedBy reports whether userID already left a review.
func (p *Product) ReviewedBy(userID uuid.UUID) bool {
	for _, r := range p.Reviews {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

// LineItem is stored inside cart, wishlist and order documents.
type LineItem struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name,omitempty"`
	Image     string          `json:"image,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// PriceScale is the number of decimal places stored for money columns.
const PriceScale = 2

// ValidPrice reports whether p is non-negative and fits PriceScale.
func ValidPrice(p decimal.Decimal) bool {
	return !p.IsNegative() && p.Equal(p.Round(PriceScale))
}

func (li LineItem) Subtotal() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// LineItems is an ordered collection keyed by product.
type LineItems []LineItem

func (items LineItems) Find(productID uuid.UUID) int {
	for i := range items {
		if items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (items LineItems) Remove(productID uuid.UUID) LineItems {
	out := items[:0:0]
	for _, it := range items {
		if it.ProductID != productID {
			out = append(out, it)
		}
	}
	return out
}

func (items LineItems) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}

type Cart struct {
	UserID    uuid.UUID
	Items     LineItems
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Wishlist struct {
	UserID    uuid.UUID
	Items     LineItems
	CreatedAt time.Time
	UpdatedAt time.Time
}

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "Pending"
	PaymentStatusPaid    PaymentStatus = "Paid"
	PaymentStatusFailed  PaymentStatus = "Failed"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed:
		return true
	}
	return false
}

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusShipped   OrderStatus = "Shipped"
	OrderStatusDelivered OrderStatus = "Delivered"
	OrderStatusCancelled OrderStatus = "Cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether the fulfillment stage is final. Not enforced on writes.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

type ShippingAddress struct {
	FullName   string `json:"full_name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

func (a ShippingAddress) Complete() bool {
	return a.FullName != "" && a.Address != "" && a.City != "" && a.PostalCode != "" && a.Country != ""
}

// PaymentResult is the processor outcome recorded on a paid order.
type PaymentResult struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	UpdateTime   string `json:"update_time"`
	EmailAddress string `json:"email_address,omitempty"`
}

type Order struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	Items           LineItems
	ShippingAddress ShippingAddress
	PaymentMethod   string
	PaymentStatus   PaymentStatus
	OrderStatus     OrderStatus
	TotalPrice      decimal.Decimal
	PaymentResult   *PaymentResult
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderMessage is published to the orders queue once an order is paid.
type OrderMessage struct {
	OrderID uuid.UUID `json:"order_id"`
	UserID  uuid.UUID `json:"user_id"`
}
