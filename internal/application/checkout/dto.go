package checkout

import (
	"strings"

	orderapp "github.com/japabox/storefront/internal/application/order"
	"github.com/japabox/storefront/internal/domain/cart"
	"github.com/japabox/storefront/internal/domain/order"
)

// CustomerRequest identifies the buyer
type CustomerRequest struct {
	Name  string `json:"name" binding:"required,max=200"`
	CPF   string `json:"cpf" binding:"required,max=20,cpf"`
	Phone string `json:"phone" binding:"required,max=20,br_phone"`
	Email string `json:"email" binding:"omitempty,max=200,email"`
}

// AddressRequest is the delivery address; it is ignored for pickup
type AddressRequest struct {
	City         string `json:"city" binding:"max=100"`
	Neighborhood string `json:"neighborhood" binding:"max=100"`
	Street       string `json:"street" binding:"max=200"`
	Number       string `json:"number" binding:"max=20"`
	Complement   string `json:"complement" binding:"max=200"`
	ZipCode      string `json:"zipCode" binding:"max=10"`
}

// PlaceOrderRequest places an order from a stored cart or from explicit lines
type PlaceOrderRequest struct {
	StoreID        string             `json:"storeId" binding:"required,max=20"`
	Customer       CustomerRequest    `json:"customer" binding:"required"`
	Fulfilment     string             `json:"fulfilment" binding:"required,oneof=delivery pickup"`
	Address        *AddressRequest    `json:"address"`
	PaymentMethod  string             `json:"paymentMethod" binding:"required,oneof=pix card"`
	CartToken      string             `json:"cartToken" binding:"max=64"`
	Lines          []cart.LineRequest `json:"lines" binding:"max=100"`
	CouponCode     string             `json:"couponCode" binding:"max=30"`
	Upsell         bool               `json:"upsell"`
	EventSourceURL string             `json:"eventSourceUrl" binding:"max=2000"`

	// UserAgent is filled from the request headers
	UserAgent string `json:"-"`
}

func (r PlaceOrderRequest) customer() order.Customer {
	return order.Customer{
		Name:  r.Customer.Name,
		CPF:   r.Customer.CPF,
		Phone: r.Customer.Phone,
		Email: r.Customer.Email,
	}
}

func (r PlaceOrderRequest) address(storeAddress string) order.Address {
	if cart.Fulfilment(r.Fulfilment) == cart.FulfilmentPickup {
		return order.Address{Street: storeAddress, Type: cart.FulfilmentPickup}
	}
	a := order.Address{Type: cart.FulfilmentDelivery}
	if r.Address != nil {
		a.City = strings.TrimSpace(r.Address.City)
		a.Neighborhood = strings.TrimSpace(r.Address.Neighborhood)
		a.Street = strings.TrimSpace(r.Address.Street)
		a.Number = strings.TrimSpace(r.Address.Number)
		a.Complement = strings.TrimSpace(r.Address.Complement)
		a.ZipCode = order.DigitsOnly(r.Address.ZipCode)
	}
	return a
}

// PlaceOrderResponse is the placed order with its payment instructions.
// Replayed is set when an idempotency key matched an earlier order.
type PlaceOrderResponse struct {
	Order    orderapp.OrderResponse `json:"order"`
	Replayed bool                   `json:"replayed"`
}
