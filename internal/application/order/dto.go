package order

import (
	"time"

	"github.com/japabox/storefront/internal/domain/cart"
	"github.com/japabox/storefront/internal/domain/order"
	"github.com/shopspring/decimal"
)

// AdminListRequest filters the back-office order list
type AdminListRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Status   string `form:"status" binding:"omitempty,oneof=pending preparing delivering completed cancelled"`
	Phone    string `form:"phone" binding:"omitempty,max=20"`
	SortBy   string `form:"sort_by" binding:"omitempty,oneof=created_at updated_at total status customer_name"`
	SortDir  string `form:"sort_order" binding:"omitempty,oneof=asc desc"`
}

// UpdateStatusRequest moves an order along its lifecycle
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending preparing delivering completed cancelled"`
}

// CancelOrderRequest cancels an order
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// PaymentResponse holds the payment instructions of an order
type PaymentResponse struct {
	Gateway        string `json:"gateway"`
	PaymentID      string `json:"paymentId,omitempty"`
	PixPayload     string `json:"pixPayload,omitempty"`
	PixQRCodeImage string `json:"pixQrCodeImage,omitempty"`
	InvoiceURL     string `json:"invoiceUrl,omitempty"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID            string           `json:"id"`
	StoreID       string           `json:"storeId"`
	CustomerName  string           `json:"customerName"`
	CustomerPhone string           `json:"customerPhone"`
	Items         []cart.Line      `json:"items"`
	Subtotal      decimal.Decimal  `json:"subtotal"`
	DeliveryFee   decimal.Decimal  `json:"deliveryFee"`
	Discount      decimal.Decimal  `json:"discount"`
	CouponCode    string           `json:"couponCode,omitempty"`
	Total         decimal.Decimal  `json:"total"`
	Status        string           `json:"status"`
	PaymentMethod string           `json:"paymentMethod"`
	IsPaid        bool             `json:"isPaid"`
	PaidAt        *time.Time       `json:"paidAt,omitempty"`
	Fulfilment    string           `json:"fulfilment"`
	Address       order.Address    `json:"address"`
	Payment       *PaymentResponse `json:"payment,omitempty"`
	CancelReason  string           `json:"cancelReason,omitempty"`
	ArrivalWindow string           `json:"arrivalWindow"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// ToOrderResponse converts an order to its response. The CPF is left out.
func ToOrderResponse(o *order.Order, loc *time.Location) OrderResponse {
	resp := OrderResponse{
		ID:            o.ID,
		StoreID:       o.StoreID,
		CustomerName:  o.CustomerName,
		CustomerPhone: o.CustomerPhone,
		Items:         []cart.Line(o.Items),
		Subtotal:      o.Subtotal,
		DeliveryFee:   o.DeliveryFee,
		Discount:      o.Discount,
		CouponCode:    o.CouponCode,
		Total:         o.Total,
		Status:        string(o.Status),
		PaymentMethod: string(o.PaymentMethod),
		IsPaid:        o.IsPaid,
		PaidAt:        o.PaidAt,
		Fulfilment:    string(o.Fulfilment),
		Address:       o.DeliveryAddress(),
		CancelReason:  o.CancelReason,
		ArrivalWindow: o.ArrivalWindow(loc),
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	if resp.Items == nil {
		resp.Items = []cart.Line{}
	}
	if o.Gateway != "" {
		resp.Payment = &PaymentResponse{
			Gateway:        o.Gateway,
			PaymentID:      o.GatewayPaymentID,
			PixPayload:     o.PixPayload,
			PixQRCodeImage: o.PixQRCodeImage,
			InvoiceURL:     o.InvoiceURL,
		}
	}
	return resp
}

// DashboardResponse summarizes a store's orders
type DashboardResponse struct {
	StatusCounts          map[string]int64 `json:"statusCounts"`
	RevenueToday          decimal.Decimal  `json:"revenueToday"`
	RevenueTodayFormatted string           `json:"revenueTodayFormatted"`
	OrdersToday           int64            `json:"ordersToday"`
	RevenueTotal          decimal.Decimal  `json:"revenueTotal"`
	OrdersTotal           int64            `json:"ordersTotal"`
	AverageTicket         decimal.Decimal  `json:"averageTicket"`
	GeneratedAt           time.Time        `json:"generatedAt"`
}
