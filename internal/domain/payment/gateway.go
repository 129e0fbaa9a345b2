// Package payment defines the contract between checkout and an external
// payment provider.
package payment

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Gateway errors
var (
	ErrGatewayUnavailable   = errors.New("payment gateway unavailable")
	ErrGatewayUnauthorized  = errors.New("payment gateway rejected the API key")
	ErrGatewayRequestFailed = errors.New("payment gateway request failed")
	ErrGatewayNotConfigured = errors.New("payment gateway not configured")
)

// BillingType is the gateway's payment method
type BillingType string

const (
	BillingPix        BillingType = "PIX"
	BillingCreditCard BillingType = "CREDIT_CARD"
)

// Status is the provider-neutral status of a payment
type Status string

const (
	StatusPending  Status = "pending"
	StatusPaid     Status = "paid"
	StatusOverdue  Status = "overdue"
	StatusRefunded Status = "refunded"
	StatusFailed   Status = "failed"
)

// CustomerInput registers the payer with the gateway
type CustomerInput struct {
	Name    string
	CPF     string
	Email   string
	Phone   string
	OrderID string
}

// PaymentInput creates a charge
type PaymentInput struct {
	CustomerID        string
	BillingType       BillingType
	Value             decimal.Decimal
	DueDate           time.Time
	Description       string
	ExternalReference string
}

// Payment is a charge as reported by the gateway
type Payment struct {
	ID                string
	Status            Status
	RawStatus         string
	Value             decimal.Decimal
	InvoiceURL        string
	ExternalReference string
}

// PixQRCode is what the customer scans or copies to pay
type PixQRCode struct {
	Payload        string
	EncodedImage   string
	ExpirationDate string
}

// Gateway is implemented by payment provider adapters
type Gateway interface {
	// Name identifies the provider
	Name() string

	// CreateCustomer registers the payer and returns the provider's customer ID
	CreateCustomer(ctx context.Context, in CustomerInput) (string, error)

	// CreatePayment creates a charge
	CreatePayment(ctx context.Context, in PaymentInput) (*Payment, error)

	// GetPixQRCode returns the PIX copy-and-paste payload and QR image
	GetPixQRCode(ctx context.Context, paymentID string) (*PixQRCode, error)

	// GetPayment fetches the current state of a charge
	GetPayment(ctx context.Context, paymentID string) (*Payment, error)
}

// RequestError is returned when the gateway answers with an error status
type RequestError struct {
	StatusCode  int
	Code        string
	Description string
}

// Error implements the error interface
func (e *RequestError) Error() string {
	if e.Description != "" {
		return e.Description
	}
	return "payment gateway returned an error"
}

// Is lets errors.Is match the gateway sentinels
func (e *RequestError) Is(target error) bool {
	switch target {
	case ErrGatewayRequestFailed:
		return true
	case ErrGatewayUnauthorized:
		return e.StatusCode == 401
	}
	return false
}

// WebhookEvent is a payment notification pushed by the gateway
type WebhookEvent struct {
	ID                string
	Event             string
	PaymentID         string
	ExternalReference string
	Status            Status
}
