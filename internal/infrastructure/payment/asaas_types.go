package payment

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

type asaasCustomerRequest struct {
	Name              string `json:"name"`
	CpfCnpj           string `json:"cpfCnpj"`
	Email             string `json:"email,omitempty"`
	MobilePhone       string `json:"mobilePhone,omitempty"`
	ExternalReference string `json:"externalReference,omitempty"`
	NotificationsOff  bool   `json:"notificationDisabled"`
}

type asaasCustomerResponse struct {
	ID string `json:"id"`
}

type asaasPaymentRequest struct {
	Customer          string      `json:"customer"`
	BillingType       string      `json:"billingType"`
	Value             json.Number `json:"value"`
	DueDate           string      `json:"dueDate"`
	Description       string      `json:"description,omitempty"`
	ExternalReference string      `json:"externalReference,omitempty"`
}

type asaasPaymentResponse struct {
	ID                string          `json:"id"`
	Status            string          `json:"status"`
	Value             decimal.Decimal `json:"value"`
	InvoiceURL        string          `json:"invoiceUrl"`
	ExternalReference string          `json:"externalReference"`
}

type asaasPixQRCodeResponse struct {
	EncodedImage   string `json:"encodedImage"`
	Payload        string `json:"payload"`
	ExpirationDate string `json:"expirationDate"`
}

type asaasErrorResponse struct {
	Errors []struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"errors"`
}

type asaasWebhook struct {
	ID      string               `json:"id"`
	Event   string               `json:"event"`
	Payment asaasPaymentResponse `json:"payment"`
}
