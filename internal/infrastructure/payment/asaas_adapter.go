package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/japabox/storefront/internal/domain/order"
	"github.com/japabox/storefront/internal/domain/payment"
	"go.uber.org/zap"
)

// AsaasAdapter implements payment.Gateway against the Asaas v3 REST API
type AsaasAdapter struct {
	config     *AsaasConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// AsaasOption is a functional option for the adapter
type AsaasOption func(*AsaasAdapter)

// WithHTTPClient replaces the default client
func WithHTTPClient(c *http.Client) AsaasOption {
	return func(a *AsaasAdapter) {
		a.httpClient = c
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) AsaasOption {
	return func(a *AsaasAdapter) {
		a.logger = l
	}
}

// NewAsaasAdapter creates a new Asaas adapter
func NewAsaasAdapter(config *AsaasConfig, opts ...AsaasOption) (*AsaasAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	a := &AsaasAdapter{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Name returns the gateway name
func (a *AsaasAdapter) Name() string {
	return "asaas"
}

// CreateCustomer registers the payer and returns the Asaas customer ID
func (a *AsaasAdapter) CreateCustomer(ctx context.Context, in payment.CustomerInput) (string, error) {
	body := asaasCustomerRequest{
		Name:              in.Name,
		CpfCnpj:           order.DigitsOnly(in.CPF),
		Email:             in.Email,
		MobilePhone:       order.DigitsOnly(in.Phone),
		ExternalReference: in.OrderID,
		NotificationsOff:  true,
	}

	var resp asaasCustomerResponse
	if err := a.do(ctx, http.MethodPost, "/customers", body, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("%w: customer response without id", payment.ErrGatewayRequestFailed)
	}
	return resp.ID, nil
}

// CreatePayment creates a charge
func (a *AsaasAdapter) CreatePayment(ctx context.Context, in payment.PaymentInput) (*payment.Payment, error) {
	body := asaasPaymentRequest{
		Customer:          in.CustomerID,
		BillingType:       string(in.BillingType),
		Value:             json.Number(in.Value.StringFixed(2)),
		DueDate:           in.DueDate.Format(time.DateOnly),
		Description:       in.Description,
		ExternalReference: in.ExternalReference,
	}

	var resp asaasPaymentResponse
	if err := a.do(ctx, http.MethodPost, "/payments", body, &resp); err != nil {
		return nil, err
	}
	return resp.toDomain(), nil
}

// GetPixQRCode returns the PIX payload and base64 PNG of a payment
func (a *AsaasAdapter) GetPixQRCode(ctx context.Context, paymentID string) (*payment.PixQRCode, error) {
	var resp asaasPixQRCodeResponse
	if err := a.do(ctx, http.MethodGet, "/payments/"+url.PathEscape(paymentID)+"/pixQrCode", nil, &resp); err != nil {
		return nil, err
	}
	return &payment.PixQRCode{
		Payload:        resp.Payload,
		EncodedImage:   resp.EncodedImage,
		ExpirationDate: resp.ExpirationDate,
	}, nil
}

// GetPayment fetches the current state of a charge
func (a *AsaasAdapter) GetPayment(ctx context.Context, paymentID string) (*payment.Payment, error) {
	var resp asaasPaymentResponse
	if err := a.do(ctx, http.MethodGet, "/payments/"+url.PathEscape(paymentID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.toDomain(), nil
}

func (r asaasPaymentResponse) toDomain() *payment.Payment {
	return &payment.Payment{
		ID:                r.ID,
		Status:            payment.MapAsaasStatus(r.Status),
		RawStatus:         r.Status,
		Value:             r.Value,
		InvoiceURL:        r.InvoiceURL,
		ExternalReference: r.ExternalReference,
	}
}

// ParseAsaasWebhook decodes a webhook delivery
func ParseAsaasWebhook(body []byte) (*payment.WebhookEvent, error) {
	var w asaasWebhook
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, fmt.Errorf("asaas: invalid webhook payload: %w", err)
	}
	if w.Event == "" {
		return nil, fmt.Errorf("asaas: webhook payload without event")
	}
	return &payment.WebhookEvent{
		ID:                w.ID,
		Event:             w.Event,
		PaymentID:         w.Payment.ID,
		ExternalReference: w.Payment.ExternalReference,
		Status:            payment.MapAsaasStatus(w.Payment.Status),
	}, nil
}

// do performs a JSON request and decodes the response into out
func (a *AsaasAdapter) do(ctx context.Context, method, path string, in, out any) error {
	var reqBody io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("asaas: failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.config.URL()+path, reqBody)
	if err != nil {
		return fmt.Errorf("asaas: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("access_token", a.config.APIKey)
	req.Header.Set("User-Agent", "storefront")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", payment.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("asaas: failed to read response: %w", err)
	}

	a.logger.Debug("asaas request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode >= 400 {
		return decodeAsaasError(resp.StatusCode, respBody)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("asaas: failed to parse response: %w", err)
	}
	return nil
}

func decodeAsaasError(status int, body []byte) error {
	reqErr := &payment.RequestError{StatusCode: status}
	var errResp asaasErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && len(errResp.Errors) > 0 {
		reqErr.Code = errResp.Errors[0].Code
		reqErr.Description = errResp.Errors[0].Description
	}
	if reqErr.Description == "" {
		reqErr.Description = fmt.Sprintf("Erro na API do Asaas (HTTP %d)", status)
	}
	return reqErr
}

var _ payment.Gateway = (*AsaasAdapter)(nil)
