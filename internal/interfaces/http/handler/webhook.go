package handler

import (
	"io"

	"github.com/gin-gonic/gin"
	paymentapp "github.com/japabox/storefront/internal/application/payment"
	"github.com/japabox/storefront/internal/infrastructure/logger"
	infrapayment "github.com/japabox/storefront/internal/infrastructure/payment"
	"go.uber.org/zap"
)

// AsaasTokenHeader carries the shared secret configured on the gateway
const AsaasTokenHeader = "asaas-access-token"

// WebhookHandler receives payment gateway notifications
type WebhookHandler struct {
	BaseHandler
	paymentService *paymentapp.Service
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(paymentService *paymentapp.Service) *WebhookHandler {
	return &WebhookHandler{paymentService: paymentService}
}

// AsaasWebhook godoc
// @Summary      Asaas payment notification
// @Description  Redeliveries of the same event are acknowledged without side effects.
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        asaas-access-token header string false "Webhook token"
// @Success      200 {object} dto.Response{data=paymentapp.WebhookResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /webhooks/asaas [post]
func (h *WebhookHandler) AsaasWebhook(c *gin.Context) {
	token := c.GetHeader(AsaasTokenHeader)
	if err := h.paymentService.VerifyWebhookToken(token); err != nil {
		logger.L(c.Request.Context()).Warn("Rejected webhook with bad token", zap.String("client_ip", c.ClientIP()))
		h.HandleError(c, err)
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.BadRequest(c, "Could not read request body")
		return
	}
	ev, err := infrapayment.ParseAsaasWebhook(body)
	if err != nil {
		h.BadRequest(c, "Invalid webhook payload")
		return
	}

	res, err := h.paymentService.HandleWebhook(c.Request.Context(), token, ev)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}
