package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	checkoutapp "github.com/japabox/storefront/internal/application/checkout"
	"github.com/japabox/storefront/internal/interfaces/http/dto"
	"github.com/japabox/storefront/internal/interfaces/http/middleware"
)

const maxIdempotencyKeyLength = 100

// CheckoutHandler places orders
type CheckoutHandler struct {
	BaseHandler
	checkoutService *checkoutapp.Service
}

// NewCheckoutHandler creates a new CheckoutHandler
func NewCheckoutHandler(checkoutService *checkoutapp.Service) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService}
}

// PlaceOrder godoc
// @Summary      Place an order and request its payment
// @Description  Card payments are completed on the gateway's invoice page; no card data is accepted here.
// @Description  Resubmitting with the same Idempotency-Key returns the first order with 200.
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Deduplication key"
// @Param        request body checkoutapp.PlaceOrderRequest true "Order"
// @Success      201 {object} dto.Response{data=checkoutapp.PlaceOrderResponse}
// @Success      200 {object} dto.Response{data=checkoutapp.PlaceOrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /checkout [post]
func (h *CheckoutHandler) PlaceOrder(c *gin.Context) {
	key := c.GetHeader(middleware.IdempotencyKeyHeader)
	if len(key) > maxIdempotencyKeyLength {
		h.BadRequest(c, "Idempotency-Key is too long")
		return
	}

	var req checkoutapp.PlaceOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.UserAgent = c.Request.UserAgent()
	if req.EventSourceURL == "" {
		req.EventSourceURL = c.GetHeader("Referer")
	}

	res, err := h.checkoutService.PlaceOrder(c.Request.Context(), key, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if res.Replayed {
		c.JSON(http.StatusOK, dto.NewSuccessResponse(res))
		return
	}
	h.Created(c, res)
}
