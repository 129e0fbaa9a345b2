package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	orderapp "github.com/japabox/storefront/internal/application/order"
	storeapp "github.com/japabox/storefront/internal/application/store"
	"github.com/japabox/storefront/internal/infrastructure/logger"
	"github.com/japabox/storefront/internal/infrastructure/realtime"
	"github.com/japabox/storefront/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

const defaultHeartbeat = 25 * time.Second

// StreamHandler serves server-sent event streams
type StreamHandler struct {
	BaseHandler
	hub          *realtime.Hub
	storeService *storeapp.Service
	orderService *orderapp.Service
	heartbeat    time.Duration
}

// NewStreamHandler creates a new StreamHandler
func NewStreamHandler(hub *realtime.Hub, storeService *storeapp.Service, orderService *orderapp.Service, heartbeat time.Duration) *StreamHandler {
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	return &StreamHandler{
		hub:          hub,
		storeService: storeService,
		orderService: orderService,
		heartbeat:    heartbeat,
	}
}

// StoreStream godoc
// @Summary      Store open/closed and menu changes
// @Tags         streams
// @Produce      text/event-stream
// @Param        id path string true "Store ID"
// @Success      200
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /stores/{id}/stream [get]
func (h *StreamHandler) StoreStream(c *gin.Context) {
	storeID := c.Param("id")
	if _, err := h.storeService.GetStore(c.Request.Context(), storeID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.serve(c, realtime.StoreChannel(storeID))
}

// OrderStream godoc
// @Summary      Status changes of one order
// @Tags         streams
// @Produce      text/event-stream
// @Param        id path string true "Order ID"
// @Success      200
// @Router       /orders/{id}/stream [get]
func (h *StreamHandler) OrderStream(c *gin.Context) {
	o, err := h.orderService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.serve(c, realtime.OrderChannel(o.ID))
}

// AdminOrdersStream godoc
// @Summary      New and updated orders for the order desk
// @Description  EventSource cannot send headers, so the access token may be passed as access_token.
// @Tags         streams
// @Produce      text/event-stream
// @Param        id path string true "Store ID"
// @Param        access_token query string false "Access token"
// @Success      200
// @Security     BearerAuth
// @Router       /admin/stores/{id}/orders/stream [get]
func (h *StreamHandler) AdminOrdersStream(c *gin.Context) {
	storeID := c.Param("id")
	if _, err := h.storeService.GetStore(c.Request.Context(), storeID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.serve(c, realtime.OrdersChannel(storeID), realtime.StoreChannel(storeID))
}

func (h *StreamHandler) serve(c *gin.Context, channels ...string) {
	client, err := h.hub.Subscribe(channels...)
	if err != nil {
		if errors.Is(err, realtime.ErrTooManyClients) || errors.Is(err, realtime.ErrHubClosed) {
			c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeStreamCapacity, "Stream temporarily unavailable", getRequestID(c)))
			return
		}
		h.HandleError(c, err)
		return
	}
	defer h.hub.Unsubscribe(client)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	ctx := c.Request.Context()
	if err := realtime.WriteStream(ctx, c.Writer, c.Writer.Flush, client, h.heartbeat); err != nil {
		logger.L(ctx).Debug("Stream closed", zap.String("client_id", client.ID), zap.Error(err))
	}
}
