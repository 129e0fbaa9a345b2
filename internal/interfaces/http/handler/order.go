package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	orderapp "github.com/japabox/storefront/internal/application/order"
	paymentapp "github.com/japabox/storefront/internal/application/payment"
)

// OrderHandler serves customer order lookups and the back-office order desk
type OrderHandler struct {
	BaseHandler
	orderService   *orderapp.Service
	paymentService *paymentapp.Service
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService *orderapp.Service, paymentService *paymentapp.Service) *OrderHandler {
	return &OrderHandler{
		orderService:   orderService,
		paymentService: paymentService,
	}
}

// OrderHistoryQuery selects a customer's orders
type OrderHistoryQuery struct {
	Phone   string `form:"phone" binding:"required,max=20"`
	StoreID string `form:"storeId" binding:"max=20"`
}

// GetOrder godoc
// @Summary      Track an order
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID"
// @Success      200 {object} dto.Response{data=orderapp.OrderResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	o, err := h.orderService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, o)
}

// ListByPhone godoc
// @Summary      Customer order history, newest first
// @Tags         orders
// @Produce      json
// @Param        phone query string true "Customer phone"
// @Param        storeId query string false "Limit to one store"
// @Success      200 {object} dto.Response{data=[]orderapp.OrderResponse}
// @Router       /orders [get]
func (h *OrderHandler) ListByPhone(c *gin.Context) {
	var q OrderHistoryQuery
	if !h.BindQuery(c, &q) {
		return
	}
	h.listByPhone(c, q.StoreID, q.Phone)
}

// ListStoreOrdersByPhone godoc
// @Summary      Customer order history in one store
// @Tags         orders
// @Produce      json
// @Param        id path string true "Store ID"
// @Param        phone query string true "Customer phone"
// @Success      200 {object} dto.Response{data=[]orderapp.OrderResponse}
// @Router       /stores/{id}/orders [get]
func (h *OrderHandler) ListStoreOrdersByPhone(c *gin.Context) {
	var q OrderHistoryQuery
	if !h.BindQuery(c, &q) {
		return
	}
	h.listByPhone(c, c.Param("id"), q.Phone)
}

func (h *OrderHandler) listByPhone(c *gin.Context, storeID, phone string) {
	orders, err := h.orderService.ListByPhone(c.Request.Context(), storeID, phone)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, orders)
}

// AdminListOrders godoc
// @Summary      List orders, newest first
// @Description  Cancelled orders are hidden unless status=cancelled is asked for.
// @Tags         admin-orders
// @Produce      json
// @Param        id path string true "Store ID"
// @Param        status query string false "Status filter"
// @Param        phone query string false "Customer phone"
// @Param        sort_by query string false "created_at, updated_at, total, status or customer_name"
// @Param        sort_order query string false "asc or desc"
// @Param        page query int false "Page"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.Response{data=[]orderapp.OrderResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /admin/stores/{id}/orders [get]
func (h *OrderHandler) AdminListOrders(c *gin.Context) {
	var req orderapp.AdminListRequest
	if !h.BindQuery(c, &req) {
		return
	}
	page, err := h.orderService.AdminList(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// UpdateStatus godoc
// @Summary      Move an order to another status
// @Tags         admin-orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Store ID"
// @Param        orderId path string true "Order ID"
// @Param        request body orderapp.UpdateStatusRequest true "Status"
// @Success      200 {object} dto.Response{data=orderapp.OrderResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/stores/{id}/orders/{orderId}/status [patch]
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req orderapp.UpdateStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	o, err := h.orderService.UpdateStatus(c.Request.Context(), c.Param("id"), c.Param("orderId"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, o)
}

// CancelOrder godoc
// @Summary      Cancel an order
// @Tags         admin-orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Store ID"
// @Param        orderId path string true "Order ID"
// @Param        request body orderapp.CancelOrderRequest false "Reason"
// @Success      200 {object} dto.Response{data=orderapp.OrderResponse}
// @Security     BearerAuth
// @Router       /admin/stores/{id}/orders/{orderId}/cancel [post]
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	var req orderapp.CancelOrderRequest
	if c.Request.ContentLength > 0 && !h.BindJSON(c, &req) {
		return
	}
	o, err := h.orderService.Cancel(c.Request.Context(), c.Param("id"), c.Param("orderId"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, o)
}

// SyncPayment godoc
// @Summary      Ask the gateway for the payment status
// @Tags         admin-orders
// @Produce      json
// @Param        id path string true "Store ID"
// @Param        orderId path string true "Order ID"
// @Success      200 {object} dto.Response{data=paymentapp.SyncResult}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/stores/{id}/orders/{orderId}/sync-payment [post]
func (h *OrderHandler) SyncPayment(c *gin.Context) {
	res, err := h.paymentService.SyncPayment(c.Request.Context(), c.Param("id"), c.Param("orderId"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// KitchenTicket godoc
// @Summary      Kitchen ticket as an 80 mm PDF
// @Tags         admin-orders
// @Produce      application/pdf
// @Param        id path string true "Store ID"
// @Param        orderId path string true "Order ID"
// @Success      200 {file} binary
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/stores/{id}/orders/{orderId}/ticket [get]
func (h *OrderHandler) KitchenTicket(c *gin.Context) {
	orderID := c.Param("orderId")
	pdf, err := h.orderService.KitchenTicket(c.Request.Context(), c.Param("id"), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="pedido-%s.pdf"`, orderID))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// Dashboard godoc
// @Summary      Order counts and revenue
// @Tags         admin-orders
// @Produce      json
// @Param        id path string true "Store ID"
// @Success      200 {object} dto.Response{data=orderapp.DashboardResponse}
// @Security     BearerAuth
// @Router       /admin/stores/{id}/dashboard [get]
func (h *OrderHandler) Dashboard(c *gin.Context) {
	res, err := h.orderService.Dashboard(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}
