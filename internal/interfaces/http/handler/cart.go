package handler

import (
	"github.com/gin-gonic/gin"
	cartapp "github.com/japabox/storefront/internal/application/cart"
)

// CartHandler handles the server-side cart and stateless quotes
type CartHandler struct {
	BaseHandler
	cartService *cartapp.Service
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cartService *cartapp.Service) *CartHandler {
	return &CartHandler{cartService: cartService}
}

// CreateCart godoc
// @Summary      Open a cart
// @Tags         carts
// @Accept       json
// @Produce      json
// @Param        request body cartapp.CreateCartRequest true "Store"
// @Success      201 {object} dto.Response{data=cartapp.CartResponse}
// @Router       /carts [post]
func (h *CartHandler) CreateCart(c *gin.Context) {
	var req cartapp.CreateCartRequest
	if !h.BindJSON(c, &req) {
		return
	}
	res, err := h.cartService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, res)
}

// GetCart godoc
// @Summary      Get a cart with fresh totals
// @Tags         carts
// @Produce      json
// @Param        token path string true "Cart token"
// @Success      200 {object} dto.Response{data=cartapp.CartResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /carts/{token} [get]
func (h *CartHandler) GetCart(c *gin.Context) {
	res, err := h.cartService.Get(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// ClearCart godoc
// @Summary      Remove every line and the coupon
// @Tags         carts
// @Produce      json
// @Param        token path string true "Cart token"
// @Success      200 {object} dto.Response{data=cartapp.CartResponse}
// @Router       /carts/{token} [delete]
func (h *CartHandler) ClearCart(c *gin.Context) {
	res, err := h.cartService.Clear(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// AddLine godoc
// @Summary      Add a product to the cart
// @Tags         carts
// @Accept       json
// @Produce      json
// @Param        token path string true "Cart token"
// @Param        request body cartapp.AddLineRequest true "Line"
// @Success      200 {object} dto.Response{data=cartapp.CartResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /carts/{token}/lines [post]
func (h *CartHandler) AddLine(c *gin.Context) {
	var req cartapp.AddLineRequest
	if !h.BindJSON(c, &req) {
		return
	}
	res, err := h.cartService.AddLine(c.Request.Context(), c.Param("token"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// UpdateQuantity godoc
// @Summary      Change a line's quantity; zero removes it
// @Tags         carts
// @Accept       json
// @Produce      json
// @Param        token path string true "Cart token"
// @Param        lineId path string true "Line ID"
// @Param        request body cartapp.UpdateQuantityRequest true "Quantity"
// @Success      200 {object} dto.Response{data=cartapp.CartResponse}
// @Router       /carts/{token}/lines/{lineId} [patch]
func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	var req cartapp.UpdateQuantityRequest
	if !h.BindJSON(c, &req) {
		return
	}
	res, err := h.cartService.UpdateQuantity(c.Request.Context(), c.Param("token"), c.Param("lineId"), req.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// RemoveLine godoc
// @Summary      Remove a line
// @Tags         carts
// @Produce      json
// @Param        token path string true "Cart token"
// @Param        lineId path string true "Line ID"
// @Success      200 {object} dto.Response{data=cartapp.CartResponse}
// @Router       /carts/{token}/lines/{lineId} [delete]
func (h *CartHandler) RemoveLine(c *gin.Context) {
	res, err := h.cartService.RemoveLine(c.Request.Context(), c.Param("token"), c.Param("lineId"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// ApplyCoupon godoc
// @Summary      Apply a coupon code
// @Description  An unknown or inactive code answers 200 with applied=false.
// @Tags         carts
// @Accept       json
// @Produce      json
// @Param        token path string true "Cart token"
// @Param        request body cartapp.ApplyCouponRequest true "Code"
// @Success      200 {object} dto.Response{data=cartapp.ApplyCouponResponse}
// @Router       /carts/{token}/coupon [put]
func (h *CartHandler) ApplyCoupon(c *gin.Context) {
	var req cartapp.ApplyCouponRequest
	if !h.BindJSON(c, &req) {
		return
	}
	res, err := h.cartService.ApplyCoupon(c.Request.Context(), c.Param("token"), req.Code)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// RemoveCoupon godoc
// @Summary      Remove the applied coupon
// @Tags         carts
// @Produce      json
// @Param        token path string true "Cart token"
// @Success      200 {object} dto.Response{data=cartapp.CartResponse}
// @Router       /carts/{token}/coupon [delete]
func (h *CartHandler) RemoveCoupon(c *gin.Context) {
	res, err := h.cartService.RemoveCoupon(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// QuoteCart godoc
// @Summary      Quote a cart for a fulfilment
// @Tags         carts
// @Produce      json
// @Param        token path string true "Cart token"
// @Param        fulfilment query string false "delivery or pickup"
// @Param        upsell query bool false "Add the daily suggestion"
// @Success      200 {object} dto.Response{data=cartapp.QuoteResponse}
// @Router       /carts/{token}/quote [get]
func (h *CartHandler) QuoteCart(c *gin.Context) {
	var req cartapp.CartQuoteRequest
	if !h.BindQuery(c, &req) {
		return
	}
	res, err := h.cartService.Quote(c.Request.Context(), c.Param("token"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// Quote godoc
// @Summary      Price lines without a stored cart
// @Description  Prices always come from the catalog; client prices are ignored.
// @Tags         carts
// @Accept       json
// @Produce      json
// @Param        request body cartapp.QuoteRequest true "Lines"
// @Success      200 {object} dto.Response{data=cartapp.QuoteResponse}
// @Router       /quote [post]
func (h *CartHandler) Quote(c *gin.Context) {
	var req cartapp.QuoteRequest
	if !h.BindJSON(c, &req) {
		return
	}
	res, err := h.cartService.QuoteLines(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}
