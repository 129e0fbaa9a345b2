package handler

import (
	"github.com/gin-gonic/gin"
	couponapp "github.com/japabox/storefront/internal/application/coupon"
)

// CouponHandler handles back-office coupon management
type CouponHandler struct {
	BaseHandler
	couponService *couponapp.Service
}

// NewCouponHandler creates a new CouponHandler
func NewCouponHandler(couponService *couponapp.Service) *CouponHandler {
	return &CouponHandler{couponService: couponService}
}

// ListCoupons godoc
// @Summary      List coupons
// @Tags         admin-coupons
// @Produce      json
// @Param        id path string true "Store ID"
// @Success      200 {object} dto.Response{data=[]couponapp.CouponResponse}
// @Security     BearerAuth
// @Router       /admin/stores/{id}/coupons [get]
func (h *CouponHandler) ListCoupons(c *gin.Context) {
	coupons, err := h.couponService.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, coupons)
}

// CreateCoupon godoc
// @Summary      Create a coupon
// @Tags         admin-coupons
// @Accept       json
// @Produce      json
// @Param        id path string true "Store ID"
// @Param        request body couponapp.CreateCouponRequest true "Coupon"
// @Success      201 {object} dto.Response{data=couponapp.CouponResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/stores/{id}/coupons [post]
func (h *CouponHandler) CreateCoupon(c *gin.Context) {
	var req couponapp.CreateCouponRequest
	if !h.BindJSON(c, &req) {
		return
	}
	coupon, err := h.couponService.Create(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, coupon)
}

// UpdateCoupon godoc
// @Summary      Update a coupon
// @Tags         admin-coupons
// @Accept       json
// @Produce      json
// @Param        id path string true "Store ID"
// @Param        couponId path string true "Coupon ID"
// @Param        request body couponapp.UpdateCouponRequest true "Coupon"
// @Success      200 {object} dto.Response{data=couponapp.CouponResponse}
// @Security     BearerAuth
// @Router       /admin/stores/{id}/coupons/{couponId} [put]
func (h *CouponHandler) UpdateCoupon(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "couponId")
	if !ok {
		return
	}
	var req couponapp.UpdateCouponRequest
	if !h.BindJSON(c, &req) {
		return
	}
	coupon, err := h.couponService.Update(c.Request.Context(), c.Param("id"), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, coupon)
}

// DeleteCoupon godoc
// @Summary      Delete a coupon
// @Tags         admin-coupons
// @Param        id path string true "Store ID"
// @Param        couponId path string true "Coupon ID"
// @Success      204
// @Security     BearerAuth
// @Router       /admin/stores/{id}/coupons/{couponId} [delete]
func (h *CouponHandler) DeleteCoupon(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "couponId")
	if !ok {
		return
	}
	if err := h.couponService.Delete(c.Request.Context(), c.Param("id"), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
