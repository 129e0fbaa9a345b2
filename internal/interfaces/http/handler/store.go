package handler

import (
	"github.com/gin-gonic/gin"
	storeapp "github.com/japabox/storefront/internal/application/store"
)

// StoreHandler handles store configuration endpoints
type StoreHandler struct {
	BaseHandler
	storeService *storeapp.Service
}

// NewStoreHandler creates a new StoreHandler
func NewStoreHandler(storeService *storeapp.Service) *StoreHandler {
	return &StoreHandler{storeService: storeService}
}

// GetStore godoc
// @Summary      Get store configuration
// @Tags         stores
// @Produce      json
// @Param        id path string true "Store ID"
// @Success      200 {object} dto.Response{data=storeapp.StoreResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /stores/{id} [get]
func (h *StoreHandler) GetStore(c *gin.Context) {
	st, err := h.storeService.GetStore(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, st)
}

// ListStores godoc
// @Summary      List store IDs
// @Tags         admin-stores
// @Produce      json
// @Success      200 {object} dto.Response{data=[]string}
// @Security     BearerAuth
// @Router       /admin/stores [get]
func (h *StoreHandler) ListStores(c *gin.Context) {
	ids, err := h.storeService.ListStoreIDs(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ids)
}

// CreateStore godoc
// @Summary      Create a store seeded with the default menu and coupon
// @Tags         admin-stores
// @Produce      json
// @Success      201 {object} dto.Response{data=storeapp.StoreResponse}
// @Security     BearerAuth
// @Router       /admin/stores [post]
func (h *StoreHandler) CreateStore(c *gin.Context) {
	st, err := h.storeService.CreateStore(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, st)
}

// UpdateStore godoc
// @Summary      Replace store configuration
// @Tags         admin-stores
// @Accept       json
// @Produce      json
// @Param        id path string true "Store ID"
// @Param        request body storeapp.UpdateStoreRequest true "Configuration"
// @Success      200 {object} dto.Response{data=storeapp.StoreResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/stores/{id} [put]
func (h *StoreHandler) UpdateStore(c *gin.Context) {
	var req storeapp.UpdateStoreRequest
	if !h.BindJSON(c, &req) {
		return
	}
	st, err := h.storeService.UpdateStore(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, st)
}

// SetOpen godoc
// @Summary      Open or close the store manually
// @Tags         admin-stores
// @Accept       json
// @Produce      json
// @Param        id path string true "Store ID"
// @Param        request body storeapp.SetOpenRequest true "Switch"
// @Success      200 {object} dto.Response{data=storeapp.StoreResponse}
// @Security     BearerAuth
// @Router       /admin/stores/{id}/open [patch]
func (h *StoreHandler) SetOpen(c *gin.Context) {
	var req storeapp.SetOpenRequest
	if !h.BindJSON(c, &req) {
		return
	}
	st, err := h.storeService.SetOpen(c.Request.Context(), c.Param("id"), req.IsOpen)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, st)
}

// SetDailySuggestion godoc
// @Summary      Set or clear the daily suggestion
// @Tags         admin-stores
// @Accept       json
// @Produce      json
// @Param        id path string true "Store ID"
// @Param        request body storeapp.SetDailySuggestionRequest true "Product"
// @Success      200 {object} dto.Response{data=storeapp.StoreResponse}
// @Security     BearerAuth
// @Router       /admin/stores/{id}/daily-suggestion [put]
func (h *StoreHandler) SetDailySuggestion(c *gin.Context) {
	var req storeapp.SetDailySuggestionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	st, err := h.storeService.SetDailySuggestion(c.Request.Context(), c.Param("id"), req.ProductID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, st)
}
