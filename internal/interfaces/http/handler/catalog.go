package handler

import (
	"github.com/gin-gonic/gin"
	catalogapp "github.com/japabox/storefront/internal/application/catalog"
)

// CatalogHandler handles categories, products and the storefront menu
type CatalogHandler struct {
	BaseHandler
	categoryService *catalogapp.CategoryService
	productService  *catalogapp.ProductService
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(categoryService *catalogapp.CategoryService, productService *catalogapp.ProductService) *CatalogHandler {
	return &CatalogHandler{
		categoryService: categoryService,
		productService:  productService,
	}
}

// GetMenu godoc
// @Summary      Storefront menu: categories with their products
// @Tags         stores
// @Produce      json
// @Param        id path string true "Store ID"
// @Success      200 {object} dto.Response{data=catalogapp.MenuResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /stores/{id}/menu [get]
func (h *CatalogHandler) GetMenu(c *gin.Context) {
	menu, err := h.productService.GetMenu(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, menu)
}

// ListCategories godoc
// @Summary      List categories in display order
// @Tags         admin-catalog
// @Produce      json
// @Param        id path string true "Store ID"
// @Success      200 {object} dto.Response{data=[]catalogapp.CategoryResponse}
// @Security     BearerAuth
// @Router       /admin/stores/{id}/categories [get]
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.categoryService.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, categories)
}

// CreateCategory godoc
// @Summary      Add a category at the end of the list
// @Tags         admin-catalog
// @Accept       json
// @Produce      json
// @Param        id path string true "Store ID"
// @Param        request body catalogapp.CreateCategoryRequest true "Category"
// @Success      201 {object} dto.Response{data=catalogapp.CategoryResponse}
// @Security     BearerAuth
// @Router       /admin/stores/{id}/categories [post]
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req catalogapp.CreateCategoryRequest
	if !h.BindJSON(c, &req) {
		return
	}
	category, err := h.categoryService.Create(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, category)
}

// UpdateCategory godoc
// @Summary      Rename or reorder a category
// @Tags         admin-catalog
// @Accept       json
// @Produce      json
// @Param        id path string true "Store ID"
// @Param        categoryId path string true "Category ID"
// @Param        request body catalogapp.UpdateCategoryRequest true "Changes"
// @Success      200 {object} dto.Response{data=catalogapp.CategoryResponse}
// @Security     BearerAuth
// @Router       /admin/stores/{id}/categories/{categoryId} [patch]
func (h *CatalogHandler) UpdateCategory(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "categoryId")
	if !ok {
		return
	}
	var req catalogapp.UpdateCategoryRequest
	if !h.BindJSON(c, &req) {
		return
	}
	category, err := h.categoryService.Update(c.Request.Context(), c.Param("id"), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, category)
}

// DeleteCategory godoc
// @Summary      Delete a category and its products
// @Tags         admin-catalog
// @Param        id path string true "Store ID"
// @Param        categoryId path string true "Category ID"
// @Success      204
// @Security     BearerAuth
// @Router       /admin/stores/{id}/categories/{categoryId} [delete]
func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "categoryId")
	if !ok {
		return
	}
	if err := h.categoryService.Delete(c.Request.Context(), c.Param("id"), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ListProducts godoc
// @Summary      List products, optionally by category or name
// @Tags         admin-catalog
// @Produce      json
// @Param        id path string true "Store ID"
// @Param        category_id query string false "Category ID"
// @Param        search query string false "Name contains"
// @Success      200 {object} dto.Response{data=[]catalogapp.ProductResponse}
// @Security     BearerAuth
// @Router       /admin/stores/{id}/products [get]
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	var filter catalogapp.ProductListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	products, err := h.productService.List(c.Request.Context(), c.Param("id"), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, products)
}

// GetProduct godoc
// @Summary      Get a product
// @Tags         admin-catalog
// @Produce      json
// @Param        id path string true "Store ID"
// @Param        productId path string true "Product ID"
// @Success      200 {object} dto.Response{data=catalogapp.ProductResponse}
// @Security     BearerAuth
// @Router       /admin/stores/{id}/products/{productId} [get]
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "productId")
	if !ok {
		return
	}
	product, err := h.productService.GetByID(c.Request.Context(), c.Param("id"), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// SaveProduct godoc
// @Summary      Create a product, or update it when the ID exists
// @Tags         admin-catalog
// @Accept       json
// @Produce      json
// @Param        id path string true "Store ID"
// @Param        request body catalogapp.SaveProductRequest true "Product"
// @Success      200 {object} dto.Response{data=catalogapp.ProductResponse}
// @Security     BearerAuth
// @Router       /admin/stores/{id}/products [put]
func (h *CatalogHandler) SaveProduct(c *gin.Context) {
	var req catalogapp.SaveProductRequest
	if !h.BindJSON(c, &req) {
		return
	}
	product, err := h.productService.Save(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// DuplicateProduct godoc
// @Summary      Copy a product with fresh option IDs
// @Tags         admin-catalog
// @Produce      json
// @Param        id path string true "Store ID"
// @Param        productId path string true "Product ID"
// @Success      201 {object} dto.Response{data=catalogapp.ProductResponse}
// @Security     BearerAuth
// @Router       /admin/stores/{id}/products/{productId}/duplicate [post]
func (h *CatalogHandler) DuplicateProduct(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "productId")
	if !ok {
		return
	}
	product, err := h.productService.Duplicate(c.Request.Context(), c.Param("id"), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, product)
}

// DeleteProduct godoc
// @Summary      Delete a product
// @Tags         admin-catalog
// @Param        id path string true "Store ID"
// @Param        productId path string true "Product ID"
// @Success      204
// @Security     BearerAuth
// @Router       /admin/stores/{id}/products/{productId} [delete]
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "productId")
	if !ok {
		return
	}
	if err := h.productService.Delete(c.Request.Context(), c.Param("id"), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// EnhanceDescription godoc
// @Summary      Suggest a better product description
// @Description  The suggestion is not saved; the admin saves the product to keep it.
// @Tags         admin-catalog
// @Accept       json
// @Produce      json
// @Param        id path string true "Store ID"
// @Param        request body catalogapp.EnhanceDescriptionRequest true "Product or text"
// @Success      200 {object} dto.Response{data=catalogapp.EnhanceDescriptionResponse}
// @Security     BearerAuth
// @Router       /admin/stores/{id}/products/enhance-description [post]
func (h *CatalogHandler) EnhanceDescription(c *gin.Context) {
	var req catalogapp.EnhanceDescriptionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	res, err := h.productService.EnhanceDescription(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}
