package handler

import (
	"github.com/gin-gonic/gin"
	mediaapp "github.com/japabox/storefront/internal/application/media"
	"github.com/japabox/storefront/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// MediaHandler accepts image uploads for the back office
type MediaHandler struct {
	BaseHandler
	mediaService *mediaapp.Service
}

// NewMediaHandler creates a new MediaHandler
func NewMediaHandler(mediaService *mediaapp.Service) *MediaHandler {
	return &MediaHandler{mediaService: mediaService}
}

// UploadImage godoc
// @Summary      Upload a product, banner, logo or icon image
// @Tags         admin-media
// @Accept       multipart/form-data
// @Produce      json
// @Param        id path string true "Store ID"
// @Param        kind formData string true "product, banner, logo or icon"
// @Param        file formData file true "JPEG, PNG or WebP"
// @Success      201 {object} dto.Response{data=mediaapp.UploadResponse}
// @Failure      413 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      415 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/stores/{id}/media [post]
func (h *MediaHandler) UploadImage(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "Missing file field")
		return
	}
	f, err := fh.Open()
	if err != nil {
		h.BadRequest(c, "Could not read uploaded file")
		return
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			logger.L(c.Request.Context()).Debug("Failed to close upload", zap.Error(cerr))
		}
	}()

	kind := mediaapp.Kind(c.PostForm("kind"))
	res, err := h.mediaService.UploadImage(c.Request.Context(), c.Param("id"), kind, f, fh.Size)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, res)
}
