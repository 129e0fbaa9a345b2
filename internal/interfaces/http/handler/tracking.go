package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	trackingapp "github.com/japabox/storefront/internal/application/tracking"
)

// TrackingHandler forwards browser events to the Conversions API
type TrackingHandler struct {
	BaseHandler
	trackingService *trackingapp.Service
}

// NewTrackingHandler creates a new TrackingHandler
func NewTrackingHandler(trackingService *trackingapp.Service) *TrackingHandler {
	return &TrackingHandler{trackingService: trackingService}
}

// TrackEvent godoc
// @Summary      Record a PageView or InitiateCheckout
// @Tags         stores
// @Accept       json
// @Param        id path string true "Store ID"
// @Param        request body trackingapp.TrackEventRequest true "Event"
// @Success      202
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /stores/{id}/events [post]
func (h *TrackingHandler) TrackEvent(c *gin.Context) {
	var req trackingapp.TrackEventRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.UserAgent = c.Request.UserAgent()
	if req.SourceURL == "" {
		req.SourceURL = c.GetHeader("Referer")
	}
	if err := h.trackingService.TrackEvent(c.Request.Context(), c.Param("id"), req); err != nil {
		h.HandleError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}
