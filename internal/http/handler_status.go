package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"parking-analytics-service/internal/model"
)

func (h *Handler) postStatus(c *gin.Context) {
	var report model.StatusReport
	if err := c.ShouldBindJSON(&report); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid status payload: "+err.Error()))
		return
	}

	event, err := h.status.Record(c.Request.Context(), report)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(event))
}

// getLive upgrades the request to a websocket subscription on the
// measurement event stream.
func (h *Handler) getLive(c *gin.Context) {
	if err := h.hub.Serve(c.Writer, c.Request); err != nil {
		h.log.Error().Err(err).Msg("websocket upgrade failed")
	}
}
