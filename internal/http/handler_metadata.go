package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func (h *Handler) getInfo(c *gin.Context) {
	info, err := h.metadata.Info(c.Request.Context(), strings.TrimSpace(c.Query("user_id")))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(info))
}

func (h *Handler) getLevels(c *gin.Context) {
	levels, err := h.metadata.Levels(c.Request.Context(), strings.TrimSpace(c.Query("user_id")))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(levels))
}

func (h *Handler) getSensors(c *gin.Context) {
	sensors, err := h.metadata.Sensors(c.Request.Context(), strings.TrimSpace(c.Query("user_id")))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(sensors))
}

func (h *Handler) getSensorsByLevel(c *gin.Context) {
	sensors, err := h.metadata.SensorsByLevel(c.Request.Context(),
		strings.TrimSpace(c.Query("user_id")),
		strings.TrimSpace(c.Query("parking_id")),
		strings.TrimSpace(c.Query("floor")))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(sensors))
}

// getMap serves the same sensor set as getSensorsByLevel; the map view
// keeps its own route so the two payloads can diverge later.
func (h *Handler) getMap(c *gin.Context) {
	h.getSensorsByLevel(c)
}

func (h *Handler) getLayout(c *gin.Context) {
	layout, err := h.metadata.Layout(c.Request.Context(),
		strings.TrimSpace(c.Query("user_id")),
		strings.TrimSpace(c.Query("parking_id")),
		strings.TrimSpace(c.Query("floor")))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(layout))
}

func (h *Handler) getAvailableDates(c *gin.Context) {
	dates, err := h.metadata.AvailableDates(c.Request.Context(),
		strings.TrimSpace(c.Query("user_id")),
		queryAlias(c, "parking_ids", "parking_id"),
		queryAlias(c, "floors", "floor"),
		queryAlias(c, "sensor_ids", "sensor"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(dates))
}

func (h *Handler) getSensorStats(c *gin.Context) {
	stats, err := h.metadata.SensorStats(c.Request.Context(),
		strings.TrimSpace(c.Query("user_id")),
		strings.TrimSpace(c.Query("parking_id")),
		strings.TrimSpace(c.Query("start_date")),
		strings.TrimSpace(c.Query("end_date")),
		strings.TrimSpace(c.Query("date")))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(stats))
}

func (h *Handler) getOvernight(c *gin.Context) {
	vehicles, err := h.metadata.Overnight(c.Request.Context(), strings.TrimSpace(c.Query("user_id")))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(vehicles))
}
