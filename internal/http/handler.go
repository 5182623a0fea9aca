package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"parking-analytics-service/internal/live"
	"parking-analytics-service/internal/model"
	"parking-analytics-service/internal/service"
)

type Handler struct {
	analysis *service.AnalysisService
	metadata *service.MetadataService
	status   *service.StatusService
	admin    *service.AdminService
	hub      *live.Hub
	log      zerolog.Logger
}

func NewHandler(
	analysis *service.AnalysisService,
	metadata *service.MetadataService,
	status *service.StatusService,
	admin *service.AdminService,
	hub *live.Hub,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		analysis: analysis,
		metadata: metadata,
		status:   status,
		admin:    admin,
		hub:      hub,
		log:      log,
	}
}

func (h *Handler) Register(r *gin.Engine) {
	r.GET("/analysis", h.getAnalysis)
	r.GET("/analysis/dates", h.getAvailableDates)

	r.GET("/info", h.getInfo)
	r.GET("/levels", h.getLevels)
	r.GET("/sensors", h.getSensors)
	r.GET("/sensors/level", h.getSensorsByLevel)
	r.GET("/map", h.getMap)
	r.GET("/layout", h.getLayout)
	r.GET("/stats/sensors", h.getSensorStats)
	r.GET("/overnight", h.getOvernight)

	r.POST("/status", h.postStatus)
	r.GET("/live", h.getLive)

	r.POST("/clients", h.postClient)
	r.POST("/parkings", h.postParking)
	r.POST("/levels", h.postLevel)
	r.POST("/sensors", h.postSensor)
	r.POST("/users", h.postUser)
	r.POST("/permissions", h.postPermission)
	r.PUT("/sensors/alias", h.putAlias)
	r.PUT("/sensors/flags", h.putFlags)
	r.PUT("/parkings/maintenance", h.putMaintenance)
}

// queryAlias returns the first non-empty value among the parameter's
// accepted spellings. The analysis API answers both the snake_case
// names and the camelCase/singular ones older clients send.
func queryAlias(c *gin.Context, names ...string) string {
	for _, name := range names {
		if value := c.Query(name); value != "" {
			return value
		}
	}
	return ""
}

func (h *Handler) getAnalysis(c *gin.Context) {
	req := model.AnalysisRequest{
		UserID:          strings.TrimSpace(c.Query("user_id")),
		LocationSetting: model.LocationScope(strings.TrimSpace(queryAlias(c, "location_setting", "locationSetting"))),
		TimeSetting:     model.TimeScope(strings.TrimSpace(queryAlias(c, "time_setting", "timeSetting"))),
		ParkingIDs:      queryAlias(c, "parking_ids", "parking_id"),
		Floors:          queryAlias(c, "floors", "floor"),
		SensorIDs:       queryAlias(c, "sensor_ids", "sensor"),
		Year:            strings.TrimSpace(c.Query("year")),
		Month:           strings.TrimSpace(c.Query("month")),
		Day:             strings.TrimSpace(c.Query("day")),
	}

	response, err := h.analysis.Analyze(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(response))
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, errorResponse(err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	default:
		h.log.Error().Err(err).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func successResponse(data interface{}) gin.H {
	return gin.H{"data": data}
}

func errorResponse(message string) gin.H {
	return gin.H{"error": message}
}
