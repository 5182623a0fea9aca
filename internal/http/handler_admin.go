package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"parking-analytics-service/internal/model"
)

func (h *Handler) postClient(c *gin.Context) {
	var client model.Client
	if err := c.ShouldBindJSON(&client); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid client payload: "+err.Error()))
		return
	}
	if client.ClientID == uuid.Nil {
		client.ClientID = uuid.New()
	}
	if err := h.admin.CreateClient(c.Request.Context(), &client); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, successResponse(client))
}

func (h *Handler) postParking(c *gin.Context) {
	var parking model.Parking
	if err := c.ShouldBindJSON(&parking); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid parking payload: "+err.Error()))
		return
	}
	if parking.ParkingID == uuid.Nil {
		parking.ParkingID = uuid.New()
	}
	if err := h.admin.CreateParking(c.Request.Context(), &parking); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, successResponse(parking))
}

func (h *Handler) postLevel(c *gin.Context) {
	var level model.Level
	if err := c.ShouldBindJSON(&level); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid level payload: "+err.Error()))
		return
	}
	if err := h.admin.CreateLevel(c.Request.Context(), &level); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, successResponse(level))
}

func (h *Handler) postSensor(c *gin.Context) {
	var sensor model.Sensor
	if err := c.ShouldBindJSON(&sensor); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid sensor payload: "+err.Error()))
		return
	}
	if sensor.SensorID == uuid.Nil {
		sensor.SensorID = uuid.New()
	}
	if err := h.admin.CreateSensor(c.Request.Context(), &sensor); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, successResponse(sensor))
}

func (h *Handler) postUser(c *gin.Context) {
	var user model.User
	if err := c.ShouldBindJSON(&user); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid user payload: "+err.Error()))
		return
	}
	if user.UserID == uuid.Nil {
		user.UserID = uuid.New()
	}
	if err := h.admin.CreateUser(c.Request.Context(), &user); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, successResponse(user))
}

func (h *Handler) postPermission(c *gin.Context) {
	var permission model.Permission
	if err := c.ShouldBindJSON(&permission); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid permission payload: "+err.Error()))
		return
	}
	if err := h.admin.CreatePermission(c.Request.Context(), &permission); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, successResponse(permission))
}

type aliasRequest struct {
	UserID      string `json:"user_id" binding:"required"`
	SensorID    string `json:"sensor_id" binding:"required"`
	SensorAlias string `json:"sensor_alias" binding:"required"`
}

func (h *Handler) putAlias(c *gin.Context) {
	var req aliasRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid alias payload: "+err.Error()))
		return
	}
	if err := h.admin.RenameSensor(c.Request.Context(), req.UserID, req.SensorID, req.SensorAlias); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(gin.H{"sensor_id": req.SensorID, "sensor_alias": req.SensorAlias}))
}

type flagsRequest struct {
	SensorID        string `json:"sensor_id" binding:"required"`
	LowBattery      *bool  `json:"low_battery" binding:"required"`
	ConnectionError *bool  `json:"connection_error" binding:"required"`
	Error           *bool  `json:"error" binding:"required"`
}

func (h *Handler) putFlags(c *gin.Context) {
	var req flagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid flags payload: "+err.Error()))
		return
	}
	if err := h.admin.UpdateFlags(c.Request.Context(), req.SensorID, *req.LowBattery, *req.ConnectionError, *req.Error); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(gin.H{"sensor_id": req.SensorID}))
}

type maintenanceRequest struct {
	ParkingID       string `json:"parking_id" binding:"required"`
	MaintenanceDate string `json:"maintenance_date" binding:"required"`
}

func (h *Handler) putMaintenance(c *gin.Context) {
	var req maintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid maintenance payload: "+err.Error()))
		return
	}
	if err := h.admin.UpdateMaintenanceDate(c.Request.Context(), req.ParkingID, req.MaintenanceDate); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(gin.H{"parking_id": req.ParkingID, "maintenance_date": req.MaintenanceDate}))
}
