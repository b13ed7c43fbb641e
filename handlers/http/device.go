package httpHandler

import (
	"net/http"

	"siar-server/usecases"

	"github.com/gin-gonic/gin"
)

type DeviceHandler struct {
	devices   *usecases.DeviceUseCase
	liveness  *usecases.LivenessUseCase
	dashboard *usecases.DashboardUseCase
}

func NewDeviceHandler(devices *usecases.DeviceUseCase, liveness *usecases.LivenessUseCase, dashboard *usecases.DashboardUseCase) *DeviceHandler {
	return &DeviceHandler{
		devices:   devices,
		liveness:  liveness,
		dashboard: dashboard,
	}
}

type createDeviceRequest struct {
	Name string `json:"nombre_dispositivo" binding:"required"`
}

type toggleRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// CreateDevice handles POST /api/v1/devices
func (h *DeviceHandler) CreateDevice(c *gin.Context) {
	var req createDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	device, err := h.devices.CreateDevice(c.Request.Context(), UserID(c), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Device created successfully",
		"data":    device,
	})
}

// GetDevice handles GET /api/v1/devices/:id
func (h *DeviceHandler) GetDevice(c *gin.Context) {
	device, err := h.devices.GetDevice(c.Request.Context(), UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": device,
	})
}

// GetAllDevices handles GET /api/v1/devices
func (h *DeviceHandler) GetAllDevices(c *gin.Context) {
	devices, err := h.devices.GetDevicesByUserID(c.Request.Context(), UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  devices,
		"count": len(devices),
	})
}

// GetStatus handles GET /api/v1/devices/:id/status
func (h *DeviceHandler) GetStatus(c *gin.Context) {
	status, err := h.dashboard.DeviceStatus(c.Request.Context(), UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// GetOverview handles GET /api/v1/status. The first device is mirrored at
// the top level for single-device dashboards.
func (h *DeviceHandler) GetOverview(c *gin.Context) {
	all, err := h.dashboard.Overview(c.Request.Context(), UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{"devices": all, "count": len(all)}
	if len(all) > 0 {
		first := all[0]
		resp["device_id"] = first.DeviceID
		resp["estado_actual"] = first.Status
		resp["modo_automatico"] = first.AutoMode
		resp["is_raining"] = first.IsRaining
		resp["weather"] = first.Weather
	} else {
		resp["estado_actual"] = "No Asignado"
	}
	c.JSON(http.StatusOK, resp)
}

// SetManualStatus handles POST /api/v1/devices/:id/manual-status
func (h *DeviceHandler) SetManualStatus(c *gin.Context) {
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	device, err := h.liveness.SetManualStatus(c.Request.Context(), UserID(c), c.Param("id"), *req.Enabled)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Device status updated",
		"data":    device,
	})
}

// GetWeather handles GET /api/v1/weather
func (h *DeviceHandler) GetWeather(c *gin.Context) {
	c.JSON(http.StatusOK, h.dashboard.Weather(c.Request.Context(), UserID(c)))
}
