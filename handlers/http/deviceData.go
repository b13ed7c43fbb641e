package httpHandler

import (
	"net/http"

	"siar-server/usecases"

	"github.com/gin-gonic/gin"
)

// DeviceAPIHandler serves the endpoints polled by the field devices. Every
// call is authenticated by device_key alone.
type DeviceAPIHandler struct {
	liveness   *usecases.LivenessUseCase
	resolver   *usecases.ResolverUseCase
	irrigation *usecases.IrrigationUseCase
}

func NewDeviceAPIHandler(liveness *usecases.LivenessUseCase, resolver *usecases.ResolverUseCase, irrigation *usecases.IrrigationUseCase) *DeviceAPIHandler {
	return &DeviceAPIHandler{liveness: liveness, resolver: resolver, irrigation: irrigation}
}

type readingRequest struct {
	DeviceKey string   `json:"device_key"`
	Humidity  *float64 `json:"humedad" binding:"required"`
}

type statusRequest struct {
	DeviceKey string `json:"device_key"`
	Status    string `json:"status" binding:"required"`
}

type irrigationLogRequest struct {
	DeviceKey string   `json:"device_key"`
	Duration  *float64 `json:"duracion_seg" binding:"required"`
	Humidity  *float64 `json:"humedad_actual"`
}

func deviceBadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": msg})
}

// GetConfiguration handles GET /api/configuracion?device_key=
func (h *DeviceAPIHandler) GetConfiguration(c *gin.Context) {
	key := c.Query("device_key")
	if key == "" {
		key = c.GetHeader("X-Device-Key")
	}

	cfg, err := h.resolver.ForDeviceKey(c.Request.Context(), key)
	if err != nil {
		respondDeviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// PostReading handles POST /api/lectura
func (h *DeviceAPIHandler) PostReading(c *gin.Context) {
	var req readingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		deviceBadRequest(c, "Falta el dato 'humedad'")
		return
	}

	if _, err := h.liveness.RecordReading(c.Request.Context(), req.DeviceKey, *req.Humidity); err != nil {
		respondDeviceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "recibido"})
}

// PostStatus handles POST /api/device/status
func (h *DeviceAPIHandler) PostStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		deviceBadRequest(c, "Faltan 'device_key' o 'status'")
		return
	}

	device, err := h.liveness.ReportStatus(c.Request.Context(), req.DeviceKey, req.Status)
	if err != nil {
		respondDeviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Estado actualizado a " + string(device.Status),
	})
}

// PostIrrigationLog handles POST /api/log_riego
func (h *DeviceAPIHandler) PostIrrigationLog(c *gin.Context) {
	var req irrigationLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		deviceBadRequest(c, "Falta el dato 'duracion_seg'")
		return
	}

	ev, err := h.irrigation.LogIrrigation(c.Request.Context(), req.DeviceKey, *req.Duration, req.Humidity)
	if err != nil {
		respondDeviceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "ok", "tipo_evento": ev.Type})
}
