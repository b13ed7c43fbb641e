package httpHandler

import (
	"net/http"
	"strconv"

	"siar-server/usecases"

	"github.com/gin-gonic/gin"
)

type IrrigationHandler struct {
	irrigation  *usecases.IrrigationUseCase
	resolver    *usecases.ResolverUseCase
	consumption *usecases.ConsumptionUseCase
}

func NewIrrigationHandler(irrigation *usecases.IrrigationUseCase, resolver *usecases.ResolverUseCase, consumption *usecases.ConsumptionUseCase) *IrrigationHandler {
	return &IrrigationHandler{irrigation: irrigation, resolver: resolver, consumption: consumption}
}

type applyProfileRequest struct {
	ProfileID string `json:"profile_id" binding:"required"`
}

// ============= Profiles =============

// CreateProfile handles POST /api/v1/profiles
func (h *IrrigationHandler) CreateProfile(c *gin.Context) {
	var req usecases.ProfileInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.irrigation.CreateProfile(c.Request.Context(), UserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Profile created successfully", "data": p})
}

// GetProfiles handles GET /api/v1/profiles
func (h *IrrigationHandler) GetProfiles(c *gin.Context) {
	profiles, err := h.irrigation.ListProfiles(c.Request.Context(), UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": profiles, "count": len(profiles)})
}

// GetProfile handles GET /api/v1/profiles/:id
func (h *IrrigationHandler) GetProfile(c *gin.Context) {
	p, err := h.irrigation.GetProfile(c.Request.Context(), UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": p})
}

// UpdateProfile handles PUT /api/v1/profiles/:id
func (h *IrrigationHandler) UpdateProfile(c *gin.Context) {
	var req usecases.ProfileInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.irrigation.UpdateProfile(c.Request.Context(), UserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully", "data": p})
}

// DeleteProfile handles DELETE /api/v1/profiles/:id
func (h *IrrigationHandler) DeleteProfile(c *gin.Context) {
	if err := h.irrigation.DeleteProfile(c.Request.Context(), UserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile deleted successfully"})
}

// ============= Device configuration =============

// ApplyProfile handles POST /api/v1/devices/:id/profile
func (h *IrrigationHandler) ApplyProfile(c *gin.Context) {
	var req applyProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cfg, err := h.irrigation.ApplyProfile(c.Request.Context(), UserID(c), c.Param("id"), req.ProfileID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile applied", "data": cfg})
}

// SetAutoMode handles POST /api/v1/devices/:id/auto-mode
func (h *IrrigationHandler) SetAutoMode(c *gin.Context) {
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cfg, err := h.irrigation.SetAutoMode(c.Request.Context(), UserID(c), c.Param("id"), *req.Enabled)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Automatic mode updated", "data": cfg})
}

// GetConfiguration handles GET /api/v1/devices/:id/configuration
func (h *IrrigationHandler) GetConfiguration(c *gin.Context) {
	ctx := c.Request.Context()
	cfg, err := h.irrigation.Configuration(ctx, UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	payload, err := h.resolver.Preview(ctx, UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": cfg, "device_payload": payload})
}

// SaveSchedule handles POST /api/v1/devices/:id/schedule
func (h *IrrigationHandler) SaveSchedule(c *gin.Context) {
	var req usecases.ScheduleInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	s, err := h.irrigation.SaveSchedule(c.Request.Context(), UserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Schedule saved", "data": s, "dias": s.Days()})
}

// GetSchedule handles GET /api/v1/devices/:id/schedule
func (h *IrrigationHandler) GetSchedule(c *gin.Context) {
	s, err := h.irrigation.GetSchedule(c.Request.Context(), UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": s, "dias": s.Days()})
}

// ============= Readings, events, consumption =============

// GetLatestReading handles GET /api/v1/devices/:id/readings/latest
func (h *IrrigationHandler) GetLatestReading(c *gin.Context) {
	r, err := h.irrigation.LatestReading(c.Request.Context(), UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": r})
}

// GetEvents handles GET /api/v1/devices/:id/events?limit=
func (h *IrrigationHandler) GetEvents(c *gin.Context) {
	limit := 10
	if l := c.Query("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}
	events, err := h.irrigation.RecentEvents(c.Request.Context(), UserID(c), c.Param("id"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": events, "count": len(events)})
}

// GetConsumption handles GET /api/v1/devices/:id/consumption
func (h *IrrigationHandler) GetConsumption(c *gin.Context) {
	total, err := h.consumption.Total(c.Request.Context(), UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": total})
}

// GetWeeklyConsumption handles GET /api/v1/devices/:id/consumption/weekly
func (h *IrrigationHandler) GetWeeklyConsumption(c *gin.Context) {
	week, err := h.consumption.Weekly(c.Request.Context(), UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": week})
}
