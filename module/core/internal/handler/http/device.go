package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pidulll/capstone/module/core/domain"
	"github.com/pidulll/capstone/module/core/service"
)

type locationService interface {
	GetLatest(ctx context.Context, deviceID string) (*domain.LocationSample, error)
	GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.DeviceLocation, error)
	GetAllDevices(ctx context.Context) ([]domain.Device, error)
}

type zoneService interface {
	ListZones(ctx context.Context, deviceID string) ([]domain.Geofence, error)
	SetZoneActive(ctx context.Context, deviceID, zoneID string, active bool) error
}

type geofenceService interface {
	EvaluateDevice(ctx context.Context, deviceID string) (*domain.TransitionEvent, error)
	Snapshot(deviceID string) (domain.MembershipSnapshot, bool)
	Forget(deviceID string) bool
}

type locationResponse struct {
	DeviceID  string  `json:"device_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp int64   `json:"timestamp"`
}

type zoneResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Radius    float64 `json:"radius"`
	IsActive  bool    `json:"is_active"`
	CreatedAt int64   `json:"created_at"`
}

type statusResponse struct {
	DeviceID          string                  `json:"device_id"`
	Status            domain.MembershipStatus `json:"status"`
	LastEnteredZoneID string                  `json:"last_entered_zone_id,omitempty"`
	ContainedZoneIDs  []string                `json:"contained_zone_ids"`
	EvaluatedAt       int64                   `json:"evaluated_at,omitempty"`
}

type eventResponse struct {
	ID         string                   `json:"id"`
	Event      domain.GeofenceEventType `json:"event"`
	ZoneID     string                   `json:"zone_id,omitempty"`
	OccurredAt int64                    `json:"occurred_at"`
}

type evaluateResponse struct {
	Event  *eventResponse `json:"event"`
	Status statusResponse `json:"status"`
}

type setActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

type DeviceHandler struct {
	locationSvc locationService
	zoneSvc     zoneService
	geofenceSvc geofenceService
}

func NewDeviceHandler(locationSvc locationService, zoneSvc zoneService, geofenceSvc geofenceService) *DeviceHandler {
	return &DeviceHandler{
		locationSvc: locationSvc,
		zoneSvc:     zoneSvc,
		geofenceSvc: geofenceSvc,
	}
}

func (h *DeviceHandler) Register(r *gin.RouterGroup) {
	r.GET("/devices", h.GetAllDevices)
	r.GET("/devices/:device_id/location", h.GetLatestLocation)
	r.GET("/devices/:device_id/history", h.GetHistory)
	r.GET("/devices/:device_id/zones", h.GetZones)
	r.PUT("/devices/:device_id/zones/:zone_id/active", h.SetZoneActive)
	r.GET("/devices/:device_id/status", h.GetStatus)
	r.DELETE("/devices/:device_id/status", h.ResetStatus)
	r.POST("/devices/:device_id/evaluate", h.Evaluate)
}

func (h *DeviceHandler) GetAllDevices(c *gin.Context) {
	devices, err := h.locationSvc.GetAllDevices(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch devices"})
		return
	}

	if devices == nil {
		devices = []domain.Device{}
	}
	c.JSON(http.StatusOK, devices)
}

func (h *DeviceHandler) GetLatestLocation(c *gin.Context) {
	deviceID := c.Param("device_id")

	s, err := h.locationSvc.GetLatest(c.Request.Context(), deviceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch location"})
		return
	}
	if s == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no location for device"})
		return
	}

	c.JSON(http.StatusOK, toLocationResponse(deviceID, s))
}

func (h *DeviceHandler) GetHistory(c *gin.Context) {
	deviceID := c.Param("device_id")

	start, err := strconv.ParseInt(c.Query("start"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start parameter"})
		return
	}

	end, err := strconv.ParseInt(c.Query("end"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end parameter"})
		return
	}

	query := &domain.HistoryQuery{
		DeviceID: deviceID,
		Start:    time.Unix(start, 0),
		End:      time.Unix(end, 0),
	}

	locations, err := h.locationSvc.GetHistory(c.Request.Context(), query)
	if errors.Is(err, domain.ErrInvalidRange) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must not be before start"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch history"})
		return
	}

	results := make([]locationResponse, len(locations))
	for i, dl := range locations {
		results[i] = toLocationResponse(dl.DeviceID, &dl.Sample)
	}
	c.JSON(http.StatusOK, results)
}

func (h *DeviceHandler) GetZones(c *gin.Context) {
	zones, err := h.zoneSvc.ListZones(c.Request.Context(), c.Param("device_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch zones"})
		return
	}

	results := make([]zoneResponse, len(zones))
	for i, z := range zones {
		results[i] = zoneResponse{
			ID:        z.ID,
			Name:      z.Name,
			Latitude:  z.Center.Lat,
			Longitude: z.Center.Lon,
			Radius:    z.Radius,
			IsActive:  z.IsActive,
			CreatedAt: z.CreatedAt.UnixMilli(),
		}
	}
	c.JSON(http.StatusOK, results)
}

func (h *DeviceHandler) SetZoneActive(c *gin.Context) {
	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be {\"active\": bool}"})
		return
	}

	err := h.zoneSvc.SetZoneActive(c.Request.Context(), c.Param("device_id"), c.Param("zone_id"), *req.Active)
	if errors.Is(err, domain.ErrZoneNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "zone not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update zone"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *DeviceHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.status(c.Param("device_id")))
}

// ResetStatus discards the device's membership history so the next cycle
// starts from unknown without firing an event.
func (h *DeviceHandler) ResetStatus(c *gin.Context) {
	if !h.geofenceSvc.Forget(c.Param("device_id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "device has no membership state"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DeviceHandler) Evaluate(c *gin.Context) {
	deviceID := c.Param("device_id")

	event, err := h.geofenceSvc.EvaluateDevice(c.Request.Context(), deviceID)
	if errors.Is(err, service.ErrZoneFetch) || errors.Is(err, service.ErrLocationFetch) {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "evaluation failed"})
		return
	}

	resp := evaluateResponse{Status: h.status(deviceID)}
	if event != nil {
		resp.Event = &eventResponse{
			ID:         event.ID,
			Event:      event.Event,
			ZoneID:     event.ZoneID,
			OccurredAt: event.OccurredAt.UnixMilli(),
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DeviceHandler) status(deviceID string) statusResponse {
	snap, ok := h.geofenceSvc.Snapshot(deviceID)
	if !ok {
		return statusResponse{DeviceID: deviceID, Status: domain.StatusUnknown, ContainedZoneIDs: []string{}}
	}

	resp := statusResponse{
		DeviceID:          deviceID,
		Status:            snap.Status,
		LastEnteredZoneID: snap.LastEnteredZoneID,
		ContainedZoneIDs:  snap.ContainedZoneIDs,
	}
	if !snap.EvaluatedAt.IsZero() {
		resp.EvaluatedAt = snap.EvaluatedAt.UnixMilli()
	}
	return resp
}

func toLocationResponse(deviceID string, s *domain.LocationSample) locationResponse {
	return locationResponse{
		DeviceID:  deviceID,
		Latitude:  s.Coordinate.Lat,
		Longitude: s.Coordinate.Lon,
		Timestamp: s.Timestamp.UnixMilli(),
	}
}
