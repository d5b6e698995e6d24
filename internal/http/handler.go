package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"bus-tracker/internal/http/middleware"
	"bus-tracker/internal/live"
	"bus-tracker/internal/model"
	"bus-tracker/internal/service"
)

const jsonContentType = "application/json; charset=utf-8"

type PositionService interface {
	Record(ctx context.Context, busID int64, lat, lon float64) (*model.PositionSample, error)
	Latest(ctx context.Context, busID int64) (*model.PositionSample, error)
}

type SnapshotBuilder interface {
	Build(ctx context.Context, busID int64) (*service.Snapshot, error)
}

// LiveHub is the dispatcher side of a live channel.
type LiveHub interface {
	Connect(ctx context.Context, busID int64, ch live.Channel)
	Refresh(ctx context.Context, busID int64, ch live.Channel)
	Disconnect(busID int64, ch live.Channel)
}

// IngestRecorder counts stored samples by source. A nil recorder is allowed.
type IngestRecorder interface {
	PositionRecorded(source string)
}

type Handler struct {
	positions  PositionService
	snapshots  SnapshotBuilder
	hub        LiveHub
	metrics    IngestRecorder
	upgrader   websocket.Upgrader
	sendBuffer int
	log        zerolog.Logger
}

func NewHandler(
	positions PositionService,
	snapshots SnapshotBuilder,
	hub LiveHub,
	metrics IngestRecorder,
	sendBuffer int,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		positions: positions,
		snapshots: snapshots,
		hub:       hub,
		metrics:   metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		sendBuffer: sendBuffer,
		log:        log,
	}
}

func (h *Handler) Register(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	// Websocket clients do not follow redirects, so the trailing-slash form
	// is routed explicitly.
	r.GET("/ws/buses/:bus_id/live", h.liveChannel)
	r.GET("/ws/buses/:bus_id/live/", h.liveChannel)

	buses := r.Group("/buses")
	{
		buses.GET("/:id/live", h.getLiveSnapshot)
		buses.GET("/:id/positions/latest", h.getLatestPosition)
	}

	ingest := r.Group("/buses")
	ingest.Use(authMiddleware)
	{
		ingest.POST("/:id/positions", h.recordPosition)
	}
}

func (h *Handler) liveChannel(c *gin.Context) {
	busID, err := parseID(c.Param("bus_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid bus id"))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Int64("bus_id", busID).Msg("websocket upgrade failed")
		return
	}

	ctx := c.Request.Context()
	client := live.NewClient(conn, h.sendBuffer, h.log)
	h.hub.Connect(ctx, busID, client)
	client.Run(
		func() { h.hub.Refresh(ctx, busID, client) },
		func() { h.hub.Disconnect(busID, client) },
	)
}

func (h *Handler) getLiveSnapshot(c *gin.Context) {
	busID, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid bus id"))
		return
	}

	snap, err := h.snapshots.Build(c.Request.Context(), busID)
	status := http.StatusOK
	switch {
	case err == nil:
	case service.IsBusNotFound(err):
		snap, status = service.NotFoundDocument(), http.StatusNotFound
	default:
		h.handleError(c, err)
		return
	}

	payload, err := snap.Encode()
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Data(status, jsonContentType, payload)
}

func (h *Handler) getLatestPosition(c *gin.Context) {
	busID, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid bus id"))
		return
	}

	sample, err := h.positions.Latest(c.Request.Context(), busID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if sample == nil {
		c.JSON(http.StatusNotFound, errorResponse("no position recorded"))
		return
	}
	c.JSON(http.StatusOK, successResponse(sample))
}

func (h *Handler) recordPosition(c *gin.Context) {
	busID, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid bus id"))
		return
	}

	var req struct {
		Latitude  *float64 `json:"latitude" binding:"required,latitude"`
		Longitude *float64 `json:"longitude" binding:"required,longitude"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	sample, err := h.positions.Record(c.Request.Context(), busID, *req.Latitude, *req.Longitude)
	if err != nil {
		h.handleError(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.PositionRecorded("http")
	}
	event := h.log.Debug().Int64("bus_id", busID).Int64("sample_id", sample.ID)
	if principal, ok := middleware.MustPrincipal(c); ok {
		event = event.Str("user_id", principal.UserID).Bool("driver", principal.IsDriver())
	}
	event.Msg("position recorded")

	c.JSON(http.StatusCreated, successResponse(sample))
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func parseID(raw string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
}

func successResponse(data interface{}) gin.H {
	return gin.H{
		"data": data,
	}
}

func errorResponse(message string) gin.H {
	return gin.H{
		"error": message,
	}
}
