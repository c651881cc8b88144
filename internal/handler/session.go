package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"mapchat/internal/mapview"
	"mapchat/internal/model"
	"mapchat/internal/service"
	"mapchat/internal/session"
	"mapchat/internal/storage"
	"mapchat/internal/transport"
	"mapchat/internal/utils"
	"mapchat/pkg/logger"

	"github.com/gin-gonic/gin"
)

// SessionHandler exposes one ChatSession to a browser page.
type SessionHandler struct {
	session *service.ChatSession
	hub     *eventHub

	heartbeat time.Duration
}

func NewSessionHandler(chatSession *service.ChatSession) *SessionHandler {
	return &SessionHandler{
		session:   chatSession,
		hub:       newEventHub(),
		heartbeat: 30 * time.Second,
	}
}

func (h *SessionHandler) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, h.session.Snapshot())
}

func (h *SessionHandler) AttachFile(c *gin.Context) {
	slot, ok := slotParam(c)
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field \"file\" is required"})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	attachment, err := h.session.AttachFile(c.Request.Context(), slot, header.Filename, file)
	if err != nil {
		logger.Warnf("attach %s to slot %d: %v", header.Filename, slot, err)
		c.JSON(statusFor(err), gin.H{"error": err.Error(), "code": codeFor(err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"slot":    slot,
		"name":    attachment.Name,
		"bytes":   len(attachment.Content),
		"session": h.session.Snapshot(),
	})
}

func (h *SessionHandler) ClearSlot(c *gin.Context) {
	slot, ok := slotParam(c)
	if !ok {
		return
	}

	if err := h.session.ClearSlot(slot); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error(), "code": codeFor(err)})
		return
	}

	c.JSON(http.StatusOK, h.session.Snapshot())
}

func (h *SessionHandler) SetSearchMode(c *gin.Context) {
	var req model.SearchModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	applied := h.session.SetSearchMode(req.Enabled)
	c.JSON(http.StatusOK, gin.H{
		"applied": applied,
		"session": h.session.Snapshot(),
	})
}

func (h *SessionHandler) SendMessage(c *gin.Context) {
	var req model.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// the send runs to completion even if the page goes away
	ctx := context.WithoutCancel(c.Request.Context())
	events, err := h.session.SendMessage(ctx, req.UserInput)
	h.hub.publish(events...)

	resp := model.SendMessageResponse{
		SessionID: h.session.ID(),
		Events:    events,
		Map:       mapView(h.session.Map()),
	}
	if err != nil {
		resp.Error = codeFor(err)
		c.JSON(statusFor(err), resp)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *SessionHandler) Reset(c *gin.Context) {
	h.session.Reset()
	c.JSON(http.StatusOK, h.session.Snapshot())
}

func (h *SessionHandler) GetMap(c *gin.Context) {
	c.JSON(http.StatusOK, mapView(h.session.Map()))
}

// ServeMap returns the document behind a visible surface. The CSP sandbox
// gives it an opaque origin, so scripts inside the map cannot reach the
// host page even when it is opened directly.
func (h *SessionHandler) ServeMap(c *gin.Context) {
	doc, err := h.session.Viewer().Document(c.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) {
			c.Status(http.StatusNotFound)
			return
		}
		logger.Errorf("serve map %s: %v", c.Param("id"), err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Security-Policy", "sandbox "+mapview.Sandbox)
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("Cache-Control", "no-store")
	c.Header("Referrer-Policy", "no-referrer")
	c.Data(http.StatusOK, mapview.ContentType+"; charset=utf-8", doc)
}

// StreamEvents pushes every display event to the page over SSE.
func (h *SessionHandler) StreamEvents(c *gin.Context) {
	sseWriter := utils.NewSSEWriter(c.Writer)
	events := h.hub.subscribe()
	defer h.hub.unsubscribe(events)

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	if err := sseWriter.WriteJSON("status", gin.H{"type": "connected", "session_id": h.session.ID()}); err != nil {
		return
	}

	ctx := c.Request.Context()
	for {
		select {
		case ev := <-events:
			if err := sseWriter.WriteJSON("message", ev); err != nil {
				logger.Warnf("write SSE event: %v", err)
				return
			}
		case <-ticker.C:
			if err := sseWriter.WriteJSON("heartbeat", gin.H{"timestamp": time.Now().Unix()}); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func mapView(surface *mapview.Surface) *model.MapView {
	if surface == nil {
		return &model.MapView{Embed: mapview.PlaceholderMarkup(), Empty: true}
	}
	return &model.MapView{
		SurfaceID: surface.ID,
		URL:       surface.URL,
		Embed:     surface.Embed(),
	}
}

func slotParam(c *gin.Context) (int, bool) {
	slot, err := strconv.Atoi(c.Param("slot"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "slot must be an integer"})
		return 0, false
	}
	return slot, true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrEmptyInput),
		errors.Is(err, service.ErrNoAttachment),
		errors.Is(err, service.ErrSlotOrder),
		errors.Is(err, session.ErrSlotRange):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrDecodeFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrBusy), errors.Is(err, service.ErrLocked):
		return http.StatusConflict
	case errors.Is(err, transport.ErrNetwork), errors.Is(err, transport.ErrDecode):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func codeFor(err error) string {
	switch {
	case errors.Is(err, service.ErrEmptyInput):
		return "empty_input"
	case errors.Is(err, service.ErrNoAttachment):
		return "no_attachment"
	case errors.Is(err, service.ErrSlotOrder):
		return "slot_order"
	case errors.Is(err, session.ErrSlotRange):
		return "slot_range"
	case errors.Is(err, service.ErrDecodeFailed):
		return "decode_failed"
	case errors.Is(err, service.ErrBusy):
		return "busy"
	case errors.Is(err, service.ErrLocked):
		return "locked"
	case errors.Is(err, transport.ErrNetwork):
		return "network"
	case errors.Is(err, transport.ErrDecode):
		return "decode"
	default:
		return "internal"
	}
}
