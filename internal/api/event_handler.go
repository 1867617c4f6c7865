package api

import (
	"net/http"

	"ClubVote/internal/model"
	"ClubVote/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// EventHandler 本地选举活动与名单编辑接口
type EventHandler struct {
	events *service.EventService
	logger *logrus.Logger
}

func NewEventHandler(events *service.EventService, logger *logrus.Logger) *EventHandler {
	return &EventHandler{events: events, logger: logger}
}

func eventViews(svc *service.EventService, events []*model.Event) []service.EventView {
	out := make([]service.EventView, 0, len(events))
	for _, ev := range events {
		out = append(out, svc.View(ev))
	}
	return out
}

// ListEvents GET /api/events
func (h *EventHandler) ListEvents(c *gin.Context) {
	events, err := h.events.ListEvents(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "ListEvents", err)
		return
	}
	c.JSON(http.StatusOK, eventViews(h.events, events))
}

// ListOngoing GET /api/events/ongoing
func (h *EventHandler) ListOngoing(c *gin.Context) {
	events, err := h.events.Ongoing(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "ListOngoing", err)
		return
	}
	c.JSON(http.StatusOK, eventViews(h.events, events))
}

// GetEvent GET /api/events/:id
func (h *EventHandler) GetEvent(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ev, err := h.events.GetEvent(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, "GetEvent", err)
		return
	}
	c.JSON(http.StatusOK, h.events.View(ev))
}

// CreateEvent POST /api/events
func (h *EventHandler) CreateEvent(c *gin.Context) {
	var draft model.EventDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ev, err := h.events.CreateEvent(c.Request.Context(), draft)
	if err != nil {
		respondError(c, h.logger, "CreateEvent", err)
		return
	}
	c.JSON(http.StatusCreated, h.events.View(ev))
}

// UpdateEvent PUT /api/events/:id
func (h *EventHandler) UpdateEvent(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var draft model.EventDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ev, err := h.events.UpdateEvent(c.Request.Context(), id, draft)
	if err != nil {
		respondError(c, h.logger, "UpdateEvent", err)
		return
	}
	c.JSON(http.StatusOK, h.events.View(ev))
}

// DeleteEvent DELETE /api/events/:id
func (h *EventHandler) DeleteEvent(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.events.DeleteEvent(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, "DeleteEvent", err)
		return
	}
	c.Status(http.StatusNoContent)
}

type addLineItemRequest struct {
	ClubID uint64 `json:"club_id" binding:"required"`
}

type positionRequest struct {
	Position string `json:"position"`
}

// AddLineItem POST /api/events/:id/line-items
func (h *EventHandler) AddLineItem(c *gin.Context) {
	var req addLineItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.edit(c, "AddLineItem", func(ev *model.Event) error {
		return h.events.AddLineItem(c.Request.Context(), ev, req.ClubID)
	})
}

// SetLineItemPosition PUT /api/events/:id/line-items/:index/position
func (h *EventHandler) SetLineItemPosition(c *gin.Context) {
	idx, ok := paramIndex(c)
	if !ok {
		return
	}
	var req positionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.edit(c, "SetLineItemPosition", func(ev *model.Event) error {
		return h.events.SetLineItemPosition(c.Request.Context(), ev, idx, req.Position)
	})
}

// ToggleCandidate POST /api/events/:id/line-items/:index/candidates/:candidate_id/toggle
func (h *EventHandler) ToggleCandidate(c *gin.Context) {
	idx, ok := paramIndex(c)
	if !ok {
		return
	}
	candID, ok := paramID(c, "candidate_id")
	if !ok {
		return
	}
	h.edit(c, "ToggleCandidate", func(ev *model.Event) error {
		return h.events.ToggleCandidate(c.Request.Context(), ev, idx, candID)
	})
}

// RemoveLineItem DELETE /api/events/:id/line-items/:index
func (h *EventHandler) RemoveLineItem(c *gin.Context) {
	idx, ok := paramIndex(c)
	if !ok {
		return
	}
	h.edit(c, "RemoveLineItem", func(ev *model.Event) error {
		return h.events.RemoveLineItem(ev, idx)
	})
}

// CandidateOptions GET /api/events/:id/line-items/:index/candidates
func (h *EventHandler) CandidateOptions(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	idx, ok := paramIndex(c)
	if !ok {
		return
	}
	ev, err := h.events.GetEvent(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, "CandidateOptions", err)
		return
	}
	if idx < 0 || idx >= len(ev.LineItems) {
		respondError(c, h.logger, "CandidateOptions", service.ErrLineItemIndex)
		return
	}
	cands, err := h.events.CandidateOptions(c.Request.Context(), ev.LineItems[idx])
	if err != nil {
		respondError(c, h.logger, "CandidateOptions", err)
		return
	}
	c.JSON(http.StatusOK, cands)
}

// PublishEvent POST /api/events/:id/publish 将本地活动登记到链上
func (h *EventHandler) PublishEvent(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	handle, err := h.events.PublishEvent(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, "PublishEvent", err)
		return
	}
	c.JSON(http.StatusOK, handle)
}

func (h *EventHandler) edit(c *gin.Context, op string, fn func(ev *model.Event) error) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ev, err := h.events.EditEvent(c.Request.Context(), id, fn)
	if err != nil {
		respondError(c, h.logger, op, err)
		return
	}
	c.JSON(http.StatusOK, h.events.View(ev))
}
