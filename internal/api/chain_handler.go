package api

import (
	"net/http"

	"ClubVote/internal/model"
	"ClubVote/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ChainHandler 链上投票活动接口，与本地活动接口分开
type ChainHandler struct {
	events *service.EventService
	logger *logrus.Logger
}

func NewChainHandler(events *service.EventService, logger *logrus.Logger) *ChainHandler {
	return &ChainHandler{events: events, logger: logger}
}

// Status GET /api/chain/status
func (h *ChainHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"enabled":   h.events.ChainEnabled(),
		"connected": h.events.WalletConnected(c.Request.Context()),
	})
}

// Connect POST /api/chain/connect
func (h *ChainHandler) Connect(c *gin.Context) {
	if err := h.events.ConnectWallet(c.Request.Context()); err != nil {
		respondError(c, h.logger, "ConnectWallet", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"connected": true})
}

// ListEvents GET /api/chain/events
func (h *ChainHandler) ListEvents(c *gin.Context) {
	events, err := h.events.ListChainEvents(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "ListChainEvents", err)
		return
	}
	c.JSON(http.StatusOK, events)
}

// CreateEvent POST /api/chain/events
func (h *ChainHandler) CreateEvent(c *gin.Context) {
	var draft model.EventDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	handle, err := h.events.CreateChainEvent(c.Request.Context(), draft)
	if err != nil {
		respondError(c, h.logger, "CreateChainEvent", err)
		return
	}
	c.JSON(http.StatusCreated, handle)
}

type finalizeRequest struct {
	Winner string `json:"winner"`
}

// FinalizeEvent POST /api/chain/events/:id/finalize
func (h *ChainHandler) FinalizeEvent(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req finalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	handle, err := h.events.FinalizeChainEvent(c.Request.Context(), id, req.Winner)
	if err != nil {
		respondError(c, h.logger, "FinalizeChainEvent", err)
		return
	}
	c.JSON(http.StatusOK, handle)
}
