package api

import (
	"net/http"
	"strconv"

	"ClubVote/internal/model"
	"ClubVote/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// DirectoryHandler 社团、候选人、申请与首页统计接口
type DirectoryHandler struct {
	dir    *service.DirectoryService
	events *service.EventService
	logger *logrus.Logger
}

func NewDirectoryHandler(dir *service.DirectoryService, events *service.EventService, logger *logrus.Logger) *DirectoryHandler {
	return &DirectoryHandler{dir: dir, events: events, logger: logger}
}

// Dashboard GET /api/dashboard
func (h *DirectoryHandler) Dashboard(c *gin.Context) {
	d, err := h.events.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "Dashboard", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"club_count":      d.ClubCount,
		"candidate_count": d.CandidateCount,
		"ongoing_events":  eventViews(h.events, d.OngoingEvents),
	})
}

// ListClubs GET /api/clubs
func (h *DirectoryHandler) ListClubs(c *gin.Context) {
	clubs, err := h.dir.ListClubs(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "ListClubs", err)
		return
	}
	c.JSON(http.StatusOK, clubs)
}

// GetClub GET /api/clubs/:id
func (h *DirectoryHandler) GetClub(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	club, err := h.dir.GetClub(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, "GetClub", err)
		return
	}
	c.JSON(http.StatusOK, club)
}

// CreateClub POST /api/clubs
func (h *DirectoryHandler) CreateClub(c *gin.Context) {
	var in service.ClubInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	club, err := h.dir.CreateClub(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, "CreateClub", err)
		return
	}
	c.JSON(http.StatusCreated, club)
}

// UpdateClub PATCH /api/clubs/:id
func (h *DirectoryHandler) UpdateClub(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var patch model.ClubPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	club, err := h.dir.UpdateClub(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, h.logger, "UpdateClub", err)
		return
	}
	c.JSON(http.StatusOK, club)
}

// DeleteClub DELETE /api/clubs/:id
func (h *DirectoryHandler) DeleteClub(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.dir.DeleteClub(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, "DeleteClub", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListCandidates GET /api/candidates?name=&club_id=&position=
func (h *DirectoryHandler) ListCandidates(c *gin.Context) {
	filter := service.CandidateFilter{Name: c.Query("name"), Position: c.Query("position")}
	if raw := c.Query("club_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "club_id must be a positive integer"})
			return
		}
		filter.ClubID = id
	}
	cands, err := h.dir.SearchCandidates(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, "ListCandidates", err)
		return
	}
	c.JSON(http.StatusOK, cands)
}

// CreateCandidate POST /api/candidates
func (h *DirectoryHandler) CreateCandidate(c *gin.Context) {
	var in service.CandidateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cand, err := h.dir.CreateCandidate(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, "CreateCandidate", err)
		return
	}
	c.JSON(http.StatusCreated, cand)
}

// UpdateCandidate PATCH /api/candidates/:id
func (h *DirectoryHandler) UpdateCandidate(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var patch model.CandidatePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cand, err := h.dir.UpdateCandidate(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, h.logger, "UpdateCandidate", err)
		return
	}
	c.JSON(http.StatusOK, cand)
}

// DeleteCandidate DELETE /api/candidates/:id
func (h *DirectoryHandler) DeleteCandidate(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.dir.DeleteCandidate(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, "DeleteCandidate", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListApplications GET /api/applications
func (h *DirectoryHandler) ListApplications(c *gin.Context) {
	apps, err := h.dir.ListApplications(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "ListApplications", err)
		return
	}
	c.JSON(http.StatusOK, apps)
}

// SubmitApplication POST /api/applications
func (h *DirectoryHandler) SubmitApplication(c *gin.Context) {
	var in service.CandidateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	app, err := h.dir.SubmitApplication(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, "SubmitApplication", err)
		return
	}
	c.JSON(http.StatusCreated, app)
}

// ApproveApplication POST /api/applications/:id/approve
func (h *DirectoryHandler) ApproveApplication(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	cand, err := h.dir.ApproveApplication(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, "ApproveApplication", err)
		return
	}
	c.JSON(http.StatusOK, cand)
}

// RejectApplication POST /api/applications/:id/reject
func (h *DirectoryHandler) RejectApplication(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	app, err := h.dir.RejectApplication(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, "RejectApplication", err)
		return
	}
	c.JSON(http.StatusOK, app)
}

// DeleteApplication DELETE /api/applications/:id
func (h *DirectoryHandler) DeleteApplication(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.dir.DeleteApplication(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, "DeleteApplication", err)
		return
	}
	c.Status(http.StatusNoContent)
}
