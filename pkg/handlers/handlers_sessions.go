package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// CreateSession creates a draft bid session
func (h *Handler) CreateSession(c *gin.Context) {
	var req struct {
		Name             string `json:"name"`
		Year             int    `json:"year"`
		BidWindowMinutes int    `json:"bid_window_minutes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	if req.BidWindowMinutes <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bid_window_minutes must be positive"})
		return
	}

	sess, err := h.Store.CreateSession(req.Name, req.Year, req.BidWindowMinutes)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": sess})
}

// ListSessions returns all sessions, newest first
func (h *Handler) ListSessions(c *gin.Context) {
	sessions, err := h.Store.ListSessions()
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// GetSession returns one session with its roster
func (h *Handler) GetSession(c *gin.Context) {
	sess, err := h.Store.GetSession(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess})
}

// DeleteSession removes a session that has not run
func (h *Handler) DeleteSession(c *gin.Context) {
	if err := h.Store.DeleteSession(c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Session deleted"})
}

// AddParticipants appends users to the session roster
func (h *Handler) AddParticipants(c *gin.Context) {
	var req struct {
		UserIDs []uint `json:"user_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.UserIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_ids is required"})
		return
	}

	sess, err := h.Store.AddParticipants(c.Param("id"), req.UserIDs, time.Now())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess})
}

// RemoveParticipants drops users from the session roster
func (h *Handler) RemoveParticipants(c *gin.Context) {
	var req struct {
		UserIDs []uint `json:"user_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.UserIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_ids is required"})
		return
	}

	sess, err := h.Store.RemoveParticipants(c.Param("id"), req.UserIDs)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess})
}

// ScheduleSession moves a draft session to scheduled
func (h *Handler) ScheduleSession(c *gin.Context) {
	sess, err := h.Store.Schedule(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess})
}

// StartSession activates the session and opens the first turn
func (h *Handler) StartSession(c *gin.Context) {
	sess, err := h.Store.Start(c.Param("id"), time.Now())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess})
}

// PauseSession freezes an active session
func (h *Handler) PauseSession(c *gin.Context) {
	sess, err := h.Store.Pause(c.Param("id"), time.Now())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess})
}

// ResumeSession reactivates a paused session with a fresh turn window
func (h *Handler) ResumeSession(c *gin.Context) {
	sess, err := h.Store.Resume(c.Param("id"), time.Now())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess})
}

// SkipTurn force-skips the current participant
func (h *Handler) SkipTurn(c *gin.Context) {
	sess, err := h.Store.SkipOrTimeout(c.Param("id"), time.Now(), true)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess})
}
