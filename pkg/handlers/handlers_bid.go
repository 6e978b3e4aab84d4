package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/firegroundsoftware/shiftbid-api-go/pkg/models"
)

// SubmitBid places the authenticated participant's bid for a station
// slot. The user id comes from the token, never from the body: a
// participant can only spend their own turn.
func (h *Handler) SubmitBid(c *gin.Context) {
	var req struct {
		StationID uint   `json:"station_id"`
		Shift     string `json:"shift"`
		Position  string `json:"position"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetUint("userID")
	sess, err := h.Store.SubmitBid(models.SubmitBidRequest{
		SessionID: c.Param("id"),
		UserID:    userID,
		StationID: req.StationID,
		Shift:     models.Shift(req.Shift),
		Position:  req.Position,
	}, time.Now())
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.Log.WithFields(map[string]interface{}{
		"session": sess.ID,
		"user":    userID,
		"station": req.StationID,
		"shift":   req.Shift,
	}).Info("bid accepted")
	c.JSON(http.StatusOK, gin.H{"session": sess})
}

// GetTurn reports whose turn it is and how long they have left
func (h *Handler) GetTurn(c *gin.Context) {
	info, err := h.Store.TurnInfo(c.Param("id"), time.Now())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"turn": info})
}
