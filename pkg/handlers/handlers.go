package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/firegroundsoftware/shiftbid-api-go/pkg/auth"
	"github.com/firegroundsoftware/shiftbid-api-go/pkg/database"
	"github.com/firegroundsoftware/shiftbid-api-go/pkg/engine"
	"github.com/firegroundsoftware/shiftbid-api-go/pkg/store"
)

// Handler contains dependencies for the route handlers
type Handler struct {
	DB    *gorm.DB
	Store *store.Store
	Log   *logrus.Logger
}

// AuthMiddleware verifies the JWT token and stashes the caller's claims
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		// Strip "Bearer " if present
		if len(token) > 7 && token[:7] == "Bearer " {
			token = token[7:]
		}

		claims, err := auth.VerifyToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Set("userID", claims.UserID)
		c.Set("username", claims.Username)
		c.Set("isAdmin", claims.IsAdmin)
		c.Next()
	}
}

// AdminMiddleware rejects callers whose token lacks the admin flag
func (h *Handler) AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool("isAdmin") {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// respondError maps engine errors to their HTTP status and everything
// else to 404/500.
func (h *Handler) respondError(c *gin.Context, err error) {
	var ee *engine.Error
	if errors.As(err, &ee) {
		c.JSON(ee.Kind.HTTPStatus(), gin.H{"error": ee.Detail, "kind": string(ee.Kind)})
		return
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	h.Log.WithError(err).Error("internal error")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

// Login authenticates a user and issues a JWT
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user database.User
	if err := h.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := auth.CreateToken(&user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer", "user": user})
}

// CreateUser adds a roster member
func (h *Handler) CreateUser(c *gin.Context) {
	var req struct {
		Username       string  `json:"username"`
		Password       string  `json:"password"`
		FullName       string  `json:"full_name"`
		IsAdmin        bool    `json:"is_admin"`
		SeniorityScore float64 `json:"seniority_score"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	user := database.User{
		Username:       req.Username,
		PasswordHash:   hash,
		FullName:       req.FullName,
		IsAdmin:        req.IsAdmin,
		SeniorityScore: req.SeniorityScore,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Could not create user"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

// ListUsers returns all users ordered by seniority
func (h *Handler) ListUsers(c *gin.Context) {
	var users []database.User
	if err := h.DB.Order("seniority_score desc").Find(&users).Error; err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// CreateStation adds a station
func (h *Handler) CreateStation(c *gin.Context) {
	var req struct {
		Name      string `json:"name"`
		Number    int    `json:"number"`
		Address   string `json:"address"`
		CapacityA int    `json:"capacity_a"`
		CapacityB int    `json:"capacity_b"`
		CapacityC int    `json:"capacity_c"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	station := database.Station{
		Name:      req.Name,
		Number:    req.Number,
		Address:   req.Address,
		IsActive:  true,
		CapacityA: req.CapacityA,
		CapacityB: req.CapacityB,
		CapacityC: req.CapacityC,
	}
	if err := h.DB.Create(&station).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Could not create station"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"station": station})
}

// ListStations returns all stations with their current occupancy
func (h *Handler) ListStations(c *gin.Context) {
	var stations []database.Station
	if err := h.DB.Order("number").Find(&stations).Error; err != nil {
		h.respondError(c, err)
		return
	}

	type occupancy struct {
		StationID uint   `json:"station_id"`
		Shift     string `json:"shift"`
		Count     int    `json:"count"`
	}
	var occ []occupancy
	h.DB.Model(&database.StationAssignment{}).
		Select("station_id, shift, count(*) as count").
		Group("station_id, shift").
		Scan(&occ)

	counts := make(map[uint]map[string]int)
	for _, o := range occ {
		if counts[o.StationID] == nil {
			counts[o.StationID] = make(map[string]int)
		}
		counts[o.StationID][o.Shift] = o.Count
	}

	out := make([]gin.H, 0, len(stations))
	for _, st := range stations {
		out = append(out, gin.H{
			"station":   st,
			"occupancy": counts[st.ID],
		})
	}
	c.JSON(http.StatusOK, gin.H{"stations": out})
}

// UpdateStation changes a station's capacity or active flag
func (h *Handler) UpdateStation(c *gin.Context) {
	id := c.Param("id")
	var req struct {
		IsActive  *bool `json:"is_active"`
		CapacityA *int  `json:"capacity_a"`
		CapacityB *int  `json:"capacity_b"`
		CapacityC *int  `json:"capacity_c"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.CapacityA != nil {
		updates["capacity_a"] = *req.CapacityA
	}
	if req.CapacityB != nil {
		updates["capacity_b"] = *req.CapacityB
	}
	if req.CapacityC != nil {
		updates["capacity_c"] = *req.CapacityC
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no updates provided"})
		return
	}

	if err := h.DB.Model(&database.Station{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Station updated"})
}
