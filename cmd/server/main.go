package main

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/firegroundsoftware/shiftbid-api-go/pkg/auth"
	"github.com/firegroundsoftware/shiftbid-api-go/pkg/database"
	"github.com/firegroundsoftware/shiftbid-api-go/pkg/engine"
	"github.com/firegroundsoftware/shiftbid-api-go/pkg/handlers"
	"github.com/firegroundsoftware/shiftbid-api-go/pkg/notify"
	"github.com/firegroundsoftware/shiftbid-api-go/pkg/store"
	"github.com/firegroundsoftware/shiftbid-api-go/pkg/sweep"
)

func main() {
	// Load .env if it exists
	// Try root and parent directories for flexibility
	envPaths := []string{".env", "../.env", "../../.env"}
	for _, p := range envPaths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			break
		}
	}

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	db := database.InitDB()
	_ = auth.EnsureAdminExists(db)

	hub := notify.NewHub()
	eng := engine.New(notify.Fanout{&notify.LogNotifier{Log: logger}, hub})
	st := store.New(db, eng)
	h := &handlers.Handler{DB: db, Store: st, Log: logger}

	sweeper := sweep.New(st, logger, hub, sweepInterval(), 60*time.Second)
	go sweeper.Run()
	defer sweeper.Stop()

	r := gin.Default()

	// Routes
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Shift Bid API",
			"version": "1.0.0",
		})
	})

	r.POST("/login", h.Login)

	// Admin Endpoints
	admin := r.Group("/admin")
	admin.Use(h.AuthMiddleware(), h.AdminMiddleware())
	{
		admin.POST("/users", h.CreateUser)
		admin.GET("/users", h.ListUsers)

		admin.POST("/stations", h.CreateStation)
		admin.GET("/stations", h.ListStations)
		admin.PUT("/stations/:id", h.UpdateStation)

		admin.POST("/sessions", h.CreateSession)
		admin.GET("/sessions", h.ListSessions)
		admin.GET("/sessions/:id", h.GetSession)
		admin.DELETE("/sessions/:id", h.DeleteSession)
		admin.POST("/sessions/:id/participants", h.AddParticipants)
		admin.DELETE("/sessions/:id/participants", h.RemoveParticipants)
		admin.POST("/sessions/:id/schedule", h.ScheduleSession)
		admin.POST("/sessions/:id/start", h.StartSession)
		admin.POST("/sessions/:id/pause", h.PauseSession)
		admin.POST("/sessions/:id/resume", h.ResumeSession)
		admin.POST("/sessions/:id/skip", h.SkipTurn)
	}

	// Participant Endpoints
	api := r.Group("/api")
	api.Use(h.AuthMiddleware())
	{
		api.GET("/sessions/:id", h.GetSession)
		api.GET("/sessions/:id/turn", h.GetTurn)
		api.POST("/sessions/:id/bid", h.SubmitBid)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}

	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("could not run server: %v", err)
	}
}

func sweepInterval() time.Duration {
	if v := os.Getenv("SWEEP_INTERVAL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return 5 * time.Second
}
