package router

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"studiora/backend/internal/handler"
	"studiora/backend/internal/middleware"
	"studiora/backend/internal/service"
)

type Handlers struct {
	Auth   *handler.AuthHandler
	Timer  *handler.TimerHandler
	Tasks  *handler.TaskHandler
	Notes  *handler.NoteHandler
	Groups *handler.GroupHandler
	Stats  *handler.StatsHandler
}

func New(
	authService *service.AuthService,
	handlers Handlers,
	corsOrigins []string,
	logger *slog.Logger,
) *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestLogger(logger), gin.Recovery(), middleware.CORS(corsOrigins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")
	requireAuth := middleware.Auth(authService)

	auth := api.Group("/auth")
	auth.POST("/signup", handlers.Auth.SignUp)
	auth.POST("/signin", handlers.Auth.SignIn)
	auth.POST("/resend-verification", handlers.Auth.ResendVerification)
	auth.POST("/signout", requireAuth, handlers.Auth.SignOut)
	auth.GET("/session", requireAuth, handlers.Auth.Session)

	timer := api.Group("/timer")
	timer.Use(requireAuth)
	timer.GET("/state", handlers.Timer.GetState)
	timer.POST("/start", handlers.Timer.Start)
	timer.POST("/pause", handlers.Timer.Pause)
	timer.POST("/toggle", handlers.Timer.Toggle)
	timer.POST("/reset", handlers.Timer.Reset)
	timer.POST("/mode", handlers.Timer.SwitchMode)
	timer.PUT("/settings", handlers.Timer.UpdateSettings)
	timer.GET("/events", handlers.Timer.Events)
	timer.GET("/history", handlers.Timer.GetHistory)

	tasks := api.Group("/tasks")
	tasks.Use(requireAuth)
	tasks.GET("", handlers.Tasks.List)
	tasks.POST("", handlers.Tasks.Create)
	tasks.GET("/summary", handlers.Tasks.Summary)
	tasks.PATCH("/:id", handlers.Tasks.Update)
	tasks.DELETE("/:id", handlers.Tasks.Delete)
	tasks.POST("/:id/toggle", handlers.Tasks.Toggle)

	notes := api.Group("/notes")
	notes.Use(requireAuth)
	notes.GET("", handlers.Notes.List)
	notes.POST("", handlers.Notes.Create)
	notes.GET("/categories", handlers.Notes.Categories)
	notes.GET("/:id", handlers.Notes.Get)
	notes.PATCH("/:id", handlers.Notes.Update)
	notes.DELETE("/:id", handlers.Notes.Delete)

	groups := api.Group("/groups")
	groups.Use(requireAuth)
	groups.GET("", handlers.Groups.List)
	groups.POST("", handlers.Groups.Create)
	groups.POST("/:id/join", handlers.Groups.Join)

	api.GET("/stats", requireAuth, handlers.Stats.Get)

	return engine
}
