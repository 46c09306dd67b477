package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/syedzayyan/pomonotes/internal/handler"
	"github.com/syedzayyan/pomonotes/internal/middleware"
	"github.com/syedzayyan/pomonotes/internal/service"
)

// Handlers groups the resource handlers mounted under /api.
type Handlers struct {
	Auth     *handler.AuthHandler
	Session  *handler.SessionHandler
	Interval *handler.IntervalHandler
	Note     *handler.NoteHandler
	Tag      *handler.TagHandler
}

func New(authService *service.AuthService, h Handlers, corsOrigins []string) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery(), middleware.CORS(corsOrigins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")
	auth := api.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)

	protected := api.Group("")
	protected.Use(middleware.Auth(authService))
	protected.GET("/auth/me", h.Auth.Me)

	sessions := protected.Group("/sessions")
	sessions.GET("", h.Session.List)
	sessions.POST("", h.Session.Create)
	sessions.GET("/:id", h.Session.Get)
	sessions.PUT("/:id", h.Session.Update)
	sessions.DELETE("/:id", h.Session.Delete)
	sessions.GET("/:id/pomodoros", h.Session.Pomodoros)
	sessions.GET("/:id/breaks", h.Session.Breaks)
	sessions.GET("/:id/notes", h.Session.Notes)

	pomodoros := protected.Group("/pomodoros")
	pomodoros.POST("", h.Interval.CreatePomodoro)
	pomodoros.PUT("/:id", h.Interval.UpdatePomodoro)

	breaks := protected.Group("/breaks")
	breaks.POST("", h.Interval.CreateBreak)
	breaks.PUT("/:id", h.Interval.UpdateBreak)

	notes := protected.Group("/notes")
	notes.GET("", h.Note.List)
	notes.POST("", h.Note.Create)
	notes.GET("/:id", h.Note.Get)
	notes.PUT("/:id", h.Note.Update)
	notes.DELETE("/:id", h.Note.Delete)

	tags := protected.Group("/tags")
	tags.GET("", h.Tag.List)
	tags.POST("", h.Tag.Create)
	tags.PUT("/:id", h.Tag.Update)
	tags.DELETE("/:id", h.Tag.Delete)

	return engine
}
