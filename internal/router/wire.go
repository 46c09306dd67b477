package router

import (
	"database/sql"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/syedzayyan/pomonotes/internal/handler"
	"github.com/syedzayyan/pomonotes/internal/repository"
	"github.com/syedzayyan/pomonotes/internal/service"
)

type Options struct {
	JWTSecret   string
	TokenTTL    time.Duration
	CORSOrigins []string
}

// Build wires repositories, services and handlers over an open, migrated database.
func Build(database *sql.DB, opts Options) *gin.Engine {
	userRepo := repository.NewUserRepository(database)
	sessionRepo := repository.NewSessionRepository(database)
	intervalRepo := repository.NewIntervalRepository(database)
	noteRepo := repository.NewNoteRepository(database)
	tagRepo := repository.NewTagRepository(database)

	authService := service.NewAuthService(userRepo, opts.JWTSecret, opts.TokenTTL)
	sessionService := service.NewSessionService(sessionRepo)
	intervalService := service.NewIntervalService(sessionService, intervalRepo)
	noteService := service.NewNoteService(sessionService, noteRepo)
	tagService := service.NewTagService(tagRepo)

	return New(authService, Handlers{
		Auth:     handler.NewAuthHandler(authService),
		Session:  handler.NewSessionHandler(sessionService, intervalService, noteService),
		Interval: handler.NewIntervalHandler(intervalService),
		Note:     handler.NewNoteHandler(noteService),
		Tag:      handler.NewTagHandler(tagService),
	}, opts.CORSOrigins)
}
