package server

import (
	"context"
	"ctchen222/Todo-Tracker/internal/api/controller"
	"ctchen222/Todo-Tracker/internal/api/middleware"
	"ctchen222/Todo-Tracker/internal/api/service"
	"ctchen222/Todo-Tracker/internal/config"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps are the collaborators the router is wired from.
type Deps struct {
	Users    *controller.UserController
	Todos    *controller.TodoController
	Auth     service.AuthService
	Sessions *middleware.Sessions
	DB       Pinger
}

type Server struct {
	engine  *gin.Engine
	handler http.Handler
}

// NewServer builds the gin engine with every route registered.
func NewServer(cfg *config.Config, deps Deps) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery(), middleware.RequestLogger(), middleware.SecurityHeaders())
	engine.HandleMethodNotAllowed = true

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/readyz", readiness(deps.DB))

	api := engine.Group(cfg.Server.APIPrefix)
	api.POST("/register", deps.Users.Register)
	api.POST("/login", deps.Users.Login)

	protected := api.Group("")
	protected.Use(middleware.RequireAuth(deps.Auth, deps.Sessions))
	protected.POST("/logout", deps.Users.Logout)
	protected.GET("/user", deps.Users.Me)
	protected.GET("/todos", deps.Todos.Index)
	protected.POST("/todos", deps.Todos.Store)
	protected.PUT("/todos/:id", deps.Todos.Update)
	protected.DELETE("/todos/:id", deps.Todos.Destroy)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
	})

	return &Server{
		engine:  engine,
		handler: corsHandler.Handler(engine),
	}
}

// Engine returns the bare gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Handler returns the engine wrapped with CORS handling.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func readiness(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			slog.WarnContext(ctx, "readiness check failed", "source", "server", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
