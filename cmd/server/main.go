package main

import (
	"context"
	"ctchen222/Todo-Tracker/internal/api/controller"
	"ctchen222/Todo-Tracker/internal/api/middleware"
	apirepository "ctchen222/Todo-Tracker/internal/api/repository"
	"ctchen222/Todo-Tracker/internal/api/service"
	"ctchen222/Todo-Tracker/internal/config"
	"ctchen222/Todo-Tracker/internal/db"
	"ctchen222/Todo-Tracker/internal/logger"
	"ctchen222/Todo-Tracker/internal/repository"
	"ctchen222/Todo-Tracker/internal/server"
	"ctchen222/Todo-Tracker/internal/telemetry"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

const pruneInterval = time.Hour

func main() {
	configPath := flag.String("config", "config.yaml", "path to the optional YAML config file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Initialize telemetry
	shutdown, err := telemetry.InitOtel(ctx, cfg.Telemetry)
	if err != nil {
		log.Fatalf("failed to initialize telemetry: %v", err)
	}
	defer func() {
		if err := shutdown(ctx); err != nil {
			log.Printf("Error shutting down telemetry: %v", err)
		}
	}()

	logger.Init(cfg.SlogLevel(), cfg.Log.Format)
	gin.SetMode(gin.ReleaseMode)

	// Initialize the SQL database
	DB, err := db.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	defer DB.Close()

	// Create repositories
	userRepo := apirepository.NewUserRepository(DB, cfg.Auth.BcryptCost)
	todoRepo := apirepository.NewTodoRepository(DB)
	tokenRepo := apirepository.NewTokenRepository(DB)
	if cfg.Redis.Enabled {
		rdb, err := db.NewRedisClient(ctx, cfg.Redis.Addr)
		if err != nil {
			log.Fatalf("failed to initialize redis: %v", err)
		}
		defer rdb.Close()
		tokenRepo = repository.NewTokenRepository(rdb)
		slog.Info("using redis token store", "source", "main", "addr", cfg.Redis.Addr)
	}

	// Create services
	userService := service.NewUserService(userRepo)
	authService, err := service.NewAuthService(userRepo, tokenRepo, service.AuthOptions{
		Secret:     []byte(cfg.Auth.JWTSecret),
		TokenTTL:   cfg.Auth.TokenTTL,
		BcryptCost: cfg.Auth.BcryptCost,
	})
	if err != nil {
		log.Fatalf("failed to initialize auth service: %v", err)
	}
	todoService := service.NewTodoService(todoRepo)

	// Create controllers
	sessions := middleware.NewSessions(cfg.Session)
	userController := controller.NewUserController(userService, authService, sessions)
	todoController := controller.NewTodoController(todoService)

	srv := server.NewServer(cfg, server.Deps{
		Users:    userController,
		Todos:    todoController,
		Auth:     authService,
		Sessions: sessions,
		DB:       DB,
	})

	pruneCtx, stopPrune := context.WithCancel(ctx)
	defer stopPrune()
	go pruneTokens(pruneCtx, authService)

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		slog.Info("http server started", "source", "main", "addr", cfg.Server.Addr, "prefix", cfg.Server.APIPrefix)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-stop

	slog.Info("shutting down server", "source", "main")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "source", "main", "error", err)
	}

	slog.Info("server exiting", "source", "main")
}

// pruneTokens removes expired token rows until ctx is cancelled.
func pruneTokens(ctx context.Context, auth service.AuthService) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := auth.PruneExpired(ctx)
			if err != nil {
				slog.Error("failed to prune expired tokens", "source", "main", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("pruned expired tokens", "source", "main", "count", n)
			}
		}
	}
}
