package controller

import (
	"ctchen222/Todo-Tracker/internal/api/errs"
	"ctchen222/Todo-Tracker/internal/api/middleware"
	"ctchen222/Todo-Tracker/internal/api/models"
	"ctchen222/Todo-Tracker/internal/api/response"
	"ctchen222/Todo-Tracker/internal/api/service"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// UserController handles registration and the session endpoints.
type UserController struct {
	userService service.UserService
	authService service.AuthService
	sessions    *middleware.Sessions
}

// NewUserController creates a new UserController.
func NewUserController(userService service.UserService, authService service.AuthService, sessions *middleware.Sessions) *UserController {
	return &UserController{
		userService: userService,
		authService: authService,
		sessions:    sessions,
	}
}

// Register handles the user registration endpoint.
func (uc *UserController) Register(c *gin.Context) {
	var req models.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := uc.userService.Register(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": user.Public()})
}

// Login handles the user login endpoint.
func (uc *UserController) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := uc.authService.Login(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	if uc.sessions != nil {
		if err := uc.sessions.Save(c, resp.Token); err != nil {
			slog.WarnContext(c.Request.Context(), "failed to save session cookie", "source", "auth", "error", err)
		}
	}

	c.JSON(http.StatusOK, resp)
}

// Logout revokes every token of the current user.
func (uc *UserController) Logout(c *gin.Context) {
	identity, ok := middleware.Identity(c)
	if !ok {
		response.Error(c, errs.ErrUnauthorized)
		return
	}

	if err := uc.authService.Logout(c.Request.Context(), identity); err != nil {
		response.Error(c, err)
		return
	}

	if uc.sessions != nil {
		if err := uc.sessions.Clear(c); err != nil {
			slog.WarnContext(c.Request.Context(), "failed to clear session cookie", "source", "auth", "error", err)
		}
	}

	response.Message(c, http.StatusOK, "Logged out")
}

// Me returns the current user.
func (uc *UserController) Me(c *gin.Context) {
	identity, ok := middleware.Identity(c)
	if !ok {
		response.Error(c, errs.ErrUnauthorized)
		return
	}

	user, err := uc.userService.GetUser(c.Request.Context(), identity.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user.Public()})
}
