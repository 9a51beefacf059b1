package service

import (
	"context"
	"ctchen222/Todo-Tracker/internal/api/errs"
	"ctchen222/Todo-Tracker/internal/api/models"
	"ctchen222/Todo-Tracker/internal/api/repository"
	"ctchen222/Todo-Tracker/internal/validator"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("api.service")

// UserService defines the interface for user-related business logic.
type UserService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
}

type userService struct {
	userRepo repository.UserRepository
	now      func() time.Time
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo, now: time.Now}
}

// normalizeEmail makes email uniqueness case-insensitive.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register handles user registration.
func (s *userService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	ctx, span := tracer.Start(ctx, "UserService.Register")
	defer span.End()

	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	if err := validator.Struct(req); err != nil {
		return nil, err
	}

	// Check if user already exists
	existingUser, err := s.userRepo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if existingUser != nil {
		slog.WarnContext(ctx, "registration failed: email exists", "source", "auth", "email", req.Email)
		return nil, errs.EmailTaken()
	}

	now := s.now().UTC()
	user := &models.User{
		Name:      req.Name,
		Email:     req.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.userRepo.CreateUser(ctx, user, req.Password); err != nil {
		if errors.Is(err, errs.ErrEmailTaken) {
			return nil, errs.EmailTaken()
		}
		return nil, err
	}

	slog.InfoContext(ctx, "user registered", "source", "auth", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// GetUser returns the user with id or ErrNotFound.
func (s *userService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errs.ErrNotFound
	}
	return user, nil
}
