package service

import (
	"context"
	"ctchen222/Todo-Tracker/internal/api/errs"
	"ctchen222/Todo-Tracker/internal/api/models"
	"ctchen222/Todo-Tracker/internal/api/repository"
	"ctchen222/Todo-Tracker/internal/validator"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/crypto/bcrypt"
)

// AuthService issues, resolves and revokes bearer tokens.
type AuthService interface {
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
	Logout(ctx context.Context, identity *models.Identity) error
	Resolve(ctx context.Context, credential string) (*models.Identity, error)
	PruneExpired(ctx context.Context) (int64, error)
}

// AuthOptions configures token issuance.
type AuthOptions struct {
	Secret     []byte
	TokenTTL   time.Duration
	BcryptCost int
}

// Claims are carried by every issued token. The registered ID names the
// token row that makes the credential revocable.
type Claims struct {
	jwt.RegisteredClaims
}

type authService struct {
	userRepo  repository.UserRepository
	tokenRepo repository.TokenRepository
	secret    []byte
	ttl       time.Duration
	dummyHash []byte
	now       func() time.Time
	logins    metric.Int64Counter
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, tokenRepo repository.TokenRepository, opts AuthOptions) (AuthService, error) {
	if len(opts.Secret) == 0 {
		return nil, errors.New("auth secret must not be empty")
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	// Compared against when the email is unknown so both failures cost the same.
	dummy, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}
	logins, err := otel.Meter("api.service").Int64Counter("auth.logins",
		metric.WithDescription("Login attempts by outcome"))
	if err != nil {
		return nil, fmt.Errorf("failed to create login counter: %w", err)
	}
	return &authService{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		secret:    opts.Secret,
		ttl:       opts.TokenTTL,
		dummyHash: dummy,
		now:       time.Now,
		logins:    logins,
	}, nil
}

// Login checks the credentials and issues a new token.
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	ctx, span := tracer.Start(ctx, "AuthService.Login")
	defer span.End()

	req.Email = normalizeEmail(req.Email)
	if err := validator.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(req.Password))
		slog.WarnContext(ctx, "login failed: user not found", "source", "auth", "email", req.Email)
		s.countLogin(ctx, "invalid")
		return nil, errs.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		slog.WarnContext(ctx, "login failed: invalid password", "source", "auth", "email", req.Email)
		s.countLogin(ctx, "invalid")
		return nil, errs.ErrInvalidCredentials
	}

	now := s.now().UTC()
	token := &models.Token{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.tokenRepo.CreateToken(ctx, token); err != nil {
		return nil, err
	}
	signed, err := s.sign(token)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "user logged in", "source", "auth", "user_id", user.ID, "email", user.Email)
	s.countLogin(ctx, "success")
	return &models.LoginResponse{Token: signed, User: user.Public()}, nil
}

func (s *authService) countLogin(ctx context.Context, outcome string) {
	s.logins.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (s *authService) sign(token *models.Token) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        token.ID,
			Subject:   strconv.FormatInt(token.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(token.IssuedAt),
			NotBefore: jwt.NewNumericDate(token.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(token.ExpiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Logout revokes every token of the user, not just the one in use.
func (s *authService) Logout(ctx context.Context, identity *models.Identity) error {
	ctx, span := tracer.Start(ctx, "AuthService.Logout")
	defer span.End()

	n, err := s.tokenRepo.DeleteUserTokens(ctx, identity.UserID)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "user logged out", "source", "auth", "user_id", identity.UserID, "revoked", n)
	return nil
}

// Resolve maps a bearer credential to an identity. Every failure is ErrUnauthorized.
func (s *authService) Resolve(ctx context.Context, credential string) (*models.Identity, error) {
	ctx, span := tracer.Start(ctx, "AuthService.Resolve")
	defer span.End()

	if credential == "" {
		return nil, errs.ErrUnauthorized
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(credential, &claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, errs.ErrUnauthorized
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || claims.ID == "" {
		return nil, errs.ErrUnauthorized
	}

	token, err := s.tokenRepo.GetToken(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if token == nil || token.UserID != userID {
		return nil, errs.ErrUnauthorized
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errs.ErrUnauthorized
	}

	return &models.Identity{
		UserID:  user.ID,
		Name:    user.Name,
		Email:   user.Email,
		TokenID: token.ID,
	}, nil
}

// PruneExpired deletes token rows whose expiry has passed.
func (s *authService) PruneExpired(ctx context.Context) (int64, error) {
	return s.tokenRepo.DeleteExpired(ctx, s.now().UTC())
}
