package service

import (
	"context"
	"ctchen222/Todo-Tracker/internal/api/errs"
	"ctchen222/Todo-Tracker/internal/api/models"
	"ctchen222/Todo-Tracker/internal/api/repository/mocks"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"
)

var testSecret = []byte("test-secret")

type authFixture struct {
	svc    *authService
	users  *mocks.MockUserRepository
	tokens *mocks.MockTokenRepository
	user   *models.User
	clock  time.Time
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	users := mocks.NewMockUserRepository(ctrl)
	tokens := mocks.NewMockTokenRepository(ctrl)

	svc, err := NewAuthService(users, tokens, AuthOptions{Secret: testSecret, TokenTTL: time.Hour, BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte("right-password"), bcrypt.MinCost)
	require.NoError(t, err)

	f := &authFixture{
		svc:    svc.(*authService),
		users:  users,
		tokens: tokens,
		user:   &models.User{ID: 42, Name: "Ann", Email: "a@x.com", PasswordHash: string(hash)},
		clock:  time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	f.svc.now = func() time.Time { return f.clock }
	return f
}

// login performs a successful login and returns the issued credential and stored token.
func (f *authFixture) login(t *testing.T) (string, *models.Token) {
	t.Helper()
	var stored *models.Token
	f.users.EXPECT().GetUserByEmail(gomock.Any(), "a@x.com").Return(f.user, nil)
	f.tokens.EXPECT().CreateToken(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, tok *models.Token) error {
		stored = tok
		return nil
	})

	resp, err := f.svc.Login(context.Background(), &models.LoginRequest{Email: "A@x.com ", Password: "right-password"})
	require.NoError(t, err)
	require.NotNil(t, stored)
	return resp.Token, stored
}

func TestAuthService_LoginIssuesToken(t *testing.T) {
	f := newAuthFixture(t)

	credential, stored := f.login(t)

	assert.NotEmpty(t, credential)
	assert.Equal(t, int64(42), stored.UserID)
	assert.Equal(t, f.clock, stored.IssuedAt)
	assert.Equal(t, f.clock.Add(time.Hour), stored.ExpiresAt)
	assert.Len(t, stored.ID, 36, "token id should be a UUID")

	var claims Claims
	_, err := jwt.ParseWithClaims(credential, &claims, func(*jwt.Token) (interface{}, error) { return testSecret, nil },
		jwt.WithTimeFunc(func() time.Time { return f.clock }))
	require.NoError(t, err)
	assert.Equal(t, stored.ID, claims.ID)
	assert.Equal(t, "42", claims.Subject)
}

func TestAuthService_LoginTokensAreUnique(t *testing.T) {
	f := newAuthFixture(t)

	first, a := f.login(t)
	second, b := f.login(t)
	assert.NotEqual(t, first, second)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestAuthService_LoginFailuresLookTheSame(t *testing.T) {
	f := newAuthFixture(t)

	f.users.EXPECT().GetUserByEmail(gomock.Any(), "a@x.com").Return(f.user, nil)
	_, wrongPassword := f.svc.Login(context.Background(), &models.LoginRequest{Email: "a@x.com", Password: "wrong"})

	f.users.EXPECT().GetUserByEmail(gomock.Any(), "nouser@x.com").Return(nil, nil)
	_, noUser := f.svc.Login(context.Background(), &models.LoginRequest{Email: "nouser@x.com", Password: "anything"})

	assert.ErrorIs(t, wrongPassword, errs.ErrInvalidCredentials)
	assert.ErrorIs(t, noUser, errs.ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), noUser.Error())
}

func TestAuthService_LoginValidation(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Login(context.Background(), &models.LoginRequest{Email: "not-an-email"})
	v, ok := errs.AsValidation(err)
	require.True(t, ok, "got %v", err)
	assert.Contains(t, v.Fields, "email")
	assert.Contains(t, v.Fields, "password")
}

func TestAuthService_LoginStoreFailure(t *testing.T) {
	f := newAuthFixture(t)
	boom := errors.New("disk full")

	f.users.EXPECT().GetUserByEmail(gomock.Any(), "a@x.com").Return(f.user, nil)
	f.tokens.EXPECT().CreateToken(gomock.Any(), gomock.Any()).Return(boom)

	_, err := f.svc.Login(context.Background(), &models.LoginRequest{Email: "a@x.com", Password: "right-password"})
	assert.ErrorIs(t, err, boom)
}

func TestAuthService_Resolve(t *testing.T) {
	f := newAuthFixture(t)
	credential, stored := f.login(t)

	f.tokens.EXPECT().GetToken(gomock.Any(), stored.ID).Return(stored, nil)
	f.users.EXPECT().GetUserByID(gomock.Any(), int64(42)).Return(f.user, nil)

	identity, err := f.svc.Resolve(context.Background(), credential)
	require.NoError(t, err)
	assert.Equal(t, &models.Identity{UserID: 42, Name: "Ann", Email: "a@x.com", TokenID: stored.ID}, identity)
}

func TestAuthService_ResolveRejectsRevoked(t *testing.T) {
	f := newAuthFixture(t)
	credential, stored := f.login(t)

	f.tokens.EXPECT().DeleteUserTokens(gomock.Any(), int64(42)).Return(int64(1), nil)
	require.NoError(t, f.svc.Logout(context.Background(), &models.Identity{UserID: 42}))

	f.tokens.EXPECT().GetToken(gomock.Any(), stored.ID).Return(nil, nil)
	_, err := f.svc.Resolve(context.Background(), credential)
	assert.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestAuthService_ResolveRejectsForgedAndExpired(t *testing.T) {
	f := newAuthFixture(t)
	credential, _ := f.login(t)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{
		ID: "x", Subject: "42", ExpiresAt: jwt.NewNumericDate(f.clock.Add(time.Hour)),
	}}).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{RegisteredClaims: jwt.RegisteredClaims{
		ID: "x", Subject: "42", ExpiresAt: jwt.NewNumericDate(f.clock.Add(time.Hour)),
	}}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{
		ID: "x", Subject: "42",
	}}).SignedString(testSecret)
	require.NoError(t, err)

	for name, cred := range map[string]string{
		"empty":     "",
		"garbage":   "not-a-token",
		"tampered":  credential + "x",
		"forged":    forged,
		"alg none":  unsigned,
		"no expiry": noExpiry,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Resolve(context.Background(), cred)
			assert.ErrorIs(t, err, errs.ErrUnauthorized)
		})
	}

	t.Run("expired", func(t *testing.T) {
		f.clock = f.clock.Add(2 * time.Hour)
		_, err := f.svc.Resolve(context.Background(), credential)
		assert.ErrorIs(t, err, errs.ErrUnauthorized)
	})
}

func TestAuthService_ResolveRejectsMismatchedOwner(t *testing.T) {
	f := newAuthFixture(t)
	credential, stored := f.login(t)

	f.tokens.EXPECT().GetToken(gomock.Any(), stored.ID).Return(&models.Token{ID: stored.ID, UserID: 7, ExpiresAt: stored.ExpiresAt}, nil)
	_, err := f.svc.Resolve(context.Background(), credential)
	assert.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestAuthService_LogoutIsIdempotent(t *testing.T) {
	f := newAuthFixture(t)
	identity := &models.Identity{UserID: 42}

	gomock.InOrder(
		f.tokens.EXPECT().DeleteUserTokens(gomock.Any(), int64(42)).Return(int64(3), nil),
		f.tokens.EXPECT().DeleteUserTokens(gomock.Any(), int64(42)).Return(int64(0), nil),
	)

	assert.NoError(t, f.svc.Logout(context.Background(), identity))
	assert.NoError(t, f.svc.Logout(context.Background(), identity))
}

func TestAuthService_PruneExpired(t *testing.T) {
	f := newAuthFixture(t)
	f.tokens.EXPECT().DeleteExpired(gomock.Any(), f.clock).Return(int64(5), nil)

	n, err := f.svc.PruneExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}

func TestNewAuthService_RequiresSecret(t *testing.T) {
	_, err := NewAuthService(nil, nil, AuthOptions{TokenTTL: time.Hour})
	assert.Error(t, err)
}
