package middleware

import (
	"context"
	"ctchen222/Todo-Tracker/internal/api/errs"
	"ctchen222/Todo-Tracker/internal/api/models"
	"ctchen222/Todo-Tracker/internal/api/response"
	"ctchen222/Todo-Tracker/internal/api/service"
	"strings"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

type identityCtxKey struct{}

// RequireAuth resolves the request's credential to an identity before any
// protected handler runs. The bearer header wins over the session cookie; a
// malformed header is rejected rather than falling back.
func RequireAuth(auth service.AuthService, sessions *Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		credential, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Error(c, errs.ErrUnauthorized)
			return
		}
		if credential == "" && sessions != nil {
			credential = sessions.Token(c.Request)
		}

		identity, err := auth.Resolve(c.Request.Context(), credential)
		if err != nil {
			response.Error(c, err)
			return
		}

		c.Set(identityKey, identity)
		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), identity))
		c.Next()
	}
}

// bearerToken extracts the token from an Authorization header. An empty
// header yields ("", true); anything other than "Bearer <token>" yields false.
func bearerToken(header string) (string, bool) {
	if header == "" {
		return "", true
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Identity returns the identity attached by RequireAuth.
func Identity(c *gin.Context) (*models.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	identity, ok := v.(*models.Identity)
	return identity, ok
}

// WithIdentity returns a copy of ctx carrying identity.
func WithIdentity(ctx context.Context, identity *models.Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, identity)
}

// IdentityFromContext returns the identity stored by WithIdentity.
func IdentityFromContext(ctx context.Context) (*models.Identity, bool) {
	identity, ok := ctx.Value(identityCtxKey{}).(*models.Identity)
	return identity, ok
}
