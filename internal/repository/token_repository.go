package repository

import (
	"context"
	"ctchen222/Todo-Tracker/internal/api/models"
	apirepository "ctchen222/Todo-Tracker/internal/api/repository"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("repository.token")

// extendTTL sets the key's expiry in milliseconds unless it already outlives it.
// PTTL is negative for keys without an expiry, so a fresh index always gets one.
var extendTTL = redis.NewScript(`
if redis.call("PTTL", KEYS[1]) < tonumber(ARGV[1]) then
	return redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return 0
`)

type redisTokenRepository struct {
	rdb *redis.Client
	now func() time.Time
}

// NewTokenRepository creates a Redis-based TokenRepository. Each token is a hash
// expiring with the token, and each user has a set indexing their token ids.
func NewTokenRepository(rdb *redis.Client) apirepository.TokenRepository {
	return &redisTokenRepository{
		rdb: rdb,
		now: time.Now,
	}
}

func tokenKey(id string) string {
	return fmt.Sprintf("token:%s", id)
}

func userTokensKey(userID int64) string {
	return fmt.Sprintf("user:%d:tokens", userID)
}

// CreateToken stores the token with a TTL matching its expiry.
func (r *redisTokenRepository) CreateToken(ctx context.Context, token *models.Token) error {
	ctx, span := tracer.Start(ctx, "TokenRepository.CreateToken")
	defer span.End()

	ttl := token.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return fmt.Errorf("token %s already expired", token.ID)
	}

	key := tokenKey(token.ID)
	setKey := userTokensKey(token.UserID)
	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, key,
		"user_id", token.UserID,
		"issued_at", token.IssuedAt.UTC().Format(time.RFC3339Nano),
		"expires_at", token.ExpiresAt.UTC().Format(time.RFC3339Nano),
	)
	pipe.Expire(ctx, key, ttl)
	pipe.SAdd(ctx, setKey, token.ID)
	// The index lives as long as the longest-lived token.
	extendTTL.Eval(ctx, pipe, []string{setKey}, ttl.Milliseconds())
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}

// GetToken retrieves the token, or nil if it expired or was revoked.
func (r *redisTokenRepository) GetToken(ctx context.Context, id string) (*models.Token, error) {
	ctx, span := tracer.Start(ctx, "TokenRepository.GetToken")
	defer span.End()

	data, err := r.rdb.HGetAll(ctx, tokenKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	userID, err := strconv.ParseInt(data["user_id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt token %s: %w", id, err)
	}
	issuedAt, err := time.Parse(time.RFC3339Nano, data["issued_at"])
	if err != nil {
		return nil, fmt.Errorf("corrupt token %s: %w", id, err)
	}
	expiresAt, err := time.Parse(time.RFC3339Nano, data["expires_at"])
	if err != nil {
		return nil, fmt.Errorf("corrupt token %s: %w", id, err)
	}

	token := &models.Token{ID: id, UserID: userID, IssuedAt: issuedAt, ExpiresAt: expiresAt}
	if token.Expired(r.now()) {
		return nil, nil
	}
	return token, nil
}

// DeleteUserTokens removes every token listed in the user's index.
func (r *redisTokenRepository) DeleteUserTokens(ctx context.Context, userID int64) (int64, error) {
	ctx, span := tracer.Start(ctx, "TokenRepository.DeleteUserTokens")
	defer span.End()

	setKey := userTokensKey(userID)
	ids, err := r.rdb.SMembers(ctx, setKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to list user tokens: %w", err)
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, tokenKey(id))
	}
	var deleted *redis.IntCmd
	pipe := r.rdb.TxPipeline()
	if len(ids) > 0 {
		deleted = pipe.Del(ctx, keys...)
	}
	pipe.Del(ctx, setKey)
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to delete user tokens: %w", err)
	}
	if deleted == nil {
		return 0, nil
	}
	return deleted.Val(), nil
}

// DeleteExpired is a no-op: Redis expires token keys on its own.
func (r *redisTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}
