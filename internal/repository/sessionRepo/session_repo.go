// Package sessionRepo keeps auth session state in redis: one refresh
// token per user, plus a blacklist of access tokens revoked by logout.
package sessionRepo

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type SessionRepo struct {
	Client *redis.Client
}

func New(client *redis.Client) *SessionRepo {
	return &SessionRepo{Client: client}
}

func (r *SessionRepo) refreshKey(userID uint32) string {
	return fmt.Sprintf("refresh:%d", userID)
}

func (r *SessionRepo) blacklistKey(token string) string {
	return fmt.Sprintf("blacklist:%s", token)
}

func (r *SessionRepo) SaveRefreshToken(ctx context.Context, userID uint32, token string, ttl time.Duration) error {
	return r.Client.Set(ctx, r.refreshKey(userID), token, ttl).Err()
}

func (r *SessionRepo) DeleteRefreshToken(ctx context.Context, userID uint32) error {
	return r.Client.Del(ctx, r.refreshKey(userID)).Err()
}

func (r *SessionRepo) ValidateRefreshToken(ctx context.Context, userID uint32, token string) (bool, error) {
	stored, err := r.Client.Get(ctx, r.refreshKey(userID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return stored == token, nil
}

// BlacklistAccessToken keeps the token rejected until its natural expiry.
func (r *SessionRepo) BlacklistAccessToken(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return r.Client.Set(ctx, r.blacklistKey(token), "1", ttl).Err()
}

func (r *SessionRepo) IsAccessTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	_, err := r.Client.Get(ctx, r.blacklistKey(token)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
