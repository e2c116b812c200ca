// Package session provides the Redis-backed session store.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"blog_backend/internal/feature/auth/domain/entity"
	"blog_backend/internal/feature/auth/usecase"
)

// record is the JSON document stored under each session key.
type record struct {
	ID        string     `json:"id"`
	UserID    uint       `json:"user_id"`
	UserAgent string     `json:"user_agent"`
	IPAddress string     `json:"ip_address"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

// SessionRedis implements usecase.SessionRepository on Redis.
//
// Each session is a string key that expires with the session. A sorted set
// per user indexes session IDs by creation time; members whose key has
// expired are pruned lazily.
type SessionRedis struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

var _ usecase.SessionRepository = (*SessionRedis)(nil)

// NewSessionRedis creates a SessionRedis. Keys are namespaced by prefix.
func NewSessionRedis(client redis.UniversalClient, prefix string) *SessionRedis {
	return &SessionRedis{client: client, prefix: prefix, now: time.Now}
}

func (r *SessionRedis) sessionKey(id string) string {
	return fmt.Sprintf("%s:%s", r.prefix, id)
}

func (r *SessionRedis) userKey(userID uint) string {
	return fmt.Sprintf("%s:user:%d", r.prefix, userID)
}

// Create stores the session with a TTL matching its expiry and adds it to
// the user index in one transaction.
func (r *SessionRedis) Create(ctx context.Context, s *entity.Session) error {
	ttl := s.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return errors.New("session already expired")
	}

	data, err := json.Marshal(record(*s))
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, r.sessionKey(s.ID), data, ttl)
		p.ZAdd(ctx, r.userKey(s.UserID), redis.Z{Score: float64(s.CreatedAt.UnixNano()), Member: s.ID})
		return nil
	})
	return err
}

// FindByID loads a session. Returns usecase.ErrSessionNotFound when the key
// is missing or has expired.
func (r *SessionRedis) FindByID(ctx context.Context, id string) (*entity.Session, error) {
	data, err := r.client.Get(ctx, r.sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, usecase.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	s := entity.Session(rec)
	return &s, nil
}

// Revoke stamps RevokedAt and keeps the key's remaining TTL.
func (r *SessionRedis) Revoke(ctx context.Context, id string) error {
	s, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if s.IsRevoked() {
		return nil
	}

	now := r.now()
	s.RevokedAt = &now
	data, err := json.Marshal(record(*s))
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.SetArgs(ctx, r.sessionKey(id), data, redis.SetArgs{KeepTTL: true, Mode: "XX"})
		p.ZRem(ctx, r.userKey(s.UserID), id)
		return nil
	})
	return err
}

// RevokeAllByUserID revokes every indexed session of userID and drops the
// index.
func (r *SessionRedis) RevokeAllByUserID(ctx context.Context, userID uint) error {
	ids, err := r.client.ZRange(ctx, r.userKey(userID), 0, -1).Result()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := r.Revoke(ctx, id); err != nil && !errors.Is(err, usecase.ErrSessionNotFound) {
			return err
		}
	}
	return r.client.Del(ctx, r.userKey(userID)).Err()
}

// DeleteExpired drops index entries whose session key has already expired.
// Redis removes the session keys on its own.
func (r *SessionRedis) DeleteExpired(ctx context.Context) (int64, error) {
	var removed int64
	iter := r.client.Scan(ctx, 0, r.prefix+":user:*", 100).Iterator()
	for iter.Next(ctx) {
		n, err := r.pruneIndex(ctx, iter.Val())
		if err != nil {
			return removed, err
		}
		removed += n
	}
	return removed, iter.Err()
}

// pruneIndex removes members of a user index that no longer have a live key.
func (r *SessionRedis) pruneIndex(ctx context.Context, indexKey string) (int64, error) {
	ids, err := r.client.ZRange(ctx, indexKey, 0, -1).Result()
	if err != nil || len(ids) == 0 {
		return 0, err
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.sessionKey(id)
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return 0, err
	}

	var stale []any
	for i, v := range vals {
		if v == nil {
			stale = append(stale, ids[i])
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}
	return r.client.ZRem(ctx, indexKey, stale...).Result()
}

// CountByUserID prunes the user index and returns the number of live
// sessions left in it.
func (r *SessionRedis) CountByUserID(ctx context.Context, userID uint) (int64, error) {
	if _, err := r.pruneIndex(ctx, r.userKey(userID)); err != nil {
		return 0, err
	}
	return r.client.ZCard(ctx, r.userKey(userID)).Result()
}

// DeleteOldestByUserID deletes the session with the lowest creation score.
// It is a no-op when the index is empty.
func (r *SessionRedis) DeleteOldestByUserID(ctx context.Context, userID uint) error {
	if _, err := r.pruneIndex(ctx, r.userKey(userID)); err != nil {
		return err
	}
	oldest, err := r.client.ZRange(ctx, r.userKey(userID), 0, 0).Result()
	if err != nil || len(oldest) == 0 {
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, r.sessionKey(oldest[0]))
		p.ZRem(ctx, r.userKey(userID), oldest[0])
		return nil
	})
	return err
}
