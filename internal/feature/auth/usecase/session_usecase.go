package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"blog_backend/internal/feature/auth/domain/entity"
)

// SessionRepository abstracts session storage.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type SessionRepository interface {
	// Create persists a new session.
	Create(ctx context.Context, session *entity.Session) error

	// FindByID retrieves a session by ID. Returns ErrSessionNotFound when absent.
	FindByID(ctx context.Context, id string) (*entity.Session, error)

	// Revoke marks a session as logged out.
	Revoke(ctx context.Context, id string) error

	// RevokeAllByUserID logs out every session of a user.
	RevokeAllByUserID(ctx context.Context, userID uint) error

	// DeleteExpired removes expired sessions and returns how many were removed.
	DeleteExpired(ctx context.Context) (int64, error)

	// CountByUserID returns the number of active sessions for a user.
	CountByUserID(ctx context.Context, userID uint) (int64, error)

	// DeleteOldestByUserID deletes the oldest active session of a user.
	DeleteOldestByUserID(ctx context.Context, userID uint) error
}

// TokenCodec signs and verifies the value stored in the session cookie.
type TokenCodec interface {
	GenerateToken(sessionID string, userID uint, expiresAt time.Time) (string, error)
	ParseToken(token string) (sessionID string, err error)
}

// SessionUsecase starts, resolves and ends sessions.
type SessionUsecase struct {
	repo       SessionRepository
	tokens     TokenCodec
	ttl        time.Duration
	maxPerUser int
	now        func() time.Time
}

// NewSessionUsecase creates a SessionUsecase. A maxPerUser of 0 disables
// the per-user session cap.
func NewSessionUsecase(repo SessionRepository, tokens TokenCodec, ttl time.Duration, maxPerUser int) *SessionUsecase {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &SessionUsecase{
		repo:       repo,
		tokens:     tokens,
		ttl:        ttl,
		maxPerUser: maxPerUser,
		now:        time.Now,
	}
}

// TTL returns how long a new session lives.
func (u *SessionUsecase) TTL() time.Duration { return u.ttl }

// Start creates a session for userID and returns its signed token.
//
// The per-user cap is enforced after the new session is stored: the oldest
// sessions are evicted until the user holds at most maxPerUser. Every login
// recounts after each eviction, so concurrent logins settle at the cap
// instead of both passing a stale count. A failed trim is logged and does
// not fail the login.
func (u *SessionUsecase) Start(ctx context.Context, userID uint, userAgent, ip string) (string, *entity.Session, error) {
	now := u.now()
	session := &entity.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		UserAgent: userAgent,
		IPAddress: ip,
		CreatedAt: now,
		ExpiresAt: now.Add(u.ttl),
	}

	token, err := u.tokens.GenerateToken(session.ID, userID, session.ExpiresAt)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign session token: %w", err)
	}
	if err := u.repo.Create(ctx, session); err != nil {
		return "", nil, fmt.Errorf("failed to create session: %w", err)
	}

	if err := u.trim(ctx, userID); err != nil {
		slog.Warn("failed to enforce session cap", "user_id", userID, "error", err)
	}

	slog.Debug("session started", "user_id", userID, "session_id", session.ID)
	return token, session, nil
}

// trim evicts the oldest sessions of userID while it is over the cap.
func (u *SessionUsecase) trim(ctx context.Context, userID uint) error {
	if u.maxPerUser <= 0 {
		return nil
	}
	for {
		count, err := u.repo.CountByUserID(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to count sessions: %w", err)
		}
		if count <= int64(u.maxPerUser) {
			return nil
		}
		if err := u.repo.DeleteOldestByUserID(ctx, userID); err != nil {
			return fmt.Errorf("failed to evict session: %w", err)
		}
	}
}

// Resolve verifies token and returns its active session.
func (u *SessionUsecase) Resolve(ctx context.Context, token string) (*entity.Session, error) {
	id, err := u.tokens.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSessionToken, err)
	}

	session, err := u.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.IsRevoked() {
		return nil, ErrSessionRevoked
	}
	if session.IsExpired(u.now()) {
		return nil, ErrSessionExpired
	}
	return session, nil
}

// End revokes the session named by token. Unknown or already revoked
// sessions are not an error.
func (u *SessionUsecase) End(ctx context.Context, token string) error {
	id, err := u.tokens.ParseToken(token)
	if err != nil {
		return nil
	}
	if err := u.repo.Revoke(ctx, id); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// EndAll revokes every session of userID.
func (u *SessionUsecase) EndAll(ctx context.Context, userID uint) error {
	if err := u.repo.RevokeAllByUserID(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}
	return nil
}

// Sweep deletes expired sessions.
func (u *SessionUsecase) Sweep(ctx context.Context) (int64, error) {
	n, err := u.repo.DeleteExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return n, nil
}
