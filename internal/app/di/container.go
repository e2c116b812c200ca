package di

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"blog_backend/internal/app/config"
	authadapters "blog_backend/internal/feature/auth/adapters"
	"blog_backend/internal/feature/auth/transport/session"
	authusecase "blog_backend/internal/feature/auth/usecase"
	useradapters "blog_backend/internal/feature/user/adapters"
	"blog_backend/internal/feature/user/domain/entity"
	userhandler "blog_backend/internal/feature/user/transport/handler"
	userusecase "blog_backend/internal/feature/user/usecase"
	"blog_backend/internal/platform/db"
	platformhandler "blog_backend/internal/platform/http/handler"
	jwttoken "blog_backend/internal/platform/jwt"
	"blog_backend/internal/platform/metrics"
	platformredis "blog_backend/internal/platform/redis"
)

// tokenIssuer is the iss claim of session cookies.
const tokenIssuer = "blog_backend"

// Models lists every table the server owns, in migration order.
func Models() []any {
	return []any{
		&entity.User{},
		&entity.Post{},
		&entity.Comment{},
		&authadapters.SessionModel{},
	}
}

// Container holds the wired application graph.
type Container struct {
	Users    *userhandler.UserHandler
	Health   *platformhandler.HealthHandler
	Sessions *authusecase.SessionUsecase
	Metrics  *metrics.Metrics
}

// NewContainer wires handlers and usecases. rdb may be nil.
func NewContainer(cfg *config.Config, gdb *gorm.DB, rdb *redis.Client, m *metrics.Metrics) (*Container, error) {
	codec, err := jwttoken.NewCodec(cfg.Session.Secret, tokenIssuer)
	if err != nil {
		return nil, fmt.Errorf("failed to create token codec: %w", err)
	}

	// Repository
	userRepo := useradapters.NewUserGorm(gdb)
	sessionRepo := NewSessionRepository(rdb, gdb)

	// Usecase
	userUC := userusecase.NewUserUsecase(userRepo)
	sessionUC := authusecase.NewSessionUsecase(sessionRepo, codec, cfg.Session.TTL, cfg.Session.MaxPerUser)

	// Handler
	cookies := session.NewManager(sessionUC, session.CookieConfig{
		Name:   cfg.Session.CookieName,
		Secure: cfg.Session.SecureCookie,
		MaxAge: cfg.Session.TTL,
	})

	checks := map[string]platformhandler.Checker{
		"database": func(ctx context.Context) error { return db.Ping(ctx, gdb) },
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return platformredis.Ping(ctx, rdb) }
	}

	return &Container{
		Users:    userhandler.NewUserHandler(userUC, cookies),
		Health:   platformhandler.NewHealthHandler(checks),
		Sessions: sessionUC,
		Metrics:  m,
	}, nil
}
