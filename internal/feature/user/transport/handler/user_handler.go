// Package handler provides the HTTP handlers for the user feature.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"blog_backend/internal/feature/user/domain/entity"
	"blog_backend/internal/feature/user/transport/http/dto"
	"blog_backend/internal/feature/user/usecase"
)

// UserUsecase defines the user operations used by the handlers.
// Following Go convention: interfaces are defined by the consumer (handler), not the provider (usecase).
type UserUsecase interface {
	Create(ctx context.Context, in usecase.CreateInput) (*entity.User, error)
	Authenticate(ctx context.Context, username, password string) (*entity.User, error)
	List(ctx context.Context) ([]entity.User, error)
	Get(ctx context.Context, id uint) (*entity.User, error)
	Update(ctx context.Context, id uint, in usecase.UpdateInput) (*entity.User, error)
	FindViewer(ctx context.Context, id uint) (*entity.User, error)
	Delete(ctx context.Context, id uint) error
}

// Sessions is the login capability handed to the handlers.
type Sessions interface {
	// Login starts a session for userID on the response.
	Login(c *gin.Context, userID uint) error
	// Logout ends the current session, if any.
	Logout(c *gin.Context)
	// LogoutEverywhere ends every session of userID.
	LogoutEverywhere(c *gin.Context, userID uint) error
	// CurrentUserID returns the signed-in user, if any. err is set only when
	// the session store could not be read.
	CurrentUserID(c *gin.Context) (uint, bool, error)
}

// UserHandler serves the /api/users endpoints.
type UserHandler struct {
	users    UserUsecase
	sessions Sessions
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(users UserUsecase, sessions Sessions) *UserHandler {
	return &UserHandler{users: users, sessions: sessions}
}

// statusFor maps an error kind to an HTTP status.
// Validation failures answer 500 to keep the established API contract.
func statusFor(k usecase.Kind) int {
	switch k {
	case usecase.KindNotFound:
		return http.StatusNotFound
	case usecase.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the sanitized message of err. Causes are only logged.
func respondError(c *gin.Context, op string, err error) {
	var ue *usecase.Error
	if !errors.As(err, &ue) {
		ue = &usecase.Error{Kind: usecase.KindPersistence, Message: usecase.MsgInternalServerError, Err: err}
	}

	switch ue.Kind {
	case usecase.KindPersistence, usecase.KindSession:
		slog.Error(op+" failed", "kind", ue.Kind.String(), "error", ue.Err, "remote_addr", c.ClientIP())
	default:
		slog.Warn(op+" rejected", "kind", ue.Kind.String(), "message", ue.Message, "remote_addr", c.ClientIP())
	}
	c.JSON(statusFor(ue.Kind), dto.MessageResponse{Message: ue.Message})
}

func sessionError(err error) error {
	return &usecase.Error{Kind: usecase.KindSession, Message: usecase.MsgAuthError, Err: err}
}

// parseUserID reads the :userId path parameter. Non-numeric IDs become 0,
// which never matches a row.
func parseUserID(c *gin.Context) uint {
	id, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}

// Create handles POST /api/users.
func (h *UserHandler) Create(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("create user bind failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusInternalServerError, dto.MessageResponse{Message: usecase.MsgFillAllFields})
		return
	}

	user, err := h.users.Create(c.Request.Context(), usecase.CreateInput{
		Username: req.Username,
		Password: req.Password,
		Verify:   req.Verify,
	})
	if err != nil {
		respondError(c, "create user", err)
		return
	}

	if err := h.sessions.Login(c, user.ID); err != nil {
		respondError(c, "create user login", sessionError(err))
		return
	}

	slog.Info("user created", "user_id", user.ID, "remote_addr", c.ClientIP())
	c.JSON(http.StatusOK, dto.NewUserProps(user))
}

// Auth handles POST /api/users/login. The response is the stored record.
func (h *UserHandler) Auth(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("login bind failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusNotFound, dto.MessageResponse{Message: usecase.MsgAuthNotFound})
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, "login", err)
		return
	}

	if err := h.sessions.Login(c, user.ID); err != nil {
		respondError(c, "login session", sessionError(err))
		return
	}

	slog.Info("user login successful", "user_id", user.ID, "remote_addr", c.ClientIP())
	c.JSON(http.StatusOK, user)
}

// Logout handles GET /api/users/logout. It always succeeds.
func (h *UserHandler) Logout(c *gin.Context) {
	h.sessions.Logout(c)
	c.JSON(http.StatusOK, dto.MessageResponse{Message: usecase.MsgLoggedOut})
}

// List handles GET /api/users.
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		respondError(c, "list users", err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// Get handles GET /api/users/:userId.
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), parseUserID(c))
	if err != nil {
		respondError(c, "get user", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewUserProps(user))
}

// Update handles PUT /api/users/:userId.
func (h *UserHandler) Update(c *gin.Context) {
	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("update user bind failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusInternalServerError, dto.MessageResponse{Message: usecase.MsgPasswordRequired})
		return
	}

	user, err := h.users.Update(c.Request.Context(), parseUserID(c), usecase.UpdateInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, "update user", err)
		return
	}

	slog.Info("user updated", "user_id", user.ID, "remote_addr", c.ClientIP())
	c.JSON(http.StatusOK, dto.NewUserProps(user))
}

// DeleteViewer handles DELETE /api/users. It removes the signed-in user
// and ends all of that user's sessions.
func (h *UserHandler) DeleteViewer(c *gin.Context) {
	id, ok, err := h.sessions.CurrentUserID(c)
	if err != nil {
		respondError(c, "delete viewer", sessionError(err))
		return
	}
	if !ok {
		slog.Warn("delete viewer without session", "remote_addr", c.ClientIP())
		c.JSON(http.StatusForbidden, dto.MessageResponse{Message: usecase.MsgViewerNotFound})
		return
	}

	user, err := h.users.FindViewer(c.Request.Context(), id)
	if err != nil {
		respondError(c, "delete viewer", err)
		return
	}

	if err := h.sessions.LogoutEverywhere(c, user.ID); err != nil {
		respondError(c, "delete viewer logout", sessionError(err))
		return
	}

	if err := h.users.Delete(c.Request.Context(), user.ID); err != nil {
		respondError(c, "delete viewer", err)
		return
	}

	slog.Info("user deleted", "user_id", user.ID, "remote_addr", c.ClientIP())
	c.JSON(http.StatusOK, dto.ViewerResponse{Viewer: nil})
}
