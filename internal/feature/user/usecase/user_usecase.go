package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"dario.cat/mergo"

	"blog_backend/internal/feature/user/domain/entity"
)

// UserRepository abstracts the persistence layer for user entities.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type UserRepository interface {
	// Create persists a new user. Returns ErrUsernameTaken on a duplicate username.
	Create(ctx context.Context, user *entity.User) error

	// FindAll returns every user newest first, without salt and password.
	FindAll(ctx context.Context) ([]entity.User, error)

	// FindByID returns the full user record.
	FindByID(ctx context.Context, id uint) (*entity.User, error)

	// FindByIDWithRelations returns the user without salt and password,
	// with posts and comments attached.
	FindByIDWithRelations(ctx context.Context, id uint) (*entity.User, error)

	// FindByUsername returns the full user record for a login name.
	FindByUsername(ctx context.Context, username string) (*entity.User, error)

	// Update writes the mutable profile columns of user.
	Update(ctx context.Context, user *entity.User) error

	// Delete removes the user and everything that cascades from it.
	Delete(ctx context.Context, id uint) error
}

// CreateInput carries the registration form.
type CreateInput struct {
	Username string
	Password string
	Verify   string
}

// UpdateInput carries a profile change. A nil or empty field keeps the stored value.
type UpdateInput struct {
	Email    *string
	Username *string
	Password *string
}

// userUsecase implements the user operations.
type userUsecase struct {
	users UserRepository
}

// NewUserUsecase creates a new userUsecase.
func NewUserUsecase(users UserRepository) *userUsecase {
	return &userUsecase{users: users}
}

// Create validates the registration form and stores a new user with a
// lowercased username and a salted hash.
func (u *userUsecase) Create(ctx context.Context, in CreateInput) (*entity.User, error) {
	if isEmptyOrNull(in.Username) || isEmptyOrNull(in.Password) || isEmptyOrNull(in.Verify) {
		return nil, validationError(MsgFillAllFields)
	}
	if in.Password != in.Verify {
		return nil, validationError(MsgPasswordsMismatch)
	}

	hash, salt, err := hashPassword(in.Password)
	if err != nil {
		return nil, persistenceError(err)
	}

	user := &entity.User{
		Username: strings.ToLower(in.Username),
		Salt:     salt,
		Password: hash,
	}
	if err := u.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			return nil, &Error{Kind: KindPersistence, Message: ErrUsernameTaken.Error(), Err: err}
		}
		return nil, persistenceError(err)
	}
	return user, nil
}

// Authenticate is the local credential strategy.
// The bcrypt comparison runs even when the user is unknown.
func (u *userUsecase) Authenticate(ctx context.Context, username, password string) (*entity.User, error) {
	user, err := u.users.FindByUsername(ctx, strings.ToLower(username))
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, &Error{Kind: KindPersistence, Message: MsgAuthFailed, Err: err}
	}

	passwordHash := dummyHash
	if user != nil {
		passwordHash = user.Password
	}
	matched := checkPassword(passwordHash, password)

	if user == nil || !matched {
		return nil, notFoundError(MsgAuthNotFound, ErrInvalidCredentials)
	}
	return user, nil
}

// List returns all users newest first.
func (u *userUsecase) List(ctx context.Context) ([]entity.User, error) {
	users, err := u.users.FindAll(ctx)
	if err != nil {
		return nil, persistenceError(err)
	}
	return users, nil
}

// Get returns one user with posts and comments loaded.
func (u *userUsecase) Get(ctx context.Context, id uint) (*entity.User, error) {
	user, err := u.users.FindByIDWithRelations(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, notFoundError(MsgUserGetNotFound, err)
		}
		return nil, persistenceError(err)
	}
	return user, nil
}

// profile holds the columns an update may change.
type profile struct {
	Email    string
	Username string
	Password string
	Salt     string
}

// Update changes email, username and password. A password is required on
// every update and is stored re-hashed with a new salt.
func (u *userUsecase) Update(ctx context.Context, id uint, in UpdateInput) (*entity.User, error) {
	if isEmptyOrNull(deref(in.Password)) {
		return nil, validationError(MsgPasswordRequired)
	}

	user, err := u.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, notFoundError(MsgUpdateNotFound, err)
		}
		return nil, persistenceError(err)
	}

	hash, salt, err := hashPassword(deref(in.Password))
	if err != nil {
		return nil, persistenceError(err)
	}

	next := profile{
		Email:    deref(in.Email),
		Username: deref(in.Username),
		Password: hash,
		Salt:     salt,
	}
	current := profile{
		Email:    user.Email,
		Username: user.Username,
		Password: user.Password,
		Salt:     user.Salt,
	}
	// Empty fields of next are filled from current.
	if err := mergo.Merge(&next, current); err != nil {
		return nil, persistenceError(fmt.Errorf("failed to merge profile: %w", err))
	}

	user.Email = next.Email
	user.Username = next.Username
	user.Password = next.Password
	user.Salt = next.Salt

	if err := u.users.Update(ctx, user); err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			return nil, &Error{Kind: KindPersistence, Message: ErrUsernameTaken.Error(), Err: err}
		}
		return nil, persistenceError(err)
	}
	return user, nil
}

// FindViewer resolves the signed-in user. A missing record is Forbidden.
func (u *userUsecase) FindViewer(ctx context.Context, id uint) (*entity.User, error) {
	user, err := u.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, forbiddenError(MsgViewerNotFound, err)
		}
		return nil, persistenceError(err)
	}
	return user, nil
}

// Delete destroys the user record.
func (u *userUsecase) Delete(ctx context.Context, id uint) error {
	if err := u.users.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return forbiddenError(MsgViewerNotFound, err)
		}
		return persistenceError(err)
	}
	return nil
}
