package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog_backend/internal/feature/user/domain/entity"
	"blog_backend/internal/feature/user/usecase"
)

type mockUserUsecase struct {
	CreateFunc       func(ctx context.Context, in usecase.CreateInput) (*entity.User, error)
	AuthenticateFunc func(ctx context.Context, username, password string) (*entity.User, error)
	ListFunc         func(ctx context.Context) ([]entity.User, error)
	GetFunc          func(ctx context.Context, id uint) (*entity.User, error)
	UpdateFunc       func(ctx context.Context, id uint, in usecase.UpdateInput) (*entity.User, error)
	FindViewerFunc   func(ctx context.Context, id uint) (*entity.User, error)
	DeleteFunc       func(ctx context.Context, id uint) error
}

var errNotStubbed = errors.New("not stubbed")

func (m *mockUserUsecase) Create(ctx context.Context, in usecase.CreateInput) (*entity.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, in)
	}
	return nil, errNotStubbed
}

func (m *mockUserUsecase) Authenticate(ctx context.Context, username, password string) (*entity.User, error) {
	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc(ctx, username, password)
	}
	return nil, errNotStubbed
}

func (m *mockUserUsecase) List(ctx context.Context) ([]entity.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, errNotStubbed
}

func (m *mockUserUsecase) Get(ctx context.Context, id uint) (*entity.User, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, errNotStubbed
}

func (m *mockUserUsecase) Update(ctx context.Context, id uint, in usecase.UpdateInput) (*entity.User, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, in)
	}
	return nil, errNotStubbed
}

func (m *mockUserUsecase) FindViewer(ctx context.Context, id uint) (*entity.User, error) {
	if m.FindViewerFunc != nil {
		return m.FindViewerFunc(ctx, id)
	}
	return nil, errNotStubbed
}

func (m *mockUserUsecase) Delete(ctx context.Context, id uint) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return errNotStubbed
}

// fakeSessions records calls and holds at most one signed-in user.
type fakeSessions struct {
	viewer        uint
	viewerErr     error
	loginErr      error
	everywhereErr error
	logins        []uint
	logouts       int
	everywhere    []uint
}

func (f *fakeSessions) Login(_ *gin.Context, userID uint) error {
	if f.loginErr != nil {
		return f.loginErr
	}
	f.logins = append(f.logins, userID)
	f.viewer = userID
	return nil
}

func (f *fakeSessions) Logout(*gin.Context) {
	f.logouts++
	f.viewer = 0
}

func (f *fakeSessions) LogoutEverywhere(_ *gin.Context, userID uint) error {
	if f.everywhereErr != nil {
		return f.everywhereErr
	}
	f.everywhere = append(f.everywhere, userID)
	f.viewer = 0
	return nil
}

func (f *fakeSessions) CurrentUserID(*gin.Context) (uint, bool, error) {
	if f.viewerErr != nil {
		return 0, false, f.viewerErr
	}
	return f.viewer, f.viewer != 0, nil
}

func setupRouter(h *UserHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/users", h.Create)
	r.POST("/api/users/login", h.Auth)
	r.GET("/api/users/logout", h.Logout)
	r.GET("/api/users", h.List)
	r.GET("/api/users/:userId", h.Get)
	r.PUT("/api/users/:userId", h.Update)
	r.DELETE("/api/users", h.DeleteViewer)
	return r
}

func doRequest(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeMap(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m), w.Body.String())
	return m
}

func sampleUser() *entity.User {
	return &entity.User{ID: 1, Username: "alice", Email: "a@example.com", Password: "$2a$10$hash", Salt: "$2a$10$salt"}
}

func TestUserHandler_Create(t *testing.T) {
	boom := errors.New("db down")

	tests := []struct {
		name         string
		body         string
		createFunc   func(ctx context.Context, in usecase.CreateInput) (*entity.User, error)
		loginErr     error
		wantStatus   int
		wantMessage  string
		wantLoggedIn bool
	}{
		{
			name: "success",
			body: `{"username":"Alice","password":"pw","verify":"pw"}`,
			createFunc: func(_ context.Context, in usecase.CreateInput) (*entity.User, error) {
				assert.Equal(t, usecase.CreateInput{Username: "Alice", Password: "pw", Verify: "pw"}, in)
				return sampleUser(), nil
			},
			wantStatus:   http.StatusOK,
			wantLoggedIn: true,
		},
		{
			name: "validation error",
			body: `{"username":"","password":"pw","verify":"pw"}`,
			createFunc: func(context.Context, usecase.CreateInput) (*entity.User, error) {
				return nil, &usecase.Error{Kind: usecase.KindValidation, Message: usecase.MsgFillAllFields}
			},
			wantStatus:  http.StatusInternalServerError,
			wantMessage: usecase.MsgFillAllFields,
		},
		{
			name:        "malformed body",
			body:        `{"username":`,
			wantStatus:  http.StatusInternalServerError,
			wantMessage: usecase.MsgFillAllFields,
		},
		{
			name: "persistence error is sanitized",
			body: `{"username":"a","password":"pw","verify":"pw"}`,
			createFunc: func(context.Context, usecase.CreateInput) (*entity.User, error) {
				return nil, &usecase.Error{Kind: usecase.KindPersistence, Message: usecase.MsgInternalServerError, Err: boom}
			},
			wantStatus:  http.StatusInternalServerError,
			wantMessage: usecase.MsgInternalServerError,
		},
		{
			name: "untyped error is sanitized",
			body: `{"username":"a","password":"pw","verify":"pw"}`,
			createFunc: func(context.Context, usecase.CreateInput) (*entity.User, error) {
				return nil, boom
			},
			wantStatus:  http.StatusInternalServerError,
			wantMessage: usecase.MsgInternalServerError,
		},
		{
			name: "session failure",
			body: `{"username":"a","password":"pw","verify":"pw"}`,
			createFunc: func(context.Context, usecase.CreateInput) (*entity.User, error) {
				return sampleUser(), nil
			},
			loginErr:    errors.New("redis down"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: usecase.MsgAuthError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions := &fakeSessions{loginErr: tt.loginErr}
			r := setupRouter(NewUserHandler(&mockUserUsecase{CreateFunc: tt.createFunc}, sessions))

			w := doRequest(r, http.MethodPost, "/api/users", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)

			body := decodeMap(t, w)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, body["message"])
				assert.NotContains(t, w.Body.String(), boom.Error())
			} else {
				assert.Equal(t, "alice", body["username"])
				assert.NotContains(t, body, "password")
				assert.NotContains(t, body, "salt")
			}
			assert.Equal(t, tt.wantLoggedIn, len(sessions.logins) == 1)
		})
	}
}

func TestUserHandler_Auth(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		authFunc    func(ctx context.Context, username, password string) (*entity.User, error)
		loginErr    error
		wantStatus  int
		wantMessage string
	}{
		{
			name: "success returns the stored record",
			body: `{"username":"alice","password":"pw"}`,
			authFunc: func(_ context.Context, username, password string) (*entity.User, error) {
				assert.Equal(t, "alice", username)
				assert.Equal(t, "pw", password)
				return sampleUser(), nil
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "bad credentials",
			body: `{"username":"alice","password":"nope"}`,
			authFunc: func(context.Context, string, string) (*entity.User, error) {
				return nil, &usecase.Error{Kind: usecase.KindNotFound, Message: usecase.MsgAuthNotFound}
			},
			wantStatus:  http.StatusNotFound,
			wantMessage: usecase.MsgAuthNotFound,
		},
		{
			name: "authenticator error",
			body: `{"username":"alice","password":"pw"}`,
			authFunc: func(context.Context, string, string) (*entity.User, error) {
				return nil, &usecase.Error{Kind: usecase.KindPersistence, Message: usecase.MsgAuthFailed, Err: errors.New("db")}
			},
			wantStatus:  http.StatusInternalServerError,
			wantMessage: usecase.MsgAuthFailed,
		},
		{
			name:        "malformed body",
			body:        `not json`,
			wantStatus:  http.StatusNotFound,
			wantMessage: usecase.MsgAuthNotFound,
		},
		{
			name: "session failure",
			body: `{"username":"alice","password":"pw"}`,
			authFunc: func(context.Context, string, string) (*entity.User, error) {
				return sampleUser(), nil
			},
			loginErr:    errors.New("redis down"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: usecase.MsgAuthError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions := &fakeSessions{loginErr: tt.loginErr}
			r := setupRouter(NewUserHandler(&mockUserUsecase{AuthenticateFunc: tt.authFunc}, sessions))

			w := doRequest(r, http.MethodPost, "/api/users/login", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)

			body := decodeMap(t, w)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, body["message"])
				return
			}
			assert.Equal(t, "alice", body["username"])
			assert.Equal(t, "$2a$10$hash", body["password"])
			assert.Equal(t, "$2a$10$salt", body["salt"])
			assert.Equal(t, []uint{1}, sessions.logins)
		})
	}
}

func TestUserHandler_Logout_Twice(t *testing.T) {
	sessions := &fakeSessions{viewer: 3}
	r := setupRouter(NewUserHandler(&mockUserUsecase{}, sessions))

	first := doRequest(r, http.MethodGet, "/api/users/logout", "")
	second := doRequest(r, http.MethodGet, "/api/users/logout", "")

	for _, w := range []*httptest.ResponseRecorder{first, second} {
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"message":"You are successfully logged out"}`, w.Body.String())
	}
	assert.Equal(t, 2, sessions.logouts)
}

func TestUserHandler_List(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		uc := &mockUserUsecase{ListFunc: func(context.Context) ([]entity.User, error) {
			return []entity.User{{ID: 2, Username: "bob"}, {ID: 1, Username: "alice"}}, nil
		}}
		r := setupRouter(NewUserHandler(uc, &fakeSessions{}))

		w := doRequest(r, http.MethodGet, "/api/users", "")
		require.Equal(t, http.StatusOK, w.Code)

		var got []map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		require.Len(t, got, 2)
		assert.Equal(t, "bob", got[0]["username"])
		for _, u := range got {
			assert.NotContains(t, u, "password")
			assert.NotContains(t, u, "salt")
		}
	})

	t.Run("empty list is an array", func(t *testing.T) {
		uc := &mockUserUsecase{ListFunc: func(context.Context) ([]entity.User, error) {
			return []entity.User{}, nil
		}}
		r := setupRouter(NewUserHandler(uc, &fakeSessions{}))

		w := doRequest(r, http.MethodGet, "/api/users", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})

	t.Run("persistence failure", func(t *testing.T) {
		r := setupRouter(NewUserHandler(&mockUserUsecase{}, &fakeSessions{}))

		w := doRequest(r, http.MethodGet, "/api/users", "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"message":"internal server error"}`, w.Body.String())
	})
}

func TestUserHandler_Get(t *testing.T) {
	notFound := func(context.Context, uint) (*entity.User, error) {
		return nil, &usecase.Error{Kind: usecase.KindNotFound, Message: usecase.MsgUserGetNotFound}
	}

	tests := []struct {
		name       string
		path       string
		getFunc    func(ctx context.Context, id uint) (*entity.User, error)
		wantID     uint
		wantStatus int
		wantBody   string
	}{
		{
			name: "found drops relations",
			path: "/api/users/1",
			getFunc: func(context.Context, uint) (*entity.User, error) {
				u := sampleUser()
				u.Password, u.Salt = "", ""
				u.Posts = []entity.Post{{ID: 9, Title: "hello"}}
				return u, nil
			},
			wantID:     1,
			wantStatus: http.StatusOK,
		},
		{
			name:       "not found",
			path:       "/api/users/42",
			getFunc:    notFound,
			wantID:     42,
			wantStatus: http.StatusNotFound,
			wantBody:   `{"message":"404 on user get"}`,
		},
		{
			name:       "non-numeric id",
			path:       "/api/users/abc",
			getFunc:    notFound,
			wantID:     0,
			wantStatus: http.StatusNotFound,
			wantBody:   `{"message":"404 on user get"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotID uint
			uc := &mockUserUsecase{GetFunc: func(ctx context.Context, id uint) (*entity.User, error) {
				gotID = id
				return tt.getFunc(ctx, id)
			}}
			r := setupRouter(NewUserHandler(uc, &fakeSessions{}))

			w := doRequest(r, http.MethodGet, tt.path, "")
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantID, gotID)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, w.Body.String())
				return
			}
			body := decodeMap(t, w)
			assert.ElementsMatch(t, []string{"id", "username", "email", "createdAt", "updatedAt"}, keys(body))
		})
	}
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestUserHandler_Update(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		body       string
		updateFunc func(ctx context.Context, id uint, in usecase.UpdateInput) (*entity.User, error)
		wantStatus int
		wantBody   string
	}{
		{
			name: "success",
			path: "/api/users/1",
			body: `{"email":"new@example.com","password":"pw"}`,
			updateFunc: func(_ context.Context, id uint, in usecase.UpdateInput) (*entity.User, error) {
				assert.Equal(t, uint(1), id)
				require.NotNil(t, in.Email)
				assert.Equal(t, "new@example.com", *in.Email)
				assert.Nil(t, in.Username)
				u := sampleUser()
				u.Email = *in.Email
				return u, nil
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "missing password",
			path: "/api/users/1",
			body: `{"email":"new@example.com","username":"bob"}`,
			updateFunc: func(context.Context, uint, usecase.UpdateInput) (*entity.User, error) {
				return nil, &usecase.Error{Kind: usecase.KindValidation, Message: usecase.MsgPasswordRequired}
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"message":"You must provide a password."}`,
		},
		{
			name:       "malformed body",
			path:       "/api/users/1",
			body:       `[`,
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"message":"You must provide a password."}`,
		},
		{
			name: "not found",
			path: "/api/users/7",
			body: `{"password":"pw"}`,
			updateFunc: func(context.Context, uint, usecase.UpdateInput) (*entity.User, error) {
				return nil, &usecase.Error{Kind: usecase.KindNotFound, Message: usecase.MsgUpdateNotFound}
			},
			wantStatus: http.StatusNotFound,
			wantBody:   `{"message":"404 no user on update"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setupRouter(NewUserHandler(&mockUserUsecase{UpdateFunc: tt.updateFunc}, &fakeSessions{}))

			w := doRequest(r, http.MethodPut, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, w.Body.String())
				return
			}
			body := decodeMap(t, w)
			assert.Equal(t, "new@example.com", body["email"])
			assert.NotContains(t, body, "password")
			assert.NotContains(t, body, "salt")
		})
	}
}

func TestUserHandler_DeleteViewer(t *testing.T) {
	forbidden := &usecase.Error{Kind: usecase.KindForbidden, Message: usecase.MsgViewerNotFound}

	tests := []struct {
		name           string
		viewer         uint
		findFunc       func(ctx context.Context, id uint) (*entity.User, error)
		deleteFunc     func(ctx context.Context, id uint) error
		viewerErr      error
		everywhereErr  error
		wantStatus     int
		wantBody       string
		wantEverywhere []uint
	}{
		{
			name:   "success",
			viewer: 1,
			findFunc: func(context.Context, uint) (*entity.User, error) {
				return sampleUser(), nil
			},
			deleteFunc:     func(context.Context, uint) error { return nil },
			wantStatus:     http.StatusOK,
			wantBody:       `{"viewer":null}`,
			wantEverywhere: []uint{1},
		},
		{
			name:       "no session",
			viewer:     0,
			wantStatus: http.StatusForbidden,
			wantBody:   `{"message":"Forbidden: User Not Found"}`,
		},
		{
			name:   "session user no longer exists",
			viewer: 5,
			findFunc: func(context.Context, uint) (*entity.User, error) {
				return nil, forbidden
			},
			wantStatus: http.StatusForbidden,
			wantBody:   `{"message":"Forbidden: User Not Found"}`,
		},
		{
			name:   "delete fails",
			viewer: 1,
			findFunc: func(context.Context, uint) (*entity.User, error) {
				return sampleUser(), nil
			},
			deleteFunc: func(context.Context, uint) error {
				return &usecase.Error{Kind: usecase.KindPersistence, Message: usecase.MsgInternalServerError, Err: errors.New("fk")}
			},
			wantStatus:     http.StatusInternalServerError,
			wantBody:       `{"message":"internal server error"}`,
			wantEverywhere: []uint{1},
		},
		{
			name:   "session revocation fails",
			viewer: 1,
			findFunc: func(context.Context, uint) (*entity.User, error) {
				return sampleUser(), nil
			},
			everywhereErr: errors.New("redis down"),
			wantStatus:    http.StatusInternalServerError,
			wantBody:      `{"message":"Auth error"}`,
		},
		{
			name:       "session store unreachable",
			viewer:     1,
			viewerErr:  errors.New("redis: connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"message":"Auth error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions := &fakeSessions{viewer: tt.viewer, viewerErr: tt.viewerErr, everywhereErr: tt.everywhereErr}
			uc := &mockUserUsecase{FindViewerFunc: tt.findFunc, DeleteFunc: tt.deleteFunc}
			r := setupRouter(NewUserHandler(uc, sessions))

			w := doRequest(r, http.MethodDelete, "/api/users", "")
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
			assert.Equal(t, tt.wantEverywhere, sessions.everywhere)
		})
	}
}
