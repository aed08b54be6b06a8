package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pengzhou/bz-studypal-api/internal/cache"
	"github.com/pengzhou/bz-studypal-api/internal/config"
	"github.com/pengzhou/bz-studypal-api/internal/db"
	"github.com/pengzhou/bz-studypal-api/internal/model"
	"github.com/pengzhou/bz-studypal-api/internal/password"
	"github.com/pengzhou/bz-studypal-api/internal/service"
	"github.com/pengzhou/bz-studypal-api/internal/token"
)

type memoryStore struct {
	users map[string]*model.User
}

func newMemoryStore() *memoryStore {
	return &memoryStore{users: map[string]*model.User{}}
}

func (m *memoryStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memoryStore) GetUserByID(_ context.Context, userID string) (*model.User, error) {
	u, ok := m.users[userID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *u
	return &clone, nil
}

func (m *memoryStore) CreateUser(_ context.Context, params db.CreateUserParams) (*model.User, error) {
	user := &model.User{
		ID:            uuid.NewString(),
		Email:         params.Email,
		PasswordHash:  params.PasswordHash,
		Name:          params.Name,
		Role:          model.RoleStudent,
		Status:        model.StatusActive,
		GoogleID:      params.GoogleID,
		Avatar:        params.Avatar,
		EmailVerified: params.EmailVerified,
		CreatedAt:     time.Now(),
	}
	m.users[user.ID] = user
	return user, nil
}

func (m *memoryStore) UpdateUser(_ context.Context, userID string, update model.UserUpdate) (*model.User, error) {
	u, ok := m.users[userID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if update.GoogleID != nil {
		u.GoogleID = *update.GoogleID
	}
	if update.Status != nil {
		u.Status = *update.Status
	}
	clone := *u
	return &clone, nil
}

func (m *memoryStore) TouchLastLogin(_ context.Context, userID string, at time.Time) error {
	if u, ok := m.users[userID]; ok {
		u.LastLoginAt = &at
	}
	return nil
}

func (m *memoryStore) CountOwned(_ context.Context, userID string) (int, int, error) {
	if _, ok := m.users[userID]; !ok {
		return 0, 0, pgx.ErrNoRows
	}
	return 2, 1, nil
}

type testApp struct {
	router *gin.Engine
	store  *memoryStore
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := token.NewService(config.AuthConfig{
		JWTSecret:     "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     "15m",
		RefreshTTL:    "168h",
	}, false)
	if err != nil {
		t.Fatalf("token service: %v", err)
	}

	store := newMemoryStore()
	svc := service.NewAuthService(store, password.NewHasher(false), tokens, cache.New(time.Minute), nil)
	h := NewAuthHandler(svc)

	router := gin.New()
	auth := router.Group("/api/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/google", h.Google)
		auth.POST("/refresh", h.Refresh)
		auth.GET("/status", h.Status)
		auth.POST("/logout", RequireAuth(svc), h.Logout)
		auth.GET("/profile", RequireAuth(svc), h.Profile)
	}

	return &testApp{router: router, store: store}
}

func (a *testApp) do(t *testing.T, method, path string, body any, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body: %s)", err, w.Body.String())
	}
	return env
}

func decodeAuthData(t *testing.T, w *httptest.ResponseRecorder) model.AuthResponse {
	t.Helper()
	env := decodeEnvelope(t, w)
	var data model.AuthResponse
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode auth data: %v", err)
	}
	return data
}

func TestRegisterLoginProfileFlow(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodPost, "/api/auth/register", model.RegisterRequest{
		Email:    "alice@example.com",
		Password: "Secret123",
		Name:     "Alice",
	}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	registered := decodeAuthData(t, w)
	if registered.User.Email != "alice@example.com" {
		t.Fatalf("unexpected email %q", registered.User.Email)
	}
	if registered.Tokens.AccessToken == "" || registered.Tokens.RefreshToken == "" {
		t.Fatal("expected a token pair")
	}
	if registered.ExpiresAt == nil {
		t.Fatal("expected a computed expiry")
	}

	w = app.do(t, http.MethodPost, "/api/auth/login", model.LoginRequest{
		Email:    "alice@example.com",
		Password: "Secret123",
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", w.Code)
	}
	loggedIn := decodeAuthData(t, w)

	w = app.do(t, http.MethodPost, "/api/auth/login", model.LoginRequest{
		Email:    "alice@example.com",
		Password: "WrongPass1",
	}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: expected 401, got %d", w.Code)
	}
	if env := decodeEnvelope(t, w); env.Code != "INVALID_CREDENTIALS" {
		t.Fatalf("expected INVALID_CREDENTIALS, got %q", env.Code)
	}

	w = app.do(t, http.MethodGet, "/api/auth/profile", nil, map[string]string{
		"Authorization": "Bearer " + loggedIn.Tokens.AccessToken,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("profile: expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	var profile model.Profile
	if err := json.Unmarshal(decodeEnvelope(t, w).Data, &profile); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if profile.ID != registered.User.ID {
		t.Fatalf("profile id %q != registered id %q", profile.ID, registered.User.ID)
	}
	if profile.QuestionCount != 2 || profile.SubjectCount != 1 {
		t.Fatalf("unexpected counts: %+v", profile)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	app := newTestApp(t)

	body := model.RegisterRequest{Email: "alice@example.com", Password: "Secret123", Name: "Alice"}
	if w := app.do(t, http.MethodPost, "/api/auth/register", body, nil); w.Code != http.StatusCreated {
		t.Fatalf("first register: %d", w.Code)
	}

	body.Email = "ALICE@example.com"
	w := app.do(t, http.MethodPost, "/api/auth/register", body, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	if env := decodeEnvelope(t, w); env.Code != "USER_EXISTS" {
		t.Fatalf("expected USER_EXISTS, got %q", env.Code)
	}
}

func TestRegisterValidation(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"email":    "not-an-email",
		"password": "short",
		"name":     "",
	}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if env := decodeEnvelope(t, w); env.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected VALIDATION_ERROR, got %q", env.Code)
	}
}

func TestRefreshWithCookie(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodPost, "/api/auth/register", model.RegisterRequest{
		Email: "alice@example.com", Password: "Secret123", Name: "Alice",
	}, nil)
	registered := decodeAuthData(t, w)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: token.RefreshCookieName, Value: registered.Tokens.RefreshToken})
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	rotated := decodeAuthData(t, rec)
	if rotated.Tokens.AccessToken == registered.Tokens.AccessToken {
		t.Fatal("expected a rotated access token")
	}
}

func TestRefreshWithBodyFallback(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodPost, "/api/auth/register", model.RegisterRequest{
		Email: "alice@example.com", Password: "Secret123", Name: "Alice",
	}, nil)
	registered := decodeAuthData(t, w)

	w = app.do(t, http.MethodPost, "/api/auth/refresh", model.RefreshRequest{
		RefreshToken: registered.Tokens.RefreshToken,
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("refresh via body: expected 200, got %d", w.Code)
	}
}

func TestRefreshMissingToken(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodPost, "/api/auth/refresh", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if env := decodeEnvelope(t, w); env.Code != "REFRESH_TOKEN_REQUIRED" {
		t.Fatalf("expected REFRESH_TOKEN_REQUIRED, got %q", env.Code)
	}
}

func TestLogoutClearsCookies(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodPost, "/api/auth/register", model.RegisterRequest{
		Email: "alice@example.com", Password: "Secret123", Name: "Alice",
	}, nil)
	registered := decodeAuthData(t, w)

	w = app.do(t, http.MethodPost, "/api/auth/logout", nil, map[string]string{
		"Authorization": "Bearer " + registered.Tokens.AccessToken,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", w.Code)
	}

	cleared := 0
	for _, ck := range w.Result().Cookies() {
		if ck.Name == token.AccessCookieName || ck.Name == token.RefreshCookieName {
			if ck.MaxAge >= 0 {
				t.Errorf("cookie %s not cleared (MaxAge %d)", ck.Name, ck.MaxAge)
			}
			cleared++
		}
	}
	if cleared != 2 {
		t.Fatalf("expected both cookies cleared, got %d", cleared)
	}
}

func TestAuthStatus(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodGet, "/api/auth/status", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var status model.AuthStatusResponse
	if err := json.Unmarshal(decodeEnvelope(t, w).Data, &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if !status.JWTConfigured || status.GoogleConfigured {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestGoogleEndpointWithoutConfig(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodPost, "/api/auth/google", model.GoogleAuthRequest{IDToken: "tok"}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if env := decodeEnvelope(t, w); env.Code != "OAUTH_NOT_CONFIGURED" {
		t.Fatalf("expected OAUTH_NOT_CONFIGURED, got %q", env.Code)
	}

	w = app.do(t, http.MethodPost, "/api/auth/google", model.GoogleAuthRequest{}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty request, got %d", w.Code)
	}
	if env := decodeEnvelope(t, w); env.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected VALIDATION_ERROR, got %q", env.Code)
	}
}
