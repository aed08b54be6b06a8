package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/pengzhou/bz-studypal-api/internal/cache"
	"github.com/pengzhou/bz-studypal-api/internal/db"
	"github.com/pengzhou/bz-studypal-api/internal/model"
	"github.com/pengzhou/bz-studypal-api/internal/password"
	"github.com/pengzhou/bz-studypal-api/internal/token"
)

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrUserExists           = errors.New("user already exists")
	ErrUserNotFound         = errors.New("user not found")
	ErrAccountInactive      = errors.New("account inactive")
	ErrEmailNotVerified     = errors.New("email not verified")
	ErrRefreshTokenRequired = errors.New("refresh token required")
	ErrInvalidRefreshToken  = errors.New("invalid refresh token")
	ErrOAuthNotConfigured   = errors.New("google oauth not configured")
)

// UserStore is the persistence collaborator contract. Calls are assumed
// atomic; the auth path performs no retries around them.
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, userID string) (*model.User, error)
	CreateUser(ctx context.Context, params db.CreateUserParams) (*model.User, error)
	UpdateUser(ctx context.Context, userID string, update model.UserUpdate) (*model.User, error)
	TouchLastLogin(ctx context.Context, userID string, at time.Time) error
	CountOwned(ctx context.Context, userID string) (questions, subjects int, err error)
}

// GoogleVerifier validates an externally issued Google credential. The real
// implementation lives in google.go; tests substitute a fake.
type GoogleVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (*model.GoogleClaims, error)
	ExchangeCode(ctx context.Context, code string) (*model.GoogleClaims, error)
}

type AuthService struct {
	store  UserStore
	hasher *password.Hasher
	tokens *token.Service
	users  *cache.UserCache
	google GoogleVerifier
}

// NewAuthService wires the auth subsystem. google may be nil when the
// deployment has no OAuth client configured.
func NewAuthService(store UserStore, hasher *password.Hasher, tokens *token.Service, users *cache.UserCache, google GoogleVerifier) *AuthService {
	return &AuthService{
		store:  store,
		hasher: hasher,
		tokens: tokens,
		users:  users,
		google: google,
	}
}

func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*model.User, token.Pair, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return nil, token.Pair{}, ErrUserExists
	} else if !db.IsNoRows(err) {
		return nil, token.Pair{}, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, token.Pair{}, err
	}

	user, err := s.store.CreateUser(ctx, db.CreateUserParams{
		Email:             email,
		PasswordHash:      hash,
		Name:              req.Name,
		PreferredLanguage: req.PreferredLanguage,
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, token.Pair{}, ErrUserExists
		}
		return nil, token.Pair{}, err
	}

	pair, err := s.tokens.IssuePair(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, token.Pair{}, err
	}
	return user, pair, nil
}

func (s *AuthService) Login(ctx context.Context, emailInput, passwordInput string) (*model.User, token.Pair, error) {
	email := strings.ToLower(strings.TrimSpace(emailInput))

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, token.Pair{}, ErrInvalidCredentials
		}
		return nil, token.Pair{}, err
	}

	// An OAuth-only account has no hash; failing identically to a wrong
	// password keeps account existence unguessable.
	if user.PasswordHash == "" || !s.hasher.Verify(passwordInput, user.PasswordHash) {
		return nil, token.Pair{}, ErrInvalidCredentials
	}

	if user.Status != model.StatusActive {
		return nil, token.Pair{}, ErrAccountInactive
	}

	// last_login_at is not written here: login is the hot path and the
	// timestamp is informational only.
	pair, err := s.tokens.IssuePair(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, token.Pair{}, err
	}
	return user, pair, nil
}

// GoogleAuth accepts either a raw ID token or an authorization code and
// logs in or links the matching local account.
func (s *AuthService) GoogleAuth(ctx context.Context, req model.GoogleAuthRequest) (*model.User, token.Pair, error) {
	if s.google == nil {
		return nil, token.Pair{}, ErrOAuthNotConfigured
	}

	var (
		claims *model.GoogleClaims
		err    error
	)
	switch {
	case req.IDToken != "":
		claims, err = s.google.Verify(ctx, req.IDToken)
	case req.Code != "":
		claims, err = s.google.ExchangeCode(ctx, req.Code)
	default:
		return nil, token.Pair{}, ErrInvalidInput
	}
	if err != nil {
		return nil, token.Pair{}, ErrInvalidCredentials
	}
	if !claims.EmailVerified {
		return nil, token.Pair{}, ErrEmailNotVerified
	}

	email := strings.ToLower(claims.Email)
	now := time.Now()

	user, err := s.store.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if user.GoogleID == "" {
			verified := true
			user, err = s.store.UpdateUser(ctx, user.ID, model.UserUpdate{
				GoogleID:      &claims.Subject,
				Avatar:        &claims.Picture,
				EmailVerified: &verified,
				LastLoginAt:   &now,
			})
			if err != nil {
				return nil, token.Pair{}, err
			}
		} else if err := s.store.TouchLastLogin(ctx, user.ID, now); err != nil {
			return nil, token.Pair{}, err
		}
	case db.IsNoRows(err):
		user, err = s.store.CreateUser(ctx, db.CreateUserParams{
			Email:         email,
			Name:          claims.Name,
			GoogleID:      claims.Subject,
			Avatar:        claims.Picture,
			EmailVerified: true,
		})
		if err != nil {
			return nil, token.Pair{}, err
		}
	default:
		return nil, token.Pair{}, err
	}

	if user.Status != model.StatusActive {
		return nil, token.Pair{}, ErrAccountInactive
	}

	pair, err := s.tokens.IssuePair(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, token.Pair{}, err
	}
	return user, pair, nil
}

// Refresh rotates the token pair. The user is always re-read from the store,
// never the cache: refresh crosses a trust boundary and must see the current
// account status.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*model.User, token.Pair, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, token.Pair{}, ErrRefreshTokenRequired
	}

	userID, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, token.Pair{}, ErrInvalidRefreshToken
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, token.Pair{}, ErrInvalidRefreshToken
		}
		return nil, token.Pair{}, err
	}

	if user.Status != model.StatusActive {
		return nil, token.Pair{}, ErrAccountInactive
	}

	pair, err := s.tokens.IssuePair(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, token.Pair{}, err
	}
	return user, pair, nil
}

// ResolveIdentity runs the shared middleware algorithm: verify the access
// token, resolve the user through the cache with a store fallback, and gate
// on account status.
func (s *AuthService) ResolveIdentity(ctx context.Context, accessToken string) (*model.AuthUser, error) {
	claims, err := s.tokens.VerifyAccessToken(accessToken)
	if err != nil {
		return nil, token.ErrInvalidToken
	}

	cached, ok := s.users.Get(claims.Subject)
	if !ok {
		user, err := s.store.GetUserByID(ctx, claims.Subject)
		if err != nil {
			if db.IsNoRows(err) {
				return nil, ErrUserNotFound
			}
			return nil, err
		}
		cached = user.Cached()
		s.users.Set(user.ID, cached)
	}

	if cached.Status != model.StatusActive {
		return nil, ErrAccountInactive
	}

	return &model.AuthUser{
		ID:    cached.ID,
		Email: cached.Email,
		Name:  cached.Name,
		Role:  cached.Role,
	}, nil
}

func (s *AuthService) Profile(ctx context.Context, userID string) (*model.Profile, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	questions, subjects, err := s.store.CountOwned(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &model.Profile{
		PublicUser:    user.Public(),
		QuestionCount: questions,
		SubjectCount:  subjects,
	}, nil
}

func (s *AuthService) Status() model.AuthStatusResponse {
	return model.AuthStatusResponse{
		JWTConfigured:    s.tokens != nil,
		GoogleConfigured: s.google != nil,
	}
}

func (s *AuthService) Tokens() *token.Service {
	return s.tokens
}
