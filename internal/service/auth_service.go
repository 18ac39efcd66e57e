package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	apperrors "studiora/backend/internal/errors"
	"studiora/backend/internal/events"
	"studiora/backend/internal/model"
	"studiora/backend/internal/repository"
)

const verificationTTL = 24 * time.Hour

type AuthEventType string

const (
	AuthSignedUp  AuthEventType = "signed_up"
	AuthSignedIn  AuthEventType = "signed_in"
	AuthSignedOut AuthEventType = "signed_out"
)

// AuthEvent notifies listeners that a session started or ended.
type AuthEvent struct {
	Type      AuthEventType
	UserID    string
	SessionID string
	At        time.Time
	// LastSession is set on signed_out when the user has no other open session.
	LastSession bool
}

type AuthService struct {
	userRepo         *repository.UserRepository
	sessionRepo      *repository.SessionRepository
	verificationRepo *repository.VerificationRepository
	hub              *events.Hub[AuthEvent]
	jwtSecret        []byte
	tokenTTL         time.Duration
	log              *slog.Logger
}

func NewAuthService(
	userRepo *repository.UserRepository,
	sessionRepo *repository.SessionRepository,
	verificationRepo *repository.VerificationRepository,
	jwtSecret string,
	tokenTTL time.Duration,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		userRepo:         userRepo,
		sessionRepo:      sessionRepo,
		verificationRepo: verificationRepo,
		hub:              events.NewHub[AuthEvent](),
		jwtSecret:        []byte(jwtSecret),
		tokenTTL:         tokenTTL,
		log:              logger,
	}
}

type AuthResult struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
	User      model.User `json:"user"`
}

// Principal identifies the caller of an authenticated request.
type Principal struct {
	UserID    string
	SessionID string
}

type SessionView struct {
	User    model.User        `json:"user"`
	Session model.AuthSession `json:"session"`
}

// Subscribe registers listener for auth events and returns its unsubscribe func.
func (s *AuthService) Subscribe(listener func(AuthEvent)) func() {
	return s.hub.Subscribe(listener)
}

// Releaser drops whatever a service keeps in memory for a user.
type Releaser interface {
	Release(userID string)
}

// ReleaseOnSignOut calls every releaser when a user closes their last open
// session. State shared with the user's other devices is kept.
func (s *AuthService) ReleaseOnSignOut(releasers ...Releaser) func() {
	return s.Subscribe(func(event AuthEvent) {
		if event.Type != AuthSignedOut || !event.LastSession {
			return
		}
		for _, releaser := range releasers {
			releaser.Release(event.UserID)
		}
	})
}

func (s *AuthService) SignUp(ctx context.Context, email, password, name string) (*AuthResult, *apperrors.APIError) {
	normalizedEmail := normalizeEmail(email)
	if normalizedEmail == "" {
		return nil, apperrors.Validation("email", "email is required")
	}
	if len(password) < 6 {
		return nil, apperrors.Validation("password", "password must be at least 6 characters")
	}

	_, err := s.userRepo.GetByEmail(ctx, normalizedEmail)
	if err == nil {
		return nil, apperrors.Conflict("email_exists", "email already registered", nil)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		s.log.Error("query user", "error", err)
		return nil, apperrors.Internal("failed to query user")
	}

	passwordHashBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Internal("failed to secure password")
	}

	now := time.Now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Email:        normalizedEmail,
		Name:         strings.TrimSpace(name),
		PasswordHash: string(passwordHashBytes),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, &user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.Conflict("email_exists", "email already registered", nil)
		}
		s.log.Error("create user", "error", err)
		return nil, apperrors.Internal("failed to create user")
	}

	if err := s.issueVerification(ctx, user, now); err != nil {
		s.log.Error("issue verification", "user_id", user.ID, "error", err)
	}

	return s.startSession(ctx, user, now, AuthSignedUp)
}

func (s *AuthService) SignIn(ctx context.Context, email, password string) (*AuthResult, *apperrors.APIError) {
	normalizedEmail := normalizeEmail(email)
	if normalizedEmail == "" || password == "" {
		return nil, apperrors.Validation("email", "email and password are required")
	}

	user, err := s.userRepo.GetByEmail(ctx, normalizedEmail)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, invalidCredentials()
	}
	if err != nil {
		s.log.Error("query user", "error", err)
		return nil, apperrors.Internal("failed to query user")
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, invalidCredentials()
	}

	return s.startSession(ctx, *user, time.Now().UTC(), AuthSignedIn)
}

// Authenticate validates a bearer token and checks that its session is still open.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*Principal, *apperrors.APIError) {
	claims, apiErr := s.parseToken(tokenString)
	if apiErr != nil {
		return nil, apiErr
	}

	session, err := s.sessionRepo.Get(ctx, claims.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Unauthorized("session not found")
	}
	if err != nil {
		s.log.Error("get session", "error", err)
		return nil, apperrors.Internal("failed to check session")
	}
	if session.RevokedAt != nil {
		return nil, apperrors.Unauthorized("session signed out")
	}
	if session.UserID != claims.Subject {
		return nil, apperrors.Unauthorized("invalid token subject")
	}

	return &Principal{UserID: session.UserID, SessionID: session.ID}, nil
}

func (s *AuthService) GetSession(ctx context.Context, principal Principal) (*SessionView, *apperrors.APIError) {
	user, err := s.userRepo.GetByID(ctx, principal.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Unauthorized("user no longer exists")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to query user")
	}
	session, err := s.sessionRepo.Get(ctx, principal.SessionID)
	if err != nil {
		return nil, apperrors.Unauthorized("session not found")
	}
	return &SessionView{User: *user, Session: *session}, nil
}

// SignOut revokes the session. Listeners receive signed_out with LastSession
// set when no other session of the user is still open.
func (s *AuthService) SignOut(ctx context.Context, principal Principal) *apperrors.APIError {
	now := time.Now().UTC()
	err := s.sessionRepo.Revoke(ctx, principal.SessionID, now)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.log.Error("revoke session", "session_id", principal.SessionID, "error", err)
		return apperrors.Internal("failed to sign out")
	}

	active, err := s.sessionRepo.CountActive(ctx, principal.UserID, now)
	if err != nil {
		// Keep the user's state when the count is unknown.
		s.log.Error("count active sessions", "user_id", principal.UserID, "error", err)
		active = 1
	}
	s.hub.Publish(AuthEvent{
		Type:        AuthSignedOut,
		UserID:      principal.UserID,
		SessionID:   principal.SessionID,
		At:          now,
		LastSession: active == 0,
	})
	return nil
}

// ResendVerification replaces the outstanding verification token. Unknown or
// already verified addresses succeed without doing anything.
func (s *AuthService) ResendVerification(ctx context.Context, email string) *apperrors.APIError {
	normalizedEmail := normalizeEmail(email)
	if normalizedEmail == "" {
		return apperrors.Validation("email", "email is required")
	}

	user, err := s.userRepo.GetByEmail(ctx, normalizedEmail)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return apperrors.Internal("failed to query user")
	}
	if user.EmailVerified {
		return nil
	}

	if err := s.issueVerification(ctx, *user, time.Now().UTC()); err != nil {
		s.log.Error("issue verification", "user_id", user.ID, "error", err)
		return apperrors.Internal("failed to resend verification")
	}
	return nil
}

// startSession opens a session and publishes eventType for it.
func (s *AuthService) startSession(ctx context.Context, user model.User, now time.Time, eventType AuthEventType) (*AuthResult, *apperrors.APIError) {
	session := model.AuthSession{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.tokenTTL),
	}
	if err := s.sessionRepo.Create(ctx, &session); err != nil {
		s.log.Error("create session", "user_id", user.ID, "error", err)
		return nil, apperrors.Internal("failed to create session")
	}

	token, apiErr := s.issueToken(session)
	if apiErr != nil {
		return nil, apiErr
	}
	s.publish(eventType, user.ID, session.ID, now)

	user.PasswordHash = ""
	return &AuthResult{
		Token:     token,
		ExpiresAt: session.ExpiresAt,
		User:      user,
	}, nil
}

func (s *AuthService) issueVerification(ctx context.Context, user model.User, now time.Time) error {
	return s.verificationRepo.Replace(ctx, &model.VerificationRequest{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		Email:     user.Email,
		CreatedAt: now,
		ExpiresAt: now.Add(verificationTTL),
	})
}

func (s *AuthService) parseToken(tokenString string) (*jwt.RegisteredClaims, *apperrors.APIError) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperrors.Unauthorized("invalid token")
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return nil, apperrors.Unauthorized("invalid token")
	}

	if claims.Subject == "" || claims.ID == "" {
		return nil, apperrors.Unauthorized("invalid token subject")
	}

	return claims, nil
}

func (s *AuthService) issueToken(session model.AuthSession) (string, *apperrors.APIError) {
	claims := jwt.RegisteredClaims{
		Subject:   session.UserID,
		ID:        session.ID,
		IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
		ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", apperrors.Internal("failed to sign token")
	}
	return signed, nil
}

func (s *AuthService) publish(eventType AuthEventType, userID, sessionID string, at time.Time) {
	s.hub.Publish(AuthEvent{Type: eventType, UserID: userID, SessionID: sessionID, At: at})
}

func invalidCredentials() *apperrors.APIError {
	return apperrors.New(http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
