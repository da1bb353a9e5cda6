package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"club-api/internal/domain"
	"club-api/internal/repository"
	"club-api/internal/service"
	apperrors "club-api/pkg/errors"
	"club-api/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 8
	// bcrypt ignores everything past 72 bytes
	maxPasswordLength = 72

	defaultMaxLoginFailures = 5
	defaultTokenTTL         = 7 * 24 * time.Hour
)

const errInvalidCredentials = "Invalid email or password"

// Options configures the auth service
type Options struct {
	Secret string
	TTL    time.Duration
	// MaxLoginFailures locks an email out of Login for one client IP once
	// reached, until the counter expires
	MaxLoginFailures int64
	// BcryptCost defaults to bcrypt.DefaultCost
	BcryptCost int
}

// sessionClaims is the JWT payload of a session token
type sessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Service implements the AuthService interface
type Service struct {
	repos       *repository.Repositories
	cache       *service.CacheService
	secret      []byte
	ttl         time.Duration
	maxFailures int64
	cost        int
	now         func() time.Time
	logger      *logger.Logger
}

// NewService creates a new auth service
func NewService(repos *repository.Repositories, cache *service.CacheService, opts Options, logger *logger.Logger) *Service {
	if opts.TTL <= 0 {
		opts.TTL = defaultTokenTTL
	}
	if opts.MaxLoginFailures <= 0 {
		opts.MaxLoginFailures = defaultMaxLoginFailures
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repos:       repos,
		cache:       cache,
		secret:      []byte(opts.Secret),
		ttl:         opts.TTL,
		maxFailures: opts.MaxLoginFailures,
		cost:        opts.BcryptCost,
		now:         time.Now,
		logger:      logger,
	}
}

var _ service.AuthService = (*Service)(nil)

// Register creates an account. Any existing account with the email is a
// conflict, including one created by adding the address to a club.
func (s *Service) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.User, error) {
	email := domain.NormalizeEmail(req.Email)
	name := strings.TrimSpace(req.Name)
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperrors.NewValidationError("A valid email is required", map[string]interface{}{"field": "email"})
	}
	if name == "" {
		return nil, apperrors.NewValidationError("Name is required", map[string]interface{}{"field": "name"})
	}
	if len(req.Password) < minPasswordLength || len(req.Password) > maxPasswordLength {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("Password must be %d to %d characters", minPasswordLength, maxPasswordLength),
			map[string]interface{}{"field": "password"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to hash password", err)
	}

	user := &domain.User{Email: email, Name: name, PasswordHash: string(hash)}
	err = s.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.repos.Users.GetByEmail(ctx, email); err == nil {
			return apperrors.NewConflictError("Email is already registered")
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return s.repos.Users.Create(ctx, user)
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.NewConflictError("Email is already registered")
		}
		return nil, apperrors.As(err)
	}

	s.logger.WithField("user_id", user.ID).Info("User registered")
	return user, nil
}

// Login verifies credentials and issues a session token
func (s *Service) Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error) {
	email := domain.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, apperrors.NewValidationError("Email and password are required", nil)
	}

	if s.cache.LoginFailures(ctx, email, req.ClientIP) >= s.maxFailures {
		s.logger.WithFields(map[string]interface{}{
			"email":     email,
			"client_ip": req.ClientIP,
		}).Warn("Login refused, too many failed attempts")
		return nil, apperrors.NewRateLimitError("Too many failed login attempts, try again later")
	}

	user, err := s.repos.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.cache.RecordLoginFailure(ctx, email, req.ClientIP)
			return nil, apperrors.NewAuthenticationError(errInvalidCredentials)
		}
		return nil, apperrors.NewInternalError("Internal server error", err)
	}
	if !user.HasPassword() {
		s.cache.RecordLoginFailure(ctx, email, req.ClientIP)
		return nil, apperrors.NewAuthenticationError(errInvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.cache.RecordLoginFailure(ctx, email, req.ClientIP)
		s.logger.WithField("user_id", user.ID).Debug("Password mismatch")
		return nil, apperrors.NewAuthenticationError(errInvalidCredentials)
	}
	s.cache.ResetLoginFailures(ctx, email, req.ClientIP)

	token, expiresAt, err := s.issueToken(user)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to issue token", err)
	}

	s.logger.WithField("user_id", user.ID).Info("User logged in")
	return &domain.AuthResponse{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *Service) issueToken(user *domain.User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := sessionClaims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateToken verifies a session token and returns its claims
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (*domain.AuthClaims, error) {
	if tokenString == "" {
		return nil, apperrors.NewAuthenticationError("Missing token")
	}

	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Verify the signing algorithm
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.NewAuthenticationError("Token has expired")
		}
		s.logger.WithError(err).Debug("Failed to parse/validate JWT token")
		return nil, apperrors.NewAuthenticationError("Invalid token")
	}
	if !token.Valid || claims.Subject == "" {
		return nil, apperrors.NewAuthenticationError("Invalid token")
	}

	out := &domain.AuthClaims{Sub: claims.Subject, Email: claims.Email}
	if claims.IssuedAt != nil {
		out.Iat = claims.IssuedAt.Unix()
	}
	if claims.ExpiresAt != nil {
		out.Exp = claims.ExpiresAt.Unix()
	}
	return out, nil
}

// GetUser returns the account behind a user ID
func (s *Service) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("User not found")
		}
		return nil, apperrors.NewInternalError("Internal server error", err)
	}
	return user, nil
}
