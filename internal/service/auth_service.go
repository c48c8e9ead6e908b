package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/bursary-match-api/internal/models"
	appErrors "github.com/noah-isme/bursary-match-api/pkg/errors"
	reqlog "github.com/noah-isme/bursary-match-api/pkg/logger"
)

const tokenTypeBearer = "Bearer"

type authLearnerReader interface {
	FindByEmail(ctx context.Context, email string) (*models.Learner, error)
}

type authProviderReader interface {
	FindByEmail(ctx context.Context, email string) (*models.Provider, error)
}

// AuthConfig defines configuration for token issuance.
type AuthConfig struct {
	Secret string
	Expiry time.Duration
	Issuer string
}

// AuthService authenticates learners and providers and issues HS256 access tokens.
type AuthService struct {
	learners  authLearnerReader
	providers authProviderReader
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(learners authLearnerReader, providers authProviderReader, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.Expiry <= 0 {
		config.Expiry = 24 * time.Hour
	}
	return &AuthService{learners: learners, providers: providers, validator: validate, logger: logger, config: config}
}

// LoginLearner authenticates a learner by email and password.
func (s *AuthService) LoginLearner(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	learner, err := s.learners.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch learner")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(learner.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}

	reqlog.FromContext(ctx, s.logger).Info("learner logged in", zap.String("learner_id", learner.ID))
	return s.AuthResponseFor(models.AuthUser{
		ID:        learner.ID,
		Email:     learner.Email,
		Name:      learner.FullName(),
		Role:      models.RoleLearner,
		CreatedAt: learner.CreatedAt,
	})
}

// LoginProvider authenticates a provider organisation by email and password.
func (s *AuthService) LoginProvider(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	provider, err := s.providers.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch provider")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(provider.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}

	reqlog.FromContext(ctx, s.logger).Info("provider logged in", zap.String("provider_id", provider.ID))
	return s.AuthResponseFor(models.AuthUser{
		ID:        provider.ID,
		Email:     provider.Email,
		Name:      provider.OrganizationName,
		Role:      models.RoleProvider,
		CreatedAt: provider.CreatedAt,
	})
}

// AuthResponseFor issues a token for the principal and wraps it in the login response.
func (s *AuthService) AuthResponseFor(user models.AuthUser) (*models.AuthResponse, error) {
	token, _, err := s.IssueToken(user)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}
	return &models.AuthResponse{
		Token:     token,
		TokenType: tokenTypeBearer,
		ExpiresIn: int64(s.config.Expiry.Seconds()),
		User:      user,
	}, nil
}

// IssueToken signs an access token for the principal.
func (s *AuthService) IssueToken(user models.AuthUser) (string, time.Time, error) {
	issuedAt := time.Now().UTC()
	expiresAt := issuedAt.Add(s.config.Expiry)
	claims := &models.JWTClaims{
		UserID: user.ID,
		Role:   user.Role,
		Email:  user.Email,
		Name:   user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	if claims.Role != models.RoleLearner && claims.Role != models.RoleProvider {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "unknown role in token")
	}
	return claims, nil
}

// Logout is stateless; tokens expire on their own. It exists so clients have a symmetric endpoint.
func (s *AuthService) Logout(ctx context.Context, userID string, role models.UserRole) {
	reqlog.FromContext(ctx, s.logger).Info("logout", zap.String("user_id", userID), zap.String("role", string(role)))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
