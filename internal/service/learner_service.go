package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/bursary-match-api/internal/dto"
	"github.com/noah-isme/bursary-match-api/internal/models"
	"github.com/noah-isme/bursary-match-api/internal/repository"
	appErrors "github.com/noah-isme/bursary-match-api/pkg/errors"
	reqlog "github.com/noah-isme/bursary-match-api/pkg/logger"
)

var personNamePattern = regexp.MustCompile(`^[A-Za-z\s]+$`)

const passwordSymbols = "@#$%^&+=!"

type learnerStore interface {
	FindByID(ctx context.Context, id string) (*models.Learner, error)
	ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error)
	Create(ctx context.Context, learner *models.Learner) error
	Update(ctx context.Context, learner *models.Learner) error
}

type authResponder interface {
	AuthResponseFor(user models.AuthUser) (*models.AuthResponse, error)
}

// LearnerService manages learner accounts and profiles.
type LearnerService struct {
	repo      learnerStore
	auth      authResponder
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLearnerService constructs a LearnerService and registers its custom validators.
func NewLearnerService(repo learnerStore, auth authResponder, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *LearnerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &LearnerService{repo: repo, auth: auth, cache: cache, validator: validate, logger: logger}
	svc.validator.RegisterValidation("personname", func(fl validator.FieldLevel) bool {
		return personNamePattern.MatchString(fl.Field().String())
	})
	svc.validator.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return isStrongPassword(fl.Field().String())
	})
	return svc
}

// Signup registers a learner and returns an access token.
func (s *LearnerService) Signup(ctx context.Context, req dto.SignupRequest) (*models.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid signup payload")
	}
	if req.HouseholdIncome != nil && req.HouseholdIncome.IsNegative() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "household income cannot be negative")
	}

	email := normalizeEmail(req.Email)
	exists, err := s.repo.ExistsByEmail(ctx, email, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	learner := &models.Learner{
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        email,
		PasswordHash: string(hash),
		SchoolName:   trimmedOrNil(req.SchoolName),
		Location:     trimmedOrNil(req.Location),
	}
	if req.HouseholdIncome != nil {
		learner.HouseholdIncome.Decimal = *req.HouseholdIncome
		learner.HouseholdIncome.Valid = true
	}
	if err := s.repo.Create(ctx, learner); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create learner")
	}

	reqlog.FromContext(ctx, s.logger).Info("learner registered", zap.String("learner_id", learner.ID))
	return s.auth.AuthResponseFor(models.AuthUser{
		ID:        learner.ID,
		Email:     learner.Email,
		Name:      learner.FullName(),
		Role:      models.RoleLearner,
		CreatedAt: learner.CreatedAt,
	})
}

// GetProfile returns the learner's own profile. The flag reports a cache hit.
func (s *LearnerService) GetProfile(ctx context.Context, learnerID string) (*dto.LearnerProfileResponse, bool, error) {
	key := profileCacheKey(learnerID)
	var cached dto.LearnerProfileResponse
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	learner, err := s.load(ctx, learnerID)
	if err != nil {
		return nil, false, err
	}
	resp := learnerProfileResponse(learner)
	_ = s.cache.Set(ctx, key, resp, 0)
	return resp, false, nil
}

// UpdateProfile applies the provided fields and evicts the cached profile.
func (s *LearnerService) UpdateProfile(ctx context.Context, learnerID string, req dto.UpdateProfileRequest) (*dto.LearnerProfileResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}
	if req.HouseholdIncome != nil && req.HouseholdIncome.IsNegative() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "household income cannot be negative")
	}

	learner, err := s.load(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if email != learner.Email {
			exists, err := s.repo.ExistsByEmail(ctx, email, learner.ID)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
			}
			if exists {
				return nil, appErrors.Clone(appErrors.ErrConflict, "email already in use")
			}
			learner.Email = email
		}
	}
	if req.FirstName != nil {
		learner.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		learner.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.SchoolName != nil {
		learner.SchoolName = trimmedOrNil(req.SchoolName)
	}
	if req.Location != nil {
		learner.Location = trimmedOrNil(req.Location)
	}
	if req.HouseholdIncome != nil {
		learner.HouseholdIncome.Decimal = *req.HouseholdIncome
		learner.HouseholdIncome.Valid = true
	}

	if err := s.repo.Update(ctx, learner); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already in use")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}
	_ = s.cache.Evict(ctx, profileCacheKey(learnerID))

	reqlog.FromContext(ctx, s.logger).Info("learner profile updated", zap.String("learner_id", learnerID))
	return learnerProfileResponse(learner), nil
}

// CheckEmailExists reports whether an email is already registered.
func (s *LearnerService) CheckEmailExists(ctx context.Context, email string) (bool, error) {
	email = normalizeEmail(email)
	if email == "" {
		return false, appErrors.Clone(appErrors.ErrValidation, "email is required")
	}
	exists, err := s.repo.ExistsByEmail(ctx, email, "")
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}
	return exists, nil
}

func (s *LearnerService) load(ctx context.Context, learnerID string) (*models.Learner, error) {
	learner, err := s.repo.FindByID(ctx, learnerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "learner not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load learner")
	}
	return learner, nil
}

func learnerProfileResponse(l *models.Learner) *dto.LearnerProfileResponse {
	return &dto.LearnerProfileResponse{
		ID:              l.ID,
		FirstName:       l.FirstName,
		LastName:        l.LastName,
		Email:           l.Email,
		SchoolName:      l.SchoolName,
		HouseholdIncome: l.HouseholdIncome,
		Location:        l.Location,
	}
}

func profileCacheKey(learnerID string) string {
	return fmt.Sprintf("%s:%s", cacheKeyLearnerProfile, learnerID)
}

func isStrongPassword(pw string) bool {
	var digit, lower, upper, symbol bool
	for _, r := range pw {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		}
	}
	return digit && lower && upper && symbol
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
