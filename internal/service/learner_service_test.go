package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/bursary-match-api/internal/dto"
	"github.com/noah-isme/bursary-match-api/internal/models"
	"github.com/noah-isme/bursary-match-api/internal/repository"
	appErrors "github.com/noah-isme/bursary-match-api/pkg/errors"
)

type learnerStoreStub struct {
	learners  map[string]*models.Learner
	taken     map[string]string
	createErr error
	created   *models.Learner
	updated   *models.Learner
	findCalls int
}

func newLearnerStoreStub() *learnerStoreStub {
	return &learnerStoreStub{learners: map[string]*models.Learner{}, taken: map[string]string{}}
}

func (s *learnerStoreStub) FindByID(ctx context.Context, id string) (*models.Learner, error) {
	s.findCalls++
	if l, ok := s.learners[id]; ok {
		out := *l
		return &out, nil
	}
	return nil, sql.ErrNoRows
}

func (s *learnerStoreStub) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	owner, ok := s.taken[email]
	return ok && owner != excludeID, nil
}

func (s *learnerStoreStub) Create(ctx context.Context, learner *models.Learner) error {
	if s.createErr != nil {
		return s.createErr
	}
	learner.ID = "l-new"
	learner.CreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.created = learner
	return nil
}

func (s *learnerStoreStub) Update(ctx context.Context, learner *models.Learner) error {
	s.updated = learner
	s.learners[learner.ID] = learner
	return nil
}

func newLearnerFixture() (*LearnerService, *learnerStoreStub, *AuthService) {
	store := newLearnerStoreStub()
	auth := NewAuthService(nil, nil, nil, nil, AuthConfig{Secret: "test-secret", Expiry: time.Hour})
	cache := NewCacheService(newMemoryCache(), nil, time.Minute, nil, true)
	return NewLearnerService(store, auth, cache, nil, nil), store, auth
}

func validSignup() dto.SignupRequest {
	return dto.SignupRequest{
		FirstName: "Thandi",
		LastName:  "Nkosi",
		Email:     "Thandi@Example.com",
		Password:  "Secret#123",
	}
}

func TestLearnerServiceSignup(t *testing.T) {
	svc, store, auth := newLearnerFixture()
	req := validSignup()
	req.HouseholdIncome = dec("120000")
	school := "  Grey High "
	req.SchoolName = &school

	resp, err := svc.Signup(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, store.created)
	assert.Equal(t, "thandi@example.com", store.created.Email)
	require.NotNil(t, store.created.SchoolName)
	assert.Equal(t, "Grey High", *store.created.SchoolName)
	assert.True(t, store.created.HouseholdIncome.Valid)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(store.created.PasswordHash), []byte("Secret#123")))

	assert.Equal(t, models.RoleLearner, resp.User.Role)
	claims, err := auth.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "l-new", claims.UserID)
}

func TestLearnerServiceSignupRejections(t *testing.T) {
	svc, store, _ := newLearnerFixture()
	ctx := context.Background()

	weak := validSignup()
	weak.Password = "password123"
	_, err := svc.Signup(ctx, weak)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	badName := validSignup()
	badName.FirstName = "Th4ndi"
	_, err = svc.Signup(ctx, badName)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	negative := validSignup()
	negative.HouseholdIncome = dec("-1")
	_, err = svc.Signup(ctx, negative)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	store.taken["thandi@example.com"] = "l-9"
	_, err = svc.Signup(ctx, validSignup())
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	delete(store.taken, "thandi@example.com")
	store.createErr = repository.ErrDuplicate
	_, err = svc.Signup(ctx, validSignup())
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestIsStrongPassword(t *testing.T) {
	assert.True(t, isStrongPassword("Secret#123"))
	assert.True(t, isStrongPassword("aB3!"))
	assert.False(t, isStrongPassword("Secret123"))
	assert.False(t, isStrongPassword("secret#123"))
	assert.False(t, isStrongPassword("SECRET#123"))
	assert.False(t, isStrongPassword("Secret#abc"))
	assert.False(t, isStrongPassword("Secret*123"))
}

func TestLearnerServiceProfileCache(t *testing.T) {
	svc, store, _ := newLearnerFixture()
	store.learners["l-1"] = &models.Learner{ID: "l-1", FirstName: "Thandi", LastName: "Nkosi", Email: "thandi@example.com"}
	ctx := context.Background()

	profile, hit, err := svc.GetProfile(ctx, "l-1")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "Thandi", profile.FirstName)

	_, hit, err = svc.GetProfile(ctx, "l-1")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, store.findCalls)

	name := "Lindiwe"
	updated, err := svc.UpdateProfile(ctx, "l-1", dto.UpdateProfileRequest{FirstName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Lindiwe", updated.FirstName)

	profile, hit, err = svc.GetProfile(ctx, "l-1")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "Lindiwe", profile.FirstName)

	_, _, err = svc.GetProfile(ctx, "missing")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestLearnerServiceUpdateProfileEmail(t *testing.T) {
	svc, store, _ := newLearnerFixture()
	store.learners["l-1"] = &models.Learner{ID: "l-1", FirstName: "Thandi", LastName: "Nkosi", Email: "thandi@example.com"}
	store.taken["thandi@example.com"] = "l-1"
	store.taken["sipho@example.com"] = "l-2"
	ctx := context.Background()

	same := "THANDI@example.com"
	_, err := svc.UpdateProfile(ctx, "l-1", dto.UpdateProfileRequest{Email: &same})
	require.NoError(t, err)

	taken := "sipho@example.com"
	_, err = svc.UpdateProfile(ctx, "l-1", dto.UpdateProfileRequest{Email: &taken})
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	fresh := "t.nkosi@example.com"
	resp, err := svc.UpdateProfile(ctx, "l-1", dto.UpdateProfileRequest{Email: &fresh, HouseholdIncome: dec("90000")})
	require.NoError(t, err)
	assert.Equal(t, fresh, resp.Email)
	assert.True(t, resp.HouseholdIncome.Valid)

	exists, err := svc.CheckEmailExists(ctx, " Sipho@Example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = svc.CheckEmailExists(ctx, "  ")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
