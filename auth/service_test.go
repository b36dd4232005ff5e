package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/user/notebook-go/apperror"
	"github.com/user/notebook-go/metrics"
)

type testEnv struct {
	svc     *AuthService
	users   *MemoryUserStore
	tokens  *TokenService
	metrics *metrics.Metrics
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	users := NewMemoryUserStore()
	tokens, err := NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)
	m := metrics.NewNop()
	svc, err := NewAuthService(users, NewPasswordHasher(bcrypt.MinCost), tokens, m)
	require.NoError(t, err)
	return &testEnv{svc: svc, users: users, tokens: tokens, metrics: m}
}

func annRequest() RegisterRequest {
	return RegisterRequest{Name: "Ann", Username: "ann1", Email: "ann@x.com", Password: "secret1"}
}

func TestRegister_TokenResolvesToNewUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.svc.Register(ctx, annRequest())
	require.NoError(t, err)
	assert.Equal(t, "User registered successfully", resp.Message)

	id, err := env.tokens.Verify(resp.Token)
	require.NoError(t, err)

	user, err := env.users.GetUserByEmail(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, id.UserID)
	assert.Equal(t, "Ann", user.Name)
	assert.NotEqual(t, "secret1", user.HashedPassword)
	assert.False(t, user.CreatedAt.IsZero())
}

func TestRegister_NormalizesEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := annRequest()
	req.Email = "  Ann@X.com "
	_, err := env.svc.Register(ctx, req)
	require.NoError(t, err)

	_, err = env.users.GetUserByEmail(ctx, "ann@x.com")
	require.NoError(t, err)
}

func TestRegister_DuplicateEmailConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Register(ctx, annRequest())
	require.NoError(t, err)

	again := annRequest()
	again.Username = "ann2"
	again.Email = "ANN@x.com"
	_, err = env.svc.Register(ctx, again)
	require.Error(t, err)
	assert.True(t, apperror.IsConflictError(err))

	appErr, ok := apperror.FromError(err)
	require.True(t, ok)
	assert.Equal(t, "email already registered", appErr.Message)
	assert.Len(t, env.users.byEmail, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.AuthEventsTotal.WithLabelValues("register", "conflict")))
}

func TestRegister_DuplicateUsernameConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Register(ctx, annRequest())
	require.NoError(t, err)

	again := annRequest()
	again.Email = "other@x.com"
	_, err = env.svc.Register(ctx, again)
	assert.True(t, apperror.IsConflictError(err))
	assert.ErrorIs(t, err, ErrDuplicateUsername)
}

func TestRegister_ConcurrentSameEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := annRequest()
			req.Username = "ann" + strings.Repeat("x", i+1)
			_, errs[i] = env.svc.Register(ctx, req)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, apperror.IsConflictError(err), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)
	assert.Len(t, env.users.byEmail, 1)
}

func TestRegister_ValidationListsEveryField(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Register(context.Background(), RegisterRequest{
		Name:     "An",
		Username: "a",
		Email:    "not-an-email",
		Password: "123",
	})
	require.Error(t, err)

	appErr, ok := apperror.FromError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.ValidationError, appErr.Type)

	fields := make([]string, 0, len(appErr.Fields))
	for _, f := range appErr.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"name", "username", "email", "password"}, fields)
	assert.Empty(t, env.users.byID)
}

func TestRegister_BlankNameRejected(t *testing.T) {
	env := newTestEnv(t)

	req := annRequest()
	req.Name = "   "
	req.Username = "\t\t\t"
	_, err := env.svc.Register(context.Background(), req)
	require.True(t, apperror.IsValidationError(err))

	appErr, _ := apperror.FromError(err)
	fields := make([]string, 0, len(appErr.Fields))
	for _, f := range appErr.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"name", "username"}, fields)
	assert.Empty(t, env.users.byID)
}

func TestRegister_PasswordTooLong(t *testing.T) {
	env := newTestEnv(t)

	req := annRequest()
	req.Password = strings.Repeat("p", 80)
	_, err := env.svc.Register(context.Background(), req)
	require.True(t, apperror.IsValidationError(err))
	assert.Empty(t, env.users.byID)
}

func TestLogin_Success(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	reg, err := env.svc.Register(ctx, annRequest())
	require.NoError(t, err)

	resp, err := env.svc.Login(ctx, LoginRequest{Email: "Ann@x.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "User logged in successfully", resp.Message)

	first, err := env.tokens.Verify(reg.Token)
	require.NoError(t, err)
	second, err := env.tokens.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, first.UserID, second.UserID)
}

func TestLogin_UnknownEmailAndWrongPasswordAreIdentical(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Register(ctx, annRequest())
	require.NoError(t, err)

	_, wrongPassword := env.svc.Login(ctx, LoginRequest{Email: "ann@x.com", Password: "wrong-pass"})
	_, unknownEmail := env.svc.Login(ctx, LoginRequest{Email: "nobody@x.com", Password: "secret1"})

	require.Error(t, wrongPassword)
	require.Error(t, unknownEmail)

	a, _ := apperror.FromError(wrongPassword)
	b, _ := apperror.FromError(unknownEmail)
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.Equal(t, a.Type, b.Type)
	assert.Equal(t, a.StatusCode(), b.StatusCode())
	assert.Equal(t, a.ToResponse(), b.ToResponse())
	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
}

func TestLogin_Validation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Login(context.Background(), LoginRequest{Email: "bad", Password: ""})
	require.True(t, apperror.IsValidationError(err))

	appErr, _ := apperror.FromError(err)
	assert.Len(t, appErr.Fields, 2)
}

type failingStore struct{}

var errStoreDown = errors.New("connection refused")

func (failingStore) CreateUser(context.Context, *User) (*User, error) { return nil, errStoreDown }
func (failingStore) GetUserByEmail(context.Context, string) (*User, error) {
	return nil, errStoreDown
}
func (failingStore) GetUserByID(context.Context, string) (*User, error) { return nil, errStoreDown }

func TestLogin_StoreFailureIsInternal(t *testing.T) {
	tokens, err := NewTokenService("k", time.Hour)
	require.NoError(t, err)
	svc, err := NewAuthService(failingStore{}, NewPasswordHasher(bcrypt.MinCost), tokens, nil)
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), LoginRequest{Email: "ann@x.com", Password: "secret1"})
	require.Error(t, err)

	appErr, ok := apperror.FromError(err)
	require.True(t, ok)
	assert.Equal(t, 500, appErr.StatusCode())
	assert.Equal(t, "internal server error", appErr.ToResponse().Error)
}
