package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/filekeep/server/internal/model"
	"github.com/filekeep/server/internal/repo"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]model.User)}
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return model.User{}, repo.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) Create(_ context.Context, id, passwordHash string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; ok {
		return model.User{}, repo.ErrDuplicate
	}
	u := model.User{ID: id, PasswordHash: passwordHash, CreatedAt: time.Now()}
	f.users[id] = u
	return u, nil
}

type fakeRefreshRepo struct {
	mu     sync.Mutex
	rows   []model.RefreshToken
	nextID int64
}

func (f *fakeRefreshRepo) Create(_ context.Context, userID, token, deviceID string, expiresAt time.Time) (model.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	rt := model.RefreshToken{
		ID:        f.nextID,
		UserID:    userID,
		Token:     token,
		DeviceID:  deviceID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	f.rows = append(f.rows, rt)
	return rt, nil
}

func (f *fakeRefreshRepo) FindByToken(_ context.Context, token string) (model.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rt := range f.rows {
		if rt.Token == token {
			return rt, nil
		}
	}
	return model.RefreshToken{}, repo.ErrNotFound
}

func (f *fakeRefreshRepo) DeleteByUserAndDevice(_ context.Context, userID, deviceID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.rows[:0]
	var deleted int64
	for _, rt := range f.rows {
		if rt.UserID == userID && rt.DeviceID == deviceID {
			deleted++
			continue
		}
		kept = append(kept, rt)
	}
	f.rows = kept
	return deleted, nil
}

func (f *fakeRefreshRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.rows[:0]
	var deleted int64
	for _, rt := range f.rows {
		if rt.ExpiresAt.Before(now) {
			deleted++
			continue
		}
		kept = append(kept, rt)
	}
	f.rows = kept
	return deleted, nil
}

func (f *fakeRefreshRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeBlacklistRepo struct {
	mu     sync.Mutex
	rows   map[string]model.BlacklistedToken
	nextID int64
}

func newFakeBlacklistRepo() *fakeBlacklistRepo {
	return &fakeBlacklistRepo{rows: make(map[string]model.BlacklistedToken)}
}

func (f *fakeBlacklistRepo) Create(_ context.Context, token string, expiresAt time.Time) (model.BlacklistedToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if bt, ok := f.rows[token]; ok {
		return bt, nil
	}
	f.nextID++
	bt := model.BlacklistedToken{ID: f.nextID, Token: token, ExpiresAt: expiresAt, CreatedAt: time.Now()}
	f.rows[token] = bt
	return bt, nil
}

func (f *fakeBlacklistRepo) FindByToken(_ context.Context, token string) (model.BlacklistedToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	bt, ok := f.rows[token]
	if !ok {
		return model.BlacklistedToken{}, repo.ErrNotFound
	}
	return bt, nil
}

func (f *fakeBlacklistRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var deleted int64
	for token, bt := range f.rows {
		if bt.ExpiresAt.Before(now) {
			delete(f.rows, token)
			deleted++
		}
	}
	return deleted, nil
}

type serviceFixture struct {
	svc       *AuthService
	users     *fakeUserRepo
	refresh   *fakeRefreshRepo
	blacklist *fakeBlacklistRepo
	jwt       *JWTService
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	users := newFakeUserRepo()
	refresh := &fakeRefreshRepo{}
	blacklist := newFakeBlacklistRepo()
	jwtService := NewJWTService("test-secret", 10*time.Minute)
	hasher := NewPasswordHasher(bcrypt.MinCost)
	svc := NewAuthService(users, refresh, blacklist, jwtService, hasher, 7*24*time.Hour)
	return &serviceFixture{svc: svc, users: users, refresh: refresh, blacklist: blacklist, jwt: jwtService}
}

func TestSignUp_CreatesUserAndSession(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	creds, err := fx.svc.SignUp(ctx, "a@b.com", "pw123456", "cli/1.0")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", creds.UserID)
	require.NotEmpty(t, creds.AccessToken)
	require.NotEmpty(t, creds.RefreshToken)

	claims, err := fx.jwt.VerifyAccessToken(creds.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", claims.UserID)
	assert.Equal(t, "cli/1.0", claims.DeviceID)

	rt, err := fx.refresh.FindByToken(ctx, creds.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", rt.UserID)
	assert.Equal(t, "cli/1.0", rt.DeviceID)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), rt.ExpiresAt, 5*time.Second)

	// Stored password is hashed, never plaintext.
	user, err := fx.users.GetByID(ctx, "a@b.com")
	require.NoError(t, err)
	assert.NotEqual(t, "pw123456", user.PasswordHash)
}

func TestSignUp_Validation(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	_, err := fx.svc.SignUp(ctx, "", "pw123456", "")
	assert.ErrorIs(t, err, ErrMissingField)

	_, err = fx.svc.SignUp(ctx, "a@b.com", "", "")
	assert.ErrorIs(t, err, ErrMissingField)

	_, err = fx.svc.SignUp(ctx, "not an id", "pw123456", "")
	assert.ErrorIs(t, err, ErrInvalidIdentifier)

	assert.Empty(t, fx.users.users, "no user row may exist after failed signups")
}

func TestSignUp_Duplicate(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	_, err := fx.svc.SignUp(ctx, "a@b.com", "pw123456", "")
	require.NoError(t, err)

	_, err = fx.svc.SignUp(ctx, "a@b.com", "other-pw", "")
	assert.ErrorIs(t, err, ErrUserExists)
	assert.Len(t, fx.users.users, 1, "exactly one user row after duplicate signup")
}

func TestSignIn_RoundTrip(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	_, err := fx.svc.SignUp(ctx, "a@b.com", "pw123456", "cli/1.0")
	require.NoError(t, err)

	creds, err := fx.svc.SignIn(ctx, "a@b.com", "pw123456", "cli/1.0")
	require.NoError(t, err)

	claims, err := fx.jwt.VerifyAccessToken(creds.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", claims.UserID)
}

func TestSignIn_IndistinguishableFailures(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	_, err := fx.svc.SignUp(ctx, "a@b.com", "pw123456", "")
	require.NoError(t, err)

	_, wrongPw := fx.svc.SignIn(ctx, "a@b.com", "wrong", "")
	_, unknownUser := fx.svc.SignIn(ctx, "nobody@b.com", "pw123456", "")

	assert.ErrorIs(t, wrongPw, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownUser, ErrInvalidCredentials)
	assert.Equal(t, wrongPw, unknownUser, "caller must not learn which check failed")
}

func TestSignIn_RepeatLoginsAccumulateSessions(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	first, err := fx.svc.SignUp(ctx, "a@b.com", "pw123456", "cli/1.0")
	require.NoError(t, err)

	second, err := fx.svc.SignIn(ctx, "a@b.com", "pw123456", "cli/1.0")
	require.NoError(t, err)

	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.Equal(t, 2, fx.refresh.count(), "each login mints its own session row")
}

func TestRotateAccessToken(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	creds, err := fx.svc.SignUp(ctx, "a@b.com", "pw123456", "cli/1.0")
	require.NoError(t, err)

	token, err := fx.svc.RotateAccessToken(ctx, creds.RefreshToken)
	require.NoError(t, err)

	claims, err := fx.jwt.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", claims.UserID)
	assert.Equal(t, "cli/1.0", claims.DeviceID, "rotated token stays bound to the originating device")
}

func TestRotateAccessToken_MissingAndUnknown(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	_, err := fx.svc.RotateAccessToken(ctx, "")
	assert.ErrorIs(t, err, ErrMissingField)

	_, err = fx.svc.RotateAccessToken(ctx, "deadbeef")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRotateAccessToken_ExpiredRowRejectedNotDeleted(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	_, err := fx.refresh.Create(ctx, "a@b.com", "stale-token", "cli/1.0", time.Now().Add(-time.Hour))
	require.NoError(t, err)

	_, err = fx.svc.RotateAccessToken(ctx, "stale-token")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	_, err = fx.refresh.FindByToken(ctx, "stale-token")
	assert.NoError(t, err, "expired row is left for the cleanup sweep")
}

func TestLogout_RevokesTokenAndClearsDeviceSessions(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	creds, err := fx.svc.SignUp(ctx, "a@b.com", "pw123456", "cli/1.0")
	require.NoError(t, err)
	_, err = fx.svc.SignIn(ctx, "a@b.com", "pw123456", "cli/1.0")
	require.NoError(t, err)
	other, err := fx.svc.SignIn(ctx, "a@b.com", "pw123456", "phone/2.0")
	require.NoError(t, err)

	err = fx.svc.Logout(ctx, "a@b.com", "cli/1.0", creds.AccessToken)
	require.NoError(t, err)

	// The access token is revoked with its own expiry.
	bt, err := fx.blacklist.FindByToken(ctx, creds.AccessToken)
	require.NoError(t, err)
	claims, err := fx.jwt.VerifyAccessToken(creds.AccessToken)
	require.NoError(t, err)
	assert.True(t, bt.ExpiresAt.Equal(claims.ExpiresAt.Time))

	// Every session for the device is gone; other devices keep theirs.
	assert.Equal(t, 1, fx.refresh.count())
	_, err = fx.refresh.FindByToken(ctx, other.RefreshToken)
	assert.NoError(t, err)
}
