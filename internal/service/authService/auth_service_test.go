package authService_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fileshare-service/internal/apperr"
	"fileshare-service/internal/model/user"
	"fileshare-service/internal/repository/sessionRepo"
	"fileshare-service/internal/service/authService"
)

type fakeUserRepo struct {
	nextID uint32
	users  map[uint32]*user.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: make(map[uint32]*user.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, username, email, passwordHash string) (uint32, error) {
	id := r.nextID
	r.nextID++
	r.users[id] = &user.User{ID: id, Username: username, Email: email, Password: passwordHash}
	return id, nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uint32) (*user.User, error) {
	return r.users[id], nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*user.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*user.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func setup(t *testing.T) (*authService.AuthService, *fakeUserRepo) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	users := newFakeUserRepo()
	return authService.New(users, sessionRepo.New(client), "test-secret"), users
}

func register(t *testing.T, svc *authService.AuthService) uint32 {
	t.Helper()
	id, err := svc.Register(context.Background(), "alice", "alice@example.com", "s3cret-pass")
	require.NoError(t, err)
	return id
}

func TestRegister(t *testing.T) {
	svc, users := setup(t)

	id := register(t, svc)
	assert.Equal(t, uint32(1), id)

	// The stored password must be a hash, never the plaintext.
	stored := users.users[id]
	assert.NotEqual(t, "s3cret-pass", stored.Password)
	assert.NotEmpty(t, stored.Password)
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "", "alice@example.com", "pass")
	assert.Error(t, err)

	_, err = svc.Register(ctx, "alice", "not-an-email", "pass")
	assert.ErrorContains(t, err, "email")
}

func TestRegister_DuplicateEmailAndUsername(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	register(t, svc)

	_, err := svc.Register(ctx, "other", "alice@example.com", "pass")
	assert.ErrorContains(t, err, "email already exists")

	_, err = svc.Register(ctx, "alice", "other@example.com", "pass")
	assert.ErrorContains(t, err, "username already taken")
}

func TestLogin(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	id := register(t, svc)

	access, refresh, err := svc.Login(ctx, "alice", "s3cret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, access)
	assert.NotEmpty(t, refresh)

	uid, err := svc.VerifyAccessToken(ctx, access)
	require.NoError(t, err)
	assert.Equal(t, id, uid)
}

func TestLogin_WrongCredentials(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	register(t, svc)

	_, _, err := svc.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	_, _, err = svc.Login(ctx, "nobody", "s3cret-pass")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestVerifyAccessToken_Garbage(t *testing.T) {
	svc, _ := setup(t)

	_, err := svc.VerifyAccessToken(context.Background(), "not.a.jwt")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestLogout_BlacklistsAccessToken(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	id := register(t, svc)

	access, refresh, err := svc.Login(ctx, "alice", "s3cret-pass")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, id, access))

	_, err = svc.VerifyAccessToken(ctx, access)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	// The refresh token is gone too.
	_, _, err = svc.RefreshToken(ctx, id, refresh)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestRefreshToken_RotatesBoth(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	id := register(t, svc)

	_, refresh, err := svc.Login(ctx, "alice", "s3cret-pass")
	require.NoError(t, err)

	newAccess, newRefresh, err := svc.RefreshToken(ctx, id, refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, newAccess)
	assert.NotEqual(t, refresh, newRefresh)

	// The old refresh token is no longer on record.
	_, _, err = svc.RefreshToken(ctx, id, refresh)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	uid, err := svc.VerifyAccessToken(ctx, newAccess)
	require.NoError(t, err)
	assert.Equal(t, id, uid)
}

func TestRefreshToken_Unknown(t *testing.T) {
	svc, _ := setup(t)

	_, _, err := svc.RefreshToken(context.Background(), 42, "never-issued")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}
