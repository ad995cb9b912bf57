package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zennieheo/hackathon2024-BE/apperr"
	"github.com/zennieheo/hackathon2024-BE/structs"
)

const testKey = "test-signing-key"

func newTestService(t *testing.T, now *time.Time) *Service {
	t.Helper()
	service := NewService(NewMemoryUserStore(), testKey,
		WithTokenTTL(5*time.Minute, time.Hour),
		WithClock(func() time.Time { return *now }),
	)
	_, err := service.Register(context.Background(), structs.RegisterParam{Username: "amy", Password: "s3cret!", Password2: "s3cret!"})
	require.NoError(t, err)
	return service
}

func TestRegister(t *testing.T) {
	now := time.Now()
	service := newTestService(t, &now)
	ctx := context.Background()

	_, err := service.Register(ctx, structs.RegisterParam{Username: "bob", Password: "a", Password2: "b"})
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Contains(t, appErr.Fields, "password")

	_, err = service.Register(ctx, structs.RegisterParam{Username: "amy", Password: "x", Password2: "x"})
	appErr = apperr.As(err)
	require.NotNil(t, appErr)
	assert.Contains(t, appErr.Fields, "username")

	user, err := service.users.FindByUsername(ctx, "amy")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", user.Password)
}

func TestLoginAndAuthenticate(t *testing.T) {
	now := time.Now()
	service := newTestService(t, &now)
	ctx := context.Background()

	_, err := service.Login(ctx, structs.CredentialParam{Username: "amy", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = service.Login(ctx, structs.CredentialParam{Username: "nobody", Password: "s3cret!"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	pair, err := service.Login(ctx, structs.CredentialParam{Username: "amy", Password: "s3cret!"})
	require.NoError(t, err)

	owner, err := service.Authenticate(ctx, pair.Access)
	require.NoError(t, err)
	assert.Equal(t, "1", owner)

	_, err = service.Authenticate(ctx, pair.Refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)

	now = now.Add(6 * time.Minute)
	_, err = service.Authenticate(ctx, pair.Access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticate_RejectsForeignSignature(t *testing.T) {
	now := time.Now()
	service := newTestService(t, &now)
	other := NewService(NewMemoryUserStore(), "another-key", WithClock(func() time.Time { return now }))

	pair, err := other.issuePair(1)
	require.NoError(t, err)
	_, err = service.Authenticate(context.Background(), pair.Access)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = service.Authenticate(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefresh_RotatesAndRevokes(t *testing.T) {
	now := time.Now()
	service := newTestService(t, &now)
	ctx := context.Background()

	pair, err := service.Login(ctx, structs.CredentialParam{Username: "amy", Password: "s3cret!"})
	require.NoError(t, err)

	rotated, err := service.Refresh(ctx, pair.Refresh)
	require.NoError(t, err)
	assert.NotEqual(t, pair.Refresh, rotated.Refresh)

	_, err = service.Refresh(ctx, pair.Refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = service.Refresh(ctx, pair.Access)
	assert.ErrorIs(t, err, ErrInvalidToken)

	owner, err := service.Authenticate(ctx, rotated.Access)
	require.NoError(t, err)
	assert.Equal(t, "1", owner)
}

func TestCreateAPIKey_GetOrCreate(t *testing.T) {
	now := time.Now()
	service := newTestService(t, &now)
	ctx := context.Background()
	credentials := structs.CredentialParam{Username: "amy", Password: "s3cret!"}

	first, err := service.CreateAPIKey(ctx, credentials)
	require.NoError(t, err)
	assert.Len(t, first.Key, 40)

	second, err := service.CreateAPIKey(ctx, credentials)
	require.NoError(t, err)
	assert.Equal(t, first.Key, second.Key)

	owner, err := service.AuthenticateAPIKey(ctx, first.Key)
	require.NoError(t, err)
	assert.Equal(t, "1", owner)

	_, err = service.AuthenticateAPIKey(ctx, "missing")
	assert.ErrorIs(t, err, ErrInvalidAPIKey)

	_, err = service.CreateAPIKey(ctx, structs.CredentialParam{Username: "amy", Password: "nope"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestProfile(t *testing.T) {
	now := time.Now()
	service := newTestService(t, &now)

	user, err := service.Profile(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "amy", user.Username)

	_, err = service.Profile(context.Background(), "42")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	_, err = service.Profile(context.Background(), "abc")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
