package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	return NewAuthService(zap.NewNop(), newTestDB(t), "test-secret")
}

func TestAuthServiceSetupAndLogin(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	needsSetup, err := svc.NeedsSetup(ctx)
	require.NoError(t, err)
	assert.True(t, needsSetup)

	require.NoError(t, svc.CreateUser(ctx, "admin", "s3cret", "管理员", "admin"))

	needsSetup, err = svc.NeedsSetup(ctx)
	require.NoError(t, err)
	assert.False(t, needsSetup)

	// 用户名重复
	assert.ErrorIs(t, svc.CreateUser(ctx, "admin", "other", "", "admin"), ErrUserExists)

	resp, err := svc.Login(ctx, LoginRequest{Username: "admin", Password: "s3cret"}, "127.0.0.1")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "admin", resp.User.Username)

	claims, err := svc.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, resp.User.ID, claims.UserID)
}

func TestAuthServiceLoginFailures(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	require.NoError(t, svc.CreateUser(ctx, "admin", "s3cret", "", "admin"))

	_, err := svc.Login(ctx, LoginRequest{Username: "admin", Password: "wrong"}, "127.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginRequest{Username: "nobody", Password: "s3cret"}, "127.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthServiceValidateTokenRejectsGarbage(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.ValidateToken("not-a-token")
	assert.Error(t, err)

	// 其他密钥签发的token无效
	other := NewAuthService(zap.NewNop(), newTestDB(t), "other-secret")
	require.NoError(t, other.CreateUser(context.Background(), "admin", "pw", "", "admin"))
	resp, err := other.Login(context.Background(), LoginRequest{Username: "admin", Password: "pw"}, "")
	require.NoError(t, err)

	_, err = svc.ValidateToken(resp.Token)
	assert.Error(t, err)
}

func TestAuthServiceChangePassword(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	require.NoError(t, svc.CreateUser(ctx, "admin", "old-pw", "", "admin"))
	resp, err := svc.Login(ctx, LoginRequest{Username: "admin", Password: "old-pw"}, "")
	require.NoError(t, err)

	assert.Error(t, svc.ChangePassword(ctx, resp.User.ID, "wrong", "new-pw"))
	require.NoError(t, svc.ChangePassword(ctx, resp.User.ID, "old-pw", "new-pw"))

	_, err = svc.Login(ctx, LoginRequest{Username: "admin", Password: "old-pw"}, "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, LoginRequest{Username: "admin", Password: "new-pw"}, "")
	assert.NoError(t, err)
}
