package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pwannenmacher/campus-fest/internal/config"
	"github.com/pwannenmacher/campus-fest/internal/models"
)

func newTestService(t *testing.T, expiration time.Duration) *Service {
	t.Helper()
	return NewService(&config.JWTConfig{Secret: "dev-secret", Expiration: expiration, Issuer: "campus-fest"})
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := newTestService(t, time.Hour)
	college := "college-1"
	user := &models.User{ID: "user-1", Email: "desk@fest.test", Role: models.RoleRegistration, CollegeID: &college}

	token, expiresAt, err := svc.GenerateToken(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleRegistration, claims.Role)
	assert.Equal(t, "college-1", claims.CollegeID)
	assert.Equal(t, "campus-fest", claims.Issuer)
}

func TestValidateToken_Expired(t *testing.T) {
	svc := newTestService(t, -time.Minute)

	token, _, err := svc.GenerateToken(&models.User{ID: "u", Role: models.RoleScoring})
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateToken_ForeignKey(t *testing.T) {
	a := newTestService(t, time.Hour)
	b := newTestService(t, time.Hour)

	token, _, err := a.GenerateToken(&models.User{ID: "u", Role: models.RoleScoring})
	require.NoError(t, err)

	_, err = b.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = a.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLoadOrGenerateKeys_PEM(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)
	secret := string(pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der}))

	a := NewService(&config.JWTConfig{Secret: secret, Expiration: time.Hour})
	b := NewService(&config.JWTConfig{Secret: secret, Expiration: time.Hour})

	token, _, err := a.GenerateToken(&models.User{ID: "u", Role: models.RoleSuperAdmin})
	require.NoError(t, err)
	_, err = b.ValidateToken(token)
	assert.NoError(t, err, "services sharing a PEM key accept each other's tokens")
}

func TestGenerateKeyPEM_EscapedSingleLine(t *testing.T) {
	keyPEM, err := GenerateKeyPEM()
	require.NoError(t, err)

	escaped := strings.ReplaceAll(string(keyPEM), "\n", `\n`)
	require.NotContains(t, escaped, "\n")

	a := NewService(&config.JWTConfig{Secret: string(keyPEM), Expiration: time.Hour})
	b := NewService(&config.JWTConfig{Secret: escaped, Expiration: time.Hour})

	token, _, err := a.GenerateToken(&models.User{ID: "u", Role: models.RoleEventAdmin})
	require.NoError(t, err)
	_, err = b.ValidateToken(token)
	assert.NoError(t, err)
}

func TestPasswordHashing(t *testing.T) {
	svc := newTestService(t, time.Hour)

	hash, err := svc.HashPassword("correct horse")
	require.NoError(t, err)
	assert.NoError(t, svc.VerifyPassword(hash, "correct horse"))
	assert.Error(t, svc.VerifyPassword(hash, "wrong"))
}
