package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweetdelights/bakery-backend/pkg/config"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "https://auth.sweetdelights.test",
		Audience:          "authenticated",
		AdminRole:         "admin",
		ExpirationMinutes: 30,
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testJWTConfig()
	userID := uuid.New()

	token, err := MintAccessToken(cfg, time.Now().UTC(), AccessTokenPayload{
		UserID:  userID,
		Email:   "ada@example.com",
		AppRole: "admin",
	})
	require.NoError(t, err)

	claims, err := ParseAccessToken(cfg, token)
	require.NoError(t, err)

	got, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, userID, got)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, "authenticated", claims.Role)
	assert.True(t, claims.HasRole(cfg.AdminRole))
	assert.Equal(t, cfg.Issuer, claims.Issuer)
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now().Add(-2*time.Hour), AccessTokenPayload{UserID: uuid.New()})
	require.NoError(t, err)

	_, err = ParseAccessToken(cfg, token)
	require.Error(t, err)
}

func TestParseAccessTokenRejectsWrongSecretAndIssuer(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserID: uuid.New()})
	require.NoError(t, err)

	other := cfg
	other.Secret = "different"
	_, err = ParseAccessToken(other, token)
	require.Error(t, err)

	other = cfg
	other.Issuer = "https://elsewhere.test"
	_, err = ParseAccessToken(other, token)
	require.Error(t, err)
}

func TestParseAccessTokenRequiresUUIDSubject(t *testing.T) {
	cfg := testJWTConfig()
	claims := AccessTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "not-a-uuid",
			Issuer:    cfg.Issuer,
			Audience:  jwt.ClaimStrings{cfg.Audience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
	require.NoError(t, err)

	_, err = ParseAccessToken(cfg, signed)
	require.Error(t, err)
}

func TestHasRoleIgnoresEmptyRole(t *testing.T) {
	claims := &AccessTokenClaims{AppMetadata: AppMetadata{Role: ""}}
	assert.False(t, claims.HasRole(""))
	assert.False(t, claims.HasRole("admin"))
}
