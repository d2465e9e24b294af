package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectDisconnect(t *testing.T) {
	var id Identity
	assert.False(t, id.Connected(), "zero value is disconnected")

	id = Connect("key-1", []byte("secret"))
	assert.True(t, id.Connected())
	assert.Equal(t, "key-1", id.KeyID)

	assert.False(t, id.Disconnect().Connected())
	assert.True(t, id.Connected(), "disconnect returns a new value")

	assert.False(t, Connect("key-1", nil).Connected())
	assert.False(t, Connect("", []byte("secret")).Connected())
}

func TestUploadToken(t *testing.T) {
	secret := []byte("secret")
	id := Connect("key-1", secret)
	payload := []byte(`{"pages":[]}`)

	signed, err := id.UploadToken(payload)
	require.NoError(t, err)

	tok, err := jwt.Parse(signed, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	require.NoError(t, err)
	require.True(t, tok.Valid)

	claims := tok.Claims.(jwt.MapClaims)
	assert.Equal(t, "key-1", claims["sub"])
	sum := sha256.Sum256(payload)
	assert.Equal(t, hex.EncodeToString(sum[:]), claims["digest"])
	assert.NotZero(t, claims["iat"])
}

func TestUploadTokenDisconnected(t *testing.T) {
	var id Identity
	_, err := id.UploadToken([]byte("x"))
	assert.Error(t, err)
}
