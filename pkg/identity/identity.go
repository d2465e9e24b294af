// Package identity models the optional signing identity a content upload
// may carry. Connecting and disconnecting are pure state transitions
// returned to the caller; nothing here mutates shared state, so two
// components can hold different identities without racing a singleton.
//
// Absence of an identity is legal everywhere: uploads proceed anonymously.
// Signing failure is likewise a degradation, not a fault: callers log a
// warning and continue without a token.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Identity is a connected signing identity: a public key id and the HMAC
// secret used to mint upload tokens. The zero value is "disconnected".
type Identity struct {
	KeyID  string
	secret []byte
}

// Connect returns a connected identity. It does not touch any global state;
// the caller decides where the identity is threaded.
func Connect(keyID string, secret []byte) Identity {
	return Identity{KeyID: keyID, secret: append([]byte(nil), secret...)}
}

// Connected reports whether the identity can sign.
func (id Identity) Connected() bool {
	return id.KeyID != "" && len(id.secret) > 0
}

// Disconnect returns the zero identity. Provided for symmetry with Connect;
// dropping the value does the same thing.
func (id Identity) Disconnect() Identity {
	return Identity{}
}

// UploadToken signs a digest of the payload being uploaded and returns a
// compact JWT the transport can attach. The token binds the key id, the
// payload digest, and the issue time.
func (id Identity) UploadToken(payload []byte) (string, error) {
	if !id.Connected() {
		return "", errors.New("identity not connected")
	}
	sum := sha256.Sum256(payload)
	claims := jwt.MapClaims{
		"sub":    id.KeyID,
		"digest": hex.EncodeToString(sum[:]),
		"iat":    time.Now().Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(id.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign upload token")
	}
	return signed, nil
}
