package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Identity is the verified caller, as established by the identity provider.
type Identity struct {
	UserID string
}

var ErrInvalidToken = errors.New("invalid token")

// Sign issues a bearer token: base64url(user_id:exp_unix) + "." +
// base64url(hmac-sha256 of the payload).
func Sign(secret []byte, userID string, ttl time.Duration) string {
	payload := fmt.Sprintf("%s:%d", userID, time.Now().Add(ttl).Unix())
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString([]byte(payload)) + "." +
		base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Verify checks the signature and expiry and returns the embedded identity.
func Verify(secret []byte, token string) (Identity, error) {
	encPayload, encSig, ok := strings.Cut(token, ".")
	if !ok {
		return Identity{}, ErrInvalidToken
	}
	payload, err := base64.RawURLEncoding.DecodeString(encPayload)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}
	sig, err := base64.RawURLEncoding.DecodeString(encSig)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	if !hmac.Equal(sig, mac.Sum(nil)) {
		return Identity{}, ErrInvalidToken
	}

	userID, expStr, ok := strings.Cut(string(payload), ":")
	if !ok || userID == "" {
		return Identity{}, ErrInvalidToken
	}
	exp, err := strconv.ParseInt(expStr, 10, 64)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}
	if time.Now().Unix() > exp {
		return Identity{}, fmt.Errorf("%w: expired", ErrInvalidToken)
	}
	return Identity{UserID: userID}, nil
}
