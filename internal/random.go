package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	refreshSecretSize   = 32
	refreshTokenRawSize = 16 + refreshSecretSize

	base36Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// ErrInvalidRefreshToken is returned when a refresh token cannot be decoded.
var ErrInvalidRefreshToken = errors.New("invalid refresh token")

// NewNumericCode returns a uniformly random decimal code of exactly digits
// characters. Leading zeros are kept.
func NewNumericCode(digits int) (string, error) {
	if digits < 4 || digits > 10 {
		return "", errors.New("invalid code digits")
	}
	return randomFrom("0123456789", digits)
}

// NewVerificationCode returns an uppercase base36 code of the given length.
func NewVerificationCode(length int) (string, error) {
	if length < 6 || length > 64 {
		return "", errors.New("invalid verification code length")
	}
	return randomFrom(base36Alphabet, length)
}

func randomFrom(alphabet string, n int) (string, error) {
	var b strings.Builder
	b.Grow(n)

	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(alphabet[idx.Int64()])
	}

	code := b.String()
	if len(code) != n {
		return "", fmt.Errorf("invalid code generation length")
	}
	return code, nil
}

// NewRefreshSecret returns 32 random bytes.
func NewRefreshSecret() ([refreshSecretSize]byte, error) {
	var secret [refreshSecretSize]byte
	_, err := rand.Read(secret[:])
	return secret, err
}

// HashToken returns the SHA-256 digest of an opaque token string.
func HashToken(token string) [32]byte {
	return sha256.Sum256([]byte(token))
}

// EncodeRefreshToken packs the owning user ID with a random secret so the
// owner can be resolved from the token alone.
func EncodeRefreshToken(userID string, secret [refreshSecretSize]byte) (string, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return "", fmt.Errorf("refresh token user id: %w", err)
	}

	var raw [refreshTokenRawSize]byte
	copy(raw[:16], uid[:])
	copy(raw[16:], secret[:])

	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}

// DecodeRefreshToken extracts the user ID from a token produced by
// EncodeRefreshToken.
func DecodeRefreshToken(token string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(raw) != refreshTokenRawSize {
		return "", ErrInvalidRefreshToken
	}

	var uid uuid.UUID
	copy(uid[:], raw[:16])
	return uid.String(), nil
}

// NewRefreshToken returns a fresh encoded refresh token for userID.
func NewRefreshToken(userID string) (string, error) {
	secret, err := NewRefreshSecret()
	if err != nil {
		return "", err
	}
	return EncodeRefreshToken(userID, secret)
}
