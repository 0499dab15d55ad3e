package fingerprint

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const keyDerivationSalt = "goIdentity/fingerprint/v1"

var (
	// ErrNoDevice is returned when the context carries no device.
	ErrNoDevice = errors.New("fingerprint: no device in context")
	// ErrWeakSecret is returned by New for secrets shorter than 16 bytes.
	ErrWeakSecret = errors.New("fingerprint: secret must be at least 16 bytes")
	// ErrUndecryptable is returned by Decrypt for tampered or foreign values.
	ErrUndecryptable = errors.New("fingerprint: value cannot be decrypted")
)

// Device is the client context a session is bound to. Platform names the
// client kind (a device name, an OS or an app id).
type Device struct {
	IP        string `json:"ip"`
	UserAgent string `json:"userAgent"`
	Platform  string `json:"platform"`
}

func (d Device) normalized() Device {
	return Device{
		IP:        strings.TrimSpace(d.IP),
		UserAgent: strings.TrimSpace(d.UserAgent),
		Platform:  strings.TrimSpace(d.Platform),
	}
}

func (d Device) empty() bool {
	return d.IP == "" && d.UserAgent == "" && d.Platform == ""
}

type deviceContextKey struct{}

// WithDevice attaches d to ctx.
func WithDevice(ctx context.Context, d Device) context.Context {
	return context.WithValue(ctx, deviceContextKey{}, d.normalized())
}

// FromContext returns the device attached with WithDevice.
func FromContext(ctx context.Context) (Device, bool) {
	if ctx == nil {
		return Device{}, false
	}
	d, ok := ctx.Value(deviceContextKey{}).(Device)
	if !ok || d.empty() {
		return Device{}, false
	}
	return d, true
}

// Service derives the session key and sealed payload for the device in
// the request context. It implements session.Fingerprinter.
type Service struct {
	key [chacha20poly1305.KeySize]byte
}

// New derives the sealing key from secret.
func New(secret []byte) (*Service, error) {
	if len(secret) < 16 {
		return nil, ErrWeakSecret
	}
	s := &Service{}
	copy(s.key[:], argon2.IDKey(secret, []byte(keyDerivationSalt), 1, 64*1024, 2, chacha20poly1305.KeySize))
	return s, nil
}

// Hash returns the hex SHA-256 of the device's JSON form.
func (s *Service) Hash(ctx context.Context) (string, error) {
	d, ok := FromContext(ctx)
	if !ok {
		return "", ErrNoDevice
	}
	return HashDevice(d)
}

// HashDevice returns the key Hash would compute for d.
func HashDevice(d Device) (string, error) {
	raw, err := json.Marshal(d.normalized())
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// Encrypted seals the device with XChaCha20-Poly1305 and returns
// base64url(nonce || ciphertext).
func (s *Service) Encrypted(ctx context.Context) (string, error) {
	d, ok := FromContext(ctx)
	if !ok {
		return "", ErrNoDevice
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return "", err
	}

	aead, err := chacha20poly1305.NewX(s.key[:])
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(raw)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := aead.Seal(nonce, nonce, raw, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypted.
func (s *Service) Decrypt(value string) (Device, error) {
	sealed, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return Device{}, fmt.Errorf("%w: %v", ErrUndecryptable, err)
	}

	aead, err := chacha20poly1305.NewX(s.key[:])
	if err != nil {
		return Device{}, err
	}
	if len(sealed) < aead.NonceSize()+aead.Overhead() {
		return Device{}, ErrUndecryptable
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	raw, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return Device{}, fmt.Errorf("%w: %v", ErrUndecryptable, err)
	}

	var d Device
	if err := json.Unmarshal(raw, &d); err != nil {
		return Device{}, fmt.Errorf("%w: %v", ErrUndecryptable, err)
	}
	return d, nil
}
