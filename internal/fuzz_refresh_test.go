package internal

import (
	"testing"

	"github.com/google/uuid"
)

// FuzzDecodeRefreshToken exercises refresh token decoding with arbitrary strings.
// Invalid inputs must return errors without panicking.
func FuzzDecodeRefreshToken(f *testing.F) {
	f.Add("")
	f.Add("abc")
	f.Add("AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA")

	if token, err := NewRefreshToken(uuid.NewString()); err == nil {
		f.Add(token)
	}

	f.Add("!!!not-base64!!!")
	f.Add("aGVsbG8=")
	f.Add("dG9vLXNob3J0")

	f.Fuzz(func(t *testing.T, input string) {
		userID, err := DecodeRefreshToken(input)
		if err != nil {
			return
		}

		reEncoded, err := NewRefreshToken(userID)
		if err != nil {
			t.Fatalf("decoded user id %q does not re-encode: %v", userID, err)
		}

		again, err := DecodeRefreshToken(reEncoded)
		if err != nil {
			t.Fatalf("roundtrip decode failed: %v", err)
		}
		if again != userID {
			t.Errorf("roundtrip user ID mismatch: %q vs %q", again, userID)
		}
	})
}
