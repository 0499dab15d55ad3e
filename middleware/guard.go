package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	goIdentity "github.com/MrEthical07/goIdentity"
)

// DeviceHeader names the optional request header carrying a client-chosen
// device label.
const DeviceHeader = "X-Device-Name"

type identityContextKey struct{}

// IdentityFromContext returns the identity stored by a guard.
func IdentityFromContext(ctx context.Context) (*goIdentity.Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(*goIdentity.Identity)
	return id, ok
}

// ClientDevice attaches the remote IP, User-Agent and DeviceHeader of the
// request as the session device.
func ClientDevice(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := goIdentity.WithClient(r.Context(), remoteIP(r.RemoteAddr), r.UserAgent(), r.Header.Get(DeviceHeader))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Guard rejects requests without a valid access token for mode.
func Guard(engine *goIdentity.Engine, mode goIdentity.ValidationMode) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			identity, err := engine.ValidateAccess(r.Context(), token, mode)
			switch {
			case err == nil:
			case errors.Is(err, goIdentity.ErrStrictBackendDown):
				http.Error(w, "service unavailable", http.StatusServiceUnavailable)
				return
			case errors.Is(err, goIdentity.ErrInvalidRouteMode):
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			default:
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey{}, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireJWTOnly guards with goIdentity.ModeJWTOnly.
func RequireJWTOnly(engine *goIdentity.Engine) func(http.Handler) http.Handler {
	return Guard(engine, goIdentity.ModeJWTOnly)
}

// RequireStrict guards with goIdentity.ModeStrict.
func RequireStrict(engine *goIdentity.Engine) func(http.Handler) http.Handler {
	return Guard(engine, goIdentity.ModeStrict)
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}

func remoteIP(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
