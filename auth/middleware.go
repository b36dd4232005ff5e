package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/user/notebook-go/apperror"
	"github.com/user/notebook-go/logging"
	"github.com/user/notebook-go/metrics"
)

// DefaultTokenHeader is the header read when none is configured.
const DefaultTokenHeader = "Authorization"

// extractToken returns the token carried in header value v. Both
// "Bearer <token>" and the bare token are accepted.
func extractToken(v string) string {
	v = strings.TrimSpace(v)
	scheme, rest, found := strings.Cut(v, " ")
	if strings.EqualFold(scheme, "bearer") {
		if !found {
			return ""
		}
		return strings.TrimSpace(rest)
	}
	return v
}

// Authenticate verifies the token carried by r and returns the identity it
// proves. Failures are AuthErrors whose Err wraps ErrMissingToken or
// ErrInvalidToken (itself wrapping the verification kind).
func Authenticate(r *http.Request, tokens *TokenService, header string) (*Identity, error) {
	raw := extractToken(r.Header.Get(header))
	if raw == "" {
		return nil, apperror.NewAuthError(msgAuthRequired, ErrMissingToken)
	}

	id, err := tokens.Verify(raw)
	if err != nil {
		return nil, apperror.NewAuthError(msgInvalidToken, fmt.Errorf("%w: %w", ErrInvalidToken, err))
	}
	return id, nil
}

// JWTMiddleware rejects requests without a valid token and threads the
// caller's Identity into the request context for the handlers behind it.
func JWTMiddleware(tokens *TokenService, header string, m *metrics.Metrics) func(next http.Handler) http.Handler {
	if header == "" {
		header = DefaultTokenHeader
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := Authenticate(r, tokens, header)
			if err != nil {
				reason := tokenReason(err)
				m.AuthEvent("token", reason)
				logging.WithFields(r, logrus.Fields{"auth_reason": reason})
				WriteError(w, r, err)
				return
			}

			m.AuthEvent("token", "success")
			logging.WithFields(r, logrus.Fields{"user_id": id.UserID})
			next.ServeHTTP(w, r.WithContext(NewContextWithIdentity(r.Context(), id)))
		})
	}
}
