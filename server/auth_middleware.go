package server

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/go-session-auth/auth"
	apperrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/users"
)

// RequestContext carries the authenticated caller into a handler.
type RequestContext struct {
	User        *users.CurrentUser
	AccessToken string
}

// AuthenticatedHandler is a handler that runs only for a verified bearer access token.
type AuthenticatedHandler func(w http.ResponseWriter, r *http.Request, rc *RequestContext)

// Authenticated validates the Bearer access token and passes the resolved user to next.
func (s *Server) Authenticated(next AuthenticatedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accessToken, ok := bearerToken(r)
		if !ok {
			s.writeError(w, r, apperrors.Unauthorized(auth.MsgUnauthorized))
			return
		}

		user, err := s.auth.Authenticate(r.Context(), accessToken)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		next(w, r, &RequestContext{User: user, AccessToken: accessToken})
	}
}

// bearerToken extracts the token from an "Authorization: Bearer {token}" header
func bearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
