package server

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/jrsteele09/go-session-auth/internal/errors"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Error      string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ForgotPasswordResponse struct {
	PasswordResetLink string `json:"passwordResetLink"`
}

func statusForKind(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindValidation, apperrors.KindLinkInvalid, apperrors.KindBadCredential:
		return http.StatusBadRequest
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindUnauthorized, apperrors.KindTokenInvalid:
		return http.StatusUnauthorized
	case apperrors.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Err(err).Msg("failed to encode response")
	}
}

// writeError maps err to its status code. Only the public message reaches the client.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperrors.KindOf(err)
	status := statusForKind(kind)
	if status == http.StatusInternalServerError {
		s.logger.Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
	} else {
		s.logger.Debug().Err(err).Str("kind", kind.String()).Str("path", r.URL.Path).Msg("request rejected")
	}

	s.writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Message:    apperrors.PublicMessage(err),
		Error:      http.StatusText(status),
	})
}
