package server

import (
	"net/http"
	"strconv"

	"github.com/jrsteele09/go-session-auth/auth"
	apperrors "github.com/jrsteele09/go-session-auth/internal/errors"
)

const msgNumericID = "Validation failed (numeric string is expected)"

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
			"app":    s.config.GetAppName(),
		})
	}
}

func (s *Server) SignUpHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload SignUpPayload
		if err := decodePayload(w, r, &payload); err != nil {
			s.writeError(w, r, err)
			return
		}

		user, err := s.auth.SignUp(r.Context(), auth.SignUpParameters{
			FirstName: payload.FirstName,
			LastName:  payload.LastName,
			Age:       payload.Age,
			Email:     payload.Email,
			Password:  payload.Password,
		})
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, user)
	}
}

func (s *Server) SignInHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload SignInPayload
		if err := decodePayload(w, r, &payload); err != nil {
			s.writeError(w, r, err)
			return
		}

		pair, err := s.auth.SignIn(r.Context(), payload.Email, payload.Password)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, pair)
	}
}

func (s *Server) ForgotPasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload ForgotPasswordPayload
		if err := decodePayload(w, r, &payload); err != nil {
			s.writeError(w, r, err)
			return
		}

		link, err := s.auth.ForgotPassword(r.Context(), payload.Email)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, ForgotPasswordResponse{PasswordResetLink: link})
	}
}

func (s *Server) ResetPasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			s.writeError(w, r, apperrors.Wrap(apperrors.KindValidation, msgNumericID, err))
			return
		}

		var payload ResetPasswordPayload
		if err := decodePayload(w, r, &payload); err != nil {
			s.writeError(w, r, err)
			return
		}

		if err := s.auth.ResetPassword(r.Context(), userID, r.PathValue("token"), payload.Password); err != nil {
			s.writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func (s *Server) RefreshTokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload RefreshTokenPayload
		if err := decodePayload(w, r, &payload); err != nil {
			s.writeError(w, r, err)
			return
		}

		pair, err := s.auth.Refresh(r.Context(), payload.RefreshToken)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, pair)
	}
}

func (s *Server) ChangePasswordHandler() AuthenticatedHandler {
	return func(w http.ResponseWriter, r *http.Request, rc *RequestContext) {
		var payload ChangePasswordPayload
		if err := decodePayload(w, r, &payload); err != nil {
			s.writeError(w, r, err)
			return
		}

		message, err := s.auth.ChangePassword(r.Context(), rc.User.ID, payload.OldPassword, payload.NewPassword)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, MessageResponse{Message: message})
	}
}

func (s *Server) LogoutHandler() AuthenticatedHandler {
	return func(w http.ResponseWriter, r *http.Request, rc *RequestContext) {
		if err := s.auth.Logout(r.Context(), rc.User.ID); err != nil {
			s.writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}
