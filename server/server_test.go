package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jrsteele09/go-session-auth/auth"
	"github.com/jrsteele09/go-session-auth/internal/config"
	"github.com/jrsteele09/go-session-auth/reset"
	"github.com/jrsteele09/go-session-auth/server"
	"github.com/jrsteele09/go-session-auth/sessions"
	"github.com/jrsteele09/go-session-auth/token"
	"github.com/jrsteele09/go-session-auth/users"
	fakeuserrepo "github.com/jrsteele09/go-session-auth/users/repofake"
)

const (
	secretStr    = "1234"
	serverDomain = "http://localhost:8080"
)

type serverFixture struct {
	t        *testing.T
	userRepo *fakeuserrepo.FakeUserRepo
	store    *sessions.MemoryStore
	server   *server.Server
}

func setupServer(t *testing.T) *serverFixture {
	t.Helper()
	t.Setenv("ENV", "TEST")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://app.local")

	f := &serverFixture{
		t:        t,
		userRepo: fakeuserrepo.NewFakeUserRepo(),
		store:    sessions.NewMemoryStore(),
	}
	codec := token.New(secretStr)
	resets := reset.NewService(codec, f.userRepo, secretStr, reset.WithDomain(serverDomain))
	authService, err := auth.NewAuthService(
		auth.Repos{Users: f.userRepo, Sessions: f.store},
		codec,
		resets,
		auth.WithHashCost(bcrypt.MinCost),
	)
	require.NoError(t, err)

	f.server, err = server.New(config.New(), authService)
	require.NoError(t, err)
	return f
}

func (f *serverFixture) do(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	f.t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(f.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func (f *serverFixture) signUp(email, password string) *users.User {
	f.t.Helper()
	rec := f.do(http.MethodPost, server.RouteSignUp, map[string]any{
		"firstName": "Parth",
		"lastName":  "Patel",
		"age":       24,
		"email":     email,
		"password":  password,
	})
	require.Equal(f.t, http.StatusCreated, rec.Code, rec.Body.String())

	var user users.User
	require.NoError(f.t, json.Unmarshal(rec.Body.Bytes(), &user))
	return &user
}

func (f *serverFixture) signIn(email, password string) auth.TokenPair {
	f.t.Helper()
	rec := f.do(http.MethodPost, server.RouteSignIn, server.SignInPayload{Email: email, Password: password})
	require.Equal(f.t, http.StatusOK, rec.Code, rec.Body.String())

	var pair auth.TokenPair
	require.NoError(f.t, json.Unmarshal(rec.Body.Bytes(), &pair))
	return pair
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) server.ErrorResponse {
	t.Helper()
	var body server.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	require.Equal(t, rec.Code, body.StatusCode)
	require.Equal(t, http.StatusText(rec.Code), body.Error)
	return body
}

func TestSignUp(t *testing.T) {
	f := setupServer(t)

	user := f.signUp("parth@gmail.com", "parth123")
	require.NotZero(t, user.ID)
	require.Equal(t, users.RoleUser, user.Role)
	require.Empty(t, user.PasswordHash)

	rec := f.do(http.MethodPost, server.RouteSignUp, map[string]any{
		"firstName": "Parth", "lastName": "Patel", "age": 24, "email": "parth@gmail.com", "password": "x",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, `User with email "parth@gmail.com" already exists!`, decodeError(t, rec).Message)
}

func TestSignUp_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    any
		message string
	}{
		{
			name:    "invalid email",
			body:    map[string]any{"firstName": "P", "lastName": "P", "age": 24, "email": "nope", "password": "x"},
			message: "email: must be a valid email address",
		},
		{
			name:    "too young",
			body:    map[string]any{"firstName": "P", "lastName": "P", "age": 11, "email": "p@gmail.com", "password": "x"},
			message: "age: must be no less than 12",
		},
		{
			name:    "missing password",
			body:    map[string]any{"firstName": "P", "lastName": "P", "age": 24, "email": "p@gmail.com"},
			message: "password: cannot be blank",
		},
		{
			name:    "malformed json",
			body:    "{",
			message: "Invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupServer(t)
			rec := f.do(http.MethodPost, server.RouteSignUp, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.Equal(t, tt.message, decodeError(t, rec).Message)
		})
	}
}

func TestSignIn(t *testing.T) {
	f := setupServer(t)
	f.signUp("parth@gmail.com", "parth123")

	pair := f.signIn("parth@gmail.com", "parth123")
	require.True(t, strings.HasPrefix(pair.AccessToken, "Bearer "))
	require.NotEmpty(t, pair.RefreshToken)

	rec := f.do(http.MethodPost, server.RouteSignIn, server.SignInPayload{Email: "parth@gmail.com", Password: "wrong"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Invalid Credentials!", decodeError(t, rec).Message)
}

func TestForgotAndResetPassword(t *testing.T) {
	f := setupServer(t)
	user := f.signUp("parth@gmail.com", "parth123")

	rec := f.do(http.MethodPost, server.RouteForgotPassword, server.ForgotPasswordPayload{Email: "unknown@x.com"})
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, `No such user found with "unknown@x.com"`, decodeError(t, rec).Message)

	rec = f.do(http.MethodPost, server.RouteForgotPassword, server.ForgotPasswordPayload{Email: "parth@gmail.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	var forgot server.ForgotPasswordResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &forgot))
	require.True(t, strings.HasPrefix(forgot.PasswordResetLink, serverDomain+"/auth/reset-password/"))
	resetPath := strings.TrimPrefix(forgot.PasswordResetLink, serverDomain)

	body := server.ResetPasswordPayload{Password: "1234", ConfirmPassword: "1234"}

	rec = f.do(http.MethodPost, "/auth/reset-password/"+sessions.UserKey(user.ID)+"/fail", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Invalid link!", decodeError(t, rec).Message)

	rec = f.do(http.MethodPost, resetPath, server.ResetPasswordPayload{Password: "1234", ConfirmPassword: "4321"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "confirmPassword: Passwords do not match!", decodeError(t, rec).Message)

	rec = f.do(http.MethodPost, resetPath, body)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Body.String())

	f.signIn("parth@gmail.com", "1234")

	rec = f.do(http.MethodPost, resetPath, body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Invalid link!", decodeError(t, rec).Message)
}

func TestPasswordTooLong(t *testing.T) {
	f := setupServer(t)
	f.signUp("parth@gmail.com", "parth123")
	pair := f.signIn("parth@gmail.com", "parth123")
	long := strings.Repeat("a", 80)

	tests := []struct {
		name    string
		path    string
		body    any
		headers []string
		message string
	}{
		{
			name:    "sign up",
			path:    server.RouteSignUp,
			body:    map[string]any{"firstName": "P", "lastName": "P", "age": 24, "email": "long@gmail.com", "password": long},
			message: "password: must be at most 72 bytes",
		},
		{
			name:    "change password",
			path:    server.RouteChangePassword,
			body:    server.ChangePasswordPayload{OldPassword: "parth123", NewPassword: long, ConfirmPassword: long},
			headers: []string{"Authorization", pair.AccessToken},
			message: "newPassword: must be at most 72 bytes",
		},
		{
			name:    "reset password",
			path:    "/auth/reset-password/1/token",
			body:    server.ResetPasswordPayload{Password: long, ConfirmPassword: long},
			message: "password: must be at most 72 bytes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(http.MethodPost, tt.path, tt.body, tt.headers...)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			require.Equal(t, tt.message, decodeError(t, rec).Message)
		})
	}

	f.signIn("parth@gmail.com", "parth123")
}

func TestResetPassword_NonNumericID(t *testing.T) {
	f := setupServer(t)
	rec := f.do(http.MethodPost, "/auth/reset-password/abc/token", server.ResetPasswordPayload{Password: "1", ConfirmPassword: "1"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Validation failed (numeric string is expected)", decodeError(t, rec).Message)
}

func TestChangePassword(t *testing.T) {
	f := setupServer(t)
	f.signUp("parth@gmail.com", "parth123")
	pair := f.signIn("parth@gmail.com", "parth123")

	rec := f.do(http.MethodPost, server.RouteChangePassword,
		server.ChangePasswordPayload{OldPassword: "", NewPassword: "x", ConfirmPassword: "x"},
		"Authorization", pair.AccessToken)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Invalid password!", decodeError(t, rec).Message)

	rec = f.do(http.MethodPost, server.RouteChangePassword,
		server.ChangePasswordPayload{OldPassword: "parth123", NewPassword: "x", ConfirmPassword: "x"},
		"Authorization", pair.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var message server.MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &message))
	require.Equal(t, "Password changed successfully!", message.Message)

	f.signIn("parth@gmail.com", "x")
}

func TestAuthenticatedRoutes_RequireBearer(t *testing.T) {
	f := setupServer(t)
	user := f.signUp("parth@gmail.com", "parth123")
	pair := f.signIn("parth@gmail.com", "parth123")

	tests := []struct {
		name    string
		headers []string
		status  int
		message string
	}{
		{name: "missing header", status: http.StatusUnauthorized, message: "Unauthorized"},
		{name: "wrong scheme", headers: []string{"Authorization", "Basic abc"}, status: http.StatusUnauthorized, message: "Unauthorized"},
		{name: "invalid token", headers: []string{"Authorization", "Bearer garbage"}, status: http.StatusUnauthorized, message: "Invalid token!"},
		{name: "refresh token as bearer", headers: []string{"Authorization", "Bearer " + pair.RefreshToken}, status: http.StatusUnauthorized, message: "Invalid token!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(http.MethodPost, server.RouteLogout, nil, tt.headers...)
			require.Equal(t, tt.status, rec.Code)
			require.Equal(t, tt.message, decodeError(t, rec).Message)
		})
	}

	f.userRepo.Delete(user.ID)
	rec := f.do(http.MethodPost, server.RouteLogout, nil, "Authorization", pair.AccessToken)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshAndLogout(t *testing.T) {
	f := setupServer(t)
	f.signUp("parth@gmail.com", "parth123")
	pair := f.signIn("parth@gmail.com", "parth123")

	rec := f.do(http.MethodPost, server.RouteRefreshToken, map[string]string{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "refreshToken is required!", decodeError(t, rec).Message)

	rec = f.do(http.MethodPost, server.RouteRefreshToken, server.RefreshTokenPayload{RefreshToken: "malformed"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Invalid token!", decodeError(t, rec).Message)

	rec = f.do(http.MethodPost, server.RouteRefreshToken, server.RefreshTokenPayload{RefreshToken: pair.RefreshToken})
	require.Equal(t, http.StatusOK, rec.Code)
	var rotated auth.TokenPair
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rotated))
	require.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	rec = f.do(http.MethodPost, server.RouteRefreshToken, server.RefreshTokenPayload{RefreshToken: pair.RefreshToken})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Unauthorized", decodeError(t, rec).Message)

	rec = f.do(http.MethodPost, server.RouteLogout, nil, "Authorization", rotated.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Body.String())
	require.Zero(t, f.store.Len())

	rec = f.do(http.MethodPost, server.RouteRefreshToken, server.RefreshTokenPayload{RefreshToken: rotated.RefreshToken})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	_, found, err := f.store.Get(context.Background(), "1")
	require.NoError(t, err)
	require.False(t, found)
}

func TestCors(t *testing.T) {
	f := setupServer(t)

	rec := f.do(http.MethodOptions, server.RouteSignIn, nil, "Origin", "http://app.local")
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "http://app.local", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "GET, POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))

	rec = f.do(http.MethodOptions, server.RouteSignIn, nil, "Origin", "http://evil.local")
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	rec = f.do(http.MethodOptions, server.RouteSignIn, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealth(t *testing.T) {
	f := setupServer(t)
	rec := f.do(http.MethodGet, server.RouteHealth, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestRoutes(t *testing.T) {
	f := setupServer(t)
	routes := f.server.Routes()

	require.Contains(t, routes, "POST "+server.RouteSignIn)
	require.Contains(t, routes, "POST "+server.RouteResetPassword)
	require.Contains(t, routes, "POST "+server.RouteLogout)
	require.NotContains(t, routes, "GET "+server.RouteMetrics)
}

func TestNew_RequiresAuthService(t *testing.T) {
	_, err := server.New(config.New(), nil)
	require.Error(t, err)
}

func TestMetrics(t *testing.T) {
	t.Setenv("ENV", "TEST")
	registry := prometheus.NewRegistry()
	userRepo := fakeuserrepo.NewFakeUserRepo()
	codec := token.New(secretStr)
	authService, err := auth.NewAuthService(
		auth.Repos{Users: userRepo, Sessions: sessions.NewMemoryStore()},
		codec,
		reset.NewService(codec, userRepo, secretStr),
		auth.WithHashCost(bcrypt.MinCost),
	)
	require.NoError(t, err)
	s, err := server.New(config.New(), authService, server.WithMetrics(registry))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, server.RouteSignIn, strings.NewReader(`{"email":"a@b.co","password":"x"}`))
	s.ServeHTTP(httptest.NewRecorder(), req)

	count, err := testutil.GatherAndCount(registry, "session_auth_http_requests_total")
	require.NoError(t, err)
	require.Equal(t, 1, count)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, server.RouteMetrics, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `session_auth_http_requests_total{route="POST /auth/sign-in",status="401"} 1`)
}
