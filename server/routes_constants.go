package server

const (
	RouteSignUp         = "/auth/sign-up"
	RouteSignIn         = "/auth/sign-in"
	RouteForgotPassword = "/auth/forgot-password"
	RouteResetPassword  = "/auth/reset-password/{id}/{token}"
	RouteChangePassword = "/auth/change-password"
	RouteRefreshToken   = "/auth/refresh-token"
	RouteLogout         = "/auth/logout"
	RouteHealth         = "/health"
	RouteMetrics        = "/metrics"
)
