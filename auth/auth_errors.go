package auth

// Client-facing messages returned by AuthService.
const (
	MsgInvalidCredentials = "Invalid Credentials!"
	MsgInvalidLink        = "Invalid link!"
	MsgInvalidPassword    = "Invalid password!"
	MsgInvalidToken       = "Invalid token!"
	MsgUnauthorized       = "Unauthorized"
	MsgPasswordChanged    = "Password changed successfully!"
	MsgRefreshRequired    = "refreshToken is required!"
	MsgPasswordTooLong    = "Password is too long!"
)
