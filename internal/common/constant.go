package common

// AuthorizationHeaderName carries the access token as "Bearer <token>".
const AuthorizationHeaderName = "Authorization"

// RequestIDHeaderName is echoed back on every HTTP response.
const RequestIDHeaderName = "X-Request-ID"

// Field limits shared by validation, the schema and the in-memory store.
const (
	UsernameMaxLen = 64
	EmailMaxLen    = 120
	AboutMeMaxLen  = 140
	PostMaxLen     = 256
	PasswordMinLen = 8
)
