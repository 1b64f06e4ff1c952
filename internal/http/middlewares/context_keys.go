package middlewares

const (
	CtxRequestID = "request_id"

	ctxAdminUserKey = "auth.username"
	ctxRoleKey      = "auth.role"
)
