package values

type contextKey string

// ContextTracingKey carries the tracing context through request handling.
const ContextTracingKey = contextKey("tracing_context")

const (
	HeaderRequestID     = "X-Request-Id"
	HeaderRequestSource = "X-Request-Source"
)

// Response status strings. util.StatusCode maps them to HTTP codes.
const (
	Success        = "success"
	Created        = "created"
	Failed         = "failed"
	Error          = "error"
	BadRequestBody = "bad-request-body"
	Unprocessable  = "unprocessable"
	NotAllowed     = "not-allowed"
	Conflict       = "conflict"
	NotFound       = "not-found"
	NotAuthorised  = "not-authorised"
	TokenExpired   = "token-expired"
	ActiveLogin    = "active-login"
	SystemErr      = "system error"
	InternalError  = "internal error, please try again"
)
