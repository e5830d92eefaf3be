package errors

// Constructors for the codes used across the limiter.

func BadRequest(format string, args ...any) *Error {
	return New(400, format, args...)
}

func Unauthorized(format string, args ...any) *Error {
	return New(401, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return New(404, format, args...)
}

func TooManyRequests(format string, args ...any) *Error {
	return New(429, format, args...)
}

func Internal(format string, args ...any) *Error {
	return New(500, format, args...)
}

func ServiceUnavailable(format string, args ...any) *Error {
	return New(503, format, args...)
}

// HTTPStatus maps an error code to an HTTP status, falling back to 500 for
// codes outside the 4xx and 5xx ranges.
func HTTPStatus(err error) int {
	code := Code(err)
	if code >= 400 && code < 600 {
		return code
	}
	return UnknownCode
}
