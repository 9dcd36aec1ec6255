package errs

type ErrorMessage struct {
	Message string
}

func (e *ErrorMessage) Error() string { return e.Message }

// AuthError means the token is missing, expired beyond refresh, or was
// rejected upstream. The caller is expected to send the user back
// through the OAuth flow.
type AuthError struct {
	ErrorMessage
}

// UpstreamError is raised after every candidate parameter shape and
// endpoint base has been tried without a usable payload.
type UpstreamError struct {
	ErrorMessage
	Transient bool
}

type NotFoundError struct {
	ErrorMessage
}

type ValidationError struct {
	ErrorMessage
}

func NewAuthError(message string) *AuthError {
	return &AuthError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewUpstreamError(message string) *UpstreamError {
	return &UpstreamError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewTransientUpstreamError(message string) *UpstreamError {
	return &UpstreamError{
		ErrorMessage: ErrorMessage{Message: message},
		Transient:    true,
	}
}

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}
