package api

import "fmt"

// ErrorType represents the category of a modgate error.
type ErrorType string

const (
	ErrorTypeInvalidConfig         ErrorType = "invalid_config"
	ErrorTypeUnresolvableModule    ErrorType = "unresolvable_module"
	ErrorTypeUnresolvableAttribute ErrorType = "unresolvable_attribute"
	ErrorTypeBackendContract       ErrorType = "backend_contract"
	ErrorTypeNotFound              ErrorType = "not_found"
	ErrorTypeValidation            ErrorType = "validation"
	ErrorTypeServerError           ErrorType = "server_error"
)

// Error represents a structured modgate error with type, param, and message.
type Error struct {
	Type    ErrorType `json:"type"`
	Param   string    `json:"param,omitempty"`
	Message string    `json:"message"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("%s: %s (param: %s)", e.Type, e.Message, e.Param)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ErrorResponse wraps an Error for JSON serialization as the top-level
// error response of the explorer API.
type ErrorResponse struct {
	Error *Error `json:"error"`
}

// NewInvalidConfigError creates an Error for invalid configuration or usage,
// such as a regex filter that does not compile.
func NewInvalidConfigError(param, message string) *Error {
	return &Error{
		Type:    ErrorTypeInvalidConfig,
		Param:   param,
		Message: message,
	}
}

// NewUnresolvableModuleError creates an Error for a target whose package
// path is not registered with the resolver.
func NewUnresolvableModuleError(target, message string) *Error {
	return &Error{
		Type:    ErrorTypeUnresolvableModule,
		Param:   target,
		Message: message,
	}
}

// NewUnresolvableAttributeError creates an Error for a target whose package
// is known but whose callable name is not.
func NewUnresolvableAttributeError(target, message string) *Error {
	return &Error{
		Type:    ErrorTypeUnresolvableAttribute,
		Param:   target,
		Message: message,
	}
}

// NewBackendContractError creates an Error for a schema backend that claimed
// support for a shape it cannot actually convert. This indicates a backend
// bug, not a normal runtime condition.
func NewBackendContractError(message string) *Error {
	return &Error{
		Type:    ErrorTypeBackendContract,
		Message: message,
	}
}

// NewNotFoundError creates an Error for modules that cannot be found.
func NewNotFoundError(message string) *Error {
	return &Error{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewValidationError creates an Error for inputs that fail schema validation.
func NewValidationError(param, message string) *Error {
	return &Error{
		Type:    ErrorTypeValidation,
		Param:   param,
		Message: message,
	}
}

// NewServerError creates an Error for internal failures.
func NewServerError(message string) *Error {
	return &Error{
		Type:    ErrorTypeServerError,
		Message: message,
	}
}
