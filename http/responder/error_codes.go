package responder

// Error codes. 4xxx are client errors, 5xxx server errors.
const (
	ErrCodeBadRequest       = 4000
	ErrCodeBindFailed       = 4001
	ErrCodeValidationFailed = 4002
	ErrCodeNotFound         = 4003
	ErrCodeRouteNotFound    = 4004
	ErrCodeConflict         = 4008
	ErrCodeMethodNotAllowed = 4010

	ErrCodeInternalServer  = 5000
	ErrCodeStorageService  = 5004
	ErrCodeExternalService = 5005
)

var errorMessages = map[int]string{
	ErrCodeBadRequest:       "Bad Request",
	ErrCodeBindFailed:       "Invalid Request Body",
	ErrCodeValidationFailed: "Validation Failed",
	ErrCodeNotFound:         "Resource Not Found",
	ErrCodeRouteNotFound:    "Route Not Found",
	ErrCodeConflict:         "Data Conflict",
	ErrCodeMethodNotAllowed: "Method Not Allowed",
	ErrCodeInternalServer:   "Internal Server Error",
	ErrCodeStorageService:   "Storage Service Error",
	ErrCodeExternalService:  "External Service Error",
}

// GetErrorMessage returns the default message for an error code
func GetErrorMessage(code int) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}
	return "Unknown Error"
}

// NewError creates a new Error with code and message
func NewError(code int, message string) Error {
	if message == "" {
		message = GetErrorMessage(code)
	}
	return Error{Code: code, Message: message}
}

// NewErrorWithDetails creates a new Error with code, message and details
func NewErrorWithDetails(code int, message string, details any) Error {
	err := NewError(code, message)
	err.Details = details
	return err
}
