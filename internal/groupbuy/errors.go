package groupbuy

import "net/http"

type ErrorCode string

const (
	ErrGroupNotFound         ErrorCode = "GROUP_NOT_FOUND"
	ErrOrderNotFound         ErrorCode = "ORDER_NOT_FOUND"
	ErrWriteFailed           ErrorCode = "WRITE_FAILED"
	ErrReadFailed            ErrorCode = "READ_FAILED"
	ErrInvalidTransition     ErrorCode = "INVALID_TRANSITION"
	ErrNoOrders              ErrorCode = "NO_ORDERS"
	ErrGroupNameRequired     ErrorCode = "GROUP_NAME_REQUIRED"
	ErrMemberNameRequired    ErrorCode = "MEMBER_NAME_REQUIRED"
	ErrInvalidQuantity       ErrorCode = "INVALID_QUANTITY"
	ErrUnknownProduct        ErrorCode = "UNKNOWN_PRODUCT"
	ErrInvalidPrice          ErrorCode = "INVALID_PRICE"
	ErrInvalidShippingStatus ErrorCode = "INVALID_SHIPPING_STATUS"
	ErrAccessDenied          ErrorCode = "ACCESS_DENIED"
	ErrAuthUnavailable       ErrorCode = "AUTH_UNAVAILABLE"
)

// Error is the typed failure every operation resolves to. StatusCode lets the
// HTTP layer map domain failures without a second taxonomy.
type Error struct {
	Code       ErrorCode
	Message    string
	StatusCode int
}

func (e *Error) Error() string {
	return e.Message
}

func newError(code ErrorCode, message string, status int) *Error {
	return &Error{Code: code, Message: message, StatusCode: status}
}

// PreconditionError rejects an operation locally, before any store write.
func PreconditionError(code ErrorCode, message string) *Error {
	return newError(code, message, http.StatusBadRequest)
}

// NotFoundError covers the normal absent-group outcome, e.g. a stale invite
// code. It is expected traffic, not a fault.
func NotFoundError(code ErrorCode, message string) *Error {
	return newError(code, message, http.StatusNotFound)
}

// TransitionError rejects an illegal workflow transition.
func TransitionError(message string) *Error {
	return newError(ErrInvalidTransition, message, http.StatusConflict)
}

// WriteError wraps a store write rejection. The caller's view must keep
// reflecting confirmed store state; no retry happens here.
func WriteError(err error) *Error {
	return newError(ErrWriteFailed, "寫入失敗："+err.Error(), http.StatusBadGateway)
}

// ReadError wraps a store read failure on a non-reactive read.
func ReadError(err error) *Error {
	return newError(ErrReadFailed, "讀取失敗："+err.Error(), http.StatusBadGateway)
}

// AccessDeniedError is the fail-closed token mismatch outcome.
func AccessDeniedError() *Error {
	return newError(ErrAccessDenied, "拒絕存取", http.StatusForbidden)
}

// AuthUnavailableError distinguishes a failed verification read from an actual
// mismatch, so clients keep their cached token through transient store faults.
func AuthUnavailableError(err error) *Error {
	return newError(ErrAuthUnavailable, "驗證暫時無法使用："+err.Error(), http.StatusServiceUnavailable)
}
