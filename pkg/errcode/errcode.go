package errcode

import "fmt"

// Error represents a business error
type Error struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("errcode: %d, msg: %s", e.Code, e.Msg)
}

// New creates a new error with code and message
func New(code int, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

// Wrap wraps an error with additional context
func (e *Error) Wrap(err error) *Error {
	if err == nil {
		return e
	}
	return &Error{
		Code: e.Code,
		Msg:  fmt.Sprintf("%s: %v", e.Msg, err),
	}
}

// Is reports whether err carries the same code.
func (e *Error) Is(err error) bool {
	other, ok := err.(*Error)
	return ok && other.Code == e.Code
}

// IsRetryable reports whether the error is a transient store failure that is
// safe to retry with backoff.
func IsRetryable(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Code == ErrTransientStore.Code
}

// Common error codes
var (
	// Success
	ErrSuccess = New(0, "success")

	// Common errors (1xxx)
	ErrInvalidParam   = New(1001, "invalid parameter")
	ErrInternalServer = New(1002, "internal server error")
	ErrUnauthorized   = New(1003, "unauthorized")
	ErrForbidden      = New(1004, "forbidden")
	ErrNotFound       = New(1005, "not found")
	ErrPayloadInvalid = New(1007, "payload invalid: content or media required")
	ErrTransientStore = New(1008, "transient store error")

	// Identity errors (2xxx)
	ErrTokenInvalid     = New(2001, "token invalid")
	ErrTokenExpired     = New(2002, "token expired")
	ErrTokenMissing     = New(2003, "token missing")
	ErrNotAuthenticated = New(2005, "no resolvable subject")

	// Actor/authorization errors (3xxx)
	ErrActorNotAuthorized    = New(3001, "subject may not author as this organization")
	ErrMembershipNotOwned    = New(3002, "membership belongs to another participant")
	ErrNotConversationParty  = New(3003, "actor is not a party to this conversation")
	ErrActorResolutionFailed = New(3004, "actor resolution failed")

	// Conversation/message errors (4xxx)
	ErrConvNotFound    = New(4001, "conversation not found")
	ErrMessageNotFound = New(4002, "message not found")
	ErrSeqAllocFailed  = New(4003, "seq allocation failed")
	ErrSendFailed      = New(4004, "message send failed")
)
