package sdk

import "fmt"

// Error represents an API error
type Error struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("code: %d, msg: %s", e.Code, e.Msg)
}

// NewError creates a new error
func NewError(code int, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

// Common error codes, mirroring the server taxonomy
const (
	CodeSuccess = 0

	// Common errors (1xxx)
	CodeInvalidParam   = 1001
	CodeInternalServer = 1002
	CodeUnauthorized   = 1003
	CodeForbidden      = 1004
	CodeNotFound       = 1005
	CodePayloadInvalid = 1007
	CodeTransientStore = 1008

	// Auth errors (2xxx)
	CodeTokenInvalid     = 2001
	CodeTokenExpired     = 2002
	CodeTokenMissing     = 2003
	CodeNotAuthenticated = 2005

	// Identity and ownership errors (3xxx)
	CodeActorNotAuthorized    = 3001
	CodeMembershipNotOwned    = 3002
	CodeNotConversationParty  = 3003
	CodeActorResolutionFailed = 3004

	// Conversation and message errors (4xxx)
	CodeConvNotFound    = 4001
	CodeMessageNotFound = 4002
	CodeSeqAllocFailed  = 4003
	CodeSendFailed      = 4004
)

// IsRetryable reports whether the failure is transient. Callers surface
// non-retryable errors to the user instead of retrying silently.
func IsRetryable(err error) bool {
	apiErr, ok := err.(*Error)
	if !ok {
		// Transport-level failures (timeouts, refused connections) are
		// worth another attempt.
		return true
	}
	switch apiErr.Code {
	case CodeInternalServer, CodeTransientStore, CodeSeqAllocFailed:
		return true
	}
	return false
}
