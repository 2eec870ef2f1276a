package response

import "errors"

type Response struct {
	ResponseError `json:"error,omitzero"`
}

type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error Codes
type ErrCode string

var (
	FAILED_REQUEST           ErrCode = "REQUEST_FAILED"
	BAD_REQUEST              ErrCode = "FAILED_TO_DECODE"
	INVALID_INPUT            ErrCode = "INVALID_INPUT"
	NOT_FOUND                ErrCode = "NOT_FOUND"
	LOCKED                   ErrCode = "LOCKED"
	CONFLICT                 ErrCode = "CONFLICT"
	SLOT_NOT_AVAILABLE       ErrCode = "SLOT_NOT_AVAILABLE"
	POLICY_VIOLATION         ErrCode = "POLICY_VIOLATION"
	INVALID_TRANSITION       ErrCode = "INVALID_TRANSITION"
	AVAILABILITY_UNCONFIRMED ErrCode = "AVAILABILITY_UNCONFIRMED"
	RATE_LIMITED             ErrCode = "RATE_LIMITED"
)

var (
	ErrBadRequest        = errors.New("bad request")
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("resource not found")
	ErrLocked            = errors.New("resource is locked")
	ErrConflict          = errors.New("conflict")
	ErrSlotNotAvailable  = errors.New("slot is not available")
	ErrPolicyViolation   = errors.New("not permitted by the cancellation policy")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrUnavailable       = errors.New("availability could not be confirmed")
)

func Error(code, msg string) Response {
	return Response{
		ResponseError: ResponseError{
			Code:    code,
			Message: msg,
		},
	}
}
