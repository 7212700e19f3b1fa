package bizerror

import (
	"errors"
	"net/http"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("record not found")

	ErrUnknownTransition      = errors.New("unknown transition")
	ErrCommentRequired        = errors.New("comment is required")
	ErrTenantMismatch         = errors.New("tenant mismatch")
	ErrConcurrentModification = errors.New("concurrent modification")

	ErrNotApprover         = errors.New("actor is not the designated approver")
	ErrAlreadyResolved     = errors.New("approval request is already resolved")
	ErrEmptyApproverSet    = errors.New("no approver can be determined")
	ErrApprovalBatchExists = errors.New("an approval batch is already open")

	ErrStatusExisted = errors.New("status existed")
	ErrEdgeExisted   = errors.New("active edge existed")
	ErrStatusInUse   = errors.New("status is referenced")
)

type BizError interface {
	Respond() *BizErrorDetail
}

type BizErrorDetail struct {
	Status  int
	Code    string
	Message string

	Data  interface{}
	Cause error
}

type ErrBadParam struct {
	Cause error
}

func (e *ErrBadParam) Unwrap() error {
	return e.Cause
}
func (e *ErrBadParam) Error() string {
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return "common.bad_param"
}
func (e *ErrBadParam) Respond() *BizErrorDetail {
	message := "common.bad_param"
	if e.Cause != nil {
		message = e.Cause.Error()
	}
	return &BizErrorDetail{Status: http.StatusBadRequest, Code: "common.bad_param", Message: message, Data: nil}
}
