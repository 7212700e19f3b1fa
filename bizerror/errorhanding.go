package bizerror

import (
	"encoding/json"
	"errors"
	"fmt"
	"gesdoc/misc"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
)

func ErrorHandling() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handle(c)
		c.Next()
	}
}

func handle(c *gin.Context) {
	if ret := recover(); ret != nil {
		err, ok := ret.(error)
		if !ok {
			err = errors.New(fmt.Sprintf("%s", ret))
		}
		HandleError(c, err)
	} else {
		if err := c.Errors.Last(); err != nil {
			HandleError(c, err)
		}
	}
}

func HandleError(c *gin.Context, err error) {
	logrus.Error(err)

	genericErr := err
	var ginErr *gin.Error
	if errors.As(err, &ginErr) {
		genericErr = ginErr.Err
	}

	if bizErr, ok := genericErr.(BizError); ok {
		respond := bizErr.Respond()
		c.JSON(respond.Status, &misc.ErrorBody{Code: respond.Code, Message: respond.Message, Data: respond.Data})
		c.Abort()
		return
	}

	// bad request:  io.EOF (no body).
	if errors.Is(genericErr, io.EOF) {
		c.JSON(http.StatusBadRequest, &misc.ErrorBody{Code: "bad_request.body_not_found", Message: "body not found"})
		c.Abort()
		return
	}
	// bad request: json syntax Error
	if syntaxErr, ok := genericErr.(*json.SyntaxError); ok {
		c.JSON(http.StatusBadRequest, &misc.ErrorBody{Code: "bad_request.invalid_body_format", Message: "invalid body format", Data: syntaxErr.Error()})
		c.Abort()
		return
	}
	// validation failed
	if validationErr, ok := genericErr.(validator.ValidationErrors); ok {
		c.JSON(http.StatusBadRequest, &misc.ErrorBody{Code: "bad_request.validation_failed", Message: "validation failed", Data: validationErr.Error()})
		c.Abort()
		return
	}

	if errors.Is(genericErr, ErrUnauthenticated) {
		c.JSON(http.StatusUnauthorized, &misc.ErrorBody{Code: "common.unauthenticated", Message: "unauthenticated"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, ErrForbidden) {
		c.JSON(http.StatusForbidden, &misc.ErrorBody{Code: "security.forbidden", Message: "access forbidden"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, ErrNotApprover) {
		c.JSON(http.StatusForbidden, &misc.ErrorBody{Code: "approval.not_approver", Message: "not the designated approver"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, ErrUnknownTransition) {
		c.JSON(http.StatusBadRequest, &misc.ErrorBody{Code: "workflow.unknown_transition", Message: "unknown transition"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, ErrCommentRequired) {
		c.JSON(http.StatusBadRequest, &misc.ErrorBody{Code: "workflow.comment_required", Message: "comment is required"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, ErrTenantMismatch) {
		c.JSON(http.StatusBadRequest, &misc.ErrorBody{Code: "workflow.tenant_mismatch", Message: "tenant mismatch"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, ErrEmptyApproverSet) {
		c.JSON(http.StatusBadRequest, &misc.ErrorBody{Code: "approval.empty_approver_set", Message: "no approver can be determined"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, ErrConcurrentModification) {
		c.JSON(http.StatusConflict, &misc.ErrorBody{Code: "workflow.concurrent_modification", Message: "concurrent modification"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, ErrAlreadyResolved) {
		c.JSON(http.StatusConflict, &misc.ErrorBody{Code: "approval.already_resolved", Message: "approval request is already resolved"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, ErrApprovalBatchExists) {
		c.JSON(http.StatusConflict, &misc.ErrorBody{Code: "approval.batch_exists", Message: "an approval batch is already open"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, ErrStatusExisted) {
		c.JSON(http.StatusBadRequest, &misc.ErrorBody{Code: "workflow.status_existed", Message: "status existed"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, ErrEdgeExisted) {
		c.JSON(http.StatusBadRequest, &misc.ErrorBody{Code: "workflow.edge_existed", Message: "active edge existed"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, gorm.ErrRecordNotFound) || errors.Is(genericErr, ErrNotFound) {
		c.JSON(http.StatusNotFound, &misc.ErrorBody{Code: "common.record_not_found", Message: "record not found"})
		c.Abort()
		return
	}

	c.JSON(http.StatusInternalServerError, &misc.ErrorBody{Code: "common.internal_server_error", Message: err.Error()})
	c.Abort()
}
