package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	appErr "github.com/xxxsen/otpverify/internal/pkg/errors"
	"github.com/xxxsen/otpverify/internal/service"
)

// Callable status names, as used by callable-function clients.
const (
	callableInvalidArgument = "INVALID_ARGUMENT"
	callableInternal        = "INTERNAL"
)

type callableRequest[T any] struct {
	Data T `json:"data"`
}

type callableError struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// CallableHandler serves the operations over the callable-function wire
// protocol: {"data": ...} in, {"result": ...} or {"error": ...} out.
type CallableHandler struct {
	otps *service.OtpService
}

func NewCallableHandler(otps *service.OtpService) *CallableHandler {
	return &CallableHandler{otps: otps}
}

func (h *CallableHandler) SendEmailOtp(c *gin.Context) {
	var req callableRequest[sendOtpRequest]
	if err := c.ShouldBindJSON(&req); err != nil || req.Data.Email == "" {
		callableFail(c, http.StatusBadRequest, callableInvalidArgument, "Bad Request")
		return
	}
	res, err := h.otps.Issue(c.Request.Context(), req.Data.Email)
	if err != nil {
		callableFailFromError(c, err, "Unable to send OTP")
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": res})
}

func (h *CallableHandler) VerifyEmailOtp(c *gin.Context) {
	var req callableRequest[verifyOtpRequest]
	if err := c.ShouldBindJSON(&req); err != nil || req.Data.Email == "" {
		callableFail(c, http.StatusBadRequest, callableInvalidArgument, "Bad Request")
		return
	}
	res, err := h.otps.Verify(c.Request.Context(), req.Data.Email, req.Data.Otp)
	if err != nil {
		callableFailFromError(c, err, "Unable to verify OTP")
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": res})
}

func callableFailFromError(c *gin.Context, err error, internalMsg string) {
	if errors.Is(err, appErr.ErrInvalid) {
		callableFail(c, http.StatusBadRequest, callableInvalidArgument, "Bad Request")
		return
	}
	callableFail(c, http.StatusInternalServerError, callableInternal, internalMsg)
}

func callableFail(c *gin.Context, httpStatus int, status, message string) {
	c.AbortWithStatusJSON(httpStatus, gin.H{"error": callableError{Status: status, Message: message}})
}
