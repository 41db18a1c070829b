package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/otpverify/internal/pkg/errcode"
	"github.com/xxxsen/otpverify/internal/pkg/response"
	"github.com/xxxsen/otpverify/internal/service"
)

type OtpHandler struct {
	otps *service.OtpService
}

func NewOtpHandler(otps *service.OtpService) *OtpHandler {
	return &OtpHandler{otps: otps}
}

type sendOtpRequest struct {
	Email string `json:"email"`
}

type verifyOtpRequest struct {
	Email string `json:"email"`
	Otp   string `json:"otp"`
}

func (h *OtpHandler) Send(c *gin.Context) {
	var req sendOtpRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		response.Error(c, errcode.ErrInvalid)
		return
	}
	res, err := h.otps.Issue(c.Request.Context(), req.Email)
	if err != nil {
		handleError(c, err, errcode.ErrSendOTP)
		return
	}
	response.Success(c, res)
}

func (h *OtpHandler) Verify(c *gin.Context) {
	var req verifyOtpRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		response.Error(c, errcode.ErrInvalid)
		return
	}
	res, err := h.otps.Verify(c.Request.Context(), req.Email, req.Otp)
	if err != nil {
		handleError(c, err, errcode.ErrVerifyOTP)
		return
	}
	response.Success(c, res)
}
