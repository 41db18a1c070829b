package handler

import (
	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	Otps     *OtpHandler
	Callable *CallableHandler
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/otp/send", deps.Otps.Send)
	api.POST("/otp/verify", deps.Otps.Verify)

	api.POST("/callable/sendEmailOtp", deps.Callable.SendEmailOtp)
	api.POST("/callable/verifyEmailOtp", deps.Callable.VerifyEmailOtp)
}
