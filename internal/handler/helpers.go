package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/otpverify/internal/pkg/errcode"
	appErr "github.com/xxxsen/otpverify/internal/pkg/errors"
	"github.com/xxxsen/otpverify/internal/pkg/response"
)

// handleError writes err as an envelope error. Anything other than invalid
// input is reported as failed, the code naming the operation.
func handleError(c *gin.Context, err error, failed errcode.Code) {
	if err == nil {
		return
	}
	requestID, _ := c.Get("request_id")
	logutil.GetLogger(c.Request.Context()).Warn("request failed",
		zap.Any("request_id", requestID),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	if errors.Is(err, appErr.ErrInvalid) {
		response.Error(c, errcode.ErrInvalid)
		return
	}
	response.Error(c, failed)
}
