package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/webapi/proxyutil"

	"github.com/xxxsen/otpverify/internal/pkg/errcode"
)

// envelopeErr carries an errcode.Code into proxyutil's {code, message} body.
type envelopeErr struct {
	code errcode.Code
}

func (e envelopeErr) Error() string {
	return e.code.Message()
}

func (e envelopeErr) Code() uint32 {
	return uint32(e.code)
}

func Success(c *gin.Context, data interface{}) {
	proxyutil.SuccessJson(c, data)
}

// Error always answers HTTP 200; failures are told apart by the envelope code.
func Error(c *gin.Context, code errcode.Code) {
	proxyutil.FailJson(c, http.StatusOK, envelopeErr{code: code})
}
