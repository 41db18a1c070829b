package errcode

// Code is the numeric error code carried in the response envelope.
type Code uint32

const (
	ErrInternal Code = 10000001 + iota
	ErrInvalid
	ErrSendOTP
	ErrVerifyOTP
)

var messages = map[Code]string{
	ErrInternal:  "internal error",
	ErrInvalid:   "invalid request",
	ErrSendOTP:   "unable to send otp",
	ErrVerifyOTP: "unable to verify otp",
}

// Message is the client-facing text for c. Causes are never included.
func (c Code) Message() string {
	if msg, ok := messages[c]; ok {
		return msg
	}
	return messages[ErrInternal]
}
