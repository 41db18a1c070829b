package model

// OtpRecord is one issued passcode. Ctime is unix milliseconds assigned by
// the store on write.
type OtpRecord struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Code  string `json:"code"`
	Ctime int64  `json:"ctime"`
}
