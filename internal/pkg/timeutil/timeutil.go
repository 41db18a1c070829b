package timeutil

import "time"

// NowUnixMilli is the ctime unit used for otp records.
func NowUnixMilli() int64 {
	return time.Now().UnixMilli()
}
