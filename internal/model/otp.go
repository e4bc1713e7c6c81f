package model

import "time"

// OtpType names the channel an OTP challenge was sent through.
type OtpType string

const (
	OtpEmail  OtpType = "email"
	OtpMobile OtpType = "mobile"
)

// OtpChallenge is a pending one-time passcode for a recipient.  Several
// challenges may exist for the same recipient; verification consumes the
// first one that matches in collection order.
type OtpChallenge struct {
	Recipient string    `json:"recipient"`
	Code      string    `json:"otp"`
	ExpiresAt time.Time `json:"expiry"`
	Type      OtpType   `json:"type"`
	UserID    string    `json:"userId"`
}

// Expired reports whether the challenge is past its expiry at now.
func (c OtpChallenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
