// Package queue defines message payloads exchanged over the message broker.
package queue

import (
	"time"

	"github.com/iliyamo/otp-session-auth/internal/model"
)

// OtpDispatchEvent is published when a challenge is issued and must be
// delivered to its recipient.  It carries everything a delivery worker needs
// without reading the credential store.
type OtpDispatchEvent struct {
	Recipient string    `json:"recipient"`
	Type      string    `json:"type"`
	Code      string    `json:"otp"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	IssuedAt  time.Time `json:"issued_at"`
}

// NewOtpDispatchEvent builds the event for c.
func NewOtpDispatchEvent(c model.OtpChallenge, issuedAt time.Time) OtpDispatchEvent {
	return OtpDispatchEvent{
		Recipient: c.Recipient,
		Type:      string(c.Type),
		Code:      c.Code,
		UserID:    c.UserID,
		ExpiresAt: c.ExpiresAt,
		IssuedAt:  issuedAt.UTC(),
	}
}
