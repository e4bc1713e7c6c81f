package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_Matches(t *testing.T) {
	u := User{Email: "a@x.com", Mobile: "111"}
	assert.True(t, u.Matches("a@x.com"))
	assert.True(t, u.Matches("111"))
	assert.False(t, u.Matches("A@x.com"))
	assert.False(t, u.Matches(""))
}

func TestOtpChallenge_Expired(t *testing.T) {
	at := time.Date(2026, 1, 1, 0, 5, 0, 0, time.UTC)
	c := OtpChallenge{ExpiresAt: at}
	assert.False(t, c.Expired(at.Add(-time.Second)))
	assert.False(t, c.Expired(at))
	assert.True(t, c.Expired(at.Add(time.Millisecond)))
}

func TestStoredFieldNames(t *testing.T) {
	data, err := json.Marshal(User{ID: "u1", PasswordHash: "h", IsVerified: true})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"password":"h"`)
	assert.Contains(t, string(data), `"isVerified":true`)

	data, err = json.Marshal(OtpChallenge{Code: "123456", UserID: "u1", Type: OtpMobile})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"otp":"123456"`)
	assert.Contains(t, string(data), `"userId":"u1"`)
	assert.Contains(t, string(data), `"type":"mobile"`)
}
