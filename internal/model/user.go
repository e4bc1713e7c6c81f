package model

// User represents an account record as stored in the users collection.
// The password is only ever held as a bcrypt hash.  IsVerified flips to
// true once any OTP challenge owned by the user has been verified.
//
// Fields:
//
//	ID           – uuid generated at signup.
//	Name         – display name.
//	Email        – unique email address.
//	Mobile       – unique mobile number.
//	PasswordHash – bcrypt hash of the password.
//	IsVerified   – whether an OTP challenge has been passed.
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Mobile       string `json:"mobile"`
	PasswordHash string `json:"password"`
	IsVerified   bool   `json:"isVerified"`
}

// Matches reports whether identifier equals the user's email or mobile.
func (u User) Matches(identifier string) bool {
	return u.Email == identifier || u.Mobile == identifier
}
