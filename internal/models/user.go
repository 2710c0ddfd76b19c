package models

import "time"

// User is a registered site account.
type User struct {
	UserID        string    `json:"userId"`
	Email         string    `json:"email"`
	Password      string    `json:"password,omitempty"`
	CharacterName string    `json:"characterName"`
	SteamID       string    `json:"steamId,omitempty"`
	DisplayName   string    `json:"displayName,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	LastLogin     time.Time `json:"lastLogin,omitzero"`
	EmailVerified bool      `json:"emailVerified"`
}

// Sanitized returns a copy without the password.
func (u User) Sanitized() User {
	u.Password = ""
	return u
}

// Label is the name shown for the user in the account menu.
func (u *User) Label() string {
	switch {
	case u == nil:
		return "Account"
	case u.DisplayName != "":
		return u.DisplayName
	case u.CharacterName != "":
		return u.CharacterName
	}
	return u.Email
}

// Session maps an opaque bearer token to a user.
type Session struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// RegisterRequest is the JSON body for POST /api/auth/register.
type RegisterRequest struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	CharacterName string `json:"characterName"`
	SteamID       string `json:"steamId,omitempty"`
	DisplayName   string `json:"displayName,omitempty"`
}

// LoginRequest is the JSON body for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by login, register and me.
type AuthResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	User    *User  `json:"user,omitempty"`
}
