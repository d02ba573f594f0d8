package domain

import "time"

type User struct {
	UserID       string    `json:"id" dynamodbav:"user_id"`
	Username     string    `json:"username" dynamodbav:"username"`
	Email        string    `json:"email" dynamodbav:"email"`
	PasswordHash string    `json:"-" dynamodbav:"password_hash"`
	Confirmed    bool      `json:"confirmed" dynamodbav:"confirmed"`
	Avatar       string    `json:"avatar,omitempty" dynamodbav:"avatar"`
	// Fingerprint of the most recently issued refresh token. Overwriting it
	// revokes every previously issued refresh token for this user.
	RefreshToken string    `json:"-" dynamodbav:"refresh_token"`
	CreatedAt    time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updated" dynamodbav:"updated_at"`
}

type SignupRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}
