package domain

import "time"

// Contact is owned by exactly one user. The owner is set at creation and
// never changes; every query against contacts carries the owner as a filter.
type Contact struct {
	ContactID string    `json:"id" dynamodbav:"contact_id"`
	UserID    string    `json:"-" dynamodbav:"user_id"`
	Name      string    `json:"name" dynamodbav:"name"`
	Surname   string    `json:"surname" dynamodbav:"surname"`
	Email     string    `json:"email" dynamodbav:"email"`
	Phone     string    `json:"phone" dynamodbav:"phone"`
	Birthday  time.Time `json:"birthday" dynamodbav:"birthday"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated" dynamodbav:"updated_at"`
}

// ContactRequest carries the full set of mutable contact fields. Updates are
// whole-object replaces, so create and update share the same payload.
type ContactRequest struct {
	Name     string `json:"name" validate:"required,max=150"`
	Surname  string `json:"surname" validate:"required,max=150"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required"`
	Birthday string `json:"birthday" validate:"required"` // expected format: YYYY-MM-DD
}
