// Package domain holds DTOs for auth http and service contracts
package domain

// RegisterInput creates an account. Password length is capped by what
// bcrypt will hash
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email" example:"jane.doe@example.com"`
	Password string `json:"password" validate:"required,min=8,max=72" example:"hunter2hunter2"`
}

// LoginInput exchanges credentials for a bearer token
type LoginInput struct {
	Email    string `json:"email" validate:"required,email" example:"jane.doe@example.com"`
	Password string `json:"password" validate:"required,min=1,max=72" example:"hunter2hunter2"`
}
