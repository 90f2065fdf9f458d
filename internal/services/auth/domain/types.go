// Package domain defines core types and interfaces for authentication
package domain

// User is the public view of an account
type User struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

// Token is an issued bearer credential
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
