package domain

import "context"

// ServicePort defines the service contract for auth
type ServicePort interface {
	Register(ctx context.Context, in RegisterInput) (Token, error)
	Login(ctx context.Context, in LoginInput) (Token, error)
	Me(ctx context.Context, userID string) (User, error)
}

// TokenPort validates a bearer token and yields the subject user id
type TokenPort interface {
	ParseToken(token string) (userID string, err error)
}
