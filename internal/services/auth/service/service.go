// Package service contains auth workflows
package service

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/secure/precis"

	"keycap/internal/modkit/repokit"
	perr "keycap/internal/platform/errors"
	"keycap/internal/services/auth/domain"
	"keycap/internal/services/auth/repo"
)

// Config for the auth service
type Config struct {
	// Secret signs and verifies bearer tokens, must not be empty
	Secret string

	// TokenTTL bounds token lifetime; defaults to 24h if zero
	TokenTTL time.Duration

	// BcryptCost defaults to bcrypt.DefaultCost if zero
	BcryptCost int
}

// Service defines the service contract for auth
type Service interface {
	domain.ServicePort
	domain.TokenPort
}

// Svc implements the Service interface
type Svc struct {
	Repo   repo.Repo
	binder repokit.Binder[repo.Repo]
	db     repokit.TxRunner
	cfg    Config

	now func() time.Time
}

// New creates a new auth service
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo], cfg Config) *Svc {
	if db == nil {
		panic("auth.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("auth.Service requires a non nil Repo binder")
	}
	if strings.TrimSpace(cfg.Secret) == "" {
		panic("auth.Service requires a signing secret")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.BcryptCost <= 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &Svc{Repo: binder.Bind(db), binder: binder, db: db, cfg: cfg, now: time.Now}
}

// Register creates an account and returns a fresh token
func (s *Svc) Register(ctx context.Context, in domain.RegisterInput) (domain.Token, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return domain.Token{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cfg.BcryptCost)
	if err != nil {
		return domain.Token{}, perr.Wrap(err, perr.ErrorCodeUnknown, "hash password")
	}

	uid := uuid.NewString()
	err = s.db.Tx(ctx, func(q repokit.Queryer) error {
		return s.binder.Bind(q).Insert(ctx, repo.RowUser{UserID: uid, Email: email, PasswordHash: string(hash)})
	})
	if err != nil {
		return domain.Token{}, err
	}
	return s.issue(uid)
}

// Login verifies credentials and returns a fresh token. Lookup and compare
// failures collapse into one answer so the endpoint does not leak which
// emails exist
func (s *Svc) Login(ctx context.Context, in domain.LoginInput) (domain.Token, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return domain.Token{}, err
	}

	var row repo.RowUser
	err = s.db.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		row, err = s.binder.Bind(q).ByEmail(ctx, email)
		return err
	})
	if err != nil {
		return domain.Token{}, perr.Unauthorizedf("invalid email or password")
	}
	if bcrypt.CompareHashAndPassword([]byte(row.PasswordHash), []byte(in.Password)) != nil {
		return domain.Token{}, perr.Unauthorizedf("invalid email or password")
	}
	return s.issue(row.UserID)
}

// Me returns the account behind a user id
func (s *Svc) Me(ctx context.Context, userID string) (domain.User, error) {
	var row repo.RowUser
	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		row, err = s.binder.Bind(q).ByID(ctx, userID)
		return err
	})
	if err != nil {
		return domain.User{}, err
	}
	return domain.User{UserID: row.UserID, Email: row.Email, CreatedAt: row.CreatedAt}, nil
}

// ParseToken implements domain.TokenPort
func (s *Svc) ParseToken(token string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, perr.Unauthorizedf("unexpected signing method %s", t.Method.Alg())
		}
		return []byte(s.cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return "", perr.Unauthorizedf("invalid bearer token")
	}
	sub, err := parsed.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", perr.Unauthorizedf("invalid bearer token")
	}
	return sub, nil
}

func (s *Svc) issue(userID string) (domain.Token, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return domain.Token{}, perr.Wrap(err, perr.ErrorCodeUnknown, "sign token")
	}
	return domain.Token{AccessToken: signed, TokenType: "bearer"}, nil
}

var emailProfile = precis.UsernameCaseMapped

// normalizeEmail case-folds the local part through the precis username
// profile so visually equal addresses collide instead of duplicating
func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	at := strings.LastIndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return "", perr.InvalidArgf("malformed email address")
	}
	local, err := emailProfile.String(email[:at])
	if err != nil {
		return "", perr.InvalidArgf("malformed email address")
	}
	return local + "@" + strings.ToLower(email[at+1:]), nil
}
