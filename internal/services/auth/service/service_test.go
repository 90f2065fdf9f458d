package service

import (
	"context"
	"testing"
	"time"

	"keycap/internal/modkit/repokit"
	"keycap/internal/platform/store"
	"keycap/internal/services/auth/domain"
	"keycap/internal/services/auth/repo"
)

type fakeDB struct{}

func (fakeDB) Exec(context.Context, string, ...any) (store.CommandTag, error) {
	var z store.CommandTag
	return z, nil
}
func (fakeDB) Query(context.Context, string, ...any) (store.Rows, error) { return nil, nil }
func (fakeDB) QueryRow(context.Context, string, ...any) store.Row        { return nil }
func (fakeDB) Tx(ctx context.Context, fn func(q store.RowQuerier) error) error {
	return fn(fakeDB{})
}

// memRepo keeps users in a map so workflows run without postgres
type memRepo struct {
	users map[string]repo.RowUser // by email
}

func (m *memRepo) Insert(_ context.Context, row repo.RowUser) error {
	m.users[row.Email] = row
	return nil
}

func (m *memRepo) ByEmail(_ context.Context, email string) (repo.RowUser, error) {
	u, ok := m.users[email]
	if !ok {
		return repo.RowUser{}, context.Canceled // any error will do
	}
	return u, nil
}

func (m *memRepo) ByID(_ context.Context, userID string) (repo.RowUser, error) {
	for _, u := range m.users {
		if u.UserID == userID {
			return u, nil
		}
	}
	return repo.RowUser{}, context.Canceled
}

func newTestSvc(t *testing.T) (*Svc, *memRepo) {
	t.Helper()
	mem := &memRepo{users: map[string]repo.RowUser{}}
	binder := repokit.BindFunc[repo.Repo](func(repokit.Queryer) repo.Repo { return mem })
	s := New(fakeDB{}, binder, Config{Secret: "test-secret", BcryptCost: 4})
	return s, mem
}

func TestRegisterLoginRoundTrip(t *testing.T) {
	t.Parallel()

	s, _ := newTestSvc(t)
	ctx := context.Background()

	tok, err := s.Register(ctx, domain.RegisterInput{Email: "Jane.Doe@Example.COM", Password: "hunter2hunter2"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if tok.AccessToken == "" || tok.TokenType != "bearer" {
		t.Fatalf("unexpected token %+v", tok)
	}

	uid, err := s.ParseToken(tok.AccessToken)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	me, err := s.Me(ctx, uid)
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if me.Email != "jane.doe@example.com" {
		t.Fatalf("email not normalized on register, got %q", me.Email)
	}

	// login with a differently cased address hits the same account
	if _, err := s.Login(ctx, domain.LoginInput{Email: "JANE.DOE@example.com", Password: "hunter2hunter2"}); err != nil {
		t.Fatalf("Login: %v", err)
	}
}

func TestLoginDoesNotLeakExistence(t *testing.T) {
	t.Parallel()

	s, _ := newTestSvc(t)
	ctx := context.Background()
	if _, err := s.Register(ctx, domain.RegisterInput{Email: "a@b.co", Password: "hunter2hunter2"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, errMissing := s.Login(ctx, domain.LoginInput{Email: "nobody@b.co", Password: "hunter2hunter2"})
	_, errWrongPw := s.Login(ctx, domain.LoginInput{Email: "a@b.co", Password: "wrong-password"})
	if errMissing == nil || errWrongPw == nil {
		t.Fatalf("both logins should fail")
	}
	if errMissing.Error() != errWrongPw.Error() {
		t.Fatalf("login errors differ: %q vs %q", errMissing, errWrongPw)
	}
}

func TestParseTokenRejectsForgeries(t *testing.T) {
	t.Parallel()

	s, _ := newTestSvc(t)
	other := New(fakeDB{},
		repokit.BindFunc[repo.Repo](func(repokit.Queryer) repo.Repo { return &memRepo{users: map[string]repo.RowUser{}} }),
		Config{Secret: "other-secret", BcryptCost: 4})

	tok, err := other.Register(context.Background(), domain.RegisterInput{Email: "a@b.co", Password: "hunter2hunter2"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := s.ParseToken(tok.AccessToken); err == nil {
		t.Fatalf("token signed by a different secret must not parse")
	}
	if _, err := s.ParseToken("not-a-jwt"); err == nil {
		t.Fatalf("garbage token must not parse")
	}
}

func TestParseTokenExpiry(t *testing.T) {
	t.Parallel()

	s, _ := newTestSvc(t)
	base := time.Now()
	s.now = func() time.Time { return base }

	tok, err := s.Register(context.Background(), domain.RegisterInput{Email: "a@b.co", Password: "hunter2hunter2"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := s.ParseToken(tok.AccessToken); err != nil {
		t.Fatalf("fresh token should parse: %v", err)
	}

	s.now = func() time.Time { return base.Add(25 * time.Hour) }
	if _, err := s.ParseToken(tok.AccessToken); err == nil {
		t.Fatalf("expired token must not parse")
	}
}

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()

	got, err := normalizeEmail("  Jane.Doe@Example.COM ")
	if err != nil {
		t.Fatalf("normalizeEmail: %v", err)
	}
	if got != "jane.doe@example.com" {
		t.Fatalf("normalizeEmail = %q", got)
	}

	for _, bad := range []string{"", "no-at", "@host", "local@"} {
		if _, err := normalizeEmail(bad); err == nil {
			t.Fatalf("normalizeEmail(%q) should fail", bad)
		}
	}
}
