package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"lagimmo/api/internal/config"
	"lagimmo/api/internal/mailer"
	"lagimmo/api/internal/models"
	"lagimmo/api/internal/repository"
	"lagimmo/api/internal/tokens"
)

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]models.User
	creds *fakeCredentials
}

func newFakeUsers(creds *fakeCredentials) *fakeUsers {
	return &fakeUsers{users: map[string]models.User{}, creds: creds}
}

func (f *fakeUsers) CreateWithCredential(_ context.Context, user models.User, cred models.Credential) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if strings.EqualFold(u.Email, user.Email) {
			return repository.ErrEmailTaken
		}
		if u.UserName == user.UserName {
			return repository.ErrUserNameTaken
		}
	}
	f.users[user.ID] = user
	return f.creds.Replace(context.Background(), user.ID, cred, 0, nil)
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (f *fakeUsers) FindByLogin(_ context.Context, login string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if strings.EqualFold(u.Email, login) || u.UserName == login {
			return u, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (f *fakeUsers) FindSuperUserByLogin(ctx context.Context, login string) (models.User, error) {
	u, err := f.FindByLogin(ctx, login)
	if err != nil {
		return u, err
	}
	if !u.IsSuperUser {
		return models.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) UserNameExists(_ context.Context, userName string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.UserName == userName {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, user models.User) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.ID]; !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUsers) MarkVerified(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.IsVerified = true
	f.users[id] = u
	return nil
}

type fakeCredentials struct {
	mu    sync.Mutex
	seq   int
	creds map[string][]models.Credential
}

func newFakeCredentials() *fakeCredentials {
	return &fakeCredentials{creds: map[string][]models.Credential{}}
}

func (f *fakeCredentials) Current(_ context.Context, userID string) (models.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.creds[userID] {
		if c.IsCurrent {
			return c, nil
		}
	}
	return models.Credential{}, repository.ErrCredentialNotFound
}

func (f *fakeCredentials) Replace(_ context.Context, userID string, cred models.Credential, depth int, check repository.CredentialCheck) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := f.creds[userID]
	if check != nil {
		history := append([]models.Credential(nil), list...)
		sort.Slice(history, func(i, j int) bool { return history[i].CreatedAt.After(history[j].CreatedAt) })
		if len(history) > depth {
			history = history[:depth]
		}
		if err := check(history); err != nil {
			return err
		}
	}
	for i := range list {
		list[i].IsCurrent = false
	}
	f.seq++
	cred.UserID = userID
	cred.IsCurrent = true
	cred.CreatedAt = time.Unix(int64(f.seq), 0)
	f.creds[userID] = append(list, cred)
	return nil
}

func (f *fakeCredentials) currentCount(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.creds[userID] {
		if c.IsCurrent {
			n++
		}
	}
	return n
}

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]models.Session
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: map[string]models.Session{}}
}

func (f *fakeSessions) Create(_ context.Context, session models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[session.ID] = session
	return nil
}

func (f *fakeSessions) GetByID(_ context.Context, id string) (models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return models.Session{}, repository.ErrSessionNotFound
	}
	return s, nil
}

func (f *fakeSessions) Revoke(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return repository.ErrSessionNotFound
	}
	s.Revoked = true
	f.sessions[id] = s
	return nil
}

func (f *fakeSessions) RevokeAllForUser(_ context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, s := range f.sessions {
		if s.UserID == userID && !s.Revoked {
			s.Revoked = true
			f.sessions[id] = s
			n++
		}
	}
	return n, nil
}

type fakeMail struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (f *fakeMail) Send(_ context.Context, msg mailer.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeMail) last() mailer.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return mailer.Message{}
	}
	return f.sent[len(f.sent)-1]
}

var testSecurity = config.SecurityConfig{
	JWTSecret:           "access-secret",
	ResetPasswordSecret: "reset-secret",
	VerifyAccountSecret: "verify-secret",
	AccessTTL:           15 * time.Minute,
	RefreshTTL:          720 * time.Hour,
	ResetTTL:            time.Hour,
	VerifyTTL:           24 * time.Hour,
	BcryptCost:          bcrypt.MinCost,
	PasswordHistory:     10,
}

type authFixture struct {
	redis    *miniredis.Miniredis
	allow    *tokens.AllowList
	users    *fakeUsers
	creds    *fakeCredentials
	sessions *fakeSessions
	mail     *fakeMail
	tokens   *TokenService
	auth     *AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	creds := newFakeCredentials()
	f := &authFixture{
		redis:    mr,
		allow:    tokens.NewAllowList(client, time.Second),
		users:    newFakeUsers(creds),
		creds:    creds,
		sessions: newFakeSessions(),
		mail:     &fakeMail{},
	}
	f.tokens = NewTokenService(f.allow, f.sessions, f.users, testSecurity, "https://front.example/")
	f.auth = NewAuthService(f.users, f.creds, f.tokens, f.mail, testSecurity, config.MailTemplates{ResetPassword: "d-reset"}, zerolog.Nop())
	return f
}

func (f *authFixture) superUser(t *testing.T, password string) models.User {
	t.Helper()
	user, err := f.auth.CreateSuperUser(context.Background(), SignupInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Password:  password,
	})
	require.NoError(t, err)
	return user
}
