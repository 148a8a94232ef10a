package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/civicyouth/portal/internal/adapter/http/ratelimit"
	"github.com/civicyouth/portal/internal/domain"
)

const (
	testSecret   = "test-secret-key-that-is-long-enough"
	testEmail    = "admin@civic.org"
	testPassword = "P@ssw0rd123"
)

type mockUserStore struct {
	users   map[string]*domain.User
	nextID  int64
	readErr error
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{users: make(map[string]*domain.User), nextID: 1}
}

func (m *mockUserStore) add(t *testing.T, email, password string) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, m.CreateUser(context.Background(), email, string(hash)))
	return m.users[email]
}

func (m *mockUserStore) HasUser(_ context.Context) (bool, error) {
	if m.readErr != nil {
		return false, m.readErr
	}
	return len(m.users) > 0, nil
}

func (m *mockUserStore) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	u, ok := m.users[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

func (m *mockUserStore) GetUserByID(_ context.Context, id int64) (*domain.User, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockUserStore) CreateUser(_ context.Context, email, passwordHash string) error {
	if _, ok := m.users[email]; ok {
		return domain.ErrUserExists
	}
	m.users[email] = &domain.User{ID: m.nextID, Email: email, PasswordHash: passwordHash, CreatedAt: time.Now()}
	m.nextID++
	return nil
}

func (m *mockUserStore) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	for _, u := range m.users {
		if u.ID == id {
			u.PasswordHash = passwordHash
			return nil
		}
	}
	return domain.ErrNotFound
}

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

func newTestAuth(t *testing.T) (*AuthService, *mockUserStore, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)}
	store := newMockUserStore()
	store.add(t, testEmail, testPassword)
	limiter := ratelimit.NewLoginRateLimiter(ratelimit.WithClock(clock.Now))
	svc := NewAuthService(store, limiter, testSecret)
	svc.now = clock.Now
	return svc, store, clock
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		svc, _, _ := newTestAuth(t)
		token, user, err := svc.Login(ctx, testEmail, testPassword)
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, testEmail, user.Email)
	})

	t.Run("email is normalised", func(t *testing.T) {
		svc, _, _ := newTestAuth(t)
		_, _, err := svc.Login(ctx, "  Admin@CIVIC.org ", testPassword)
		assert.NoError(t, err)
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, _, _ := newTestAuth(t)
		_, _, err := svc.Login(ctx, testEmail, "nope")
		assert.ErrorIs(t, err, ErrInvalidCreds)
	})

	t.Run("unknown email", func(t *testing.T) {
		svc, _, _ := newTestAuth(t)
		_, _, err := svc.Login(ctx, "ghost@civic.org", testPassword)
		assert.ErrorIs(t, err, ErrInvalidCreds)
	})

	t.Run("store failure is not reported as bad credentials", func(t *testing.T) {
		svc, store, _ := newTestAuth(t)
		store.readErr = errors.New("disk on fire")
		_, _, err := svc.Login(ctx, testEmail, testPassword)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrInvalidCreds)
	})
}

func TestAuthService_Login_LocksOutAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	svc, _, clock := newTestAuth(t)

	for i := 0; i < ratelimit.MaxAttempts; i++ {
		_, _, err := svc.Login(ctx, testEmail, "wrong")
		require.ErrorIs(t, err, ErrInvalidCreds)
	}

	// the correct password is refused too while the window is open
	_, _, err := svc.Login(ctx, testEmail, testPassword)
	require.ErrorIs(t, err, domain.ErrTooManyAttempts)

	var lockout *domain.LockoutError
	require.True(t, errors.As(err, &lockout))
	assert.Equal(t, clock.now.Add(ratelimit.WindowDuration), lockout.ResetTime)

	clock.now = clock.now.Add(ratelimit.WindowDuration + time.Second)
	_, _, err = svc.Login(ctx, testEmail, testPassword)
	assert.NoError(t, err)
}

func TestAuthService_Login_CaseVariantsShareCounter(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestAuth(t)

	variants := []string{"admin@civic.org", "ADMIN@civic.org", " Admin@Civic.Org", "admin@CIVIC.ORG", "aDmin@civic.org"}
	for _, v := range variants {
		_, _, err := svc.Login(ctx, v, "wrong")
		require.ErrorIs(t, err, ErrInvalidCreds)
	}

	_, _, err := svc.Login(ctx, testEmail, testPassword)
	assert.ErrorIs(t, err, domain.ErrTooManyAttempts)
}

func TestAuthService_Login_SuccessClearsCounter(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestAuth(t)

	for i := 0; i < ratelimit.MaxAttempts-1; i++ {
		_, _, _ = svc.Login(ctx, testEmail, "wrong")
	}
	_, _, err := svc.Login(ctx, testEmail, testPassword)
	require.NoError(t, err)

	// a fresh window: four more failures still leave room for a fifth attempt
	for i := 0; i < ratelimit.MaxAttempts-1; i++ {
		_, _, err = svc.Login(ctx, testEmail, "wrong")
		require.ErrorIs(t, err, ErrInvalidCreds)
	}
	_, _, err = svc.Login(ctx, testEmail, testPassword)
	assert.NoError(t, err)
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("creates first account", func(t *testing.T) {
		store := newMockUserStore()
		svc := NewAuthService(store, ratelimit.NewLoginRateLimiter(), testSecret)

		created, err := svc.EnsureAdmin(ctx, " Staff@Civic.org", testPassword)
		require.NoError(t, err)
		assert.True(t, created)

		user, err := store.GetUserByEmail(ctx, "staff@civic.org")
		require.NoError(t, err)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(testPassword)))
	})

	t.Run("skips when an account exists", func(t *testing.T) {
		svc, store, _ := newTestAuth(t)
		created, err := svc.EnsureAdmin(ctx, "other@civic.org", testPassword)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Len(t, store.users, 1)
	})

	t.Run("rejects weak password", func(t *testing.T) {
		svc := NewAuthService(newMockUserStore(), ratelimit.NewLoginRateLimiter(), testSecret)
		_, err := svc.EnsureAdmin(ctx, "staff@civic.org", "password")
		assert.ErrorIs(t, err, ErrWeakPassword)
	})

	t.Run("rejects invalid email", func(t *testing.T) {
		svc := NewAuthService(newMockUserStore(), ratelimit.NewLoginRateLimiter(), testSecret)
		_, err := svc.EnsureAdmin(ctx, "Staff <staff@civic.org>", testPassword)
		assert.ErrorIs(t, err, ErrInvalidEmail)
	})
}

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantMsg  string
	}{
		{"strong", "P@ssw0rd123", ""},
		{"too short", "P@s1", "at least 8 characters"},
		{"missing upper", "p@ssw0rd123", "uppercase letter"},
		{"missing two", "password!", "uppercase letter and number"},
		{"missing three", "PASSWORDS", "lowercase letter, number, and special character"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePasswordStrength(tt.password)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrWeakPassword)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestAuthService_GenerateToken(t *testing.T) {
	svc, store, clock := newTestAuth(t)
	user := store.users[testEmail]

	token := svc.GenerateToken(user)

	parts := strings.Split(token, ":")
	require.Len(t, parts, 3)
	assert.Equal(t, strconv.FormatInt(clock.now.Unix(), 10), parts[0])
	assert.Equal(t, strconv.FormatInt(user.ID, 10), parts[1])

	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(parts[0] + ":" + parts[1]))
	assert.Equal(t, base64.URLEncoding.EncodeToString(mac.Sum(nil)), parts[2])
}

func TestAuthService_ValidateToken(t *testing.T) {
	ctx := context.Background()

	t.Run("valid token", func(t *testing.T) {
		svc, store, _ := newTestAuth(t)
		user, err := svc.ValidateToken(ctx, svc.GenerateToken(store.users[testEmail]))
		require.NoError(t, err)
		assert.Equal(t, testEmail, user.Email)
	})

	t.Run("malformed", func(t *testing.T) {
		svc, _, _ := newTestAuth(t)
		for _, token := range []string{"", "abc", "a:b", "a:b:c:d", "::"} {
			_, err := svc.ValidateToken(ctx, token)
			assert.ErrorIs(t, err, ErrInvalidToken, "token %q", token)
		}
	})

	t.Run("tampered user id", func(t *testing.T) {
		svc, store, _ := newTestAuth(t)
		parts := strings.Split(svc.GenerateToken(store.users[testEmail]), ":")
		_, err := svc.ValidateToken(ctx, parts[0]+":2:"+parts[2])
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("signed with another secret", func(t *testing.T) {
		svc, store, _ := newTestAuth(t)
		other := NewAuthService(store, ratelimit.NewLoginRateLimiter(), "another-secret-entirely-different")
		_, err := svc.ValidateToken(ctx, other.GenerateToken(store.users[testEmail]))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		svc, store, clock := newTestAuth(t)
		token := svc.GenerateToken(store.users[testEmail])
		clock.now = clock.now.Add(TokenLifetime + time.Second)
		_, err := svc.ValidateToken(ctx, token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("still valid just inside lifetime", func(t *testing.T) {
		svc, store, clock := newTestAuth(t)
		token := svc.GenerateToken(store.users[testEmail])
		clock.now = clock.now.Add(TokenLifetime - time.Minute)
		_, err := svc.ValidateToken(ctx, token)
		assert.NoError(t, err)
	})

	t.Run("deleted user", func(t *testing.T) {
		svc, store, _ := newTestAuth(t)
		token := svc.GenerateToken(store.users[testEmail])
		delete(store.users, testEmail)
		_, err := svc.ValidateToken(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestAuthService_ChangePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("changes password", func(t *testing.T) {
		svc, store, _ := newTestAuth(t)
		user := store.users[testEmail]
		require.NoError(t, svc.ChangePassword(ctx, user.ID, testPassword, "N3wP@ssw0rd!"))

		_, _, err := svc.Login(ctx, testEmail, "N3wP@ssw0rd!")
		assert.NoError(t, err)
	})

	t.Run("wrong old password", func(t *testing.T) {
		svc, store, _ := newTestAuth(t)
		err := svc.ChangePassword(ctx, store.users[testEmail].ID, "wrong", "N3wP@ssw0rd!")
		assert.ErrorIs(t, err, ErrWrongPassword)
	})

	t.Run("weak new password", func(t *testing.T) {
		svc, store, _ := newTestAuth(t)
		err := svc.ChangePassword(ctx, store.users[testEmail].ID, testPassword, "short")
		assert.ErrorIs(t, err, ErrWeakPassword)
	})
}
