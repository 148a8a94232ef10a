package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/civicyouth/portal/internal/domain"
	"github.com/civicyouth/portal/internal/infrastructure/logger"
	"github.com/civicyouth/portal/internal/port"
)

const TokenLifetime = 7 * 24 * time.Hour

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpiredToken  = errors.New("expired token")
	ErrInvalidCreds  = errors.New("invalid credentials")
	ErrWrongPassword = errors.New("wrong password")
	ErrWeakPassword  = errors.New("password does not meet requirements")
	ErrInvalidEmail  = errors.New("invalid email")
)

// NormalizeEmail is applied to every login identifier before it reaches the
// limiter or the store, so "Ana@Civic.org " and "ana@civic.org" share a counter.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if len(email) > 254 {
		return fmt.Errorf("must be at most 254 characters")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("must be a plain address like name@example.org")
	}
	return nil
}

func validatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("%w: must be at least 8 characters", ErrWeakPassword)
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}

	var missing []string
	if !hasUpper {
		missing = append(missing, "uppercase letter")
	}
	if !hasLower {
		missing = append(missing, "lowercase letter")
	}
	if !hasNumber {
		missing = append(missing, "number")
	}
	if !hasSpecial {
		missing = append(missing, "special character")
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: must contain at least one %s", ErrWeakPassword, joinRequirements(missing))
	}
	return nil
}

// joinRequirements renders a human list: "a", "a and b", "a, b, and c".
func joinRequirements(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	}
	return strings.Join(items[:len(items)-1], ", ") + ", and " + items[len(items)-1]
}

type AuthService struct {
	store     port.UserStore
	limiter   port.LoginLimiter
	secretKey string
	now       func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

func NewAuthService(store port.UserStore, limiter port.LoginLimiter, secretKey string) *AuthService {
	return &AuthService{
		store:     store,
		limiter:   limiter,
		secretKey: secretKey,
		now:       time.Now,
	}
}

// Login checks the limiter before verifying credentials and clears it after a
// successful verification. A refused attempt returns *domain.LockoutError.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	identifier := NormalizeEmail(email)

	result := s.limiter.Check(identifier)
	if !result.Allowed {
		return "", nil, &domain.LockoutError{ResetTime: result.ResetTime}
	}

	user, err := s.store.GetUserByEmail(ctx, identifier)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// compare anyway so unknown emails cost the same as wrong passwords
			_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
			return "", nil, ErrInvalidCreds
		}
		return "", nil, fmt.Errorf("load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		logger.Debug.Printf("login failed for %s, %d attempts left", logger.MaskEmail(identifier), result.RemainingAttempts)
		return "", nil, ErrInvalidCreds
	}

	s.limiter.Reset(identifier)

	return s.GenerateToken(user), user, nil
}

func (s *AuthService) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("portal-dummy-password"), bcrypt.DefaultCost)
	})
	return s.dummyHash
}

// EnsureAdmin creates the first account when the user table is empty. It
// reports whether an account was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	hasUser, err := s.store.HasUser(ctx)
	if err != nil {
		return false, err
	}
	if hasUser {
		return false, nil
	}

	if err := s.CreateUser(ctx, email, password); err != nil {
		return false, err
	}
	return true, nil
}

func (s *AuthService) CreateUser(ctx context.Context, email, password string) error {
	email = NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEmail, err)
	}
	if err := validatePasswordStrength(password); err != nil {
		return err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return s.store.CreateUser(ctx, email, string(passwordHash))
}

func (s *AuthService) GenerateToken(user *domain.User) string {
	timestamp := strconv.FormatInt(s.now().Unix(), 10)
	userID := strconv.FormatInt(user.ID, 10)
	return timestamp + ":" + userID + ":" + s.sign(timestamp, userID)
}

func (s *AuthService) sign(timestamp, userID string) string {
	mac := hmac.New(sha256.New, []byte(s.secretKey))
	mac.Write([]byte(timestamp + ":" + userID))
	return base64.URLEncoding.EncodeToString(mac.Sum(nil))
}

func (s *AuthService) ValidateToken(ctx context.Context, token string) (*domain.User, error) {
	parts := strings.Split(token, ":")
	if len(parts) != 3 {
		return nil, ErrInvalidToken
	}
	timestamp, userIDStr, signature := parts[0], parts[1], parts[2]

	if !hmac.Equal([]byte(signature), []byte(s.sign(timestamp, userIDStr))) {
		return nil, ErrInvalidToken
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if s.now().After(time.Unix(ts, 0).Add(TokenLifetime)) {
		return nil, ErrExpiredToken
	}

	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return user, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return ErrWrongPassword
	}

	if err := validatePasswordStrength(newPassword); err != nil {
		return err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return s.store.UpdatePassword(ctx, user.ID, string(passwordHash))
}
