package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"net/http"

	"github.com/civicyouth/portal/internal/infrastructure/logger"
)

const (
	csrfCookieName = "csrf_token"
	csrfHeaderName = "X-CSRF-Token"
	// CSRFFormField is the hidden input name forms must carry.
	CSRFFormField  = "csrf_token"
	csrfCookiePath = "/"
	csrfMaxAge     = 86400 // 24 hours
	tokenSize      = 32
)

type csrfContextKey struct{}

// CSRFProtection implements double-submit cookie protection. The cookie
// value is signed so a token planted by another site is rejected.
type CSRFProtection struct {
	secretKey  []byte
	trustProxy bool
}

func NewCSRFProtection(secretKey string, trustProxy bool) *CSRFProtection {
	return &CSRFProtection{
		secretKey:  []byte(secretKey),
		trustProxy: trustProxy,
	}
}

// Middleware ensures every request carries a token in its context and
// rejects unsafe methods whose submitted token does not match the cookie.
func (c *CSRFProtection) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ""
		if cookie, err := r.Cookie(csrfCookieName); err == nil && c.ValidateToken(cookie.Value) {
			token = cookie.Value
		}

		if isSafeMethod(r.Method) {
			if token == "" {
				token = c.GenerateToken()
				c.setCSRFCookie(w, r, token)
			}
			next.ServeHTTP(w, r.WithContext(withToken(r.Context(), token)))
			return
		}

		if token == "" || !c.matchesRequest(r, token) {
			logger.Warn.Printf("csrf check failed: %s %s", r.Method, logger.SanitizeForLog(r.URL.Path))
			http.Error(w, "Forbidden - Invalid CSRF token", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r.WithContext(withToken(r.Context(), token)))
	})
}

// GenerateToken returns base64(32 random bytes + HMAC-SHA256 of those bytes).
func (c *CSRFProtection) GenerateToken() string {
	randomBytes := make([]byte, tokenSize)
	// crypto/rand.Read never returns an error on supported platforms
	_, _ = rand.Read(randomBytes)

	mac := hmac.New(sha256.New, c.secretKey)
	mac.Write(randomBytes)
	signature := mac.Sum(nil)

	token := make([]byte, tokenSize+len(signature))
	copy(token[:tokenSize], randomBytes)
	copy(token[tokenSize:], signature)

	return base64.URLEncoding.EncodeToString(token)
}

func (c *CSRFProtection) ValidateToken(token string) bool {
	decoded, err := base64.URLEncoding.DecodeString(token)
	if err != nil || len(decoded) != 2*tokenSize {
		return false
	}

	mac := hmac.New(sha256.New, c.secretKey)
	mac.Write(decoded[:tokenSize])
	return hmac.Equal(decoded[tokenSize:], mac.Sum(nil))
}

// matchesRequest compares the header token, or the form field when the header
// is absent, with the cookie token.
func (c *CSRFProtection) matchesRequest(r *http.Request, cookieToken string) bool {
	requestToken := r.Header.Get(csrfHeaderName)
	if requestToken == "" {
		requestToken = r.FormValue(CSRFFormField)
	}
	if requestToken == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(requestToken), []byte(cookieToken)) == 1
}

func (c *CSRFProtection) setCSRFCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     csrfCookiePath,
		MaxAge:   csrfMaxAge,
		Secure:   IsTLS(r, c.trustProxy),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func withToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, csrfContextKey{}, token)
}

// CSRFToken returns the token the current request should embed in its forms.
func CSRFToken(ctx context.Context) string {
	token, _ := ctx.Value(csrfContextKey{}).(string)
	return token
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}
