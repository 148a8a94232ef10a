package http

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/civicyouth/portal/internal/adapter/http/middleware"
	"github.com/civicyouth/portal/internal/adapter/http/templates"
	"github.com/civicyouth/portal/internal/domain"
	"github.com/civicyouth/portal/internal/infrastructure/logger"
	"github.com/civicyouth/portal/internal/service"
)

const (
	CookieName     = "auth_token"
	CookieMaxAge   = int(service.TokenLifetime / time.Second)
	CookiePath     = "/"
	CookieSameSite = http.SameSiteStrictMode
)

type AuthService interface {
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	ValidateToken(ctx context.Context, token string) (*domain.User, error)
	ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error
}

// LoginObserver is told the outcome of every submitted login form.
type LoginObserver interface {
	ObserveLogin(err error)
}

type userContextKey struct{}

// UserFromContext returns the user set by AuthMiddleware, or nil.
func UserFromContext(ctx context.Context) *domain.User {
	user, _ := ctx.Value(userContextKey{}).(*domain.User)
	return user
}

func AuthMiddleware(authSvc AuthService, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(CookieName)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		user, err := authSvc.ValidateToken(r.Context(), cookie.Value)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), userContextKey{}, user)))
	}
}

// LockoutMinutes is the whole number of minutes, rounded up and at least one,
// until resetTime.
func LockoutMinutes(resetTime, now time.Time) int {
	minutes := int(math.Ceil(resetTime.Sub(now).Minutes()))
	if minutes < 1 {
		return 1
	}
	return minutes
}

func lockoutMessage(minutes int) string {
	if minutes == 1 {
		return "Too many login attempts. Please try again in 1 minute."
	}
	return fmt.Sprintf("Too many login attempts. Please try again in %d minutes.", minutes)
}

type loginHandler struct {
	authSvc     AuthService
	observer    LoginObserver
	behindProxy bool
	now         func() time.Time
}

func LoginHandler(authSvc AuthService, observer LoginObserver, behindProxy bool) http.HandlerFunc {
	h := &loginHandler{
		authSvc:     authSvc,
		observer:    observer,
		behindProxy: behindProxy,
		now:         time.Now,
	}
	return h.ServeHTTP
}

func (h *loginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		renderLogin(w, r, http.StatusOK, templates.LoginData{})
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	email := r.FormValue("email")
	token, user, err := h.authSvc.Login(r.Context(), email, r.FormValue("password"))
	if h.observer != nil {
		h.observer.ObserveLogin(err)
	}

	var lockout *domain.LockoutError
	switch {
	case err == nil:
	case errors.As(err, &lockout):
		minutes := LockoutMinutes(lockout.ResetTime, h.now())
		logger.Warn.Printf("login locked for %s until %s", logger.MaskEmail(service.NormalizeEmail(email)), lockout.ResetTime.Format(time.RFC3339))
		w.Header().Set("Retry-After", strconv.Itoa(minutes*60))
		renderLogin(w, r, http.StatusTooManyRequests, templates.LoginData{Email: email, Error: lockoutMessage(minutes)})
		return
	case errors.Is(err, service.ErrInvalidCreds):
		renderLogin(w, r, http.StatusUnauthorized, templates.LoginData{Email: email, Error: "Invalid email or password."})
		return
	default:
		logger.Error.Printf("login error: %v", err)
		renderError(w, r, http.StatusInternalServerError, "Something went wrong. Please try again.")
		return
	}

	logger.Info.Printf("user %d signed in", user.ID)
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		MaxAge:   CookieMaxAge,
		Path:     CookiePath,
		Secure:   middleware.IsTLS(r, h.behindProxy),
		HttpOnly: true,
		SameSite: CookieSameSite,
	})

	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func renderLogin(w http.ResponseWriter, r *http.Request, status int, data templates.LoginData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = templates.Login(data).Render(r.Context(), w)
}

func LogoutHandler(behindProxy bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{
			Name:     CookieName,
			Value:    "",
			MaxAge:   -1,
			Path:     CookiePath,
			Secure:   middleware.IsTLS(r, behindProxy),
			HttpOnly: true,
			SameSite: CookieSameSite,
		})

		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}

func ChangePasswordHandler(authSvc AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := UserFromContext(r.Context())
		if user == nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		err := authSvc.ChangePassword(r.Context(), user.ID, r.FormValue("current_password"), r.FormValue("new_password"))
		switch {
		case err == nil:
			logger.Info.Printf("user %d changed password", user.ID)
			http.Redirect(w, r, "/admin?notice=password", http.StatusSeeOther)
		case errors.Is(err, service.ErrWrongPassword):
			http.Redirect(w, r, "/admin?error=wrong-password", http.StatusSeeOther)
		case errors.Is(err, service.ErrWeakPassword):
			http.Redirect(w, r, "/admin?error=weak-password", http.StatusSeeOther)
		default:
			logger.Error.Printf("change password for user %d: %v", user.ID, err)
			renderError(w, r, http.StatusInternalServerError, "Could not update the password.")
		}
	}
}
