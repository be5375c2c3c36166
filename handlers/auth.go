package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/akinalp/socialspace/models"
	"github.com/akinalp/socialspace/pkg"
	"github.com/akinalp/socialspace/pkg/ratelimit"
	"github.com/akinalp/socialspace/services"
	"github.com/akinalp/socialspace/ws"
)

// CookieOptions controls the session cookie written at login.
type CookieOptions struct {
	Secure bool
	MaxAge time.Duration
}

// AuthHandler serves sign-up, sign-in and sign-out.
type AuthHandler struct {
	authService  services.AuthService
	loginLimiter *ratelimit.LoginRateLimiter
	cookie       CookieOptions
}

// NewAuthHandler builds an AuthHandler. A nil loginLimiter disables rate
// limiting.
func NewAuthHandler(authService services.AuthService, loginLimiter *ratelimit.LoginRateLimiter, cookie CookieOptions) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		loginLimiter: loginLimiter,
		cookie:       cookie,
	}
}

// Register godoc
// POST /api/v1/user/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, "Account created successfully.", user)
}

// Login godoc
// POST /api/v1/user/login
//
// Attempts are limited per client IP. A successful login resets the counter.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ip := ratelimit.ExtractIP(r)
	if h.loginLimiter != nil && !h.loginLimiter.Allow(ip) {
		retryAfter := h.loginLimiter.RetryAfterSeconds(ip)
		w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
		pkg.ErrorWithMessage(w, http.StatusTooManyRequests,
			fmt.Sprintf("too many login attempts, please try again in %s",
				ratelimit.FormatRetryMessage(retryAfter)))
		return
	}

	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	if h.loginLimiter != nil {
		h.loginLimiter.Reset(ip)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     ws.TokenCookieName,
		Value:    result.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(h.cookie.MaxAge / time.Second),
	})

	pkg.JSON(w, http.StatusOK, fmt.Sprintf("Welcome back %s", result.User.Username), result)
}

// Logout godoc
// POST /api/v1/user/logout
//
// Tokens are stateless; logging out only drops the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     ws.TokenCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})

	pkg.JSON(w, http.StatusOK, "Logged out successfully.", nil)
}
