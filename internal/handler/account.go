package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sakif/car-listings/internal/apperror"
	"github.com/sakif/car-listings/internal/auth"
	"github.com/sakif/car-listings/internal/service"
)

// AccountHandler serves signup, login and the session endpoints.
//
// ROUTES (mounted under /api):
//   - POST /signup        → HandleSignup
//   - POST /login         → HandleLogin
//   - POST /verify-token  → HandleVerifyToken (behind auth.RequireAuth)
//   - POST /logout        → HandleLogout      (behind auth.RequireAuth)
//   - GET  /me            → HandleMe          (behind auth.RequireAuth)
//   - GET  /docs          → HandleDocs
type AccountHandler struct {
	accounts     *service.AccountService
	secureCookie bool
	logger       *slog.Logger
}

// NewAccountHandler creates an AccountHandler. secureCookie marks the token
// cookie Secure, which should be true whenever the server sits behind HTTPS.
func NewAccountHandler(accounts *service.AccountService, secureCookie bool, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		accounts:     accounts,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

type signupRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"required"`
	// Length is checked in bytes by the service, matching bcrypt's limit.
	Password string `json:"password" validate:"required"`
}

// normalize trims the profile fields and the email before validation, so
// " ann@x.com" is accepted and "   " counts as missing.
func (req *signupRequest) normalize() {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = service.NormalizeEmail(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the token for clients that prefer the
// Authorization header over the cookie.
type LoginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

// VerifyResponse is returned by /verify-token.
type VerifyResponse struct {
	IsAuthenticated bool `json:"isAuthenticated"`
}

// HandleSignup creates an account.
//
// HTTP: POST /api/signup
// Body: {"name", "email", "phone", "password"}
// 201 {"message": "User registered successfully"}, 400 on a missing field or
// a taken email.
func (h *AccountHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	req.normalize()
	if err := validateStruct(req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	_, err := h.accounts.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, MessageResponse{Message: "User registered successfully"})
}

// HandleLogin checks the credentials and starts a session.
//
// HTTP: POST /api/login
// Body: {"email", "password"}
//
// The token is returned in the body AND set as an HttpOnly cookie. Browsers
// use the cookie; other clients send the body's token as a Bearer header.
func (h *AccountHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := validateStruct(req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	result, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    result.Token,
		Path:     "/",
		MaxAge:   int(auth.TokenLifetime / time.Second),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, LoginResponse{Message: "Login successful", Token: result.Token})
}

// HandleVerifyToken lets the frontend ask whether its session is still good.
// RequireAuth has already done the work by the time this runs.
//
// HTTP: POST /api/verify-token
func (h *AccountHandler) HandleVerifyToken(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VerifyResponse{IsAuthenticated: true})
}

// HandleLogout clears the token cookie.
//
// HTTP: POST /api/logout
//
// Tokens are not tracked server side, so a copy of the token held elsewhere
// stays valid until it expires.
func (h *AccountHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Logged out"})
}

// HandleMe returns the logged-in account's profile.
//
// HTTP: GET /api/me
// 404 if the account was removed after the token was issued.
func (h *AccountHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	accountID, ok := auth.AccountIDFromContext(r.Context())
	if !ok {
		writeError(w, r, h.logger, apperror.Unauthorized("not authenticated"))
		return
	}

	account, err := h.accounts.GetAccount(r.Context(), accountID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, account)
}

// apiDocs is served by HandleDocs.
const apiDocs = `Car Listings API

All routes are under /api. Routes marked [auth] need the session token,
either as "Authorization: Bearer <token>" or as the "token" cookie set by /login.

POST   /signup              {name, email, phone, password}      201
POST   /login               {email, password}                   200 {message, token}
POST   /verify-token        [auth]                              200 {isAuthenticated}
POST   /logout              [auth]                              200
GET    /me                  [auth]                              200 account
POST   /addCar              [auth] multipart: title, description, tags, image (1-10 files)
GET    /allCars             [auth]                              200 [car]
GET    /carDetails/{id}     [auth]                              200 car
PUT    /carDetails/{id}     [auth] {title?, description?, tags?} 200 car
DELETE /carDetails/{id}     [auth]                              200 {message}
`

// HandleDocs returns a plain-text route summary.
//
// HTTP: GET /api/docs
func (h *AccountHandler) HandleDocs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(apiDocs))
}
