package handlers

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"urbangen/internal/domain"
	"urbangen/internal/middleware"
)

const tokenTTL = 7 * 24 * time.Hour

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string  `json:"token"`
	User  userDTO `json:"user"`
}

type userDTO struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Avatar  string `json:"avatar,omitempty"`
	Role    string `json:"role"`
	Credits int    `json:"credits"`
	Country string `json:"country,omitempty"`
}

func toUserDTO(u *domain.User) userDTO {
	return userDTO{
		ID:      u.ID,
		Name:    u.Name,
		Email:   u.Email,
		Avatar:  u.Avatar,
		Role:    string(u.Role),
		Credits: u.Credits,
		Country: u.Country,
	}
}

// Register creates an account with the signup bonus already applied.
func (a *App) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || len(req.Password) < 6 {
		a.error(w, http.StatusBadRequest, "bad_request", "name, email and a password of at least 6 characters are required")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to hash password")
		return
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         domain.UserRoleUser,
		Credits:      domain.SignupBonusCredits,
		Country:      a.lookupCountry(r),
	}
	if err := a.Users.Create(r.Context(), user); err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicateEmail):
			a.error(w, http.StatusConflict, "conflict", "email already registered")
		case errors.Is(err, domain.ErrDuplicateName):
			a.error(w, http.StatusConflict, "conflict", "name already taken")
		default:
			a.Logger.Error().Err(err).Msg("create user failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to create user")
		}
		return
	}

	a.respondWithToken(w, user)
}

// Login authenticates by email and password.
func (a *App) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := a.Users.GetByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusUnauthorized, "unauthorized", "invalid email or password")
			return
		}
		a.Logger.Error().Err(err).Msg("load user failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load user")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		a.error(w, http.StatusUnauthorized, "unauthorized", "invalid email or password")
		return
	}

	a.respondWithToken(w, user)
}

// Me returns the authenticated user's profile and live balance.
func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	user, err := a.Users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "user not found")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to load user")
		return
	}
	a.json(w, http.StatusOK, toUserDTO(user))
}

// Credits returns only the balance; the client polls this after settlement.
func (a *App) Credits(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	user, err := a.Users.GetByID(r.Context(), userID)
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "user not found")
		return
	}
	a.json(w, http.StatusOK, map[string]int{"credits": user.Credits})
}

type updateCreditsRequest struct {
	Credits int `json:"credits"`
}

// UpdateCredits overwrites a user's balance. Admin only.
func (a *App) UpdateCredits(w http.ResponseWriter, r *http.Request) {
	var req updateCreditsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.Credits < 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "credits must not be negative")
		return
	}
	userID := chi.URLParam(r, "id")
	if userID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "user id required")
		return
	}
	if err := a.Users.SetCredits(r.Context(), userID, req.Credits); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "user not found")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to update credits")
		return
	}
	a.json(w, http.StatusOK, map[string]int{"credits": req.Credits})
}

func (a *App) respondWithToken(w http.ResponseWriter, user *domain.User) {
	token, err := middleware.SignJWT(a.Cfg.JWTSecret, middleware.TokenClaims{
		Sub:    user.ID,
		Role:   string(user.Role),
		Exp:    time.Now().Add(tokenTTL).Unix(),
		Issuer: "urbangen",
	})
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to sign token")
		return
	}
	a.json(w, http.StatusOK, authResponse{Token: token, User: toUserDTO(user)})
}

func (a *App) lookupCountry(r *http.Request) string {
	if a.GeoIP == nil {
		return ""
	}
	ip := clientIP(r)
	if ip == "" {
		return ""
	}
	code, err := a.GeoIP.CountryCode(ip)
	if err != nil {
		return ""
	}
	return code
}

func clientIP(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		parts := strings.Split(xf, ",")
		if ip := strings.TrimSpace(parts[0]); net.ParseIP(ip) != nil {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}
