package rest

import (
	"net/http"
	"time"

	"shophub-be/internal/user"
	"shophub-be/internal/utils"
)

const tokenCookieTTL = 24 * time.Hour

type AuthHandler struct {
	Users        user.Service
	SecureCookie bool
}

func NewAuthHandler(users user.Service, secureCookie bool) *AuthHandler {
	return &AuthHandler{Users: users, SecureCookie: secureCookie}
}

type authResponse struct {
	Success bool       `json:"success"`
	Token   string     `json:"token"`
	User    *user.User `json:"user"`
}

func (h *AuthHandler) setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(tokenCookieTTL),
	})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input user.RegisterInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	token, u, err := h.Users.Register(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.setTokenCookie(w, token)
	utils.WriteJSON(w, http.StatusCreated, authResponse{Success: true, Token: token, User: u})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, r, err)
		return
	}
	if utils.IsBlank(input.Email, input.Password) {
		writeError(w, r, user.ErrMissingFields)
		return
	}

	token, u, err := h.Users.Login(r.Context(), input.Email, input.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.setTokenCookie(w, token)
	utils.WriteJSON(w, http.StatusOK, authResponse{Success: true, Token: token, User: u})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.Users.GetByID(r.Context(), principal(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "user": u})
}
