package handlers

import (
	"net/http"
	"time"

	"github.com/diewo77/scanpos/auth"
	"github.com/diewo77/scanpos/httpx"
	"github.com/diewo77/scanpos/internal/dto"
	"github.com/diewo77/scanpos/internal/services"
	"github.com/diewo77/scanpos/validation"
)

// TokenIssuer signs login and scan tokens.
type TokenIssuer interface {
	Issue(userID uint, role string) (string, time.Time, error)
	IssueScan(userID uint, role string, invoiceID uint) (string, time.Time, error)
}

type AuthHandler struct {
	users  *services.UserService
	tokens TokenIssuer
}

func NewAuthHandler(users *services.UserService, tokens TokenIssuer) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	v := validation.Violations{}
	validation.Required("email", req.Email, v)
	validation.Required("password", req.Password, v)
	if !v.Empty() {
		httpx.JSONInvalid(w, "Email and password are required", v)
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	token, exp, err := h.tokens.Issue(user.ID, user.Role)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, dto.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   exp,
		User:        toUser(user),
	})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	user, err := h.users.Get(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, dto.UserResponse{User: toUser(user)})
}
