package handlers

import (
	"net/http"

	"github.com/diewo77/scanpos/auth"
	"github.com/diewo77/scanpos/httpx"
	"github.com/diewo77/scanpos/internal/dto"
	"github.com/diewo77/scanpos/internal/services"
)

// ProfileCache drops cached authorization profiles.
type ProfileCache interface {
	Invalidate(userID uint)
}

type UserHandler struct {
	users *services.UserService
	cache ProfileCache
}

func NewUserHandler(users *services.UserService, cache ProfileCache) *UserHandler {
	return &UserHandler{users: users, cache: cache}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	page, size := httpx.Page(r)
	users, total, err := h.users.List(r.Context(), services.UserFilter{
		Search:   r.URL.Query().Get("search"),
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := dto.UserList{
		Users:    make([]dto.User, len(users)),
		Total:    total,
		Page:     page,
		PageSize: size,
		Pages:    httpx.Pages(total, size),
	}
	for i := range users {
		out.Users[i] = toUser(&users[i])
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		badRequest(w, err)
		return
	}
	u, err := h.users.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, dto.UserResponse{User: toUser(u)})
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.UserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	u, err := h.users.Create(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, dto.UserResponse{User: toUser(u)})
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		badRequest(w, err)
		return
	}
	var patch dto.UserPatch
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		badRequest(w, err)
		return
	}
	actor, _ := auth.UserIDFromContext(r.Context())
	u, err := h.users.Update(r.Context(), actor, id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.cache.Invalidate(id)
	httpx.JSON(w, http.StatusOK, dto.UserResponse{User: toUser(u)})
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		badRequest(w, err)
		return
	}
	actor, _ := auth.UserIDFromContext(r.Context())
	if err := h.users.Delete(r.Context(), actor, id); err != nil {
		writeError(w, r, err)
		return
	}
	h.cache.Invalidate(id)
	httpx.JSON(w, http.StatusOK, httpx.MessageResponse{Message: "User deleted"})
}
