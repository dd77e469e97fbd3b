package adaptor

import (
	"net/http"

	"account-service/internal/dto/request"
	"account-service/internal/usecase"
	"account-service/pkg/utils"

	"go.uber.org/zap"
)

type UserHandler struct {
	service usecase.UserService
	log     *zap.Logger
}

func NewUserHandler(service usecase.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		log:     log,
	}
}

// Update handles PATCH /users. The body is {id, ...fields}; field checks
// happen in the service.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	token, ok := utils.GetTokenFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var body map[string]any
	if err := decodeJSON(w, r, &body); err != nil || body == nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	id, _ := body["id"].(string)
	delete(body, "id")

	resp, err := h.service.Update(r.Context(), token, id, body)
	if err != nil {
		handleServiceError(w, h.log, err, "update user")
		return
	}

	utils.ResponseSuccess(w, "User updated", resp.User, resp.Token)
}

// Delete handles DELETE /users
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req request.DeleteUserRequest

	if err := decodeJSON(w, r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := h.service.Delete(r.Context(), &req); err != nil {
		handleServiceError(w, h.log, err, "delete user")
		return
	}

	utils.ResponseSuccess(w, "User deleted", nil, "")
}

// List handles GET /users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListActive(r.Context())
	if err != nil {
		handleServiceError(w, h.log, err, "list users")
		return
	}

	utils.ResponseSuccess(w, "Users retrieved", users, "")
}

// SearchEmail handles GET /users/search/email?q=
func (h *UserHandler) SearchEmail(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.FindByEmail(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		handleServiceError(w, h.log, err, "search users by email")
		return
	}

	utils.ResponseSuccess(w, "Users retrieved", users, "")
}

// SearchName handles GET /users/search/name?q=
func (h *UserHandler) SearchName(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.FindByName(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		handleServiceError(w, h.log, err, "search users by name")
		return
	}

	utils.ResponseSuccess(w, "Users retrieved", users, "")
}
