package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/go-storefront-api/internal/dto"
	"github.com/flicky/go-storefront-api/internal/service"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.userService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		resp = append(resp, service.ToUserResponse(&users[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *UserHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id", "user")
	if !ok {
		return
	}
	user, err := h.userService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, service.ToUserResponse(user))
}

func (h *UserHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id", "user")
	if !ok {
		return
	}
	var req dto.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.SetAdmin(c.Request.Context(), id, *req.IsAdmin)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, service.ToUserResponse(user))
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id", "user")
	if !ok {
		return
	}
	if err := h.userService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user removed"})
}
