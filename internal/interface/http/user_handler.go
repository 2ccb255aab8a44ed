package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/oksasatya/user-accounts-api/internal/application"
	"github.com/oksasatya/user-accounts-api/internal/domain/entity"
	"github.com/oksasatya/user-accounts-api/internal/domain/valueobject"
	"github.com/oksasatya/user-accounts-api/pkg/response"
	"github.com/oksasatya/user-accounts-api/pkg/validation"
)

type UserHandler struct {
	Svc    *userapp.Service
	Logger *logrus.Logger
}

func NewUserHandler(svc *userapp.Service, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

type createUserRequest struct {
	Name   string `json:"name" binding:"required,min=1,max=255"`
	Email  string `json:"email" binding:"required,email"`
	Active *bool  `json:"active"`
}

type updateUserRequest struct {
	Name   *string `json:"name" binding:"omitempty,min=1,max=255"`
	Email  *string `json:"email" binding:"omitempty,email"`
	Active *bool   `json:"active"`
}

type listUsersQuery struct {
	Skip  int `form:"skip,default=0" binding:"gte=0"`
	Limit int `form:"limit,default=100" binding:"gte=1"`
}

func (h *UserHandler) Create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	res, err := h.Svc.CreateUser(c.Request.Context(), userapp.CreateUserInput{
		Name:   req.Name,
		Email:  req.Email,
		Active: active,
	})
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, res, "user created", nil)
}

func (h *UserHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	res, err := h.Svc.GetUser(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err)
		return
	}
	if res == nil {
		response.Error[any](c, http.StatusNotFound, "user not found", nil)
		return
	}
	response.Success(c, http.StatusOK, res, "user", nil)
}

func (h *UserHandler) List(c *gin.Context) {
	var q listUsersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid query", validation.ToDetails(err))
		return
	}
	res, err := h.Svc.ListUsers(c.Request.Context(), q.Skip, q.Limit)
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res, "users", map[string]any{"skip": q.Skip, "limit": q.Limit, "count": len(res)})
}

func (h *UserHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	res, err := h.Svc.UpdateUser(c.Request.Context(), id, userapp.UpdateUserInput{
		Name:   req.Name,
		Email:  req.Email,
		Active: req.Active,
	})
	if err != nil {
		h.renderError(c, err)
		return
	}
	if res == nil {
		response.Error[any](c, http.StatusNotFound, "user not found", nil)
		return
	}
	response.Success(c, http.StatusOK, res, "user updated", nil)
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	deleted, err := h.Svc.DeleteUser(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err)
		return
	}
	if !deleted {
		response.Error[any](c, http.StatusNotFound, "user not found", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true}, "user deleted", nil)
}

func (h *UserHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.Error[any](c, http.StatusBadRequest, "missing query parameter q", nil)
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	res, err := h.Svc.SearchUsers(c.Request.Context(), q, size)
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res, "search results", map[string]any{"count": len(res)})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error[any](c, http.StatusBadRequest, "invalid user id", nil)
		return 0, false
	}
	return id, true
}

// renderError maps domain failures to status codes. Storage errors are logged
// and reported as a generic 500 so internal detail never reaches clients.
func (h *UserHandler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, userapp.ErrEmailAlreadyExists):
		response.Error[any](c, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, valueobject.ErrInvalidEmail),
		errors.Is(err, entity.ErrInvalidName),
		errors.Is(err, entity.ErrAlreadyActive),
		errors.Is(err, entity.ErrAlreadyInactive):
		response.Error[any](c, http.StatusBadRequest, err.Error(), nil)
	default:
		if h.Logger != nil {
			h.Logger.WithError(err).Error("user request failed")
		}
		response.Error[any](c, http.StatusInternalServerError, "internal server error", nil)
	}
}
