package controllers

import (
	"net/http"
	"strconv"

	"github.com/NicolasR-dev/dinocars-web/middleware"
	"github.com/NicolasR-dev/dinocars-web/models"
	"github.com/NicolasR-dev/dinocars-web/services"
	"github.com/NicolasR-dev/dinocars-web/utils"

	"github.com/gin-gonic/gin"
)

// RoleCacheInvalidator lo implementa middleware.RBACManager
type RoleCacheInvalidator interface {
	InvalidateUserCache(userID uint)
}

// AdminController gestiona usuarios
type AdminController struct {
	users     *services.UserService
	roleCache RoleCacheInvalidator
}

func NewAdminController(users *services.UserService, roleCache RoleCacheInvalidator) *AdminController {
	return &AdminController{users: users, roleCache: roleCache}
}

// ================= GESTIÓN DE USUARIOS =================

func (c *AdminController) GetUsers(ctx *gin.Context) {
	skip, _ := strconv.Atoi(ctx.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "100"))
	if skip < 0 {
		skip = 0
	}

	users, err := c.users.List(ctx.Request.Context(), skip, limit)
	if err != nil {
		utils.HandleServiceError(ctx, err, "list_users")
		return
	}
	ctx.JSON(http.StatusOK, users)
}

func (c *AdminController) CreateUser(ctx *gin.Context) {
	var req models.UserCreateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.HandleValidationError(ctx, err)
		return
	}

	user, err := c.users.Create(ctx.Request.Context(), &req)
	if err != nil {
		utils.HandleServiceError(ctx, err, "create_user")
		return
	}
	middleware.AuditLog(ctx, "create", "user", user.ID, map[string]interface{}{
		"username": user.Username,
		"role":     user.Role,
	})
	ctx.JSON(http.StatusCreated, user)
}

func (c *AdminController) UpdateUser(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	var req models.UserUpdateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.HandleValidationError(ctx, err)
		return
	}

	user, err := c.users.Update(ctx.Request.Context(), id, &req)
	if err != nil {
		utils.HandleServiceError(ctx, err, "update_user")
		return
	}
	if req.Role != nil {
		c.roleCache.InvalidateUserCache(user.ID)
	}
	middleware.AuditLog(ctx, "update", "user", user.ID, map[string]interface{}{
		"role":             user.Role,
		"password_changed": req.Password != nil && *req.Password != "",
	})
	ctx.JSON(http.StatusOK, user)
}

func (c *AdminController) DeleteUser(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	if err := c.users.Delete(ctx.Request.Context(), id, ctx.GetUint(middleware.ContextUserID)); err != nil {
		utils.HandleServiceError(ctx, err, "delete_user")
		return
	}
	c.roleCache.InvalidateUserCache(id)
	middleware.AuditLog(ctx, "delete", "user", id, nil)
	utils.HandleSuccess(ctx, nil, "Usuario eliminado")
}
