package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jswork01-cmyk/trainning1/internal/service"
)

// AuthController 登录控制器
type AuthController struct {
	authService service.AuthService
}

// NewAuthController 创建登录控制器
func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{
		authService: authService,
	}
}

// Login 员工登录
// @Router /auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req service.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	result, err := c.authService.Login(ctx.Request.Context(), &req)
	if err != nil {
		HandleError(ctx, err, "login")
		return
	}

	Success(ctx, result)
}

// Me 当前登录员工
// @Router /auth/me [get]
func (c *AuthController) Me(ctx *gin.Context) {
	employee, err := c.authService.Me(ctx.Request.Context())
	if err != nil {
		HandleError(ctx, err, "get current employee")
		return
	}

	Success(ctx, employee)
}
