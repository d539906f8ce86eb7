package controllers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"go-soilwater/middleware"
	"go-soilwater/repository"
	"go-soilwater/utils"
)

// AuthController 处理操作员认证相关的请求
type AuthController struct {
	Operators OperatorRepository
	Secret    string
	TokenTTL  time.Duration
}

// NewAuthController 创建一个新的AuthController实例
func NewAuthController(operators OperatorRepository, secret string, ttl time.Duration) *AuthController {
	return &AuthController{Operators: operators, Secret: secret, TokenTTL: ttl}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=6"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register 操作员注册
func (c *AuthController) Register(ctx *gin.Context) {
	var req RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(ctx, err.Error())
		return
	}

	// 加密密码
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.InternalServerError(ctx, "密码加密失败")
		return
	}

	op, err := c.Operators.Create(ctx.Request.Context(), req.Username, string(hashedPassword))
	if errors.Is(err, repository.ErrDuplicate) {
		utils.BadRequest(ctx, "用户名已存在")
		return
	}
	if err != nil {
		log.Printf("Failed to create operator %q: %v", req.Username, err)
		utils.InternalServerError(ctx, "注册失败")
		return
	}

	token, err := middleware.GenerateToken(c.Secret, op.ID, op.Role, c.TokenTTL)
	if err != nil {
		utils.InternalServerError(ctx, "生成令牌失败")
		return
	}

	ctx.JSON(http.StatusCreated, utils.Response{
		Code:    http.StatusCreated,
		Message: "注册成功",
		Data: gin.H{
			"token":    token,
			"username": op.Username,
			"userId":   op.ID,
		},
	})
}

// Login 操作员登录
func (c *AuthController) Login(ctx *gin.Context) {
	var req LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(ctx, err.Error())
		return
	}

	op, err := c.Operators.FindByUsername(ctx.Request.Context(), req.Username)
	if errors.Is(err, repository.ErrNotFound) {
		utils.BadRequest(ctx, "用户名或密码错误")
		return
	}
	if err != nil {
		log.Printf("Failed to find operator %q: %v", req.Username, err)
		utils.InternalServerError(ctx, "数据库查询失败")
		return
	}

	// 验证密码
	if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(req.Password)); err != nil {
		utils.BadRequest(ctx, "用户名或密码错误")
		return
	}

	token, err := middleware.GenerateToken(c.Secret, op.ID, op.Role, c.TokenTTL)
	if err != nil {
		utils.InternalServerError(ctx, "生成令牌失败")
		return
	}

	ctx.JSON(http.StatusOK, utils.Response{
		Code:    http.StatusOK,
		Message: "登录成功",
		Data: gin.H{
			"token":    token,
			"username": op.Username,
			"userId":   op.ID,
		},
	})
}
