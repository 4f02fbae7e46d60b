package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jswork01-cmyk/trainning1/internal/auth"
	"github.com/jswork01-cmyk/trainning1/internal/domain"
	"github.com/jswork01-cmyk/trainning1/internal/repository"
	"github.com/jswork01-cmyk/trainning1/internal/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AuthService 登录服务接口
type AuthService interface {
	Login(ctx context.Context, req *LoginRequest) (*LoginResult, error)
	Me(ctx context.Context) (*domain.Employee, error)
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required" validate:"required,email"`
	Password string `json:"password" binding:"required" validate:"required"`
}

// LoginResult 登录结果
type LoginResult struct {
	Token     string              `json:"token"`
	ExpiresAt time.Time           `json:"expiresAt"`
	Role      domain.ApprovalRole `json:"role"`
	Employee  domain.Employee     `json:"employee"`
}

type authService struct {
	employees repository.EmployeeRepository
	tokens    *auth.TokenManager
	audit     AuditLogService
	logger    logrus.FieldLogger
}

// NewAuthService 创建登录服务
func NewAuthService(employees repository.EmployeeRepository, tokens *auth.TokenManager, audit AuditLogService, logger logrus.FieldLogger) AuthService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &authService{
		employees: employees,
		tokens:    tokens,
		audit:     audit,
		logger:    logger.WithField("service", "auth"),
	}
}

// Login 邮箱与密码登录，失败时不区分原因
func (s *authService) Login(ctx context.Context, req *LoginRequest) (*LoginResult, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, ErrInvalidCredentials
	}

	employees, err := loadEmployees(s.employees)
	if err != nil {
		return nil, err
	}
	emp, ok := domain.FindEmployeeByEmail(employees, req.Email)
	if !ok || !auth.VerifyPassword(strings.TrimSpace(emp.Password), req.Password) {
		s.logger.WithField("email", req.Email).Info("login failed")
		return nil, ErrInvalidCredentials
	}

	token, claims, err := s.tokens.Issue(emp)
	if err != nil {
		return nil, err
	}

	ctx = auth.WithActor(ctx, claims.Actor())
	recordAudit(ctx, s.audit, "login", ResourceEmployee, emp.ID, map[string]string{"role": string(claims.Role)})
	return &LoginResult{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		Role:      claims.Role,
		Employee:  emp.Public(),
	}, nil
}

// Me 返回当前登录员工，名册中已不存在时按令牌内容返回
func (s *authService) Me(ctx context.Context) (*domain.Employee, error) {
	actor, ok := auth.ActorFromContext(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}

	m, err := s.employees.FindByID(actor.EmployeeID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &domain.Employee{ID: actor.EmployeeID, Name: actor.Name}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load employee: %w", err)
	}
	emp := m.ToDomain().Public()
	return &emp, nil
}
