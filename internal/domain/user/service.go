package user

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/xiebiao/library/pkg/errors"
)

// Service 用户领域服务
// 封装密码加密与校验等不属于单个实体的规则
type Service interface {
	// Register 注册用户（不负责创建借阅档案，由应用层在同一事务中完成）
	Register(ctx context.Context, username, email, password string) (*User, error)

	// Authenticate 使用用户名或邮箱登录
	Authenticate(ctx context.Context, login, password string) (*User, error)

	// ValidatePassword 验证密码
	ValidatePassword(hashedPassword, plainPassword string) error
}

type service struct {
	repo Repository
	cost int
}

// Option 领域服务选项
type Option func(*service)

// WithBcryptCost 设置bcrypt cost（测试中使用bcrypt.MinCost加速）
func WithBcryptCost(cost int) Option {
	return func(s *service) { s.cost = cost }
}

// NewService 创建用户服务
func NewService(repo Repository, opts ...Option) Service {
	s := &service{repo: repo, cost: 12}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ErrInactive 账号已停用
var ErrInactive = apperrors.New(apperrors.ErrCodeForbidden, "账号已停用")

var (
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.@+-]{3,50}$`)
	hasLetter       = regexp.MustCompile(`[a-zA-Z]`)
	hasDigit        = regexp.MustCompile(`[0-9]`)
)

// Register 用户注册
// 1. 用户名、邮箱格式校验
// 2. 密码强度校验（8-20位，包含字母和数字）
// 3. 密码bcrypt加密
// 4. 唯一性由数据库UNIQUE索引保证
func (s *service) Register(ctx context.Context, username, email, password string) (*User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if !usernamePattern.MatchString(username) {
		return nil, apperrors.New(apperrors.ErrCodeInvalidParams, "用户名应为3-50位字母、数字或_.@+-")
	}
	if !emailPattern.MatchString(email) {
		return nil, apperrors.New(apperrors.ErrCodeInvalidParams, "邮箱格式不正确")
	}
	if err := validatePasswordStrength(password); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, apperrors.Wrap(err, "密码加密失败")
	}

	u := NewUser(username, email, string(hashed))
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate 登录校验
// 包含@时按邮箱查找，否则按用户名查找；用户不存在与密码错误返回同一个错误
func (s *service) Authenticate(ctx context.Context, login, password string) (*User, error) {
	login = strings.TrimSpace(login)

	var (
		u   *User
		err error
	)
	if strings.Contains(login, "@") {
		u, err = s.repo.FindByEmail(ctx, strings.ToLower(login))
	} else {
		u, err = s.repo.FindByUsername(ctx, login)
	}
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidPassword
		}
		return nil, err
	}

	if !u.IsActive {
		return nil, ErrInactive
	}

	if err := s.ValidatePassword(u.Password, password); err != nil {
		return nil, err
	}
	return u, nil
}

// ValidatePassword 验证明文密码与哈希值是否匹配
func (s *service) ValidatePassword(hashedPassword, plainPassword string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(plainPassword))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return apperrors.ErrInvalidPassword
		}
		return apperrors.Wrap(err, "密码验证失败")
	}
	return nil
}

func validatePasswordStrength(password string) error {
	if len(password) < 8 || len(password) > 20 {
		return apperrors.ErrWeakPassword
	}
	if !hasLetter.MatchString(password) || !hasDigit.MatchString(password) {
		return apperrors.ErrWeakPassword
	}
	return nil
}
