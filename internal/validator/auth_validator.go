package validator

import (
	"context"
	"regexp"
	"strings"

	"storefront/internal/repository"
	"storefront/internal/usecase"
)

type authValidator struct {
	users repository.UserRepository
}

// Usecaseは interface を依存注入
func NewAuthValidator(users repository.UserRepository) usecase.AuthValidator {
	return &authValidator{users: users}
}

// サインアップの入力を検証。
// DBを触る重複チェックは形式チェックが全部通ってから。
func (v *authValidator) ValidateRegister(ctx context.Context, email string, password string) error {
	email = strings.TrimSpace(email)

	//必須チェック
	if email == "" || password == "" {
		return usecase.ErrValidation
	}

	//email形式
	if !isEmailLike(email) {
		return usecase.ErrValidation
	}

	//パスワード最低文字数
	if len(password) < 6 {
		return usecase.ErrValidation
	}

	//email重複チェック（DBが必要）
	u, err := v.users.FindByEmail(ctx, email)
	if err == nil && u != nil {
		return usecase.ErrConflict
	}

	return nil
}

// ログインの入力を検証
func (v *authValidator) ValidateLogin(ctx context.Context, email string, password string) error {
	email = strings.TrimSpace(email)

	if email == "" || password == "" {
		return usecase.ErrValidation
	}

	if !isEmailLike(email) {
		return usecase.ErrValidation
	}

	return nil
}

// refresh 入力を検証
func (v *authValidator) ValidateRefresh(ctx context.Context, refreshToken string, userAgent string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return usecase.ErrUnauthorized
	}

	return nil
}

// パスワード更新の入力を検証
func (v *authValidator) ValidateUpdatePassword(ctx context.Context, token string, newPassword string) error {
	if strings.TrimSpace(token) == "" {
		return usecase.ErrUnauthorized
	}
	if len(newPassword) < 6 {
		return usecase.ErrValidation
	}
	return nil
}

// 簡易メール形式をチェック
func isEmailLike(s string) bool {
	re := regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	return re.MatchString(s)
}
