package usecase_test

import (
	"context"
	"testing"
	"time"

	"storefront/internal/authevents"
	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/mailer"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"
	"storefront/internal/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type authFixture struct {
	uc       *usecase.AuthUsecase
	users    *UserRepoMock
	profiles *ProfileRepoMock
	rtRepo   *RefreshTokenRepoMock
	resets   *PasswordResetRepoMock
	events   *authevents.Broker
	now      time.Time
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		users:    new(UserRepoMock),
		profiles: new(ProfileRepoMock),
		rtRepo:   new(RefreshTokenRepoMock),
		resets:   new(PasswordResetRepoMock),
		events:   authevents.NewBroker(),
		now:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	cfg := config.Config{JWTSecret: "test-secret", FEURL: "http://localhost:3000"}
	authValidator := validator.NewAuthValidator(f.users)
	mail := mailer.NewMailer(senderStub{}, new(OrderRepoMock), new(OrderItemRepoMock), new(VariantRepoMock), new(ProductRepoMock), zap.NewNop())

	f.uc = usecase.NewAuthUsecase(
		cfg, f.users, f.profiles, f.rtRepo, f.resets,
		authValidator, mail, f.events,
		&seqIDGen{}, &fixedClock{t: f.now}, zap.NewNop(),
	)
	return f
}

func hashOf(t *testing.T, plain string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	assert.NoError(t, err)
	return string(h)
}

// 短すぎるパスワードはDBに触る前に弾く
func TestAuthUsecase_Register_PasswordTooShort(t *testing.T) {
	f := newAuthFixture()

	_, err := f.uc.Register(context.Background(), usecase.AuthRegisterRequest{
		Email:    "taro@example.com",
		Password: "12345",
	})
	assert.ErrorIs(t, err, usecase.ErrValidation)

	f.users.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
	f.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthUsecase_Register_InvalidEmail(t *testing.T) {
	f := newAuthFixture()

	_, err := f.uc.Register(context.Background(), usecase.AuthRegisterRequest{
		Email:    "not-an-email",
		Password: "secret123",
	})
	assert.ErrorIs(t, err, usecase.ErrValidation)
}

func TestAuthUsecase_Register_DuplicateEmail(t *testing.T) {
	f := newAuthFixture()
	f.users.On("FindByEmail", mock.Anything, "taro@example.com").Return(&model.User{ID: "u1"}, nil)

	_, err := f.uc.Register(context.Background(), usecase.AuthRegisterRequest{
		Email:    "taro@example.com",
		Password: "secret123",
	})
	assert.ErrorIs(t, err, usecase.ErrConflict)
}

func TestAuthUsecase_Register_Success(t *testing.T) {
	f := newAuthFixture()
	f.users.On("FindByEmail", mock.Anything, "taro@example.com").Return(nil, repo.ErrUserNotFound)
	f.users.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.Email == "taro@example.com" && u.Role == model.RoleCustomer && u.PasswordHash != "secret123"
	})).Return(nil)
	f.profiles.On("Create", mock.Anything, mock.Anything).Return(nil)

	out, err := f.uc.Register(context.Background(), usecase.AuthRegisterRequest{
		Email:     "taro@example.com",
		Password:  "secret123",
		FirstName: "Taro",
	})
	assert.NoError(t, err)
	assert.Equal(t, "taro@example.com", out.User.Email)
	assert.Equal(t, string(model.RoleCustomer), out.User.Role)
}

func TestAuthUsecase_Login_WrongPassword(t *testing.T) {
	f := newAuthFixture()
	f.users.On("FindByEmail", mock.Anything, "taro@example.com").Return(&model.User{
		ID:           "u1",
		Email:        "taro@example.com",
		PasswordHash: hashOf(t, "correct-password"),
		IsActive:     true,
	}, nil)

	_, err := f.uc.Login(context.Background(), usecase.AuthLoginRequest{
		Email:    "taro@example.com",
		Password: "wrong-password",
	}, "ua")
	assert.ErrorIs(t, err, usecase.ErrUnauthorized)
}

func TestAuthUsecase_Login_InactiveUser(t *testing.T) {
	f := newAuthFixture()
	f.users.On("FindByEmail", mock.Anything, "taro@example.com").Return(&model.User{
		ID:           "u1",
		PasswordHash: hashOf(t, "secret123"),
		IsActive:     false,
	}, nil)

	_, err := f.uc.Login(context.Background(), usecase.AuthLoginRequest{
		Email:    "taro@example.com",
		Password: "secret123",
	}, "ua")
	assert.ErrorIs(t, err, usecase.ErrForbidden)
}

// ログイン成功でrefreshが発行され、SIGNED_INイベントが飛ぶ
func TestAuthUsecase_Login_Success(t *testing.T) {
	f := newAuthFixture()
	f.users.On("FindByEmail", mock.Anything, "taro@example.com").Return(&model.User{
		ID:           "u1",
		Email:        "taro@example.com",
		PasswordHash: hashOf(t, "secret123"),
		Role:         model.RoleCustomer,
		IsActive:     true,
	}, nil)
	f.users.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.rtRepo.On("Create", mock.Anything, mock.MatchedBy(func(rt *model.RefreshToken) bool {
		return rt.UserID == "u1" && rt.TokenHash != "" && rt.UserAgent == "ua"
	})).Return(nil)

	var got []authevents.Event
	f.events.Subscribe(func(e authevents.Event) { got = append(got, e) })

	res, err := f.uc.Login(context.Background(), usecase.AuthLoginRequest{
		Email:    "taro@example.com",
		Password: "secret123",
	}, "ua")
	assert.NoError(t, err)
	assert.NotEmpty(t, res.Body.Token.AccessToken)
	assert.NotEmpty(t, res.RefreshTokenPlain)
	assert.NotEmpty(t, res.CsrfTokenPlain)

	if assert.Len(t, got, 1) {
		assert.Equal(t, authevents.EventSignedIn, got[0].Type)
		assert.Equal(t, "u1", got[0].UserID)
	}
}

// used済みrefreshの再利用は全セッション失効
func TestAuthUsecase_Refresh_ReplayDetected(t *testing.T) {
	f := newAuthFixture()

	used := f.now.Add(-time.Minute)
	f.rtRepo.On("FindByTokenHash", mock.Anything, mock.Anything).Return(&model.RefreshToken{
		ID:        "rt1",
		UserID:    "u1",
		ExpiresAt: f.now.Add(time.Hour),
		UsedAt:    &used,
	}, nil)
	f.rtRepo.On("RevokeAllByUserID", mock.Anything, "u1", f.now).Return(nil)

	_, err := f.uc.Refresh(context.Background(), "some-plain-token", "ua")
	assert.ErrorIs(t, err, usecase.ErrSecurityIncident)
	f.rtRepo.AssertCalled(t, "RevokeAllByUserID", mock.Anything, "u1", f.now)
}

// 未登録のemailでも成功で返す（登録済みかを漏らさない）
func TestAuthUsecase_RequestPasswordReset_UnknownEmail(t *testing.T) {
	f := newAuthFixture()
	f.users.On("FindByEmail", mock.Anything, "ghost@example.com").Return(nil, repo.ErrUserNotFound)

	out, err := f.uc.RequestPasswordReset(context.Background(), usecase.ResetPasswordRequest{Email: "ghost@example.com"})
	assert.NoError(t, err)
	assert.NotNil(t, out)

	f.resets.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthUsecase_UpdatePassword_ExpiredToken(t *testing.T) {
	f := newAuthFixture()
	f.resets.On("FindByTokenHash", mock.Anything, mock.Anything).Return(&model.PasswordResetToken{
		ID:        "pr1",
		UserID:    "u1",
		ExpiresAt: f.now.Add(-time.Minute),
	}, nil)

	_, err := f.uc.UpdatePassword(context.Background(), usecase.UpdatePasswordRequest{
		Token:       "expired-token",
		NewPassword: "newsecret",
	})
	assert.ErrorIs(t, err, usecase.ErrUnauthorized)
}

func TestAuthUsecase_Logout_RevokesAllSessions(t *testing.T) {
	f := newAuthFixture()
	f.rtRepo.On("RevokeAllByUserID", mock.Anything, "u1", f.now).Return(nil)
	f.users.On("IncrementTokenVersion", mock.Anything, "u1").Return(nil)
	f.users.On("FindByID", mock.Anything, "u1").Return(&model.User{ID: "u1", Email: "taro@example.com"}, nil)

	var got []authevents.Event
	f.events.Subscribe(func(e authevents.Event) { got = append(got, e) })

	out, err := f.uc.Logout(context.Background(), "u1", "plain")
	assert.NoError(t, err)
	assert.NotNil(t, out)

	if assert.Len(t, got, 1) {
		assert.Equal(t, authevents.EventSignedOut, got[0].Type)
	}
}
