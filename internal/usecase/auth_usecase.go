package usecase

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"time"

	"storefront/internal/authevents"
	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/mailer"
	"storefront/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// 401 refresh tokenの再利用を検知
var ErrSecurityIncident = errors.New("security incident")

// accesstokenの有効期限
const accessTokenTTL = 15 * time.Minute

// refreshtokenの有効期限
const refreshTokenTTL = 30 * 24 * time.Hour

// パスワード再設定リンクの有効期限
const resetTokenTTL = 1 * time.Hour

// usecaseがValidatorInterfaceに依存する約束
type AuthValidator interface {
	ValidateRegister(ctx context.Context, email string, password string) error
	ValidateLogin(ctx context.Context, email string, password string) error
	ValidateRefresh(ctx context.Context, refreshToken string, userAgent string) error
	ValidateUpdatePassword(ctx context.Context, token string, newPassword string) error
}

type UserDTO struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	TokenVersion int    `json:"token_version"`
	IsActive     bool   `json:"is_active"`
}

type JwtAccessTokenDTO struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenVersion int    `json:"token_version"`
}

type AuthRegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type AuthRegisterResponse struct {
	User UserDTO `json:"user"`
}

type AuthLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthLoginResponse struct {
	User  UserDTO           `json:"user"`
	Token JwtAccessTokenDTO `json:"token"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

type LoginResult struct {
	Body              AuthLoginResponse
	RefreshTokenPlain string
	CsrfTokenPlain    string
}

type RefreshResult struct {
	Body              JwtAccessTokenDTO
	RefreshTokenPlain string
	CsrfTokenPlain    string
}

type ResetPasswordRequest struct {
	Email string `json:"email"`
}

type UpdatePasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type AuthUsecase struct {
	cfg       config.Config
	users     repository.UserRepository
	profiles  repository.ProfileRepository
	rtRepo    repository.RefreshTokenRepository
	resets    repository.PasswordResetRepository
	validator AuthValidator
	mail      *mailer.Mailer
	events    *authevents.Broker
	idGen     IDGenerator
	clock     Clock
	log       *zap.Logger
}

// DI
func NewAuthUsecase(
	cfg config.Config,
	users repository.UserRepository,
	profiles repository.ProfileRepository,
	rtRepo repository.RefreshTokenRepository,
	resets repository.PasswordResetRepository,
	validator AuthValidator,
	mail *mailer.Mailer,
	events *authevents.Broker,
	idGen IDGenerator,
	clock Clock,
	log *zap.Logger,
) *AuthUsecase {
	return &AuthUsecase{
		cfg:       cfg,
		users:     users,
		profiles:  profiles,
		rtRepo:    rtRepo,
		resets:    resets,
		validator: validator,
		mail:      mail,
		events:    events,
		idGen:     idGen,
		clock:     clock,
		log:       log,
	}
}

func (u *AuthUsecase) Register(ctx context.Context, req AuthRegisterRequest) (*AuthRegisterResponse, error) {
	//入力検証（validatorに寄せる）
	if err := u.validator.ValidateRegister(ctx, req.Email, req.Password); err != nil {
		return nil, err
	}

	//パスワードは必ずハッシュ化して保存（平文保存しない）
	pwHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrInternal
	}

	user := &model.User{
		ID:           u.idGen.NewID(),
		Email:        req.Email,
		PasswordHash: string(pwHash),
		Role:         model.RoleCustomer,
		TokenVersion: 0,
		IsActive:     true,
	}

	if err := u.users.Create(ctx, user); err != nil {
		//unique違反は重複登録
		return nil, ErrConflict
	}

	//プロフィール行も一緒に作る（空でもよい）
	profile := model.Profile{
		ID:        user.ID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}
	if err := u.profiles.Create(ctx, profile); err != nil {
		u.log.Warn("profile create failed", zap.String("user_id", user.ID), zap.Error(err))
	}

	//ウェルカムメールの失敗は登録を妨げない
	go func(email, firstName string) {
		mctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := u.mail.SendWelcome(mctx, email, firstName); err != nil {
			u.log.Warn("welcome email failed", zap.Error(err))
		}
	}(user.Email, req.FirstName)

	return &AuthRegisterResponse{User: toUserDTO(user)}, nil
}

func (u *AuthUsecase) Login(ctx context.Context, req AuthLoginRequest, userAgent string) (*LoginResult, error) {
	//入力検証
	if err := u.validator.ValidateLogin(ctx, req.Email, req.Password); err != nil {
		return nil, err
	}

	//ユーザー取得
	user, err := u.users.FindByEmail(ctx, req.Email)
	if err != nil || user == nil {
		return nil, ErrUnauthorized
	}

	//停止ユーザーはログイン不可
	if !user.IsActive {
		return nil, ErrForbidden
	}

	//パスワード照合（bcrypt）
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrUnauthorized
	}

	//last_login更新
	now := u.clock.Now()
	user.LastLoginAt = &now
	_ = u.users.Update(ctx, user)

	//access token発行
	accessToken, expiresIn, err := u.issueAccessToken(user)
	if err != nil {
		return nil, ErrInternal
	}

	//refresh token発行（DBにはhash保存）
	refreshPlain, refreshHash, err := newRandomTokenAndHash()
	if err != nil {
		return nil, ErrInternal
	}

	rt := &model.RefreshToken{
		ID:        u.idGen.NewID(),
		UserID:    user.ID,
		TokenHash: refreshHash,
		UserAgent: userAgent,
		ExpiresAt: now.Add(refreshTokenTTL),
		UsedAt:    nil,
		RevokedAt: nil,
	}

	if err := u.rtRepo.Create(ctx, rt); err != nil {
		return nil, ErrInternal
	}

	//CSRFtoken
	csrfPlain, _, err := newRandomTokenAndHash()
	if err != nil {
		return nil, ErrInternal
	}

	u.events.Publish(authevents.Event{
		Type:   authevents.EventSignedIn,
		UserID: user.ID,
		Email:  user.Email,
		At:     now,
	})

	return &LoginResult{
		Body: AuthLoginResponse{
			User: toUserDTO(user),
			Token: JwtAccessTokenDTO{
				AccessToken:  accessToken,
				ExpiresIn:    expiresIn,
				TokenVersion: user.TokenVersion,
			},
		},
		RefreshTokenPlain: refreshPlain,
		CsrfTokenPlain:    csrfPlain,
	}, nil
}

func (u *AuthUsecase) Me(ctx context.Context, userID string) (*UserDTO, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil || user == nil {
		return nil, ErrUnauthorized
	}
	if !user.IsActive {
		return nil, ErrForbidden
	}

	dto := toUserDTO(user)
	return &dto, nil
}

func (u *AuthUsecase) Refresh(ctx context.Context, refreshTokenPlain string, userAgent string) (*RefreshResult, error) {
	//入力検証
	if err := u.validator.ValidateRefresh(ctx, refreshTokenPlain, userAgent); err != nil {
		return nil, err
	}

	//DB照合
	tokenHash := hashToken(refreshTokenPlain)

	rt, err := u.rtRepo.FindByTokenHash(ctx, tokenHash)
	if err != nil || rt == nil {
		return nil, ErrUnauthorized
	}

	now := u.clock.Now()

	//期限切れ
	if rt.ExpiresAt.Before(now) {
		_ = u.rtRepo.Revoke(ctx, rt.ID, now)
		return nil, ErrUnauthorized
	}

	//revoked
	if rt.RevokedAt != nil {
		return nil, ErrUnauthorized
	}

	//used済みが来たら replay → 全失効
	if rt.UsedAt != nil {
		_ = u.rtRepo.RevokeAllByUserID(ctx, rt.UserID, now)
		return nil, ErrSecurityIncident
	}

	//user_agent違い（再認証扱い。全失効）
	if userAgent != "" && rt.UserAgent != "" && userAgent != rt.UserAgent {
		_ = u.rtRepo.RevokeAllByUserID(ctx, rt.UserID, now)
		return nil, ErrSecurityIncident
	}

	//user取得
	user, err := u.users.FindByID(ctx, rt.UserID)
	if err != nil || user == nil {
		return nil, ErrUnauthorized
	}
	if !user.IsActive {
		return nil, ErrForbidden
	}

	//旧tokenをusedにする
	if err := u.rtRepo.MarkUsed(ctx, rt.ID, now); err != nil {
		_ = u.rtRepo.RevokeAllByUserID(ctx, rt.UserID, now)
		return nil, ErrSecurityIncident
	}

	//新tokenを作って保存
	newPlain, newHash, err := newRandomTokenAndHash()
	if err != nil {
		return nil, ErrInternal
	}

	newRT := &model.RefreshToken{
		ID:        u.idGen.NewID(),
		UserID:    user.ID,
		TokenHash: newHash,
		UserAgent: userAgent,
		ExpiresAt: now.Add(refreshTokenTTL),
	}

	if err := u.rtRepo.Create(ctx, newRT); err != nil {
		return nil, ErrInternal
	}

	//access再発行
	accessToken, expiresIn, err := u.issueAccessToken(user)
	if err != nil {
		return nil, ErrInternal
	}

	//CSRFも更新
	csrfPlain, _, err := newRandomTokenAndHash()
	if err != nil {
		return nil, ErrInternal
	}

	return &RefreshResult{
		Body: JwtAccessTokenDTO{
			AccessToken:  accessToken,
			ExpiresIn:    expiresIn,
			TokenVersion: user.TokenVersion,
		},
		RefreshTokenPlain: newPlain,
		CsrfTokenPlain:    csrfPlain,
	}, nil
}

// ログアウトは全セッション失効（token_versionも進める）
func (u *AuthUsecase) Logout(ctx context.Context, userID string, refreshTokenPlain string) (*SuccessResponse, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}

	now := u.clock.Now()

	if err := u.rtRepo.RevokeAllByUserID(ctx, userID, now); err != nil {
		return nil, ErrInternal
	}
	if err := u.users.IncrementTokenVersion(ctx, userID); err != nil {
		return nil, ErrInternal
	}

	var email string
	if user, err := u.users.FindByID(ctx, userID); err == nil && user != nil {
		email = user.Email
	}

	u.events.Publish(authevents.Event{
		Type:   authevents.EventSignedOut,
		UserID: userID,
		Email:  email,
		At:     now,
	})

	return &SuccessResponse{Message: "logout success"}, nil
}

// パスワード再設定の依頼。未登録のemailでも成功で返す
// （登録済みかどうかを外に漏らさない）。
func (u *AuthUsecase) RequestPasswordReset(ctx context.Context, req ResetPasswordRequest) (*SuccessResponse, error) {
	ok := &SuccessResponse{Message: "if the email exists, a reset link has been sent"}

	user, err := u.users.FindByEmail(ctx, req.Email)
	if err != nil || user == nil {
		return ok, nil
	}

	plain, hash, err := newRandomTokenAndHash()
	if err != nil {
		return nil, ErrInternal
	}

	now := u.clock.Now()
	token := &model.PasswordResetToken{
		ID:        u.idGen.NewID(),
		UserID:    user.ID,
		TokenHash: hash,
		ExpiresAt: now.Add(resetTokenTTL),
	}
	if err := u.resets.Create(ctx, token); err != nil {
		return nil, ErrInternal
	}

	//リンクはフロントの再設定画面に飛ばす
	link := u.cfg.FEURL + "/reset-password?token=" + plain
	go func(email, link string) {
		mctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := u.mail.SendPasswordReset(mctx, email, link); err != nil {
			u.log.Warn("password reset email failed", zap.Error(err))
		}
	}(user.Email, link)

	return ok, nil
}

// 再設定トークンを消費して新パスワードを保存する。
// 成功したら全セッション失効。
func (u *AuthUsecase) UpdatePassword(ctx context.Context, req UpdatePasswordRequest) (*SuccessResponse, error) {
	if err := u.validator.ValidateUpdatePassword(ctx, req.Token, req.NewPassword); err != nil {
		return nil, err
	}

	tokenHash := hashToken(req.Token)
	rt, err := u.resets.FindByTokenHash(ctx, tokenHash)
	if err != nil || rt == nil {
		return nil, ErrUnauthorized
	}

	now := u.clock.Now()
	if rt.ExpiresAt.Before(now) || rt.UsedAt != nil {
		return nil, ErrUnauthorized
	}

	user, err := u.users.FindByID(ctx, rt.UserID)
	if err != nil || user == nil {
		return nil, ErrUnauthorized
	}

	pwHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrInternal
	}

	user.PasswordHash = string(pwHash)
	if err := u.users.Update(ctx, user); err != nil {
		return nil, ErrInternal
	}

	//一回限り。使ったら消費済みにする
	if err := u.resets.MarkUsed(ctx, rt.ID, now); err != nil {
		return nil, ErrInternal
	}

	//既存セッションは全部失効
	_ = u.rtRepo.RevokeAllByUserID(ctx, user.ID, now)
	_ = u.users.IncrementTokenVersion(ctx, user.ID)

	u.events.Publish(authevents.Event{
		Type:   authevents.EventPasswordRecovery,
		UserID: user.ID,
		Email:  user.Email,
		At:     now,
	})

	return &SuccessResponse{Message: "password updated"}, nil
}

// jwt発行
func (u *AuthUsecase) issueAccessToken(user *model.User) (string, int, error) {
	now := u.clock.Now()
	exp := now.Add(accessTokenTTL)

	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": string(user.Role),
		"tv":   user.TokenVersion,
		"iat":  now.Unix(),
		"exp":  exp.Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := t.SignedString([]byte(u.cfg.JWTSecret))
	if err != nil {
		return "", 0, err
	}

	return signed, int(accessTokenTTL.Seconds()), nil
}

// model.UserをAPI返却用DTOに変換。
func toUserDTO(u *model.User) UserDTO {
	return UserDTO{
		ID:           u.ID,
		Email:        u.Email,
		Role:         string(u.Role),
		TokenVersion: u.TokenVersion,
		IsActive:     u.IsActive,
	}
}

// refresh token生成（平文 + DB保存hash）
func newRandomTokenAndHash() (plain string, hash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}

	plain = base64.RawURLEncoding.EncodeToString(b)

	sum := sha256.Sum256([]byte(plain))
	hash = base64.RawURLEncoding.EncodeToString(sum[:])

	return plain, hash, nil
}

func hashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
