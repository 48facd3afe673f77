package usecase

import (
	"context"
	"errors"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type ProfileUsecase struct {
	profiles repo.ProfileRepository
	users    repo.UserRepository
}

// DI
func NewProfileUsecase(profiles repo.ProfileRepository, users repo.UserRepository) *ProfileUsecase {
	return &ProfileUsecase{
		profiles: profiles,
		users:    users,
	}
}

type ProfileOutput struct {
	model.Profile
	Email string `json:"email"`
}

type ProfileUpdateInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

func (u *ProfileUsecase) Get(ctx context.Context, userID string) (ProfileOutput, error) {
	if userID == "" {
		return ProfileOutput{}, ErrUnauthorized
	}

	user, err := u.users.FindByID(ctx, userID)
	if errors.Is(err, repo.ErrUserNotFound) {
		return ProfileOutput{}, ErrNotFound
	}
	if err != nil {
		return ProfileOutput{}, ErrInternal
	}

	p, err := u.profiles.FindByUserID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		//登録直後に行が無い場合は空のプロフィールで返す
		p = model.Profile{ID: userID}
	} else if err != nil {
		return ProfileOutput{}, ErrInternal
	}

	return ProfileOutput{Profile: p, Email: user.Email}, nil
}

func (u *ProfileUsecase) Update(ctx context.Context, userID string, in ProfileUpdateInput) (ProfileOutput, error) {
	if userID == "" {
		return ProfileOutput{}, ErrUnauthorized
	}
	if strings.TrimSpace(in.FirstName) == "" && strings.TrimSpace(in.LastName) == "" && strings.TrimSpace(in.Phone) == "" {
		return ProfileOutput{}, ErrValidation
	}

	user, err := u.users.FindByID(ctx, userID)
	if errors.Is(err, repo.ErrUserNotFound) {
		return ProfileOutput{}, ErrNotFound
	}
	if err != nil {
		return ProfileOutput{}, ErrInternal
	}

	p, err := u.profiles.FindByUserID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		p = model.Profile{ID: userID}
		p.FirstName = strings.TrimSpace(in.FirstName)
		p.LastName = strings.TrimSpace(in.LastName)
		p.Phone = strings.TrimSpace(in.Phone)
		if err := u.profiles.Create(ctx, p); err != nil {
			return ProfileOutput{}, ErrInternal
		}
		return ProfileOutput{Profile: p, Email: user.Email}, nil
	}
	if err != nil {
		return ProfileOutput{}, ErrInternal
	}

	p.FirstName = strings.TrimSpace(in.FirstName)
	p.LastName = strings.TrimSpace(in.LastName)
	p.Phone = strings.TrimSpace(in.Phone)
	if err := u.profiles.Update(ctx, p); err != nil {
		return ProfileOutput{}, ErrInternal
	}
	return ProfileOutput{Profile: p, Email: user.Email}, nil
}
