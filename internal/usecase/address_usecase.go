package usecase

import (
	"context"
	"errors"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// handler層でHTTPステータスに読み替えるための番兵エラー
var (
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInternal     = errors.New("internal error")
)

type AddressUsecase struct {
	addresses repo.AddressRepository
	idGen     IDGenerator
}

// DI
func NewAddressUsecase(addresses repo.AddressRepository, idGen IDGenerator) *AddressUsecase {
	return &AddressUsecase{
		addresses: addresses,
		idGen:     idGen,
	}
}

type AddressInput struct {
	Label     string `json:"label"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zip_code"`
	Country   string `json:"country"`
	Phone     string `json:"phone"`
	IsDefault bool   `json:"is_default"`
}

func (u *AddressUsecase) List(ctx context.Context, userID string) ([]model.Address, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	list, err := u.addresses.ListByUserID(ctx, userID)
	if err != nil {
		return nil, ErrInternal
	}
	return list, nil
}

func (u *AddressUsecase) Create(ctx context.Context, userID string, in AddressInput) (model.Address, error) {
	if userID == "" {
		return model.Address{}, ErrUnauthorized
	}
	if err := validateAddressInput(in); err != nil {
		return model.Address{}, err
	}

	a := model.Address{
		ID:        u.idGen.NewID(),
		UserID:    userID,
		Label:     strings.TrimSpace(in.Label),
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Address:   strings.TrimSpace(in.Address),
		City:      strings.TrimSpace(in.City),
		State:     strings.TrimSpace(in.State),
		ZipCode:   strings.TrimSpace(in.ZipCode),
		Country:   defaultCountry(in.Country),
		Phone:     strings.TrimSpace(in.Phone),
	}

	created, err := u.addresses.Create(ctx, a)
	if err != nil {
		return model.Address{}, ErrInternal
	}

	//新規作成でdefault指定なら切り替えまで行う
	if in.IsDefault {
		if err := u.addresses.SetDefault(ctx, userID, created.ID); err != nil {
			return model.Address{}, ErrInternal
		}
		created.IsDefault = true
	}
	return created, nil
}

func (u *AddressUsecase) Update(ctx context.Context, userID, addressID string, in AddressInput) (model.Address, error) {
	if userID == "" {
		return model.Address{}, ErrUnauthorized
	}
	if err := validateAddressInput(in); err != nil {
		return model.Address{}, err
	}

	//所有チェック
	owned, err := u.addresses.IsOwnedByUser(ctx, addressID, userID)
	if err != nil {
		return model.Address{}, ErrInternal
	}
	if !owned {
		return model.Address{}, ErrNotFound
	}

	current, err := u.addresses.FindByID(ctx, addressID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Address{}, ErrNotFound
	}
	if err != nil {
		return model.Address{}, ErrInternal
	}

	current.Label = strings.TrimSpace(in.Label)
	current.FirstName = strings.TrimSpace(in.FirstName)
	current.LastName = strings.TrimSpace(in.LastName)
	current.Address = strings.TrimSpace(in.Address)
	current.City = strings.TrimSpace(in.City)
	current.State = strings.TrimSpace(in.State)
	current.ZipCode = strings.TrimSpace(in.ZipCode)
	current.Country = defaultCountry(in.Country)
	current.Phone = strings.TrimSpace(in.Phone)

	if err := u.addresses.Update(ctx, current); err != nil {
		return model.Address{}, ErrInternal
	}

	if in.IsDefault && !current.IsDefault {
		if err := u.addresses.SetDefault(ctx, userID, current.ID); err != nil {
			return model.Address{}, ErrInternal
		}
		current.IsDefault = true
	}
	return current, nil
}

func (u *AddressUsecase) Delete(ctx context.Context, userID, addressID string) error {
	if userID == "" {
		return ErrUnauthorized
	}

	//所有チェック
	owned, err := u.addresses.IsOwnedByUser(ctx, addressID, userID)
	if err != nil {
		return ErrInternal
	}
	if !owned {
		return ErrNotFound
	}

	if err := u.addresses.Delete(ctx, addressID); err != nil {
		return ErrInternal
	}
	return nil
}

// デフォルトの切り替え。全解除→1件設定が1トランザクションで走る
func (u *AddressUsecase) SetDefault(ctx context.Context, userID, addressID string) error {
	if userID == "" {
		return ErrUnauthorized
	}

	owned, err := u.addresses.IsOwnedByUser(ctx, addressID, userID)
	if err != nil {
		return ErrInternal
	}
	if !owned {
		return ErrNotFound
	}

	if err := u.addresses.SetDefault(ctx, userID, addressID); err != nil {
		return ErrInternal
	}
	return nil
}

func validateAddressInput(in AddressInput) error {
	required := []string{in.Label, in.FirstName, in.LastName, in.Address, in.City, in.State, in.ZipCode}
	for _, v := range required {
		if strings.TrimSpace(v) == "" {
			return ErrValidation
		}
	}
	return nil
}

func defaultCountry(c string) string {
	c = strings.TrimSpace(c)
	if c == "" {
		return "United States"
	}
	return c
}
