package usecase_test

import (
	"context"
	"testing"

	"storefront/internal/domain/model"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func validAddress() usecase.AddressInput {
	return usecase.AddressInput{
		Label:     "Home",
		FirstName: "Taro",
		LastName:  "Yamada",
		Address:   "1-2-3 Chuo",
		City:      "Springfield",
		State:     "IL",
		ZipCode:   "62701",
	}
}

func TestAddressUsecase_Create_Validation(t *testing.T) {
	uc := usecase.NewAddressUsecase(new(AddressRepoMock), &seqIDGen{})

	in := validAddress()
	in.ZipCode = ""
	_, err := uc.Create(context.Background(), "u1", in)
	assert.ErrorIs(t, err, usecase.ErrValidation)
}

func TestAddressUsecase_Create_DefaultCountry(t *testing.T) {
	addresses := new(AddressRepoMock)
	addresses.On("Create", mock.Anything, mock.MatchedBy(func(a model.Address) bool {
		return a.Country == "United States" && a.UserID == "u1"
	})).Return(model.Address{ID: "a1", UserID: "u1", Country: "United States"}, nil)

	uc := usecase.NewAddressUsecase(addresses, &seqIDGen{})

	out, err := uc.Create(context.Background(), "u1", validAddress())
	assert.NoError(t, err)
	assert.Equal(t, "a1", out.ID)
}

// is_default付きの作成は全解除→1件設定まで行う
func TestAddressUsecase_Create_WithDefault(t *testing.T) {
	addresses := new(AddressRepoMock)
	addresses.On("Create", mock.Anything, mock.Anything).Return(model.Address{ID: "a1", UserID: "u1"}, nil)
	addresses.On("SetDefault", mock.Anything, "u1", "a1").Return(nil)

	uc := usecase.NewAddressUsecase(addresses, &seqIDGen{})

	in := validAddress()
	in.IsDefault = true
	out, err := uc.Create(context.Background(), "u1", in)
	assert.NoError(t, err)
	assert.True(t, out.IsDefault)

	addresses.AssertCalled(t, "SetDefault", mock.Anything, "u1", "a1")
}

// 他人の住所は存在も漏らさない
func TestAddressUsecase_Update_NotOwned(t *testing.T) {
	addresses := new(AddressRepoMock)
	addresses.On("IsOwnedByUser", mock.Anything, "a9", "u1").Return(false, nil)

	uc := usecase.NewAddressUsecase(addresses, &seqIDGen{})

	_, err := uc.Update(context.Background(), "u1", "a9", validAddress())
	assert.ErrorIs(t, err, usecase.ErrNotFound)
}

func TestAddressUsecase_Delete_NotOwned(t *testing.T) {
	addresses := new(AddressRepoMock)
	addresses.On("IsOwnedByUser", mock.Anything, "a9", "u1").Return(false, nil)

	uc := usecase.NewAddressUsecase(addresses, &seqIDGen{})

	err := uc.Delete(context.Background(), "u1", "a9")
	assert.ErrorIs(t, err, usecase.ErrNotFound)
	addresses.AssertNotCalled(t, "Delete", mock.Anything, "a9")
}

func TestAddressUsecase_SetDefault_Owned(t *testing.T) {
	addresses := new(AddressRepoMock)
	addresses.On("IsOwnedByUser", mock.Anything, "a1", "u1").Return(true, nil)
	addresses.On("SetDefault", mock.Anything, "u1", "a1").Return(nil)

	uc := usecase.NewAddressUsecase(addresses, &seqIDGen{})

	err := uc.SetDefault(context.Background(), "u1", "a1")
	assert.NoError(t, err)
}

func TestAddressUsecase_List_Unauthorized(t *testing.T) {
	uc := usecase.NewAddressUsecase(new(AddressRepoMock), &seqIDGen{})

	_, err := uc.List(context.Background(), "")
	assert.ErrorIs(t, err, usecase.ErrUnauthorized)
}
