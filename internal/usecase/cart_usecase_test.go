package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func newCartUC(cartItems *CartItemRepoMock, variants *VariantRepoMock, products *ProductRepoMock) *usecase.CartUsecase {
	return usecase.NewCartUsecase(cartItems, variants, products, newMemCache(), &seqIDGen{}, zap.NewNop())
}

func assertStatus(t *testing.T, err error, status int) {
	t.Helper()
	he, ok := usecase.AsHTTPError(err)
	if assert.True(t, ok, "expected HTTPError, got %v", err) {
		assert.Equal(t, status, he.Status)
	}
}

func TestCartUsecase_AddItem_Unauthorized(t *testing.T) {
	uc := newCartUC(new(CartItemRepoMock), new(VariantRepoMock), new(ProductRepoMock))

	_, err := uc.AddItem(context.Background(), "", usecase.AddItemInput{VariantID: "v1", Quantity: 1})
	assertStatus(t, err, http.StatusUnauthorized)
}

func TestCartUsecase_AddItem_InvalidQuantity(t *testing.T) {
	uc := newCartUC(new(CartItemRepoMock), new(VariantRepoMock), new(ProductRepoMock))

	_, err := uc.AddItem(context.Background(), "u1", usecase.AddItemInput{VariantID: "v1", Quantity: 0})
	assertStatus(t, err, http.StatusBadRequest)
}

// 再追加は数量の加算ではなく置き換えでupsertされる
func TestCartUsecase_AddItem_ReplacesQuantity(t *testing.T) {
	cartItems := new(CartItemRepoMock)
	variants := new(VariantRepoMock)
	products := new(ProductRepoMock)

	variants.On("FindByID", mock.Anything, "v1").Return(model.ProductVariant{ID: "v1", ProductID: "p1", StockQuantity: 10}, nil)
	products.On("FindByID", mock.Anything, "p1").Return(model.Product{ID: "p1", Name: "Tee", Price: 2000, Active: true}, nil)

	cartItems.On("UpsertReplaceQuantity", mock.Anything, mock.Anything, "u1", "v1", int64(5)).Return(nil)
	cartItems.On("ListByUserID", mock.Anything, "u1").Return([]model.CartItem{
		{ID: "c1", UserID: "u1", VariantID: "v1", Quantity: 5},
	}, nil)

	uc := newCartUC(cartItems, variants, products)

	out, err := uc.AddItem(context.Background(), "u1", usecase.AddItemInput{VariantID: "v1", Quantity: 5})
	assert.NoError(t, err)
	assert.Equal(t, int64(5), out.TotalItems)

	cartItems.AssertCalled(t, "UpsertReplaceQuantity", mock.Anything, mock.Anything, "u1", "v1", int64(5))
}

func TestCartUsecase_AddItem_UnknownVariant(t *testing.T) {
	cartItems := new(CartItemRepoMock)
	variants := new(VariantRepoMock)
	products := new(ProductRepoMock)

	variants.On("FindByID", mock.Anything, "missing").Return(model.ProductVariant{}, repo.ErrNotFound)

	uc := newCartUC(cartItems, variants, products)

	_, err := uc.AddItem(context.Background(), "u1", usecase.AddItemInput{VariantID: "missing", Quantity: 1})
	assertStatus(t, err, http.StatusBadRequest)
}

// 無い行の削除はエラーにならず現状のカートを返す
func TestCartUsecase_RemoveItem_Idempotent(t *testing.T) {
	cartItems := new(CartItemRepoMock)
	variants := new(VariantRepoMock)
	products := new(ProductRepoMock)

	cartItems.On("IsOwnedByUser", mock.Anything, "ghost", "u1").Return(false, nil)
	cartItems.On("ListByUserID", mock.Anything, "u1").Return([]model.CartItem{}, nil)

	uc := newCartUC(cartItems, variants, products)

	out, err := uc.RemoveItem(context.Background(), "u1", "ghost")
	assert.NoError(t, err)
	assert.Empty(t, out.Items)

	cartItems.AssertNotCalled(t, "DeleteByID", mock.Anything, "ghost")
}

// 数量0以下は削除に倒れる
func TestCartUsecase_SetQuantity_ZeroRemoves(t *testing.T) {
	cartItems := new(CartItemRepoMock)
	variants := new(VariantRepoMock)
	products := new(ProductRepoMock)

	cartItems.On("IsOwnedByUser", mock.Anything, "c1", "u1").Return(true, nil)
	cartItems.On("DeleteByID", mock.Anything, "c1").Return(nil)
	cartItems.On("ListByUserID", mock.Anything, "u1").Return([]model.CartItem{}, nil)

	uc := newCartUC(cartItems, variants, products)

	out, err := uc.SetQuantity(context.Background(), "u1", "c1", 0)
	assert.NoError(t, err)
	assert.Empty(t, out.Items)

	cartItems.AssertCalled(t, "DeleteByID", mock.Anything, "c1")
	cartItems.AssertNotCalled(t, "UpdateQuantity", mock.Anything, "c1", mock.Anything)
}

func TestCartUsecase_SetQuantity_NotOwned(t *testing.T) {
	cartItems := new(CartItemRepoMock)

	cartItems.On("IsOwnedByUser", mock.Anything, "c9", "u1").Return(false, nil)

	uc := newCartUC(cartItems, new(VariantRepoMock), new(ProductRepoMock))

	_, err := uc.SetQuantity(context.Background(), "u1", "c9", 3)
	assertStatus(t, err, http.StatusNotFound)
}

// 合計はJOINした行から再計算される
func TestCartUsecase_GetCart_Totals(t *testing.T) {
	cartItems := new(CartItemRepoMock)
	variants := new(VariantRepoMock)
	products := new(ProductRepoMock)

	cartItems.On("ListByUserID", mock.Anything, "u1").Return([]model.CartItem{
		{ID: "c1", UserID: "u1", VariantID: "v1", Quantity: 1},
		{ID: "c2", UserID: "u1", VariantID: "v2", Quantity: 3},
	}, nil)

	variants.On("FindByID", mock.Anything, "v1").Return(model.ProductVariant{ID: "v1", ProductID: "p1", Size: strPtr("M")}, nil)
	variants.On("FindByID", mock.Anything, "v2").Return(model.ProductVariant{ID: "v2", ProductID: "p2", Size: strPtr("L")}, nil)
	products.On("FindByID", mock.Anything, "p1").Return(model.Product{ID: "p1", Name: "Tee", Price: 2000, Active: true}, nil)
	products.On("FindByID", mock.Anything, "p2").Return(model.Product{ID: "p2", Name: "Cap", Price: 1000, Active: true}, nil)

	uc := newCartUC(cartItems, variants, products)

	out, err := uc.GetCart(context.Background(), "u1")
	assert.NoError(t, err)
	assert.Len(t, out.Items, 2)
	assert.Equal(t, int64(4), out.TotalItems)
	assert.Equal(t, int64(5000), out.TotalPrice)
}
