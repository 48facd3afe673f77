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
)

func newOrderUC(orders *OrderRepoMock, items *OrderItemRepoMock, variants *VariantRepoMock, products *ProductRepoMock) *usecase.OrderUsecase {
	return usecase.NewOrderUsecase(orders, items, variants, products)
}

// 他人の注文は404
func TestOrderUsecase_GetMyOrderDetail_OtherUsersOrder(t *testing.T) {
	orders := new(OrderRepoMock)
	orders.On("FindByID", mock.Anything, "o1").Return(model.Order{ID: "o1", UserID: "someone-else"}, nil)

	uc := newOrderUC(orders, new(OrderItemRepoMock), new(VariantRepoMock), new(ProductRepoMock))

	_, err := uc.GetMyOrderDetail(context.Background(), "u1", "o1")
	assertStatus(t, err, http.StatusNotFound)
}

func TestOrderUsecase_GetMyOrderDetail_NotFound(t *testing.T) {
	orders := new(OrderRepoMock)
	orders.On("FindByID", mock.Anything, "missing").Return(model.Order{}, repo.ErrNotFound)

	uc := newOrderUC(orders, new(OrderItemRepoMock), new(VariantRepoMock), new(ProductRepoMock))

	_, err := uc.GetMyOrderDetail(context.Background(), "u1", "missing")
	assertStatus(t, err, http.StatusNotFound)
}

// 商品が消えても明細は返る（名前は空）
func TestOrderUsecase_GetMyOrderDetail_DeletedProduct(t *testing.T) {
	orders := new(OrderRepoMock)
	items := new(OrderItemRepoMock)
	variants := new(VariantRepoMock)

	orders.On("FindByID", mock.Anything, "o1").Return(model.Order{ID: "o1", UserID: "u1"}, nil)
	items.On("ListByOrderID", mock.Anything, "o1").Return([]model.OrderItem{
		{ID: "oi1", OrderID: "o1", VariantID: "v1", Quantity: 2, PriceAtPurchase: 2500},
	}, nil)
	variants.On("FindByID", mock.Anything, "v1").Return(model.ProductVariant{}, repo.ErrNotFound)

	uc := newOrderUC(orders, items, variants, new(ProductRepoMock))

	out, err := uc.GetMyOrderDetail(context.Background(), "u1", "o1")
	assert.NoError(t, err)
	if assert.Len(t, out.Items, 1) {
		assert.Equal(t, "", out.Items[0].ProductName)
		assert.Equal(t, int64(2500), out.Items[0].PriceAtPurchase)
	}
}

func TestOrderUsecase_ListMyOrders_PageDefaults(t *testing.T) {
	orders := new(OrderRepoMock)
	orders.On("ListByUserID", mock.Anything, "u1", 1, 20).Return([]model.Order{}, int64(0), nil)

	uc := newOrderUC(orders, new(OrderItemRepoMock), new(VariantRepoMock), new(ProductRepoMock))

	out, err := uc.ListMyOrders(context.Background(), "u1", 0, 0)
	assert.NoError(t, err)
	assert.Equal(t, 1, out.Page)
	assert.Equal(t, 20, out.Limit)
}
