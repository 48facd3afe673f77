package usecase

import (
	"context"
	"errors"
	"net/http"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type OrderUsecase struct {
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	variants   repo.VariantRepository
	products   repo.ProductRepository
}

// DI
func NewOrderUsecase(
	orders repo.OrderRepository,
	orderItems repo.OrderItemRepository,
	variants repo.VariantRepository,
	products repo.ProductRepository,
) *OrderUsecase {
	return &OrderUsecase{
		orders:     orders,
		orderItems: orderItems,
		variants:   variants,
		products:   products,
	}
}

type OrderListResponse struct {
	Orders []model.Order `json:"orders"`
	Total  int64         `json:"total"`
	Page   int           `json:"page"`
	Limit  int           `json:"limit"`
}

type OrderItemDetail struct {
	model.OrderItem
	ProductName string  `json:"product_name"`
	Size        *string `json:"size"`
	Color       *string `json:"color"`
}

type OrderDetailResponse struct {
	Order model.Order       `json:"order"`
	Items []OrderItemDetail `json:"items"`
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID string, page, limit int) (OrderListResponse, error) {
	if userID == "" {
		return OrderListResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	orders, total, err := u.orders.ListByUserID(ctx, userID, page, limit)
	if err != nil {
		return OrderListResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return OrderListResponse{Orders: orders, Total: total, Page: page, Limit: limit}, nil
}

// 他人の注文は存在自体を漏らさない（404）
func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID, orderID string) (OrderDetailResponse, error) {
	if userID == "" {
		return OrderDetailResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID == "" {
		return OrderDetailResponse{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	o, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return OrderDetailResponse{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return OrderDetailResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if o.UserID != userID {
		return OrderDetailResponse{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	items, err := u.orderItems.ListByOrderID(ctx, orderID)
	if err != nil {
		return OrderDetailResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	out := OrderDetailResponse{Order: o, Items: make([]OrderItemDetail, 0, len(items))}
	for _, it := range items {
		d := OrderItemDetail{OrderItem: it}
		//商品が消えていても明細自体は返す
		if v, err := u.variants.FindByID(ctx, it.VariantID); err == nil {
			d.Size = v.Size
			d.Color = v.Color
			if p, err := u.products.FindByID(ctx, v.ProductID); err == nil {
				d.ProductName = p.Name
			}
		}
		out.Items = append(out.Items, d)
	}
	return out, nil
}
