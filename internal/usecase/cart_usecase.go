package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

// ID採番と時刻はテストで差し替えるためポートにする
type IDGenerator interface {
	NewID() string
}

type Clock interface {
	Now() time.Time
}

const cartCacheTTL = 10 * time.Minute

func cartCacheKey(userID string) string {
	return "cart:" + userID
}

type CartUsecase struct {
	cartItems repo.CartItemRepository
	variants  repo.VariantRepository
	products  repo.ProductRepository
	cache     ResponseCache
	idGen     IDGenerator
	log       *zap.Logger
}

// DI
func NewCartUsecase(
	cartItems repo.CartItemRepository,
	variants repo.VariantRepository,
	products repo.ProductRepository,
	cache ResponseCache,
	idGen IDGenerator,
	log *zap.Logger,
) *CartUsecase {
	return &CartUsecase{
		cartItems: cartItems,
		variants:  variants,
		products:  products,
		cache:     cache,
		idGen:     idGen,
		log:       log,
	}
}

type CartItemResponse struct {
	ID            string   `json:"id"`
	VariantID     string   `json:"variant_id"`
	Quantity      int64    `json:"quantity"`
	ProductID     string   `json:"product_id"`
	Name          string   `json:"name"`
	Price         int64    `json:"price"`
	Size          *string  `json:"size"`
	Color         *string  `json:"color"`
	ImageURLs     []string `json:"image_urls"`
	StockQuantity int64    `json:"stock_quantity"`
}

type CartResponse struct {
	Items      []CartItemResponse `json:"items"`
	TotalItems int64              `json:"total_items"`
	TotalPrice int64              `json:"total_price"`
}

type AddItemInput struct {
	VariantID string `json:"variant_id"`
	Quantity  int64  `json:"quantity"`
}

func (u *CartUsecase) GetCart(ctx context.Context, userID string) (CartResponse, error) {
	if userID == "" {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	key := cartCacheKey(userID)

	var cached CartResponse
	if b, found, err := u.cache.Get(ctx, key); err == nil && found {
		if err := json.Unmarshal(b, &cached); err == nil {
			return cached, nil
		}
	}

	out, err := u.buildCartResponse(ctx, userID)
	if err != nil {
		return CartResponse{}, err
	}

	if b, err := json.Marshal(out); err == nil {
		if err := u.cache.Set(ctx, key, b, cartCacheTTL); err != nil {
			u.log.Warn("cart cache set failed", zap.Error(err))
		}
	}
	return out, nil
}

// 同じバリアントを再追加すると数量は加算ではなく置き換えになる
func (u *CartUsecase) AddItem(ctx context.Context, userID string, in AddItemInput) (CartResponse, error) {
	if userID == "" {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.VariantID == "" {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "variant_id is required")
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	v, err := u.variants.FindByID(ctx, in.VariantID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid variant")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	p, err := u.products.FindByID(ctx, v.ProductID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !p.Active {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid variant")
	}

	if err := u.cartItems.UpsertReplaceQuantity(ctx, u.idGen.NewID(), userID, in.VariantID, in.Quantity); err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.invalidate(ctx, userID)
	return u.buildCartResponse(ctx, userID)
}

// 0以下は削除に倒す
func (u *CartUsecase) SetQuantity(ctx context.Context, userID, cartItemID string, quantity int64) (CartResponse, error) {
	if userID == "" {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if quantity <= 0 {
		return u.RemoveItem(ctx, userID, cartItemID)
	}

	owned, err := u.cartItems.IsOwnedByUser(ctx, cartItemID, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !owned {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	if err := u.cartItems.UpdateQuantity(ctx, cartItemID, quantity); err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.invalidate(ctx, userID)
	return u.buildCartResponse(ctx, userID)
}

// 存在しない行の削除はエラーにしない
func (u *CartUsecase) RemoveItem(ctx context.Context, userID, cartItemID string) (CartResponse, error) {
	if userID == "" {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	owned, err := u.cartItems.IsOwnedByUser(ctx, cartItemID, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if owned {
		if err := u.cartItems.DeleteByID(ctx, cartItemID); err != nil {
			return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
	}

	u.invalidate(ctx, userID)
	return u.buildCartResponse(ctx, userID)
}

func (u *CartUsecase) Clear(ctx context.Context, userID string) error {
	if userID == "" {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := u.cartItems.DeleteAllByUserID(ctx, userID); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	u.invalidate(ctx, userID)
	return nil
}

// 合計は都度DBの行から組み立て直す
func (u *CartUsecase) buildCartResponse(ctx context.Context, userID string) (CartResponse, error) {
	items, err := u.cartItems.ListByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	out := CartResponse{Items: make([]CartItemResponse, 0, len(items))}
	for _, it := range items {
		v, err := u.variants.FindByID(ctx, it.VariantID)
		if err != nil {
			// バリアントが消えた行は表示から外す
			continue
		}
		p, err := u.products.FindByID(ctx, v.ProductID)
		if err != nil {
			continue
		}

		out.Items = append(out.Items, CartItemResponse{
			ID:            it.ID,
			VariantID:     it.VariantID,
			Quantity:      it.Quantity,
			ProductID:     p.ID,
			Name:          p.Name,
			Price:         p.Price,
			Size:          v.Size,
			Color:         v.Color,
			ImageURLs:     v.ImageURLs,
			StockQuantity: v.StockQuantity,
		})
		out.TotalItems += it.Quantity
		out.TotalPrice += p.Price * it.Quantity
	}
	return out, nil
}

func (u *CartUsecase) invalidate(ctx context.Context, userID string) {
	if err := u.cache.Delete(ctx, cartCacheKey(userID)); err != nil {
		u.log.Warn("cart cache invalidate failed", zap.Error(err))
	}
}
