package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// キャッシュの約束（Redis実装を注入する）。
// Getは無ければfound=false。書き込み側はDeleteで無効化してから作り直す。
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// カタログ読み取りのキャッシュ有効期限
const catalogCacheTTL = 5 * time.Minute

// CatalogUsecase はカテゴリ・商品の読み取り専用ロジック。
// 書き込みは無い（商品編集はこの系の範囲外）。
type CatalogUsecase struct {
	categories repo.CategoryRepository
	products   repo.ProductRepository
	variants   repo.VariantRepository
	cache      ResponseCache
	log        *zap.Logger
}

// DI
func NewCatalogUsecase(
	categories repo.CategoryRepository,
	products repo.ProductRepository,
	variants repo.VariantRepository,
	cache ResponseCache,
	log *zap.Logger,
) *CatalogUsecase {
	return &CatalogUsecase{
		categories: categories,
		products:   products,
		variants:   variants,
		cache:      cache,
		log:        log,
	}
}

type ProductWithVariants struct {
	model.Product
	Variants []model.ProductVariant `json:"variants"`
}

type CategoryDetailOutput struct {
	Category model.Category        `json:"category"`
	Products []ProductWithVariants `json:"products"`
}

// 商品詳細。available_sizes/colorsはバリアントのnull以外を
// 出現順のまま重複排除した射影。
type ProductDetailOutput struct {
	Product         model.Product          `json:"product"`
	Variants        []model.ProductVariant `json:"variants"`
	AvailableSizes  []string               `json:"available_sizes"`
	AvailableColors []string               `json:"available_colors"`
}

func (u *CatalogUsecase) ListCategories(ctx context.Context) ([]model.Category, error) {
	key := "categories:all"

	var cached []model.Category
	if ok := u.cacheGet(ctx, key, &cached); ok {
		return cached, nil
	}

	list, err := u.categories.List(ctx)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.cacheSet(ctx, key, list)
	return list, nil
}

// slugでカテゴリ＋公開商品（バリアント付き）を返す
func (u *CatalogUsecase) GetCategory(ctx context.Context, slug string) (CategoryDetailOutput, error) {
	if slug == "" {
		return CategoryDetailOutput{}, NewHTTPError(http.StatusBadRequest, "invalid slug")
	}

	key := "category:" + slug

	var cached CategoryDetailOutput
	if ok := u.cacheGet(ctx, key, &cached); ok {
		return cached, nil
	}

	c, err := u.categories.FindBySlug(ctx, slug)
	if errors.Is(err, repo.ErrNotFound) {
		return CategoryDetailOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return CategoryDetailOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	products, err := u.products.ListActiveByCategoryID(ctx, c.ID)
	if err != nil {
		return CategoryDetailOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	out := CategoryDetailOutput{Category: c, Products: make([]ProductWithVariants, 0, len(products))}
	for _, p := range products {
		vs, err := u.variants.ListByProductID(ctx, p.ID)
		if err != nil {
			return CategoryDetailOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out.Products = append(out.Products, ProductWithVariants{Product: p, Variants: vs})
	}

	u.cacheSet(ctx, key, out)
	return out, nil
}

// 商品詳細（バリアント＋選べるサイズ/色）
func (u *CatalogUsecase) GetProduct(ctx context.Context, productID string) (ProductDetailOutput, error) {
	if productID == "" {
		return ProductDetailOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	key := "product:" + productID

	var cached ProductDetailOutput
	if ok := u.cacheGet(ctx, key, &cached); ok {
		return cached, nil
	}

	p, err := u.products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return ProductDetailOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return ProductDetailOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !p.Active {
		return ProductDetailOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	vs, err := u.variants.ListByProductID(ctx, productID)
	if err != nil {
		return ProductDetailOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	out := ProductDetailOutput{
		Product:         p,
		Variants:        vs,
		AvailableSizes:  dedupNonNull(vs, func(v model.ProductVariant) *string { return v.Size }),
		AvailableColors: dedupNonNull(vs, func(v model.ProductVariant) *string { return v.Color }),
	}

	u.cacheSet(ctx, key, out)
	return out, nil
}

// トップ表示用のおすすめ商品
func (u *CatalogUsecase) ListFeatured(ctx context.Context, limit int) ([]ProductWithVariants, error) {
	if limit < 1 || limit > 100 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	key := fmt.Sprintf("featured:%d", limit)

	var cached []ProductWithVariants
	if ok := u.cacheGet(ctx, key, &cached); ok {
		return cached, nil
	}

	products, err := u.products.ListFeatured(ctx, limit)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	out := make([]ProductWithVariants, 0, len(products))
	for _, p := range products {
		vs, err := u.variants.ListByProductID(ctx, p.ID)
		if err != nil {
			return nil, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out = append(out, ProductWithVariants{Product: p, Variants: vs})
	}

	u.cacheSet(ctx, key, out)
	return out, nil
}

// null以外の値を出現順で重複排除
func dedupNonNull(vs []model.ProductVariant, pick func(model.ProductVariant) *string) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, v := range vs {
		s := pick(v)
		if s == nil || *s == "" {
			continue
		}
		if _, ok := seen[*s]; ok {
			continue
		}
		seen[*s] = struct{}{}
		out = append(out, *s)
	}
	return out
}

// キャッシュの失敗は読み取りを壊さない（ログだけ残す）
func (u *CatalogUsecase) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	b, found, err := u.cache.Get(ctx, key)
	if err != nil {
		u.log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if !found {
		return false
	}
	if err := json.Unmarshal(b, dest); err != nil {
		u.log.Warn("cache decode failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (u *CatalogUsecase) cacheSet(ctx context.Context, key string, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := u.cache.Set(ctx, key, b, catalogCacheTTL); err != nil {
		u.log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}
