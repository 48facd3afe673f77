package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/mailer"
	"storefront/internal/payment"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

// チェックアウトの段階。順番は固定で、前提を欠く段階には進めない。
type CheckoutStage string

const (
	StageShipping     CheckoutStage = "shipping"
	StageReview       CheckoutStage = "review"
	StagePayment      CheckoutStage = "payment"
	StageConfirmation CheckoutStage = "confirmation"
)

// セッションはRedisに置く。サーバ再起動してもやり直せる。
const checkoutSessionTTL = 30 * time.Minute

func checkoutCacheKey(userID string) string {
	return "checkout:" + userID
}

type checkoutSession struct {
	Stage     CheckoutStage           `json:"stage"`
	Shipping  *model.ShippingSnapshot `json:"shipping,omitempty"`
	OrderID   string                  `json:"order_id,omitempty"`
	CreatedAt time.Time               `json:"created_at"`
}

type CheckoutStateResponse struct {
	Stage    CheckoutStage           `json:"stage"`
	Shipping *model.ShippingSnapshot `json:"shipping,omitempty"`
	OrderID  string                  `json:"order_id,omitempty"`
}

type ShippingInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zip_code"`
	Country   string `json:"country"`
}

type PayInput struct {
	IdempotencyKey string `json:"idempotency_key"`
}

type PlacedOrderResponse struct {
	OrderID     string            `json:"order_id"`
	Status      model.OrderStatus `json:"status"`
	TotalAmount int64             `json:"total_amount"`
}

type CheckoutUsecase struct {
	tx        repo.TransactionManager
	orders    repo.OrderRepository
	cartItems repo.CartItemRepository
	gateway   payment.Gateway
	mail      *mailer.Mailer
	cache     ResponseCache
	idGen     IDGenerator
	clock     Clock
	log       *zap.Logger
}

// DI
func NewCheckoutUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	cartItems repo.CartItemRepository,
	gateway payment.Gateway,
	mail *mailer.Mailer,
	cache ResponseCache,
	idGen IDGenerator,
	clock Clock,
	log *zap.Logger,
) *CheckoutUsecase {
	return &CheckoutUsecase{
		tx:        tx,
		orders:    orders,
		cartItems: cartItems,
		gateway:   gateway,
		mail:      mail,
		cache:     cache,
		idGen:     idGen,
		clock:     clock,
		log:       log,
	}
}

// カートが空なら始めさせない
func (u *CheckoutUsecase) Begin(ctx context.Context, userID string) (CheckoutStateResponse, error) {
	if userID == "" {
		return CheckoutStateResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	items, err := u.cartItems.ListByUserID(ctx, userID)
	if err != nil {
		return CheckoutStateResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if len(items) == 0 {
		return CheckoutStateResponse{}, NewHTTPError(http.StatusConflict, "cart is empty")
	}

	s := checkoutSession{Stage: StageShipping, CreatedAt: u.clock.Now()}
	if err := u.saveSession(ctx, userID, s); err != nil {
		return CheckoutStateResponse{}, NewHTTPError(http.StatusInternalServerError, "session error")
	}
	return stateOf(s), nil
}

func (u *CheckoutUsecase) GetState(ctx context.Context, userID string) (CheckoutStateResponse, error) {
	if userID == "" {
		return CheckoutStateResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	s, ok, err := u.loadSession(ctx, userID)
	if err != nil {
		return CheckoutStateResponse{}, NewHTTPError(http.StatusInternalServerError, "session error")
	}
	if !ok {
		return CheckoutStateResponse{}, NewHTTPError(http.StatusNotFound, "checkout not started")
	}
	return stateOf(s), nil
}

func (u *CheckoutUsecase) SubmitShipping(ctx context.Context, userID string, in ShippingInput) (CheckoutStateResponse, error) {
	if userID == "" {
		return CheckoutStateResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	s, ok, err := u.loadSession(ctx, userID)
	if err != nil {
		return CheckoutStateResponse{}, NewHTTPError(http.StatusInternalServerError, "session error")
	}
	if !ok {
		return CheckoutStateResponse{}, NewHTTPError(http.StatusNotFound, "checkout not started")
	}
	if s.Stage != StageShipping && s.Stage != StageReview {
		return CheckoutStateResponse{}, NewHTTPError(http.StatusConflict, "invalid stage")
	}

	snap, err := validateShipping(in)
	if err != nil {
		return CheckoutStateResponse{}, err
	}

	s.Shipping = &snap
	s.Stage = StageReview
	if err := u.saveSession(ctx, userID, s); err != nil {
		return CheckoutStateResponse{}, NewHTTPError(http.StatusInternalServerError, "session error")
	}
	return stateOf(s), nil
}

func (u *CheckoutUsecase) ConfirmReview(ctx context.Context, userID string) (CheckoutStateResponse, error) {
	if userID == "" {
		return CheckoutStateResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	s, ok, err := u.loadSession(ctx, userID)
	if err != nil {
		return CheckoutStateResponse{}, NewHTTPError(http.StatusInternalServerError, "session error")
	}
	if !ok {
		return CheckoutStateResponse{}, NewHTTPError(http.StatusNotFound, "checkout not started")
	}
	if s.Stage != StageReview {
		return CheckoutStateResponse{}, NewHTTPError(http.StatusConflict, "invalid stage")
	}

	s.Stage = StagePayment
	if err := u.saveSession(ctx, userID, s); err != nil {
		return CheckoutStateResponse{}, NewHTTPError(http.StatusInternalServerError, "session error")
	}
	return stateOf(s), nil
}

// 注文確定。注文＋明細の作成は一つのトランザクション、
// 決済はcommit後に呼ぶ。決済が失敗してもpendingの注文行は残り、
// カートは消えず、段階もpaymentのまま（再試行できる）。
func (u *CheckoutUsecase) Pay(ctx context.Context, userID string, in PayInput) (PlacedOrderResponse, error) {
	if userID == "" {
		return PlacedOrderResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	key := strings.TrimSpace(in.IdempotencyKey)
	if key == "" || len(key) > 255 {
		return PlacedOrderResponse{}, NewHTTPError(http.StatusBadRequest, "invalid idempotency_key")
	}

	s, ok, err := u.loadSession(ctx, userID)
	if err != nil {
		return PlacedOrderResponse{}, NewHTTPError(http.StatusInternalServerError, "session error")
	}
	if !ok {
		return PlacedOrderResponse{}, NewHTTPError(http.StatusNotFound, "checkout not started")
	}
	if s.Stage != StagePayment {
		return PlacedOrderResponse{}, NewHTTPError(http.StatusConflict, "invalid stage")
	}
	if s.Shipping == nil {
		return PlacedOrderResponse{}, NewHTTPError(http.StatusConflict, "shipping not set")
	}
	snap := *s.Shipping

	var out model.Order
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//同じキーの再送は既存の注文を返す
		existing, found, err := r.Orders().FindByIdempotencyKey(ctx, userID, key)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if found {
			out = existing
			return nil
		}

		items, err := r.CartItems().ListByUserID(ctx, userID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if len(items) == 0 {
			return NewHTTPError(http.StatusConflict, "cart is empty")
		}

		var total int64
		orderItems := make([]model.OrderItem, 0, len(items))
		for _, it := range items {
			v, err := r.Variants().FindByID(ctx, it.VariantID)
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusBadRequest, "invalid cart item")
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			p, err := r.Products().FindByID(ctx, v.ProductID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !p.Active {
				return NewHTTPError(http.StatusBadRequest, "invalid cart item")
			}

			total += p.Price * it.Quantity
			orderItems = append(orderItems, model.OrderItem{
				ID:              u.idGen.NewID(),
				VariantID:       it.VariantID,
				Quantity:        it.Quantity,
				PriceAtPurchase: p.Price,
			})
		}

		order := model.Order{
			ID:              u.idGen.NewID(),
			UserID:          userID,
			TotalAmount:     total,
			ShippingAddress: snap,
			Status:          model.OrderStatusPending,
			IdempotencyKey:  key,
		}
		if err := r.Orders().Create(ctx, order); err != nil {
			//先に同キーでcommitされた場合はそちらを採用
			prior, found, ferr := r.Orders().FindByIdempotencyKey(ctx, userID, key)
			if ferr == nil && found {
				out = prior
				return nil
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if err := r.OrderItems().CreateBulk(ctx, order.ID, orderItems); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out = order
		return nil
	})
	if err != nil {
		return PlacedOrderResponse{}, err
	}

	//すでに決済済みの注文の再送はそのまま返す
	if out.Status != model.OrderStatusPending {
		return PlacedOrderResponse{OrderID: out.ID, Status: out.Status, TotalAmount: out.TotalAmount}, nil
	}

	_, err = u.gateway.Charge(ctx, payment.ChargeInput{
		Amount:        out.TotalAmount,
		OrderID:       out.ID,
		CustomerEmail: snap.Email,
		CustomerName:  strings.TrimSpace(snap.FirstName + " " + snap.LastName),
	})
	if err != nil {
		u.log.Warn("payment failed", zap.String("order_id", out.ID), zap.Error(err))
		return PlacedOrderResponse{}, NewHTTPError(http.StatusBadGateway, "payment failed")
	}

	if err := u.orders.UpdateStatus(ctx, out.ID, model.OrderStatusProcessing); err != nil {
		return PlacedOrderResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.cartItems.DeleteAllByUserID(ctx, userID); err != nil {
		return PlacedOrderResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if err := u.cache.Delete(ctx, cartCacheKey(userID)); err != nil {
		u.log.Warn("cart cache invalidate failed", zap.Error(err))
	}

	s.Stage = StageConfirmation
	s.OrderID = out.ID
	if err := u.saveSession(ctx, userID, s); err != nil {
		u.log.Warn("checkout session save failed", zap.Error(err))
	}

	//確認メールの失敗は注文を妨げない
	go func(orderID, email, name string) {
		mctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := u.mail.SendOrderConfirmation(mctx, orderID, email, name); err != nil {
			u.log.Warn("order confirmation email failed", zap.String("order_id", orderID), zap.Error(err))
		}
	}(out.ID, snap.Email, snap.FirstName)

	return PlacedOrderResponse{OrderID: out.ID, Status: model.OrderStatusProcessing, TotalAmount: out.TotalAmount}, nil
}

func validateShipping(in ShippingInput) (model.ShippingSnapshot, error) {
	required := []struct {
		field string
		val   string
	}{
		{"first_name", in.FirstName},
		{"last_name", in.LastName},
		{"email", in.Email},
		{"address", in.Address},
		{"city", in.City},
		{"state", in.State},
		{"zip_code", in.ZipCode},
	}
	for _, r := range required {
		if strings.TrimSpace(r.val) == "" {
			return model.ShippingSnapshot{}, NewHTTPError(http.StatusBadRequest, r.field+" is required")
		}
	}

	country := strings.TrimSpace(in.Country)
	if country == "" {
		country = "United States"
	}

	return model.ShippingSnapshot{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     strings.TrimSpace(in.Email),
		Phone:     strings.TrimSpace(in.Phone),
		Address:   strings.TrimSpace(in.Address),
		City:      strings.TrimSpace(in.City),
		State:     strings.TrimSpace(in.State),
		ZipCode:   strings.TrimSpace(in.ZipCode),
		Country:   country,
	}, nil
}

func stateOf(s checkoutSession) CheckoutStateResponse {
	return CheckoutStateResponse{Stage: s.Stage, Shipping: s.Shipping, OrderID: s.OrderID}
}

func (u *CheckoutUsecase) loadSession(ctx context.Context, userID string) (checkoutSession, bool, error) {
	b, found, err := u.cache.Get(ctx, checkoutCacheKey(userID))
	if err != nil {
		return checkoutSession{}, false, err
	}
	if !found {
		return checkoutSession{}, false, nil
	}
	var s checkoutSession
	if err := json.Unmarshal(b, &s); err != nil {
		return checkoutSession{}, false, err
	}
	return s, true, nil
}

func (u *CheckoutUsecase) saveSession(ctx context.Context, userID string, s checkoutSession) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return u.cache.Set(ctx, checkoutCacheKey(userID), b, checkoutSessionTTL)
}
