package main

import (
	"context"
	"time"

	"storefront/internal/authevents"
	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/handler"
	"storefront/internal/infra/cache"
	"storefront/internal/infra/db"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/logging"
	"storefront/internal/mailer"
	"storefront/internal/payment"
	"storefront/internal/server"
	"storefront/internal/usecase"
	"storefront/internal/validator"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type uuidGenerator struct{}

func (g *uuidGenerator) NewID() string {
	return uuid.NewString()
}

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

func main() {
	//.envは無ければ環境変数だけで動く
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logging.New(cfg.GoEnv)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	//DB接続
	gormDB, err := db.Connect()
	if err != nil {
		log.Fatal("db connect failed", zap.Error(err))
	}
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Profile{},
		&model.RefreshToken{},
		&model.PasswordResetToken{},
		&model.Address{},
		&model.Category{},
		&model.Product{},
		&model.ProductVariant{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
	); err != nil {
		log.Fatal("auto migrate failed", zap.Error(err))
	}

	//Redis（キャッシュ＋チェックアウトセッション）
	store := cache.NewStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer store.Close()
	{
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			log.Fatal("redis connect failed", zap.Error(err))
		}
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	profileRepo := infraRepo.NewProfileGormRepository(gormDB)
	rtRepo := infraRepo.NewRefreshTokenRepository(gormDB)
	resetRepo := infraRepo.NewPasswordResetRepository(gormDB)
	addressRepo := infraRepo.NewAddressGormRepository(gormDB)
	categoryRepo := infraRepo.NewCategoryGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	variantRepo := infraRepo.NewVariantGormRepository(gormDB)
	cartItemRepo := infraRepo.NewCartItemGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	orderItemRepo := infraRepo.NewOrderItemGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//usecaseに渡す部品
	idGen := &uuidGenerator{}
	clock := &realClock{}

	//メール送信（SMTP未設定ならログに書くだけ）
	var sender mailer.Sender
	if cfg.SMTPHost != "" {
		sender = mailer.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
	} else {
		sender = mailer.NewLogSender(log)
	}
	mail := mailer.NewMailer(sender, orderRepo, orderItemRepo, variantRepo, productRepo, log)

	//決済（シミュレータ。本物のゲートウェイが決まったら差し替え）
	gateway := payment.NewSimulator(log)

	//認証イベント
	events := authevents.NewBroker()
	events.Subscribe(func(e authevents.Event) {
		log.Info("auth event",
			zap.String("type", string(e.Type)),
			zap.String("user_id", e.UserID),
		)
	})
	//ログアウトしたらそのユーザーのカートキャッシュも消す
	events.Subscribe(func(e authevents.Event) {
		if e.Type != authevents.EventSignedOut {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := store.Delete(ctx, cache.Key("cart", e.UserID)); err != nil {
			log.Warn("cart cache cleanup failed", zap.Error(err))
		}
	})

	//Usecase生成
	authValidator := validator.NewAuthValidator(userRepo)
	authUC := usecase.NewAuthUsecase(cfg, userRepo, profileRepo, rtRepo, resetRepo, authValidator, mail, events, idGen, clock, log)
	catalogUC := usecase.NewCatalogUsecase(categoryRepo, productRepo, variantRepo, store, log)
	cartUC := usecase.NewCartUsecase(cartItemRepo, variantRepo, productRepo, store, idGen, log)
	checkoutUC := usecase.NewCheckoutUsecase(txManager, orderRepo, cartItemRepo, gateway, mail, store, idGen, clock, log)
	orderUC := usecase.NewOrderUsecase(orderRepo, orderItemRepo, variantRepo, productRepo)
	addressUC := usecase.NewAddressUsecase(addressRepo, idGen)
	profileUC := usecase.NewProfileUsecase(profileRepo, userRepo)

	//refresh TTL
	refreshTTL := 30 * 24 * time.Hour

	//Handler生成
	h := server.Handlers{
		Auth:     handler.NewAuthHandler(authUC, refreshTTL),
		Catalog:  handler.NewCatalogHandler(catalogUC),
		Cart:     handler.NewCartHandler(cartUC),
		Checkout: handler.NewCheckoutHandler(checkoutUC),
		Order:    handler.NewOrderHandler(orderUC),
		Address:  handler.NewAddressHandler(addressUC),
		Profile:  handler.NewProfileHandler(profileUC),
	}

	//Server起動
	e := server.New(cfg, log, userRepo, h)

	addr := cfg.Port
	if addr == "" {
		addr = ":8080"
	} else if addr[0] != ':' {
		addr = ":" + addr
	}

	log.Info("server starting", zap.String("addr", addr))
	if err := server.Start(e, addr); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
