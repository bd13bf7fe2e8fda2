package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/mercadito-backend/api/controllers"
	"github.com/angelmondragon/mercadito-backend/api/middleware"
	"github.com/angelmondragon/mercadito-backend/api/routes"
	"github.com/angelmondragon/mercadito-backend/internal/auth"
	"github.com/angelmondragon/mercadito-backend/internal/cart"
	"github.com/angelmondragon/mercadito-backend/internal/orders"
	product "github.com/angelmondragon/mercadito-backend/internal/products"
	"github.com/angelmondragon/mercadito-backend/internal/stores"
	"github.com/angelmondragon/mercadito-backend/internal/users"
	"github.com/angelmondragon/mercadito-backend/pkg/auth/session"
	"github.com/angelmondragon/mercadito-backend/pkg/config"
	"github.com/angelmondragon/mercadito-backend/pkg/db"
	"github.com/angelmondragon/mercadito-backend/pkg/env"
	"github.com/angelmondragon/mercadito-backend/pkg/instance"
	"github.com/angelmondragon/mercadito-backend/pkg/logger"
	"github.com/angelmondragon/mercadito-backend/pkg/metrics"
	"github.com/angelmondragon/mercadito-backend/pkg/migrate"
	"github.com/angelmondragon/mercadito-backend/pkg/mongo"
	"github.com/angelmondragon/mercadito-backend/pkg/outbox"
	"github.com/angelmondragon/mercadito-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	ready := map[string]controllers.Pinger{"database": dbClient, "redis": redisClient}

	var cartRepo cart.Repository = cart.NewGormRepository(dbClient.DB())
	var cartPurger stores.CartPurger
	if cfg.Cart.UsesMongo() {
		mongoClient, err := mongo.New(context.Background(), cfg.Mongo, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap mongo", err)
			os.Exit(1)
		}
		defer func() {
			if err := mongoClient.Close(context.Background()); err != nil {
				logg.Error(context.Background(), "error closing mongo", err)
			}
		}()
		mongoCarts := cart.NewMongoRepository(mongoClient.Collection(cart.CollectionName))
		if err := mongoCarts.EnsureIndexes(context.Background()); err != nil {
			logg.Error(context.Background(), "failed to ensure cart indexes", err)
			os.Exit(1)
		}
		cartRepo, cartPurger = mongoCarts, mongoCarts
		ready["mongo"] = mongoClient
	}

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	userRepo := users.NewRepository(dbClient.DB())
	storeRepo := stores.NewRepository(dbClient.DB())
	productRepo := product.NewRepository(dbClient.DB())
	orderRepo := orders.NewRepository(dbClient.DB())
	emitter := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}
	registerService, err := auth.NewRegisterServiceFromDB(dbClient, sessionManager, cfg.JWT, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create register service", err)
		os.Exit(1)
	}
	usersService, err := users.NewService(users.ServiceParams{Repo: userRepo, PasswordConfig: cfg.Password})
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}
	storesService, err := stores.NewService(stores.ServiceParams{
		Repo:     storeRepo,
		TxRunner: dbClient,
		Outbox:   emitter,
		Carts:    cartPurger,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create stores service", err)
		os.Exit(1)
	}
	productsService, err := product.NewService(productRepo, storeRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create products service", err)
		os.Exit(1)
	}
	cartService, err := cart.NewService(cartRepo, storeRepo, productRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	shipping, err := orders.NewFlatRateShipping(cfg.Orders)
	if err != nil {
		logg.Error(context.Background(), "invalid shipping config", err)
		os.Exit(1)
	}
	numberer, err := orders.NewRedisNumberer(redisClient, cfg.Orders.NumberKey, orderRepo.MaxSequence)
	if err != nil {
		logg.Error(context.Background(), "failed to create order numberer", err)
		os.Exit(1)
	}
	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:     orderRepo,
		Stores:   storeRepo,
		Products: productRepo,
		TxRunner: dbClient,
		Outbox:   emitter,
		Numberer: numberer,
		Shipping: shipping,
		Metrics:  metrics.NewOrderMetrics(registry),
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	handler := routes.NewRouter(routes.Deps{
		Config:        cfg,
		Logger:        logg,
		Redis:         redisClient,
		Authenticator: middleware.NewAuthenticator(cfg.JWT, sessionManager, userRepo, logg),
		HTTPMetrics:   metrics.NewHTTPMetrics(registry),
		Gatherer:      registry,
		Ready:         ready,
		Auth:          authService,
		Register:      registerService,
		Users:         usersService,
		Stores:        storesService,
		Products:      productsService,
		Cart:          cartService,
		Sessions:      cart.HeaderCookieResolver{AllowSharedFallback: cfg.Cart.SharedSessionFallback, Logger: logg},
		Orders:        ordersService,
	})

	addr := env.ListenAddr(cfg.App.Port)
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":       cfg.App.Env,
		"addr":      addr,
		"instance":  instance.ID(),
		"cartStore": cfg.Cart.Store,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
